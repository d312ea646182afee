package inmemory

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sharetube/playsync/internal/repository/connection"
)

// repo tracks open websocket connections by participant id so they can be
// closed on shutdown; http.Server.Shutdown does not touch hijacked conns.
type repo struct {
	connList map[*websocket.Conn]string
	idList   map[string]*websocket.Conn
	mu       sync.RWMutex
	logger   *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		connList: make(map[*websocket.Conn]string),
		idList:   make(map[string]*websocket.Conn),
		logger:   logger,
	}
}

func (r *repo) Add(conn *websocket.Conn, participantId string) error {
	funcName := "connection.inmemory.Add"
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug(funcName, "participant_id", participantId)
	if r.connList[conn] != "" || r.idList[participantId] != nil {
		r.logger.Info(funcName, "error", connection.ErrAlreadyExists)
		return connection.ErrAlreadyExists
	}

	r.connList[conn] = participantId
	r.idList[participantId] = conn

	return nil
}

func (r *repo) RemoveByConn(conn *websocket.Conn) (string, error) {
	funcName := "connection.inmemory.RemoveByConn"
	r.mu.Lock()
	defer r.mu.Unlock()

	participantId, ok := r.connList[conn]
	if !ok {
		r.logger.Info(funcName, "error", connection.ErrNotFound)
		return "", connection.ErrNotFound
	}

	delete(r.connList, conn)
	delete(r.idList, participantId)

	r.logger.Debug(funcName, "participant_id", participantId)
	return participantId, nil
}

func (r *repo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.connList)
}

// CloseAll closes and forgets every tracked connection and returns how
// many were closed.
func (r *repo) CloseAll() int {
	r.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(r.connList))
	for conn := range r.connList {
		conns = append(conns, conn)
	}
	r.connList = make(map[*websocket.Conn]string)
	r.idList = make(map[string]*websocket.Conn)
	r.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}

	r.logger.Debug("connection.inmemory.CloseAll", "closed", len(conns))
	return len(conns)
}

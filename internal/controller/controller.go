package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sharetube/playsync/internal/service/room"
	"github.com/sharetube/playsync/pkg/validator"
	"github.com/sharetube/playsync/pkg/wsrouter"
)

type iRoomService interface {
	Join(context.Context, *room.JoinParams) (room.JoinResponse, error)
	Leave(context.Context, *room.LeaveParams) (room.LeaveResponse, error)
	HandleCommand(context.Context, *room.HandleCommandParams) error
	GetRoom(context.Context, string) (room.Room, error)
}

type iConnRepo interface {
	Add(conn *websocket.Conn, participantId string) error
	RemoveByConn(conn *websocket.Conn) (string, error)
}

type Config struct {
	SendBuffer int
	ReadLimit  int64
	PingPeriod time.Duration
}

type controller struct {
	roomService iRoomService
	connRepo    iConnRepo
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	wsmux       *wsrouter.WSRouter
	cfg         Config
	logger      *slog.Logger
}

func NewController(roomService iRoomService, connRepo iConnRepo, cfg *Config, logger *slog.Logger) *controller {
	c := &controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		roomService: roomService,
		connRepo:    connRepo,
		validate:    validator.NewValidator(),
		cfg:         *cfg,
		logger:      logger,
	}
	c.wsmux = c.getWSRouter()

	return c
}

package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sharetube/playsync/internal/domain"
)

const writeWait = 10 * time.Second

var (
	ErrBackpressure = errors.New("send queue full")
	ErrConnClosed   = errors.New("connection closed")
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// participant is a room member backed by a websocket connection. The write
// pump is the only goroutine writing to conn.
type participant struct {
	id     string
	conn   *websocket.Conn
	send   chan []byte
	mu     sync.Mutex
	closed bool
	logger *slog.Logger
}

func newParticipant(id string, conn *websocket.Conn, buffer int, logger *slog.Logger) *participant {
	return &participant{
		id:     id,
		conn:   conn,
		send:   make(chan []byte, buffer),
		logger: logger,
	}
}

func (p *participant) Id() string {
	return p.id
}

// Send queues ev for delivery without blocking.
func (p *participant) Send(ev domain.Event) error {
	data, err := json.Marshal(&Output{
		Type:    ev.Type(),
		Payload: ev,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", ev.Type(), err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrConnClosed
	}

	select {
	case p.send <- data:
		return nil
	default:
		return ErrBackpressure
	}
}

// close stops the write pump once queued messages are flushed.
func (p *participant) close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	close(p.send)
}

// writePump drains the send queue and pings the peer every pingPeriod.
// Closing the connection on exit unblocks the reader.
func (p *participant) writePump(ctx context.Context, pingPeriod time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		p.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-p.send:
			if err := p.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				p.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := p.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				p.logger.DebugContext(ctx, "failed to write message", "error", err)
				return
			}
		case <-ticker.C:
			if err := p.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				p.logger.DebugContext(ctx, "failed to write ping", "error", err)
				return
			}
		}
	}
}

// keepAlive makes reads fail when the peer stops answering pings.
func (p *participant) keepAlive(pingPeriod time.Duration) {
	pongWait := pingPeriod * 10 / 9
	p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

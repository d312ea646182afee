package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/sharetube/playsync/internal/repository/connection"
	"github.com/sharetube/playsync/internal/service/room"
	"github.com/sharetube/playsync/pkg/ctxlogger"
)

func (c controller) connect(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")
	if roomId == "" {
		c.writeError(w, http.StatusBadRequest, room.ErrEmptyRoomId)
		return
	}

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}
	conn.SetReadLimit(c.cfg.ReadLimit)

	participantId := c.generateTimeBasedId()
	ctx := ctxlogger.AppendCtx(r.Context(), slog.String("room_id", roomId))
	ctx = ctxlogger.AppendCtx(ctx, slog.String("participant_id", participantId))
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := c.connRepo.Add(conn, participantId); err != nil {
		c.logger.WarnContext(ctx, "failed to track connection", "error", err)
		conn.Close()
		return
	}

	p := newParticipant(participantId, conn, c.cfg.SendBuffer, c.logger)
	p.keepAlive(c.cfg.PingPeriod)
	go p.writePump(ctx, c.cfg.PingPeriod)

	if _, err := c.roomService.Join(ctx, &room.JoinParams{
		RoomId:      roomId,
		Participant: p,
	}); err != nil {
		c.logger.WarnContext(ctx, "failed to join room", "error", err)
		c.disconnect(ctx, conn, p)
		return
	}
	defer c.leave(ctx, conn, roomId, p)

	ctx = context.WithValue(ctx, roomIdCtxKey, roomId)
	ctx = context.WithValue(ctx, participantCtxKey, p)

	if err := c.wsmux.ServeConn(ctx, conn); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			c.logger.InfoContext(ctx, "connection closed", "error", err)
		} else {
			c.logger.DebugContext(ctx, "connection closed", "error", err)
		}
	}
}

func (c controller) leave(ctx context.Context, conn *websocket.Conn, roomId string, p *participant) {
	resp, err := c.roomService.Leave(ctx, &room.LeaveParams{
		RoomId:        roomId,
		ParticipantId: p.Id(),
	})
	if err != nil {
		c.logger.WarnContext(ctx, "failed to leave room", "error", err)
	} else if resp.IsRoomDeleted {
		c.logger.InfoContext(ctx, "room deleted")
	}

	c.disconnect(ctx, conn, p)
}

func (c controller) disconnect(ctx context.Context, conn *websocket.Conn, p *participant) {
	p.close()
	if _, err := c.connRepo.RemoveByConn(conn); err != nil && !errors.Is(err, connection.ErrNotFound) {
		c.logger.DebugContext(ctx, "failed to untrack connection", "error", err)
	}
}

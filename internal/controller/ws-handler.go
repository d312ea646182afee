package controller

import (
	"context"
	"encoding/json"

	"github.com/sharetube/playsync/internal/domain"
	"github.com/sharetube/playsync/internal/service/room"
	"github.com/sharetube/playsync/pkg/wsrouter"
)

type EmptyInput struct{}

type TrackInput struct {
	VideoId string `json:"video_id" validate:"required,max=64"`
	Title   string `json:"title" validate:"max=512"`
}

type SetPlaylistInput struct {
	PlaylistId *string       `json:"playlist_id" validate:"omitempty,min=1,max=128"`
	Playlist   *[]TrackInput `json:"playlist" validate:"omitempty,dive"`
}

func (c controller) handleSetPlaylist(ctx context.Context, input SetPlaylistInput) error {
	cmd := domain.SetPlaylist{PlaylistId: input.PlaylistId}
	if input.Playlist != nil {
		playlist := make(domain.Playlist, 0, len(*input.Playlist))
		for _, track := range *input.Playlist {
			playlist = append(playlist, domain.Track{
				VideoId: track.VideoId,
				Title:   track.Title,
			})
		}
		cmd.Playlist = &playlist
	}

	return c.handleCommand(ctx, cmd)
}

func (c controller) handlePlay(ctx context.Context, _ EmptyInput) error {
	return c.handleCommand(ctx, domain.Play{})
}

func (c controller) handlePause(ctx context.Context, _ EmptyInput) error {
	return c.handleCommand(ctx, domain.Pause{})
}

type SeekInput struct {
	Seconds *float64 `json:"seconds" validate:"required"`
}

func (c controller) handleSeek(ctx context.Context, input SeekInput) error {
	return c.handleCommand(ctx, domain.Seek{Seconds: *input.Seconds})
}

func (c controller) handleNext(ctx context.Context, _ EmptyInput) error {
	return c.handleCommand(ctx, domain.Next{})
}

func (c controller) handlePrev(ctx context.Context, _ EmptyInput) error {
	return c.handleCommand(ctx, domain.Prev{})
}

func (c controller) handlePing(ctx context.Context, _ EmptyInput) error {
	return c.handleCommand(ctx, domain.Ping{})
}

func (c controller) handleUnknown(ctx context.Context, _ json.RawMessage) error {
	return c.handleCommand(ctx, domain.Unrecognized{Type: wsrouter.GetMessageTypeFromCtx(ctx)})
}

func (c controller) handleCommand(ctx context.Context, cmd domain.Command) error {
	return c.roomService.HandleCommand(ctx, &room.HandleCommandParams{
		RoomId:  c.getRoomIdFromCtx(ctx),
		Sender:  c.getParticipantFromCtx(ctx),
		Command: cmd,
	})
}

// handleError reports a failed message to the participant that sent it.
func (c controller) handleError(ctx context.Context, err error) {
	c.logger.InfoContext(ctx, "failed to handle websocket message", "message_type", wsrouter.GetMessageTypeFromCtx(ctx), "error", err)

	p := c.getParticipantFromCtx(ctx)
	if p == nil {
		return
	}

	if err := p.Send(domain.ErrorEvent{Message: err.Error()}); err != nil {
		c.logger.DebugContext(ctx, "failed to send error", "error", err)
	}
}

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New(c.validate)
	mux.Use(c.wsRequestIdWSMw(), c.loggerWSMw())
	mux.OnError(c.handleError)

	// playlist
	wsrouter.Handle(mux, domain.CommandSetPlaylist, c.handleSetPlaylist)
	wsrouter.Handle(mux, domain.CommandNext, c.handleNext)
	wsrouter.Handle(mux, domain.CommandPrev, c.handlePrev)

	// player
	wsrouter.Handle(mux, domain.CommandPlay, c.handlePlay)
	wsrouter.Handle(mux, domain.CommandPause, c.handlePause)
	wsrouter.Handle(mux, domain.CommandSeek, c.handleSeek)

	// clock
	wsrouter.Handle(mux, domain.CommandPing, c.handlePing)

	mux.NotFound(c.handleUnknown)

	return mux
}

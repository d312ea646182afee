package room

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sharetube/playsync/internal/domain"
)

var (
	ErrEmptyRoomId          = errors.New("empty room id")
	ErrRoomNotFound         = errors.New("room not found")
	ErrParticipantNotFound  = errors.New("participant not found")
	ErrUnrecognizedCommand  = errors.New("unrecognized command")
	ErrPlaylistLimitReached = errors.New("playlist limit reached")
	ErrResolvePlaylist      = errors.New("failed to resolve playlist")
)

// Participant is a connected client. Send must not block: it either
// queues the event for delivery or fails.
type Participant interface {
	Id() string
	Send(domain.Event) error
}

type iPlaylistResolver interface {
	Resolve(ctx context.Context, playlistId string) (domain.Playlist, error)
}

type Config struct {
	// PlaylistLimit caps playlist length; 0 means unlimited.
	PlaylistLimit  int
	ResolveTimeout time.Duration
}

type service struct {
	registry *registry
	deps     *sessionDeps
	logger   *slog.Logger
}

func NewService(resolver iPlaylistResolver, clock domain.Clock, cfg *Config, logger *slog.Logger) *service {
	deps := &sessionDeps{
		resolver:       resolver,
		clock:          clock,
		playlistLimit:  cfg.PlaylistLimit,
		resolveTimeout: cfg.ResolveTimeout,
		logger:         logger,
	}

	return &service{
		registry: newRegistry(deps),
		deps:     deps,
		logger:   logger,
	}
}

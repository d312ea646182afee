package room

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/sharetube/playsync/internal/domain"
	"golang.org/x/exp/maps"
)

type sessionDeps struct {
	resolver       iPlaylistResolver
	clock          domain.Clock
	playlistLimit  int
	resolveTimeout time.Duration
	logger         *slog.Logger
}

// session owns one room's state and participants. Every mutation and every
// broadcast happens under mu, so all participants observe the same event
// order and a joining participant gets its snapshot before anything else.
type session struct {
	roomId       string
	deps         *sessionDeps
	logger       *slog.Logger
	mu           sync.Mutex
	state        domain.RoomState
	participants map[string]Participant
	// closed is set once the last participant left; a closed session is
	// never reused.
	closed bool
}

func newSession(roomId string, deps *sessionDeps) *session {
	return &session{
		roomId:       roomId,
		deps:         deps,
		logger:       deps.logger.With("room_id", roomId),
		state:        domain.NewRoomState(),
		participants: make(map[string]Participant),
	}
}

func (s *session) add(p Participant) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	s.participants[p.Id()] = p
	if err := p.Send(domain.NewStateEvent(s.state)); err != nil {
		s.logger.Warn("failed to send snapshot", "participant_id", p.Id(), "error", err)
	}

	s.logger.Debug("participant joined", "participant_id", p.Id(), "participants", len(s.participants))
	return true
}

func (s *session) remove(participantId string, onEmpty func(*session)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.participants[participantId]; !ok {
		return false, ErrParticipantNotFound
	}

	delete(s.participants, participantId)
	s.logger.Debug("participant left", "participant_id", participantId, "participants", len(s.participants))

	if len(s.participants) > 0 {
		return false, nil
	}

	s.closed = true
	onEmpty(s)
	return true, nil
}

// handle applies cmd on behalf of sender. Commands of one session are
// applied one at a time in lock acquisition order.
func (s *session) handle(ctx context.Context, sender Participant, cmd domain.Command) error {
	if _, ok := cmd.(domain.Ping); ok {
		// no state involved; answering outside the lock keeps clock sync
		// accurate while a playlist is being resolved
		outcome := domain.Apply(domain.RoomState{}, cmd, s.deps.clock.Now())
		return s.unicast(sender, outcome.Event)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrRoomNotFound
	}
	if _, ok := s.participants[sender.Id()]; !ok {
		return ErrParticipantNotFound
	}

	cmd, err := s.prepare(ctx, cmd)
	if err != nil {
		return err
	}

	outcome := domain.Apply(s.state, cmd, s.deps.clock.Now())
	s.state = outcome.State

	switch outcome.Scope {
	case domain.ScopeRoom:
		s.broadcast(outcome.Event)
	case domain.ScopeSender:
		return s.unicast(sender, outcome.Event)
	case domain.ScopeNone:
		if unknown, ok := cmd.(domain.Unrecognized); ok {
			return fmt.Errorf("%w: %q", ErrUnrecognizedCommand, unknown.Type)
		}
	}

	return nil
}

// prepare resolves SetPlaylist commands that reference a playlist by id.
// It runs under the session lock, so other commands of this room wait for
// the lookup while other rooms are unaffected.
func (s *session) prepare(ctx context.Context, cmd domain.Command) (domain.Command, error) {
	c, ok := cmd.(domain.SetPlaylist)
	if !ok {
		return cmd, nil
	}

	if c.NeedsResolve() {
		resolveCtx := ctx
		if s.deps.resolveTimeout > 0 {
			var cancel context.CancelFunc
			resolveCtx, cancel = context.WithTimeout(ctx, s.deps.resolveTimeout)
			defer cancel()
		}

		resolved, err := s.deps.resolver.Resolve(resolveCtx, *c.PlaylistId)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrResolvePlaylist, *c.PlaylistId, err)
		}
		c.Playlist = &resolved
	}

	if c.Playlist != nil && s.deps.playlistLimit > 0 && c.Playlist.Length() > s.deps.playlistLimit {
		return nil, ErrPlaylistLimitReached
	}

	return c, nil
}

func (s *session) unicast(p Participant, ev domain.Event) error {
	if err := p.Send(ev); err != nil {
		return fmt.Errorf("failed to send %s: %w", ev.Type(), err)
	}

	return nil
}

func (s *session) snapshot() (domain.RoomState, []string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.RoomState{}, nil, false
	}

	ids := maps.Keys(s.participants)
	slices.Sort(ids)

	return s.state.Clone(), ids, true
}

package room

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/sharetube/playsync/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errQueueFull = errors.New("queue full")

type fakeParticipant struct {
	id string

	mu     sync.Mutex
	events []domain.Event
	fail   bool
}

func newParticipant(id string) *fakeParticipant {
	return &fakeParticipant{id: id}
}

func (p *fakeParticipant) Id() string { return p.id }

func (p *fakeParticipant) Send(ev domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.fail {
		return errQueueFull
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *fakeParticipant) received() []domain.Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]domain.Event(nil), p.events...)
}

func (p *fakeParticipant) types() []string {
	var types []string
	for _, ev := range p.received() {
		types = append(types, ev.Type())
	}
	return types
}

func (p *fakeParticipant) last() domain.Event {
	evs := p.received()
	if len(evs) == 0 {
		return nil
	}
	return evs[len(evs)-1]
}

type fakeClock struct {
	mu  sync.Mutex
	now float64
}

func (c *fakeClock) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(d float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += d
}

type fakeResolver struct {
	playlists map[string]domain.Playlist
	err       error
	delay     time.Duration
}

func (r *fakeResolver) Resolve(ctx context.Context, id string) (domain.Playlist, error) {
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	pl, ok := r.playlists[id]
	if !ok {
		return nil, errors.New("unknown playlist")
	}
	return pl.Clone(), nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func threeTracks() domain.Playlist {
	return domain.Playlist{{VideoId: "a", Title: "A"}, {VideoId: "b", Title: "B"}, {VideoId: "c", Title: "C"}}
}

func newTestService(resolver iPlaylistResolver, cfg *Config) (*service, *fakeClock) {
	if resolver == nil {
		resolver = &fakeResolver{}
	}
	if cfg == nil {
		cfg = &Config{}
	}
	clock := &fakeClock{now: 100}
	return NewService(resolver, clock, cfg, discardLogger()), clock
}

func join(t *testing.T, s *service, roomId string, p Participant) JoinResponse {
	t.Helper()
	resp, err := s.Join(context.Background(), &JoinParams{RoomId: roomId, Participant: p})
	require.NoError(t, err)
	return resp
}

func command(t *testing.T, s *service, roomId string, p Participant, cmd domain.Command) {
	t.Helper()
	require.NoError(t, s.HandleCommand(context.Background(), &HandleCommandParams{RoomId: roomId, Sender: p, Command: cmd}))
}

func inline(pl domain.Playlist) domain.SetPlaylist {
	return domain.SetPlaylist{Playlist: &pl}
}

func TestJoinSendsSnapshotFirst(t *testing.T) {
	s, _ := newTestService(nil, nil)
	alice := newParticipant("alice")

	resp := join(t, s, "room", alice)
	assert.True(t, resp.IsRoomCreated)

	require.Len(t, alice.received(), 1)
	snapshot, ok := alice.received()[0].(domain.StateEvent)
	require.True(t, ok)
	assert.Equal(t, domain.NewRoomState(), snapshot.RoomState)

	command(t, s, "room", alice, inline(threeTracks()))
	command(t, s, "room", alice, domain.Play{})

	bob := newParticipant("bob")
	resp = join(t, s, "room", bob)
	assert.False(t, resp.IsRoomCreated)

	require.Equal(t, []string{domain.EventState}, bob.types())
	snapshot = bob.received()[0].(domain.StateEvent)
	assert.True(t, snapshot.IsPlaying)
	assert.Equal(t, threeTracks(), snapshot.Playlist)
	require.NotNil(t, snapshot.PlayAnchorTime)
	assert.Equal(t, 100.0, *snapshot.PlayAnchorTime)
}

func TestJoinEmptyRoomId(t *testing.T) {
	s, _ := newTestService(nil, nil)

	_, err := s.Join(context.Background(), &JoinParams{RoomId: "", Participant: newParticipant("p")})

	assert.ErrorIs(t, err, ErrEmptyRoomId)
}

func TestLastLeaveDestroysRoom(t *testing.T) {
	s, _ := newTestService(nil, nil)
	alice := newParticipant("alice")
	bob := newParticipant("bob")
	join(t, s, "room", alice)
	join(t, s, "room", bob)
	command(t, s, "room", alice, inline(threeTracks()))
	command(t, s, "room", alice, domain.Next{})

	resp, err := s.Leave(context.Background(), &LeaveParams{RoomId: "room", ParticipantId: "alice"})
	require.NoError(t, err)
	assert.False(t, resp.IsRoomDeleted)

	resp, err = s.Leave(context.Background(), &LeaveParams{RoomId: "room", ParticipantId: "bob"})
	require.NoError(t, err)
	assert.True(t, resp.IsRoomDeleted)
	assert.Equal(t, 0, s.RoomsCount())

	_, err = s.GetRoom(context.Background(), "room")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	carol := newParticipant("carol")
	created := join(t, s, "room", carol)
	assert.True(t, created.IsRoomCreated)
	snapshot := carol.received()[0].(domain.StateEvent)
	assert.Equal(t, domain.NewRoomState(), snapshot.RoomState)
}

func TestLeaveUnknown(t *testing.T) {
	s, _ := newTestService(nil, nil)

	_, err := s.Leave(context.Background(), &LeaveParams{RoomId: "nope", ParticipantId: "p"})
	assert.ErrorIs(t, err, ErrRoomNotFound)

	join(t, s, "room", newParticipant("alice"))
	_, err = s.Leave(context.Background(), &LeaveParams{RoomId: "room", ParticipantId: "bob"})
	assert.ErrorIs(t, err, ErrParticipantNotFound)
}

func TestHandleCommandUnknownRoom(t *testing.T) {
	s, _ := newTestService(nil, nil)

	err := s.HandleCommand(context.Background(), &HandleCommandParams{
		RoomId:  "nope",
		Sender:  newParticipant("p"),
		Command: domain.Play{},
	})

	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestHandleCommandFromNonMember(t *testing.T) {
	s, _ := newTestService(nil, nil)
	join(t, s, "room", newParticipant("alice"))

	err := s.HandleCommand(context.Background(), &HandleCommandParams{
		RoomId:  "room",
		Sender:  newParticipant("mallory"),
		Command: domain.Play{},
	})

	assert.ErrorIs(t, err, ErrParticipantNotFound)
}

func TestBroadcastReachesEveryParticipant(t *testing.T) {
	s, clock := newTestService(nil, nil)
	alice := newParticipant("alice")
	bob := newParticipant("bob")
	join(t, s, "room", alice)
	join(t, s, "room", bob)
	command(t, s, "room", alice, inline(threeTracks()))

	command(t, s, "room", bob, domain.Play{})
	clock.advance(5)
	command(t, s, "room", alice, domain.Pause{})

	for _, p := range []*fakeParticipant{alice, bob} {
		assert.Equal(t, []string{domain.EventState, domain.EventState, domain.EventPlay, domain.EventPause}, p.types())
		pause := p.last().(domain.PauseEvent)
		assert.InDelta(t, 5.0, pause.SeekOffset, 1e-9)
	}

	room, err := s.GetRoom(context.Background(), "room")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, room.Participants)
	assert.False(t, room.State.IsPlaying)
	assert.InDelta(t, 5.0, room.Position, 1e-9)
}

func TestGetRoomPositionAdvancesWhilePlaying(t *testing.T) {
	s, clock := newTestService(nil, nil)
	alice := newParticipant("alice")
	join(t, s, "room", alice)
	command(t, s, "room", alice, inline(threeTracks()))
	command(t, s, "room", alice, domain.Seek{Seconds: 10})
	command(t, s, "room", alice, domain.Play{})

	clock.advance(2.5)

	room, err := s.GetRoom(context.Background(), "room")
	require.NoError(t, err)
	assert.InDelta(t, 12.5, room.Position, 1e-9)
}

func TestPingAnsweredToSenderOnly(t *testing.T) {
	s, clock := newTestService(nil, nil)
	alice := newParticipant("alice")
	bob := newParticipant("bob")
	join(t, s, "room", alice)
	join(t, s, "room", bob)
	clock.advance(1.5)

	command(t, s, "room", alice, domain.Ping{})

	pong, ok := alice.last().(domain.PongEvent)
	require.True(t, ok)
	assert.Equal(t, 101.5, pong.ServerTime)
	assert.Equal(t, []string{domain.EventState}, bob.types())
}

func TestUnrecognizedCommand(t *testing.T) {
	s, _ := newTestService(nil, nil)
	alice := newParticipant("alice")
	join(t, s, "room", alice)

	err := s.HandleCommand(context.Background(), &HandleCommandParams{
		RoomId:  "room",
		Sender:  alice,
		Command: domain.Unrecognized{Type: "SHUFFLE"},
	})

	assert.ErrorIs(t, err, ErrUnrecognizedCommand)
	assert.Equal(t, []string{domain.EventState}, alice.types())
}

func TestSetPlaylistResolvesById(t *testing.T) {
	resolver := &fakeResolver{playlists: map[string]domain.Playlist{"PL1": threeTracks()}}
	s, _ := newTestService(resolver, nil)
	alice := newParticipant("alice")
	join(t, s, "room", alice)

	id := "PL1"
	command(t, s, "room", alice, domain.SetPlaylist{PlaylistId: &id})

	ev, ok := alice.last().(domain.StateEvent)
	require.True(t, ok)
	assert.Equal(t, threeTracks(), ev.Playlist)
	require.NotNil(t, ev.PlaylistId)
	assert.Equal(t, "PL1", *ev.PlaylistId)
}

func TestSetPlaylistResolutionFailureKeepsState(t *testing.T) {
	resolver := &fakeResolver{err: errors.New("upstream down")}
	s, _ := newTestService(resolver, nil)
	alice := newParticipant("alice")
	join(t, s, "room", alice)
	command(t, s, "room", alice, inline(threeTracks()))
	command(t, s, "room", alice, domain.Next{})
	before, err := s.GetRoom(context.Background(), "room")
	require.NoError(t, err)
	delivered := len(alice.received())

	id := "PL1"
	err = s.HandleCommand(context.Background(), &HandleCommandParams{
		RoomId:  "room",
		Sender:  alice,
		Command: domain.SetPlaylist{PlaylistId: &id},
	})

	assert.ErrorIs(t, err, ErrResolvePlaylist)
	after, err := s.GetRoom(context.Background(), "room")
	require.NoError(t, err)
	assert.Equal(t, before.State, after.State)
	assert.Len(t, alice.received(), delivered)
}

func TestSetPlaylistResolveTimeout(t *testing.T) {
	resolver := &fakeResolver{delay: time.Second, playlists: map[string]domain.Playlist{"PL1": threeTracks()}}
	s, _ := newTestService(resolver, &Config{ResolveTimeout: 20 * time.Millisecond})
	alice := newParticipant("alice")
	join(t, s, "room", alice)

	id := "PL1"
	err := s.HandleCommand(context.Background(), &HandleCommandParams{
		RoomId:  "room",
		Sender:  alice,
		Command: domain.SetPlaylist{PlaylistId: &id},
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrResolvePlaylist)
}

func TestPlaylistLimit(t *testing.T) {
	s, _ := newTestService(nil, &Config{PlaylistLimit: 2})
	alice := newParticipant("alice")
	join(t, s, "room", alice)

	err := s.HandleCommand(context.Background(), &HandleCommandParams{
		RoomId:  "room",
		Sender:  alice,
		Command: inline(threeTracks()),
	})

	assert.ErrorIs(t, err, ErrPlaylistLimitReached)
	room, err := s.GetRoom(context.Background(), "room")
	require.NoError(t, err)
	assert.Empty(t, room.State.Playlist)
}

func TestFailedDeliveryDoesNotBlockOthers(t *testing.T) {
	s, _ := newTestService(nil, nil)
	alice := newParticipant("alice")
	slow := newParticipant("slow")
	join(t, s, "room", alice)
	join(t, s, "room", slow)
	command(t, s, "room", alice, inline(threeTracks()))

	slow.mu.Lock()
	slow.fail = true
	slow.mu.Unlock()

	command(t, s, "room", alice, domain.Play{})

	assert.Equal(t, domain.EventPlay, alice.last().Type())
	assert.Equal(t, domain.EventState, slow.last().Type())
}

func TestConcurrentNextAdvancesOnce(t *testing.T) {
	s, _ := newTestService(nil, nil)
	alice := newParticipant("alice")
	bob := newParticipant("bob")
	join(t, s, "room", alice)
	join(t, s, "room", bob)
	command(t, s, "room", alice, inline(domain.Playlist{{VideoId: "a"}, {VideoId: "b"}}))

	var wg sync.WaitGroup
	for _, p := range []*fakeParticipant{alice, bob} {
		wg.Add(1)
		go func(p *fakeParticipant) {
			defer wg.Done()
			assert.NoError(t, s.HandleCommand(context.Background(), &HandleCommandParams{RoomId: "room", Sender: p, Command: domain.Next{}}))
		}(p)
	}
	wg.Wait()

	room, err := s.GetRoom(context.Background(), "room")
	require.NoError(t, err)
	assert.Equal(t, 1, room.State.Index)
}

func TestParticipantsObserveSameOrder(t *testing.T) {
	s, clock := newTestService(nil, nil)
	participants := []*fakeParticipant{newParticipant("a"), newParticipant("b"), newParticipant("c")}
	for _, p := range participants {
		join(t, s, "room", p)
	}
	command(t, s, "room", participants[0], inline(threeTracks()))
	baseline := make([]int, len(participants))
	for i, p := range participants {
		baseline[i] = len(p.received())
	}

	cmds := []domain.Command{domain.Play{}, domain.Pause{}, domain.Seek{Seconds: 3}, domain.Next{}, domain.Prev{}}
	var wg sync.WaitGroup
	for i, p := range participants {
		wg.Add(1)
		go func(i int, p *fakeParticipant) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				clock.advance(0.01)
				assert.NoError(t, s.HandleCommand(context.Background(), &HandleCommandParams{
					RoomId:  "room",
					Sender:  p,
					Command: cmds[(i+j)%len(cmds)],
				}))
			}
		}(i, p)
	}
	wg.Wait()

	reference := participants[0].received()[baseline[0]:]
	require.Len(t, reference, 60)
	for i, p := range participants[1:] {
		assert.Equal(t, reference, p.received()[baseline[i+1]:])
	}
}

package room

import (
	"sync"
)

// registry maps room ids to live sessions. Its lock only guards the map;
// each session serializes its own state. A session is in the map iff it
// has at least one participant.
//
// Lock order is session then registry: release is called with the session
// lock held, acquire never waits on a session while holding r.mu.
type registry struct {
	mu       sync.Mutex
	sessions map[string]*session
	deps     *sessionDeps
}

func newRegistry(deps *sessionDeps) *registry {
	return &registry{
		sessions: make(map[string]*session),
		deps:     deps,
	}
}

// join adds p to the room, creating the session if needed, and returns
// the session p was added to. A session torn down between lookup and add
// rejects p, in which case a fresh session is created.
func (r *registry) join(roomId string, p Participant) (*session, bool) {
	for {
		s, created := r.acquire(roomId)
		if s.add(p) {
			return s, created
		}
	}
}

// leave removes a participant and tears the session down when it empties.
func (r *registry) leave(roomId, participantId string) (roomDeleted bool, err error) {
	s, ok := r.get(roomId)
	if !ok {
		return false, ErrRoomNotFound
	}

	return s.remove(participantId, r.release)
}

func (r *registry) acquire(roomId string) (*session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[roomId]; ok {
		return s, false
	}

	s := newSession(roomId, r.deps)
	r.sessions[roomId] = s
	r.deps.logger.Info("room created", "room_id", roomId)

	return s, true
}

func (r *registry) get(roomId string) (*session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[roomId]
	return s, ok
}

// release drops s from the map unless the id already points elsewhere.
func (r *registry) release(s *session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sessions[s.roomId] == s {
		delete(r.sessions, s.roomId)
		r.deps.logger.Info("room deleted", "room_id", s.roomId)
	}
}

func (r *registry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}

package room

import (
	"context"
	"fmt"
)

// Join adds the participant to the room, creating the room on first join.
// The participant receives a STATE snapshot before any other room event.
func (s service) Join(ctx context.Context, params *JoinParams) (JoinResponse, error) {
	if params.RoomId == "" {
		return JoinResponse{}, ErrEmptyRoomId
	}

	_, created := s.registry.join(params.RoomId, params.Participant)
	s.logger.DebugContext(ctx, "joined room", "room_id", params.RoomId, "participant_id", params.Participant.Id(), "created", created)

	return JoinResponse{IsRoomCreated: created}, nil
}

// Leave removes the participant; the room is destroyed with its last
// participant and a later join starts from a fresh state.
func (s service) Leave(ctx context.Context, params *LeaveParams) (LeaveResponse, error) {
	deleted, err := s.registry.leave(params.RoomId, params.ParticipantId)
	if err != nil {
		return LeaveResponse{}, fmt.Errorf("failed to leave room: %w", err)
	}

	s.logger.DebugContext(ctx, "left room", "room_id", params.RoomId, "participant_id", params.ParticipantId, "deleted", deleted)
	return LeaveResponse{IsRoomDeleted: deleted}, nil
}

func (s service) GetRoom(_ context.Context, roomId string) (Room, error) {
	sess, ok := s.registry.get(roomId)
	if !ok {
		return Room{}, ErrRoomNotFound
	}

	state, participants, ok := sess.snapshot()
	if !ok {
		return Room{}, ErrRoomNotFound
	}

	return Room{
		RoomId:       roomId,
		Participants: participants,
		State:        state,
		Position:     state.Position(s.deps.clock.Now()),
	}, nil
}

func (s service) RoomsCount() int {
	return s.registry.count()
}

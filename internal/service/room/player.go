package room

import (
	"context"
	"fmt"
)

// HandleCommand applies a playback command to the sender's room and
// delivers the resulting event. Errors concern the sender only; the room
// state is left unchanged when a command fails.
func (s service) HandleCommand(ctx context.Context, params *HandleCommandParams) error {
	sess, ok := s.registry.get(params.RoomId)
	if !ok {
		return ErrRoomNotFound
	}

	if err := sess.handle(ctx, params.Sender, params.Command); err != nil {
		return fmt.Errorf("failed to handle %s: %w", params.Command.Kind(), err)
	}

	return nil
}

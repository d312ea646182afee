package room

import "github.com/sharetube/playsync/internal/domain"

type Room struct {
	RoomId       string           `json:"room_id"`
	Participants []string         `json:"participants"`
	State        domain.RoomState `json:"state"`
	Position     float64          `json:"position"`
}

type JoinParams struct {
	RoomId      string
	Participant Participant
}

type JoinResponse struct {
	IsRoomCreated bool
}

type LeaveParams struct {
	RoomId        string
	ParticipantId string
}

type LeaveResponse struct {
	IsRoomDeleted bool
}

type HandleCommandParams struct {
	RoomId  string
	Sender  Participant
	Command domain.Command
}

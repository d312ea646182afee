package domain

const (
	EventState = "STATE"
	EventPlay  = "PLAY"
	EventPause = "PAUSE"
	EventSeek  = "SEEK"
	EventPong  = "PONG"
	EventError = "ERROR"
)

// Event is an outbound message. Its JSON encoding is the event payload.
type Event interface {
	Type() string
}

type StateEvent struct {
	RoomState
}

func (StateEvent) Type() string { return EventState }

type PlayEvent struct {
	Index          int      `json:"index"`
	SeekOffset     float64  `json:"seek_offset"`
	PlayAnchorTime *float64 `json:"play_anchor_time"`
}

func (PlayEvent) Type() string { return EventPlay }

type PauseEvent struct {
	SeekOffset float64 `json:"seek_offset"`
}

func (PauseEvent) Type() string { return EventPause }

type SeekEvent struct {
	SeekOffset     float64  `json:"seek_offset"`
	PlayAnchorTime *float64 `json:"play_anchor_time"`
}

func (SeekEvent) Type() string { return EventSeek }

// PongEvent is only ever sent to the participant that pinged.
type PongEvent struct {
	ServerTime float64 `json:"server_time"`
}

func (PongEvent) Type() string { return EventPong }

// ErrorEvent reports a failed command to its originator.
type ErrorEvent struct {
	Message string `json:"message"`
}

func (ErrorEvent) Type() string { return EventError }

func NewStateEvent(state RoomState) StateEvent {
	return StateEvent{RoomState: state.Clone()}
}

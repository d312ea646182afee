package domain

// Scope says who receives the event produced by a command.
type Scope int

const (
	ScopeRoom Scope = iota
	ScopeSender
	// ScopeNone is used for commands that change nothing and report nothing.
	ScopeNone
)

type Outcome struct {
	State RoomState
	Event Event
	Scope Scope
}

// Apply is the room state machine. It never mutates state in place and
// never performs I/O: SetPlaylist commands must already carry a playlist
// when they need one resolved by id.
func Apply(state RoomState, cmd Command, now float64) Outcome {
	next := state.Clone()

	switch c := cmd.(type) {
	case SetPlaylist:
		return applySetPlaylist(next, c)
	case Play:
		next.IsPlaying = true
		next.anchorAt(now)
		return Outcome{
			State: next,
			Event: PlayEvent{
				Index:          next.Index,
				SeekOffset:     next.SeekOffset,
				PlayAnchorTime: copyFloat(next.PlayAnchorTime),
			},
			Scope: ScopeRoom,
		}
	case Pause:
		next.SeekOffset = clampOffset(next.Position(now))
		next.IsPlaying = false
		next.clearAnchor()
		return Outcome{
			State: next,
			Event: PauseEvent{SeekOffset: next.SeekOffset},
			Scope: ScopeRoom,
		}
	case Seek:
		next.SeekOffset = clampOffset(c.Seconds)
		if next.IsPlaying {
			next.anchorAt(now)
		}
		return Outcome{
			State: next,
			Event: SeekEvent{
				SeekOffset:     next.SeekOffset,
				PlayAnchorTime: copyFloat(next.PlayAnchorTime),
			},
			Scope: ScopeRoom,
		}
	case Next:
		if next.Index < next.Playlist.LastIndex() {
			next.Index++
		}
		return changeTrack(next, now)
	case Prev:
		if next.Index > 0 {
			next.Index--
		}
		return changeTrack(next, now)
	case Ping:
		return Outcome{
			State: next,
			Event: PongEvent{ServerTime: now},
			Scope: ScopeSender,
		}
	default:
		return Outcome{State: next, Scope: ScopeNone}
	}
}

func applySetPlaylist(next RoomState, c SetPlaylist) Outcome {
	next.PlaylistId = copyString(c.PlaylistId)
	next.Playlist = Playlist{}
	if c.Playlist != nil {
		next.Playlist = c.Playlist.Clone()
	}
	next.Index = 0
	next.IsPlaying = false
	next.SeekOffset = 0
	next.clearAnchor()

	return Outcome{State: next, Event: NewStateEvent(next), Scope: ScopeRoom}
}

func changeTrack(next RoomState, now float64) Outcome {
	next.SeekOffset = 0
	if next.IsPlaying {
		next.anchorAt(now)
	} else {
		next.clearAnchor()
	}

	return Outcome{State: next, Event: NewStateEvent(next), Scope: ScopeRoom}
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

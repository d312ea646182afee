package domain

// RoomState is the authoritative playback timeline of a room.
//
// PlayAnchorTime is set iff IsPlaying. While playing the live position is
// derived as SeekOffset + (now - PlayAnchorTime) and never stored.
type RoomState struct {
	PlaylistId     *string  `json:"playlist_id"`
	Playlist       Playlist `json:"playlist"`
	Index          int      `json:"index"`
	IsPlaying      bool     `json:"is_playing"`
	SeekOffset     float64  `json:"seek_offset"`
	PlayAnchorTime *float64 `json:"play_anchor_time"`
}

func NewRoomState() RoomState {
	return RoomState{
		PlaylistId:     nil,
		Playlist:       Playlist{},
		Index:          0,
		IsPlaying:      false,
		SeekOffset:     0,
		PlayAnchorTime: nil,
	}
}

// Position returns the playback position in seconds at server time now.
func (s RoomState) Position(now float64) float64 {
	if !s.IsPlaying || s.PlayAnchorTime == nil {
		return s.SeekOffset
	}

	return s.SeekOffset + elapsed(*s.PlayAnchorTime, now)
}

// Clone returns a deep copy safe to hand out of the owning session.
func (s RoomState) Clone() RoomState {
	clone := s
	clone.Playlist = s.Playlist.Clone()
	if s.PlaylistId != nil {
		id := *s.PlaylistId
		clone.PlaylistId = &id
	}
	if s.PlayAnchorTime != nil {
		anchor := *s.PlayAnchorTime
		clone.PlayAnchorTime = &anchor
	}

	return clone
}

func (s *RoomState) anchorAt(now float64) {
	s.PlayAnchorTime = &now
}

func (s *RoomState) clearAnchor() {
	s.PlayAnchorTime = nil
}

func elapsed(from, to float64) float64 {
	return max(0, to-from)
}

func clampOffset(seconds float64) float64 {
	// NaN compares false against everything, so it falls through to 0
	if seconds > 0 {
		return seconds
	}

	return 0
}

package domain

type Track struct {
	VideoId string `json:"video_id"`
	Title   string `json:"title"`
}

// Playlist is played in insertion order. Duplicates are allowed.
type Playlist []Track

func (p Playlist) Length() int {
	return len(p)
}

func (p Playlist) LastIndex() int {
	return max(0, len(p)-1)
}

func (p Playlist) Get(index int) (Track, bool) {
	if index < 0 || index >= len(p) {
		return Track{}, false
	}

	return p[index], true
}

// Clone returns a copy that never aliases p and is never nil, so it
// marshals as [] instead of null.
func (p Playlist) Clone() Playlist {
	clone := make(Playlist, len(p))
	copy(clone, p)
	return clone
}

package playlist

import "errors"

var (
	ErrPlaylistNotFound = errors.New("playlist not found")
)

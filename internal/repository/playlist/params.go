package playlist

import "github.com/sharetube/playsync/internal/domain"

type SetPlaylistParams struct {
	PlaylistId string
	Playlist   domain.Playlist
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sharetube/playsync/internal/domain"
	"github.com/sharetube/playsync/internal/repository/playlist"
)

type repo struct {
	rc             *redis.Client
	expireDuration time.Duration
	logger         *slog.Logger
}

func NewRepo(rc *redis.Client, expireDuration time.Duration, logger *slog.Logger) *repo {
	return &repo{
		rc:             rc,
		expireDuration: expireDuration,
		logger:         logger,
	}
}

func (r repo) getPlaylistKey(playlistId string) string {
	return "playlist:" + playlistId
}

func (r repo) SetPlaylist(ctx context.Context, params *playlist.SetPlaylistParams) error {
	funcName := "playlist.redis.SetPlaylist"
	r.logger.DebugContext(ctx, funcName, "playlist_id", params.PlaylistId, "length", params.Playlist.Length())

	data, err := json.Marshal(params.Playlist.Clone())
	if err != nil {
		return fmt.Errorf("failed to marshal playlist: %w", err)
	}

	if err := r.rc.Set(ctx, r.getPlaylistKey(params.PlaylistId), data, r.expireDuration).Err(); err != nil {
		return fmt.Errorf("failed to set playlist: %w", err)
	}

	return nil
}

func (r repo) GetPlaylist(ctx context.Context, playlistId string) (domain.Playlist, error) {
	funcName := "playlist.redis.GetPlaylist"
	r.logger.DebugContext(ctx, funcName, "playlist_id", playlistId)

	data, err := r.rc.Get(ctx, r.getPlaylistKey(playlistId)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, playlist.ErrPlaylistNotFound
		}

		return nil, fmt.Errorf("failed to get playlist: %w", err)
	}

	var result domain.Playlist
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal playlist: %w", err)
	}

	return result.Clone(), nil
}

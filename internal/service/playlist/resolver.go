package playlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sharetube/playsync/internal/domain"
	"github.com/sharetube/playsync/internal/repository/playlist"
	"github.com/sharetube/playsync/pkg/ytplaylist"
	"golang.org/x/sync/singleflight"
)

type iUpstream interface {
	GetItems(ctx context.Context, playlistId string) ([]ytplaylist.Item, error)
}

type iPlaylistRepo interface {
	GetPlaylist(ctx context.Context, playlistId string) (domain.Playlist, error)
	SetPlaylist(ctx context.Context, params *playlist.SetPlaylistParams) error
}

// Resolver looks playlists up by id. Results are cached when a repo is
// configured and concurrent lookups of one id share a single upstream call.
type Resolver struct {
	upstream iUpstream
	repo     iPlaylistRepo
	group    singleflight.Group
	logger   *slog.Logger

	fetchTimeout time.Duration
}

const defaultFetchTimeout = 20 * time.Second

type Option func(*Resolver)

// WithFetchTimeout bounds a shared upstream lookup independently of the
// callers waiting on it.
func WithFetchTimeout(timeout time.Duration) Option {
	return func(r *Resolver) {
		if timeout > 0 {
			r.fetchTimeout = timeout
		}
	}
}

// NewResolver builds a Resolver. repo may be nil to disable caching.
func NewResolver(upstream iUpstream, repo iPlaylistRepo, logger *slog.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		upstream:     upstream,
		repo:         repo,
		logger:       logger,
		fetchTimeout: defaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *Resolver) Resolve(ctx context.Context, playlistId string) (domain.Playlist, error) {
	if r.repo != nil {
		cached, err := r.repo.GetPlaylist(ctx, playlistId)
		if err == nil {
			r.logger.DebugContext(ctx, "playlist cache hit", "playlist_id", playlistId)
			return cached, nil
		}
		if !errors.Is(err, playlist.ErrPlaylistNotFound) {
			r.logger.WarnContext(ctx, "failed to read playlist cache", "playlist_id", playlistId, "error", err)
		}
	}

	// shared by every caller of this id; not tied to the caller that started it
	ch := r.group.DoChan(playlistId, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.fetchTimeout)
		defer cancel()

		return r.fetch(fetchCtx, playlistId)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}

		return res.Val.(domain.Playlist).Clone(), nil
	}
}

func (r *Resolver) fetch(ctx context.Context, playlistId string) (domain.Playlist, error) {
	items, err := r.upstream.GetItems(ctx, playlistId)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist items: %w", err)
	}

	result := make(domain.Playlist, 0, len(items))
	for _, it := range items {
		result = append(result, domain.Track{
			VideoId: it.VideoId,
			Title:   it.Title,
		})
	}

	if r.repo != nil {
		if err := r.repo.SetPlaylist(ctx, &playlist.SetPlaylistParams{
			PlaylistId: playlistId,
			Playlist:   result,
		}); err != nil {
			r.logger.WarnContext(ctx, "failed to cache playlist", "playlist_id", playlistId, "error", err)
		}
	}

	r.logger.InfoContext(ctx, "playlist resolved", "playlist_id", playlistId, "length", len(result))
	return result, nil
}

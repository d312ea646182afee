package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sharetube/playsync/internal/controller"
	"github.com/sharetube/playsync/internal/domain"
	"github.com/sharetube/playsync/internal/repository/connection/inmemory"
	playlistRedis "github.com/sharetube/playsync/internal/repository/playlist/redis"
	"github.com/sharetube/playsync/internal/service/playlist"
	"github.com/sharetube/playsync/internal/service/room"
	"github.com/sharetube/playsync/pkg/ctxlogger"
	"github.com/sharetube/playsync/pkg/redisclient"
	"github.com/sharetube/playsync/pkg/validator"
	"github.com/sharetube/playsync/pkg/ytplaylist"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

type AppConfig struct {
	Host             string        `json:"host" validate:"required"`
	Port             int           `json:"port" validate:"min=1,max=65535"`
	LogLevel         string        `json:"log_level" validate:"oneof=DEBUG INFO WARN ERROR debug info warn error"`
	LogPath          string        `json:"log_path"`
	PlaylistLimit    int           `json:"playlist_limit" validate:"gte=0"`
	SendBuffer       int           `json:"send_buffer" validate:"min=1"`
	ReadLimit        int64         `json:"read_limit" validate:"min=512"`
	PingPeriod       time.Duration `json:"ping_period" validate:"min=1s"`
	ResolveTimeout   time.Duration `json:"resolve_timeout" validate:"min=1s"`
	YouTubeAPIKey    string        `json:"-"`
	YouTubeAPIURL    string        `json:"youtube_api_url" validate:"required"`
	RedisHost        string        `json:"redis_host"`
	RedisPort        int           `json:"redis_port" validate:"min=1,max=65535"`
	RedisPassword    string        `json:"-"`
	PlaylistCacheTTL time.Duration `json:"playlist_cache_ttl" validate:"min=1s"`
}

func (cfg *AppConfig) Validate() error {
	if err := validator.NewValidator().Check(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}

func newLogger(cfg *AppConfig) (*slog.Logger, io.Closer, error) {
	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		return nil, nil, fmt.Errorf("failed to parse log level: %w", err)
	}

	var (
		out    io.Writer = os.Stdout
		closer io.Closer = io.NopCloser(nil)
	)
	if cfg.LogPath != "" {
		f, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out, closer = f, f
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(out, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	return slog.New(&h), closer, nil
}

type server struct {
	handler   http.Handler
	closeConn func() int
	closers   []io.Closer
}

func (s *server) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}

	return errors.Join(errs...)
}

// newServer wires repositories, services and the controller together.
// Redis is optional: with no host configured playlists are not cached.
func newServer(ctx context.Context, cfg *AppConfig, logger *slog.Logger) (*server, error) {
	s := &server{}

	var cacheClient *redis.Client
	if cfg.RedisHost != "" {
		rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
			Port:     cfg.RedisPort,
			Host:     cfg.RedisHost,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis client: %w", err)
		}
		s.closers = append(s.closers, rc)
		cacheClient = rc
	}

	upstream := ytplaylist.New(cfg.YouTubeAPIKey, ytplaylist.WithAPIURL(cfg.YouTubeAPIURL))

	var resolver *playlist.Resolver
	if cacheClient != nil {
		resolver = playlist.NewResolver(upstream, playlistRedis.NewRepo(cacheClient, cfg.PlaylistCacheTTL, logger), logger,
			playlist.WithFetchTimeout(cfg.ResolveTimeout))
	} else {
		logger.Info("playlist cache disabled")
		resolver = playlist.NewResolver(upstream, nil, logger, playlist.WithFetchTimeout(cfg.ResolveTimeout))
	}

	roomService := room.NewService(resolver, domain.NewMonotonicClock(), &room.Config{
		PlaylistLimit:  cfg.PlaylistLimit,
		ResolveTimeout: cfg.ResolveTimeout,
	}, logger)

	connRepo := inmemory.NewRepo(logger)
	s.closeConn = connRepo.CloseAll

	c := controller.NewController(roomService, connRepo, &controller.Config{
		SendBuffer: cfg.SendBuffer,
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
	}, logger)
	s.handler = c.GetMux()

	return s, nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, logCloser, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	s, err := newServer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	httpServer := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: s.handler}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.InfoContext(gCtx, "starting server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}

		return nil
	})
	// graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		logger.Info("shutting down server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
		// hijacked websocket connections are not closed by Shutdown
		logger.Info("closed websocket connections", "count", s.closeConn())

		return nil
	})

	return g.Wait()
}

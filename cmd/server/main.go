package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sharetube/playsync/internal/app"
	"github.com/sharetube/playsync/pkg/ytplaylist"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
	usage        string
}

var (
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
		usage:        "Server host",
	}
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 80,
		usage:        "Server port",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
		usage:        "Logging level",
	}
	logPath = configVar[string]{
		envKey:       "SERVER_LOG_PATH",
		flagKey:      "log-path",
		defaultValue: "",
		usage:        "Log file path, stdout when empty",
	}
	playlistLimit = configVar[int]{
		envKey:       "SERVER_PLAYLIST_LIMIT",
		flagKey:      "playlist-limit",
		defaultValue: 200,
		usage:        "Maximum number of videos in the playlist, 0 for no limit",
	}
	sendBuffer = configVar[int]{
		envKey:       "SERVER_SEND_BUFFER",
		flagKey:      "send-buffer",
		defaultValue: 32,
		usage:        "Outbound messages queued per connection",
	}
	readLimit = configVar[int64]{
		envKey:       "SERVER_READ_LIMIT",
		flagKey:      "read-limit",
		defaultValue: 32768,
		usage:        "Maximum inbound websocket message size in bytes",
	}
	pingPeriod = configVar[time.Duration]{
		envKey:       "SERVER_PING_PERIOD",
		flagKey:      "ping-period",
		defaultValue: 54 * time.Second,
		usage:        "Websocket ping interval",
	}
	resolveTimeout = configVar[time.Duration]{
		envKey:       "SERVER_RESOLVE_TIMEOUT",
		flagKey:      "resolve-timeout",
		defaultValue: 20 * time.Second,
		usage:        "Playlist lookup timeout",
	}
	youtubeAPIKey = configVar[string]{
		envKey:       "YT_API_KEY",
		flagKey:      "youtube-api-key",
		defaultValue: "",
		usage:        "YouTube Data API key",
	}
	youtubeAPIURL = configVar[string]{
		envKey:       "YT_API_URL",
		flagKey:      "youtube-api-url",
		defaultValue: ytplaylist.DefaultAPIURL,
		usage:        "YouTube playlistItems endpoint",
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "",
		usage:        "Redis host, playlist cache disabled when empty",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
		usage:        "Redis port",
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
		usage:        "Redis password",
	}
	playlistCacheTTL = configVar[time.Duration]{
		envKey:       "SERVER_PLAYLIST_CACHE_TTL",
		flagKey:      "playlist-cache-ttl",
		defaultValue: 10 * time.Minute,
		usage:        "How long resolved playlists stay cached",
	}
)

func bind[T any](v configVar[T], define func(name string, value T, usage string) *T) {
	define(v.flagKey, v.defaultValue, v.usage)
	viper.BindEnv(v.flagKey, v.envKey)
	viper.SetDefault(v.flagKey, v.defaultValue)
}

func loadAppConfig() *app.AppConfig {
	bind(host, pflag.String)
	bind(port, pflag.Int)
	bind(logLevel, pflag.String)
	bind(logPath, pflag.String)
	bind(playlistLimit, pflag.Int)
	bind(sendBuffer, pflag.Int)
	bind(readLimit, pflag.Int64)
	bind(pingPeriod, pflag.Duration)
	bind(resolveTimeout, pflag.Duration)
	bind(youtubeAPIKey, pflag.String)
	bind(youtubeAPIURL, pflag.String)
	bind(redisHost, pflag.String)
	bind(redisPort, pflag.Int)
	bind(redisPassword, pflag.String)
	bind(playlistCacheTTL, pflag.Duration)
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	return &app.AppConfig{
		Host:             viper.GetString(host.flagKey),
		Port:             viper.GetInt(port.flagKey),
		LogLevel:         viper.GetString(logLevel.flagKey),
		LogPath:          viper.GetString(logPath.flagKey),
		PlaylistLimit:    viper.GetInt(playlistLimit.flagKey),
		SendBuffer:       viper.GetInt(sendBuffer.flagKey),
		ReadLimit:        viper.GetInt64(readLimit.flagKey),
		PingPeriod:       viper.GetDuration(pingPeriod.flagKey),
		ResolveTimeout:   viper.GetDuration(resolveTimeout.flagKey),
		YouTubeAPIKey:    viper.GetString(youtubeAPIKey.flagKey),
		YouTubeAPIURL:    viper.GetString(youtubeAPIURL.flagKey),
		RedisHost:        viper.GetString(redisHost.flagKey),
		RedisPort:        viper.GetInt(redisPort.flagKey),
		RedisPassword:    viper.GetString(redisPassword.flagKey),
		PlaylistCacheTTL: viper.GetDuration(playlistCacheTTL.flagKey),
	}
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	if err := app.Run(ctx, appConfig); err != nil {
		log.Fatal(err)
	}
}

package config

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/golobby/config/v3"
	"github.com/golobby/config/v3/pkg/feeder"
)

type Config struct {
	Discord  DiscordConfig
	Fanart   FanartConfig
	Herald   HeraldConfig
	Plex     PlexConfig
	Pushover PushoverConfig
	TVDB     TVDBConfig
}

type DiscordConfig struct {
	ClientId string `env:"DISCORD_CLIENT_ID"`
}

type FanartConfig struct {
	APIKey string `env:"FANARTTV_API_KEY"`
}

type HeraldConfig struct {
	CacheDir       string `env:"CACHE_DIR"`
	DbPath         string `env:"DB_PATH"`
	HttpAddr       string `env:"HTTP_ADDR"`
	HttpEnabled    bool   `env:"HTTP_ENABLED"`
	LogLevel       string `env:"LOG_LEVEL"`
	PollSeconds    int    `env:"POLL_INTERVAL_SECONDS"`
	PushMinSeconds int    `env:"PUSH_MIN_INTERVAL_SECONDS"`
}

type PlexConfig struct {
	Libraries string `env:"PLEX_LIBRARIES"`
	Token     string `env:"PLEX_TOKEN"`
	URL       string `env:"PLEX_URL"`
	Username  string `env:"PLEX_USERNAME"`
}

type PushoverConfig struct {
	Recipient string `env:"PUSHOVER_RECIPIENT"`
	Token     string `env:"PUSHOVER_TOKEN"`
}

type TVDBConfig struct {
	APIKey string `env:"TVDB_API_KEY"`
}

// Load populates a Config from the process environment. A .env file loaded
// into the environment beforehand is picked up the same way.
func Load() (Config, error) {
	var c Config
	if err := config.New().AddFeeder(feeder.Env{}).AddStruct(&c).Feed(); err != nil {
		return Config{}, err
	}
	if c.Herald.CacheDir == "" {
		c.Herald.CacheDir = "cache"
	}
	if c.Herald.DbPath == "" {
		c.Herald.DbPath = "herald.db"
	}
	if c.Herald.HttpAddr == "" {
		c.Herald.HttpAddr = ":8080"
	}
	if c.Herald.PollSeconds <= 0 {
		c.Herald.PollSeconds = 5
	}
	if c.Herald.PushMinSeconds <= 0 {
		c.Herald.PushMinSeconds = 15
	}
	return c, c.Validate()
}

// Validate catches unrecoverable configuration errors. These are the only
// errors that should ever terminate the process.
func (c *Config) Validate() error {
	if c.Plex.URL == "" {
		return errors.New("PLEX_URL must be provided")
	}
	if c.Plex.Token == "" {
		return errors.New("PLEX_TOKEN must be provided")
	}
	if c.Discord.ClientId == "" {
		return errors.New("DISCORD_CLIENT_ID must be provided")
	}
	return nil
}

// LibraryFilter returns the library section titles to report on.
// An empty result means any library is fair game.
func (c *Config) LibraryFilter() []string {
	if strings.TrimSpace(c.Plex.Libraries) == "" {
		return nil
	}
	var libraries []string
	for _, library := range strings.Split(c.Plex.Libraries, ",") {
		if trimmed := strings.TrimSpace(library); trimmed != "" {
			libraries = append(libraries, trimmed)
		}
	}
	return libraries
}

func (c *Config) GetLogLevel() slog.Leveler {
	logLevel := strings.ToLower(c.Herald.LogLevel)
	if logLevel == "error" {
		return slog.LevelError
	}
	if logLevel == "warning" {
		return slog.LevelWarn
	}
	if logLevel == "info" {
		return slog.LevelInfo
	}
	if logLevel == "debug" {
		return slog.LevelDebug
	}
	// default to info if unknown
	slog.With(slog.String("log_level", logLevel)).Info("Received invalid log level. Defaulting to INFO.")
	return slog.LevelInfo
}

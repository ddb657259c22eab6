package config

import (
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

type Config struct {
	BaseURL     string        `env:"CATALOG_BASE_URL" envDefault:"http://localhost:8080"`
	HTTPTimeout time.Duration `env:"CATALOG_HTTP_TIMEOUT" envDefault:"10s"`
	RateLimit   float64       `env:"CATALOG_RATE_LIMIT" envDefault:"0"`
	PageSize    int           `env:"CATALOG_PAGE_SIZE" envDefault:"10"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	Port        int      `env:"PORT" envDefault:"8080"`
	SeedRecords int      `env:"SEED_RECORDS" envDefault:"25"`
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("CATALOG_BASE_URL must be an absolute URL, got %q", c.BaseURL)
	}

	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("CATALOG_HTTP_TIMEOUT must be positive")
	}

	if c.RateLimit < 0 {
		return fmt.Errorf("CATALOG_RATE_LIMIT cannot be negative")
	}

	if c.PageSize < 1 {
		return fmt.Errorf("CATALOG_PAGE_SIZE must be at least 1")
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	if c.SeedRecords < 0 {
		return fmt.Errorf("SEED_RECORDS cannot be negative")
	}

	switch strings.ToLower(c.LogFormat) {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("LOG_FORMAT must be %q or %q", FormatText, FormatJSON)
	}

	return nil
}

// Load reads an optional .env file, then the environment, and validates the
// result.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return parse(env.Options{})
}

// FromMap builds a config from the given variables only. Tests use it.
func FromMap(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Logger builds the process logger. A nil w writes to stderr.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(c.LogLevel)}
	if strings.EqualFold(c.LogFormat, FormatJSON) {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel converts a string to slog.Level. Unknown values mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

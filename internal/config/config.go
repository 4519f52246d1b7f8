// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) initializer to build a Config with defaults.
// - Load layers defaults, an optional YAML file and MAZEBALL_ env vars.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`
	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`
	// DBPath is the SQLite database file holding leaderboard entries and nicknames.
	DBPath string `koanf:"db_path"`
	// MaxNicknameLength caps nickname length in runes; 0 means no cap.
	MaxNicknameLength int `koanf:"max_nickname_length"`
	// MaxScoresPerSync caps the number of scores in one sync request.
	MaxScoresPerSync int `koanf:"max_scores_per_sync"`
	// DeviceLockStripes sets how many mutexes serialize per-device operations.
	DeviceLockStripes int `koanf:"device_lock_stripes"`
	// RequestTimeoutMS bounds handler time.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`
	// OTelEndpoint enables OTLP/HTTP trace export when set.
	OTelEndpoint string `koanf:"otel_endpoint"`
	// ServiceName is reported on traces.
	ServiceName string `koanf:"service_name"`
}

// New creates a Config with defaults. Context is accepted first to
// satisfy the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":8080",
		DBPath:            "mazeball.db",
		MaxScoresPerSync:  1000,
		DeviceLockStripes: 64,
		RequestTimeoutMS:  10_000,
		ServiceName:       "mazeball",
	}
}

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// Validate reports every invalid field at once. Each failure is a
// *FieldError and matches ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, key, reason string) {
		if !ok {
			errs = append(errs, &FieldError{Key: key, Reason: reason})
		}
	}
	check(strings.TrimSpace(c.Addr) != "", "addr", "must not be empty")
	check(strings.TrimSpace(c.DBPath) != "", "db_path", "must not be empty")
	check(c.MaxNicknameLength >= 0, "max_nickname_length", "must not be negative")
	check(c.MaxScoresPerSync > 0, "max_scores_per_sync", "must be positive")
	check(c.DeviceLockStripes > 0, "device_lock_stripes", "must be positive")
	check(c.RequestTimeoutMS > 0, "request_timeout_ms", "must be positive")
	return errors.Join(errs...)
}

package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	defaultEnvPrefix = "MAZEBALL_"
	configPathEnv    = "MAZEBALL_CONFIG"
)

// LoadOption adjusts where Load reads from.
type LoadOption func(*sources)

type sources struct {
	file      string
	envPrefix string
}

// WithFile reads YAML from path instead of $MAZEBALL_CONFIG.
func WithFile(path string) LoadOption {
	return func(s *sources) { s.file = path }
}

// WithEnvPrefix changes the environment prefix (default MAZEBALL_).
func WithEnvPrefix(prefix string) LoadOption {
	return func(s *sources) {
		if prefix != "" {
			s.envPrefix = prefix
		}
	}
}

// Load layers defaults, then an optional YAML file, then prefixed env vars,
// and validates the result. MAZEBALL_DB_PATH maps to db_path.
func Load(ctx context.Context, opts ...LoadOption) (*Config, error) {
	src := sources{file: os.Getenv(configPathEnv), envPrefix: defaultEnvPrefix}
	for _, opt := range opts {
		opt(&src)
	}

	k := koanf.New(".")
	if src.file != "" {
		if err := k.Load(file.Provider(src.file), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, src.file, err)
		}
	}

	prefix := strings.ToLower(src.envPrefix)
	keyOf := func(s string) string { return strings.TrimPrefix(strings.ToLower(s), prefix) }
	if err := k.Load(env.Provider(src.envPrefix, ".", keyOf), nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}
	// The file path variable shares the prefix but is not a setting.
	k.Delete(keyOf(configPathEnv))

	cfg := New(ctx)
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

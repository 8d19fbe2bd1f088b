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

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if GUARDIAN_CONFIG is set
//  3. env (prefix GUARDIAN_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("GUARDIAN_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: GUARDIAN_ADDR, GUARDIAN_GREEN_MAX, ...
	// Map env keys like GUARDIAN_GREEN_MAX -> green_max (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("GUARDIAN_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "guardian_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate checks cross-field constraints that koanf cannot express.
func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.GreenMax < 0 || c.GreenMax > 1:
		return fmt.Errorf("%w: green_max must be in [0,1]", ErrInvalidConfig)
	case c.RedMin < 0 || c.RedMin > 1:
		return fmt.Errorf("%w: red_min must be in [0,1]", ErrInvalidConfig)
	case c.GreenMax > c.RedMin:
		return fmt.Errorf("%w: green_max must not exceed red_min", ErrInvalidConfig)
	case c.SignalMaxWeight < 0 || c.SignalMeanWeight < 0:
		return fmt.Errorf("%w: signal weights must not be negative", ErrInvalidConfig)
	case c.SignalMaxWeight+c.SignalMeanWeight == 0:
		return fmt.Errorf("%w: signal weights must not both be zero", ErrInvalidConfig)
	case c.DuplicateThreshold <= 0 || c.DuplicateThreshold > 1:
		return fmt.Errorf("%w: duplicate_threshold must be in (0,1]", ErrInvalidConfig)
	case c.DuplicateWindowHours <= 0:
		return fmt.Errorf("%w: duplicate_window_hours must be positive", ErrInvalidConfig)
	case c.NeighborCount <= 0:
		return fmt.Errorf("%w: neighbor_count must be positive", ErrInvalidConfig)
	case c.WebhookMaxAttempts <= 0:
		return fmt.Errorf("%w: webhook_max_attempts must be positive", ErrInvalidConfig)
	case c.StoreBackend != "memory" && c.StoreBackend != "pebble":
		return fmt.Errorf("%w: store_backend must be memory or pebble", ErrInvalidConfig)
	case c.StoreBackend == "pebble" && c.StorePath == "":
		return fmt.Errorf("%w: store_path required for pebble backend", ErrInvalidConfig)
	}
	return nil
}

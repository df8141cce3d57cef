package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, dotenv, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New(ctx))
//  2. file (YAML) if PHYSYNC_CONFIG is set
//  3. dotenv file (envFile, if it exists) exported into the process env
//  4. env (prefix PHYSYNC_)
//
// The dotenv step exists because this is a credentialed CLI usually run
// from a directory holding a .env file, as the operators already do.
func Load(ctx context.Context, envFile string) (*Config, error) {
	// Start with defaults
	base := New(ctx)

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("PHYSYNC_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Export the dotenv file into the environment so the env provider
	// below picks its values up. A missing file is not an error; the
	// variables may already be set in the environment.
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
			}
		}
	}

	// Environment variables: PHYSYNC_SOURCE_API_KEY, PHYSYNC_LOOKBACK_HOURS, ...
	// Map env keys like PHYSYNC_LOOKBACK_HOURS -> lookback_hours (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("PHYSYNC_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "physync_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	return &cfg, nil
}

package config

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidConfig     = errors.New("invalid config")
	ErrLoadConfig        = errors.New("load config failed")
	ErrMissingCredential = errors.New("missing credential")
)

func missing(key string) error {
	return fmt.Errorf("%w: %s", ErrMissingCredential, key)
}

func invalid(detail string) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, detail)
}

package config

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidConfig      = errors.New("invalid config")
	ErrMissingCredentials = errors.New("missing database credentials")
	ErrLoadConfig         = errors.New("load config failed")
)

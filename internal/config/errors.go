package config

import (
	"errors"
)

// Sentinel error kinds for this package. Both are fatal to a run.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

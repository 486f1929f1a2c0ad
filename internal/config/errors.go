package config

import "errors"

var (
	// ErrInvalidConfig is returned when a loaded configuration fails validation
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConfigUnmarshal is returned when the config file cannot be decoded
	ErrConfigUnmarshal = errors.New("failed to unmarshal configuration")
)

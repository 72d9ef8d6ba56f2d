package types

import "errors"

// Core signalctl errors for common failure scenarios
var (
	// ErrUnknownProfile is returned when a profile name does not match any preset
	ErrUnknownProfile = errors.New("unknown profile")

	// ErrInvalidConfiguration is returned when configuration parameters are invalid
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidDuration is returned when a duration string cannot be parsed
	ErrInvalidDuration = errors.New("invalid duration format")

	// ErrInvalidLoss is returned when a loss percentage string cannot be parsed
	ErrInvalidLoss = errors.New("invalid loss percentage format")

	// ErrInvalidDistribution is returned when a delay distribution name is not supported
	ErrInvalidDistribution = errors.New("invalid delay distribution")
)

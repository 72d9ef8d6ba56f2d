package types

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Duration represents a time duration with value and unit
type Duration struct {
	Value uint64
	Unit  string // "us", "ms", "s"
}

// ShapingParams describes the netem configuration for one direction of traffic.
// Delay and Jitter together form "delay <mean> <jitter>"; Loss and
// LossCorrelation form "loss <pct>% <corr>%".
type ShapingParams struct {
	Delay           *Duration
	Jitter          *Duration
	Distribution    string // "", "uniform", "normal", "pareto", "paretonormal"
	Loss            *float64
	LossCorrelation *float64
}

var (
	// Regular expressions for parsing durations and loss percentages
	durationRegex = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*(us|ms|s)$`)
	lossRegex     = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*%?$`)
)

// ParseDuration parses a duration string like "80ms" into a Duration struct
func ParseDuration(s string) (*Duration, error) {
	if s == "" {
		return nil, ErrInvalidDuration
	}

	// Normalize string by removing spaces and converting to lowercase
	normalized := strings.ToLower(strings.ReplaceAll(s, " ", ""))

	matches := durationRegex.FindStringSubmatch(normalized)
	if len(matches) != 3 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDuration, s)
	}

	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid number %s", ErrInvalidDuration, matches[1])
	}

	if value < 0 {
		return nil, fmt.Errorf("%w: negative duration not allowed", ErrInvalidDuration)
	}

	// netem takes whole values per unit; a fraction would truncate to a
	// different impairment than the one requested
	if value != math.Trunc(value) {
		return nil, fmt.Errorf("%w: fractional durations are not supported, use a smaller unit", ErrInvalidDuration)
	}

	return &Duration{
		Value: uint64(value),
		Unit:  matches[2],
	}, nil
}

// ParseLoss parses a loss string like "10%" into a float64 percentage
func ParseLoss(s string) (*float64, error) {
	if s == "" {
		return nil, ErrInvalidLoss
	}

	// Normalize string by removing spaces and converting to lowercase
	normalized := strings.ToLower(strings.ReplaceAll(s, " ", ""))

	matches := lossRegex.FindStringSubmatch(normalized)
	if len(matches) != 2 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidLoss, s)
	}

	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid number %s", ErrInvalidLoss, matches[1])
	}

	if value < 0 || value > 100 {
		return nil, fmt.Errorf("%w: loss percentage must be between 0 and 100", ErrInvalidLoss)
	}

	return &value, nil
}

// ValidateDistribution checks a netem delay distribution name
func ValidateDistribution(s string) error {
	switch s {
	case "", "uniform", "normal", "pareto", "paretonormal":
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrInvalidDistribution, s)
	}
}

// ToNanoseconds converts the duration to nanoseconds
func (d *Duration) ToNanoseconds() uint64 {
	if d == nil {
		return 0
	}

	switch d.Unit {
	case "us":
		return d.Value * 1000 // microseconds to nanoseconds
	case "ms":
		return d.Value * 1000000 // milliseconds to nanoseconds
	case "s":
		return d.Value * 1000000000 // seconds to nanoseconds
	default:
		return 0
	}
}

// String returns a string representation of the duration
func (d *Duration) String() string {
	if d == nil {
		return ""
	}
	return fmt.Sprintf("%d%s", d.Value, d.Unit)
}

// IsZero reports whether the params would install no impairment at all
func (p *ShapingParams) IsZero() bool {
	return p == nil || (p.Delay == nil && p.Jitter == nil && p.Loss == nil)
}

package types

import (
	"fmt"
	"strings"
)

// Profile is one of the closed set of impairment presets. The zero value is
// not a valid profile.
type Profile int

const (
	// ProfileGood applies zero impairment but keeps the redirect path ready
	ProfileGood Profile = iota + 1
	// ProfileMedium applies moderate delay, jitter and loss in both directions
	ProfileMedium
	// ProfileBad applies heavy delay, jitter and loss in both directions
	ProfileBad
	// ProfileOff removes all shaping and destroys the redirect interface
	ProfileOff
)

// ProfileParams holds the per-direction shaping parameters for a profile.
// Egress shapes the primary interface; Ingress shapes the redirect interface,
// which carries the primary interface's inbound traffic. A nil direction
// installs nothing on that path.
type ProfileParams struct {
	Egress  *ShapingParams
	Ingress *ShapingParams
}

func pct(v float64) *float64 { return &v }

func ms(v uint64) *Duration { return &Duration{Value: v, Unit: "ms"} }

// DefaultProfileParams returns the built-in parameter pairs for each profile.
// The map is rebuilt on every call so callers may mutate their copy when
// applying configuration overrides.
func DefaultProfileParams() map[Profile]ProfileParams {
	return map[Profile]ProfileParams{
		ProfileGood: {},
		ProfileMedium: {
			Egress: &ShapingParams{
				Delay:           ms(80),
				Jitter:          ms(20),
				Distribution:    "normal",
				Loss:            pct(10),
				LossCorrelation: pct(30),
			},
			Ingress: &ShapingParams{
				Delay:           ms(80),
				Jitter:          ms(20),
				Distribution:    "normal",
				Loss:            pct(20),
				LossCorrelation: pct(30),
			},
		},
		ProfileBad: {
			Egress: &ShapingParams{
				Delay:           ms(200),
				Jitter:          ms(50),
				Distribution:    "normal",
				Loss:            pct(20),
				LossCorrelation: pct(30),
			},
			Ingress: &ShapingParams{
				Delay:           ms(200),
				Jitter:          ms(50),
				Distribution:    "normal",
				Loss:            pct(30),
				LossCorrelation: pct(30),
			},
		},
		ProfileOff: {},
	}
}

// ParseProfile maps a CLI argument to a Profile by exact match
func ParseProfile(s string) (Profile, error) {
	switch s {
	case "good":
		return ProfileGood, nil
	case "medium":
		return ProfileMedium, nil
	case "bad":
		return ProfileBad, nil
	case "off":
		return ProfileOff, nil
	default:
		return 0, fmt.Errorf("%w: %q (expected good, medium, bad or off)", ErrUnknownProfile, s)
	}
}

// ProfileNames returns the valid CLI argument values in display order
func ProfileNames() []string {
	return []string{"good", "medium", "bad", "off"}
}

// String returns the CLI name of the profile
func (p Profile) String() string {
	switch p {
	case ProfileGood:
		return "good"
	case ProfileMedium:
		return "medium"
	case ProfileBad:
		return "bad"
	case ProfileOff:
		return "off"
	default:
		return "unknown"
	}
}

// Glyph returns the status indicator printed when the profile is applied
func (p Profile) Glyph() string {
	switch p {
	case ProfileGood:
		return "📶"
	case ProfileMedium:
		return "📡"
	case ProfileBad:
		return "🐌"
	case ProfileOff:
		return "🔌"
	default:
		return "?"
	}
}

// StatusLine returns the single human-readable line printed on apply
func (p Profile) StatusLine() string {
	if p == ProfileOff {
		return fmt.Sprintf("%s signal shaping OFF", p.Glyph())
	}
	return fmt.Sprintf("%s %s signal", p.Glyph(), strings.ToUpper(p.String()))
}

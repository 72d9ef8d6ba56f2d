package types

import (
	"strings"
	"testing"
)

func TestParseProfile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		input       string
		want        Profile
		expectError bool
	}{
		{"good profile", "good", ProfileGood, false},
		{"medium profile", "medium", ProfileMedium, false},
		{"bad profile", "bad", ProfileBad, false},
		{"off profile", "off", ProfileOff, false},
		{"empty input", "", 0, true},
		{"uppercase not accepted", "GOOD", 0, true},
		{"partial match not accepted", "goo", 0, true},
		{"unknown name", "terrible", 0, true},
		{"leading space not accepted", " good", 0, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseProfile(tt.input)

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error for input %q, got profile %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error for input %q: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("expected profile %v for input %q, got %v", tt.want, tt.input, got)
			}
		})
	}
}

func TestProfileStringRoundTrip(t *testing.T) {
	t.Parallel()

	for _, name := range ProfileNames() {
		p, err := ParseProfile(name)
		if err != nil {
			t.Fatalf("unexpected error parsing %q: %v", name, err)
		}
		if p.String() != name {
			t.Errorf("expected String() %q, got %q", name, p.String())
		}
	}
}

func TestProfileGlyphsAreDistinct(t *testing.T) {
	t.Parallel()

	seen := map[string]Profile{}
	for _, p := range []Profile{ProfileGood, ProfileMedium, ProfileBad, ProfileOff} {
		glyph := p.Glyph()
		if glyph == "" || glyph == "?" {
			t.Errorf("profile %s has no glyph", p)
		}
		if other, dup := seen[glyph]; dup {
			t.Errorf("profiles %s and %s share glyph %q", p, other, glyph)
		}
		seen[glyph] = p
	}
}

func TestProfileStatusLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		profile  Profile
		contains string
	}{
		{ProfileGood, "GOOD signal"},
		{ProfileMedium, "MEDIUM signal"},
		{ProfileBad, "BAD signal"},
		{ProfileOff, "OFF"},
	}

	for _, tt := range tests {
		tt := tt
		line := tt.profile.StatusLine()
		if !strings.Contains(line, tt.contains) {
			t.Errorf("expected status line for %s to contain %q, got %q", tt.profile, tt.contains, line)
		}
		if !strings.HasPrefix(line, tt.profile.Glyph()) {
			t.Errorf("expected status line for %s to start with its glyph, got %q", tt.profile, line)
		}
	}
}

func TestDefaultProfileParamsMedium(t *testing.T) {
	t.Parallel()

	params := DefaultProfileParams()
	medium := params[ProfileMedium]

	if medium.Egress == nil || medium.Ingress == nil {
		t.Fatal("medium profile must shape both directions")
	}

	if got := medium.Egress.Delay.String(); got != "80ms" {
		t.Errorf("expected medium egress delay 80ms, got %s", got)
	}
	if got := medium.Egress.Jitter.String(); got != "20ms" {
		t.Errorf("expected medium egress jitter 20ms, got %s", got)
	}
	if medium.Egress.Distribution != "normal" {
		t.Errorf("expected normal distribution, got %s", medium.Egress.Distribution)
	}
	if *medium.Egress.Loss != 10 {
		t.Errorf("expected medium egress loss 10%%, got %v", *medium.Egress.Loss)
	}
	if *medium.Egress.LossCorrelation != 30 {
		t.Errorf("expected medium egress loss correlation 30%%, got %v", *medium.Egress.LossCorrelation)
	}
	if *medium.Ingress.Loss != 20 {
		t.Errorf("expected medium ingress loss 20%%, got %v", *medium.Ingress.Loss)
	}
}

func TestDefaultProfileParamsGoodAndOffAreUnshaped(t *testing.T) {
	t.Parallel()

	params := DefaultProfileParams()

	for _, p := range []Profile{ProfileGood, ProfileOff} {
		pp := params[p]
		if !pp.Egress.IsZero() || !pp.Ingress.IsZero() {
			t.Errorf("profile %s must carry no shaping parameters", p)
		}
	}
}

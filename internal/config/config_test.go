package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/netem-tools/signalctl/internal/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "signalctl.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, "log_level: info\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Interface != "eth0" {
		t.Errorf("expected default interface eth0, got %s", cfg.Interface)
	}
	if cfg.RedirectInterface != "ifb0" {
		t.Errorf("expected default redirect interface ifb0, got %s", cfg.RedirectInterface)
	}
	if cfg.Netns != "" {
		t.Errorf("expected empty default netns, got %s", cfg.Netns)
	}
}

func TestLoadConfigEnvBindings(t *testing.T) {
	t.Setenv("SIGNALCTL_INTERFACE", "enp5s0")
	t.Setenv("SIGNALCTL_REDIRECT_INTERFACE", "ifb-enp5s0")
	t.Setenv("SIGNALCTL_NETNS", "/var/run/netns/lab")
	t.Setenv("SIGNALCTL_STATE_PATH", "/tmp/signalctl-state.json")
	t.Setenv("SIGNALCTL_LOG_LEVEL", "debug")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Interface != "enp5s0" {
		t.Errorf("expected SIGNALCTL_INTERFACE to be honored, got %q", cfg.Interface)
	}
	if cfg.RedirectInterface != "ifb-enp5s0" {
		t.Errorf("expected SIGNALCTL_REDIRECT_INTERFACE to be honored, got %q", cfg.RedirectInterface)
	}
	if cfg.Netns != "/var/run/netns/lab" {
		t.Errorf("expected SIGNALCTL_NETNS to be honored, got %q", cfg.Netns)
	}
	if cfg.StatePath != "/tmp/signalctl-state.json" {
		t.Errorf("expected SIGNALCTL_STATE_PATH to be honored, got %q", cfg.StatePath)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected SIGNALCTL_LOG_LEVEL to be honored, got %q", cfg.LogLevel)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/signalctl.yaml"); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoadConfigCustomDevices(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
interface: enp3s0
redirect_interface: ifb-enp3s0
netns: /var/run/netns/lab
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Interface != "enp3s0" || cfg.RedirectInterface != "ifb-enp3s0" {
		t.Errorf("unexpected devices: %s / %s", cfg.Interface, cfg.RedirectInterface)
	}
	if cfg.Netns != "/var/run/netns/lab" {
		t.Errorf("unexpected netns: %s", cfg.Netns)
	}
}

func TestLoadConfigRejectsSameDevices(t *testing.T) {
	path := writeConfig(t, `
log_level: info
interface: eth0
redirect_interface: eth0
`)

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error when interface and redirect_interface match")
	}
}

func TestLoadConfigRejectsBadLogLevel(t *testing.T) {
	path := writeConfig(t, "log_level: loud\n")

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for invalid log level")
	}
}

func TestLoadConfigRejectsBadOverride(t *testing.T) {
	path := writeConfig(t, `
log_level: info
profiles:
  medium:
    egress:
      delay: eighty-ms
`)

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for unparseable delay override")
	}
}

func TestLoadConfigRejectsUnknownProfileOverride(t *testing.T) {
	path := writeConfig(t, `
log_level: info
profiles:
  terrible:
    egress:
      delay: 500ms
`)

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for unknown profile name in overrides")
	}
}

func TestProfileParamsOverrideReplacesDirection(t *testing.T) {
	path := writeConfig(t, `
log_level: info
profiles:
  medium:
    egress:
      delay: 120ms
      jitter: 30ms
      distribution: pareto
      loss: 5%
      loss_correlation: 25%
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	params, err := cfg.ProfileParams()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	medium := params[types.ProfileMedium]
	if got := medium.Egress.Delay.String(); got != "120ms" {
		t.Errorf("expected overridden delay 120ms, got %s", got)
	}
	if medium.Egress.Distribution != "pareto" {
		t.Errorf("expected overridden distribution pareto, got %s", medium.Egress.Distribution)
	}
	if *medium.Egress.Loss != 5 {
		t.Errorf("expected overridden loss 5%%, got %v", *medium.Egress.Loss)
	}

	// Ingress keeps the built-in preset
	if got := medium.Ingress.Delay.String(); got != "80ms" {
		t.Errorf("expected preset ingress delay 80ms, got %s", got)
	}
	if *medium.Ingress.Loss != 20 {
		t.Errorf("expected preset ingress loss 20%%, got %v", *medium.Ingress.Loss)
	}
}

func TestValidateDeviceName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		device      string
		expectError bool
	}{
		{"plain", "eth0", false},
		{"with dash", "ifb-eth0", false},
		{"with at sign", "eth0@if12", false},
		{"too long", "averyverylongname", true},
		{"with space", "eth 0", true},
		{"with slash", "../etc", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := validateDeviceName(tt.device)
			if tt.expectError && err == nil {
				t.Errorf("expected error for device name %q", tt.device)
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error for device name %q: %v", tt.device, err)
			}
		})
	}
}

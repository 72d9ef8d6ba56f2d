package config

import (
	"fmt"

	"github.com/netem-tools/signalctl/internal/types"
)

// Validate validates the entire configuration including profile overrides
func (c *Config) Validate() error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("%w: invalid log level %q (must be one of: debug, info, warn, error)",
			types.ErrInvalidConfiguration, c.LogLevel)
	}

	if err := c.validateDevices(); err != nil {
		return err
	}

	// Parse every override now so a broken config fails at startup, not
	// halfway through an apply.
	if _, err := c.ProfileParams(); err != nil {
		return fmt.Errorf("%w: %w", types.ErrInvalidConfiguration, err)
	}

	return nil
}

// validateDevices checks the primary and redirect interface names
func (c *Config) validateDevices() error {
	if c.Interface == "" {
		return fmt.Errorf("%w: interface cannot be empty", types.ErrInvalidConfiguration)
	}
	if c.RedirectInterface == "" {
		return fmt.Errorf("%w: redirect_interface cannot be empty", types.ErrInvalidConfiguration)
	}
	if c.Interface == c.RedirectInterface {
		return fmt.Errorf("%w: interface and redirect_interface must differ", types.ErrInvalidConfiguration)
	}

	for _, name := range []string{c.Interface, c.RedirectInterface} {
		if err := validateDeviceName(name); err != nil {
			return err
		}
	}

	return nil
}

// validateDeviceName enforces kernel interface-name constraints (IFNAMSIZ,
// no separators that would break command construction).
func validateDeviceName(name string) error {
	if len(name) > 15 {
		return fmt.Errorf("%w: interface name %q exceeds 15 characters", types.ErrInvalidConfiguration, name)
	}

	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.' || r == '@':
		default:
			return fmt.Errorf("%w: interface name %q contains invalid character %q",
				types.ErrInvalidConfiguration, name, r)
		}
	}

	if name == "." || name == ".." {
		return fmt.Errorf("%w: invalid interface name %q", types.ErrInvalidConfiguration, name)
	}

	return nil
}

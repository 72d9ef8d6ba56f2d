package config

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/netem-tools/signalctl/internal/types"
)

// Config represents the main configuration structure for signalctl
type Config struct {
	// LogLevel specifies the logging level (debug, info, warn, error)
	LogLevel string `mapstructure:"log_level"`
	// Interface is the primary network device being shaped
	Interface string `mapstructure:"interface"`
	// RedirectInterface is the IFB device used to shape ingress traffic
	RedirectInterface string `mapstructure:"redirect_interface"`
	// Netns is an optional network namespace path to operate in
	Netns string `mapstructure:"netns"`
	// StatePath overrides where the applied profile is recorded
	StatePath string `mapstructure:"state_path"`
	// Profiles contains optional per-profile parameter overrides keyed by
	// profile name (good, medium, bad, off)
	Profiles map[string]ProfileOverride `mapstructure:"profiles"`
}

// ProfileOverride replaces the built-in parameters of one profile
type ProfileOverride struct {
	// Egress shapes the primary interface's outbound path
	Egress *DirectionConfig `mapstructure:"egress"`
	// Ingress shapes the redirect interface, i.e. the primary interface's
	// inbound path
	Ingress *DirectionConfig `mapstructure:"ingress"`
}

// DirectionConfig holds the shaping parameters for one traffic direction
type DirectionConfig struct {
	// Delay is the mean added delay (e.g. "80ms")
	Delay string `mapstructure:"delay"`
	// Jitter is the delay variation (e.g. "20ms")
	Jitter string `mapstructure:"jitter"`
	// Distribution is the delay distribution (uniform, normal, pareto, paretonormal)
	Distribution string `mapstructure:"distribution"`
	// Loss is the packet loss percentage (e.g. "10%")
	Loss string `mapstructure:"loss"`
	// LossCorrelation is the loss correlation percentage (e.g. "30%")
	LossCorrelation string `mapstructure:"loss_correlation"`
}

// LoadConfig loads configuration from a YAML file using viper. An empty path
// falls back to signalctl.yaml in the current directory; a missing default
// file is fine, the built-in defaults apply.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Every key needs a default registered so AutomaticEnv surfaces its
	// SIGNALCTL_* variable through Unmarshal.
	v.SetDefault("log_level", "info")
	v.SetDefault("interface", "eth0")
	v.SetDefault("redirect_interface", "ifb0")
	v.SetDefault("netns", "")
	v.SetDefault("state_path", "")

	v.SetEnvPrefix("SIGNALCTL")
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s", path)
		}
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read configuration file: %w", err)
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName("signalctl")
		if err := v.ReadInConfig(); err == nil {
			logrus.WithField("config", v.ConfigFileUsed()).Debug("Using config file")
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// ProfileParams returns the built-in presets with this configuration's
// overrides applied. An override section replaces that direction entirely.
func (c *Config) ProfileParams() (map[types.Profile]types.ProfileParams, error) {
	params := types.DefaultProfileParams()

	for name, override := range c.Profiles {
		p, err := types.ParseProfile(name)
		if err != nil {
			return nil, err
		}

		pp := params[p]
		if override.Egress != nil {
			egress, err := override.Egress.toShapingParams()
			if err != nil {
				return nil, fmt.Errorf("profile %s egress: %w", name, err)
			}
			pp.Egress = egress
		}
		if override.Ingress != nil {
			ingress, err := override.Ingress.toShapingParams()
			if err != nil {
				return nil, fmt.Errorf("profile %s ingress: %w", name, err)
			}
			pp.Ingress = ingress
		}
		params[p] = pp
	}

	return params, nil
}

// toShapingParams parses the string-level direction config into typed params
func (d *DirectionConfig) toShapingParams() (*types.ShapingParams, error) {
	params := &types.ShapingParams{}

	if d.Delay != "" {
		delay, err := types.ParseDuration(d.Delay)
		if err != nil {
			return nil, fmt.Errorf("failed to parse delay: %w", err)
		}
		params.Delay = delay
	}

	if d.Jitter != "" {
		jitter, err := types.ParseDuration(d.Jitter)
		if err != nil {
			return nil, fmt.Errorf("failed to parse jitter: %w", err)
		}
		params.Jitter = jitter
	}

	if err := types.ValidateDistribution(d.Distribution); err != nil {
		return nil, err
	}
	params.Distribution = d.Distribution

	if d.Loss != "" {
		loss, err := types.ParseLoss(d.Loss)
		if err != nil {
			return nil, fmt.Errorf("failed to parse loss: %w", err)
		}
		params.Loss = loss
	}

	if d.LossCorrelation != "" {
		corr, err := types.ParseLoss(d.LossCorrelation)
		if err != nil {
			return nil, fmt.Errorf("failed to parse loss correlation: %w", err)
		}
		params.LossCorrelation = corr
	}

	return params, nil
}

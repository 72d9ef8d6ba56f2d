package cmd

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/netem-tools/signalctl/internal/config"
	"github.com/netem-tools/signalctl/internal/network"
	"github.com/netem-tools/signalctl/internal/profile"
	"github.com/netem-tools/signalctl/internal/state"
	"github.com/netem-tools/signalctl/internal/types"
)

// runApply applies the profile named by the single positional argument
func runApply(cmd *cobra.Command, args []string) error {
	p, err := types.ParseProfile(args[0])
	if err != nil {
		return fmt.Errorf("%w (usage: signalctl {%s})", err, usageProfiles())
	}

	cfg, err := loadConfigWithFlags()
	if err != nil {
		return err
	}

	params, err := cfg.ProfileParams()
	if err != nil {
		return fmt.Errorf("failed to build profile parameters: %w", err)
	}

	log := logrus.StandardLogger()

	shaper := buildShaper(cmd, cfg, log)
	recorder := state.NewFileRecorder(cfg.StatePath, log)
	netnsRunner := network.NewNetnsRunner(log)

	controller := profile.NewController(shaper, netnsRunner, cfg.Netns,
		params, recorder, cmd.OutOrStdout(), log)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	return controller.ApplyProfile(ctx, p)
}

// loadConfigWithFlags loads the config file and layers CLI flag overrides on top
func loadConfigWithFlags() (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if ifaceFlag != "" {
		cfg.Interface = ifaceFlag
	}
	if redirectFlag != "" {
		cfg.RedirectInterface = redirectFlag
	}
	if netnsFlag != "" {
		cfg.Netns = netnsFlag
	}

	// Flags bypass file-level validation, so re-check the device pair
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logrus.SetLevel(effectiveLogLevel(
		rootCmd.PersistentFlags().Changed("log-level"), logLevel, cfg.LogLevel))

	return cfg, nil
}

// buildShaper constructs the backend client, honoring --dry-run
func buildShaper(cmd *cobra.Command, cfg *config.Config, log logrus.FieldLogger) *network.Shaper {
	if dryRun {
		commander := &network.DryRunCommander{
			Printf: func(format string, args ...any) {
				fmt.Fprintf(cmd.OutOrStdout(), format, args...)
			},
		}
		// Assume the redirect link is absent so the full creation
		// sequence is printed.
		probe := func(string) bool { return false }
		return network.NewShaperWithCommander(cfg.Interface, cfg.RedirectInterface, commander, probe, log)
	}

	return network.NewShaper(cfg.Interface, cfg.RedirectInterface, log)
}

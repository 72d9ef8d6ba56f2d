package cmd

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/netem-tools/signalctl/internal/types"
)

var (
	cfgFile      string            //nolint:gochecknoglobals
	logLevel     string            //nolint:gochecknoglobals
	ifaceFlag    string            //nolint:gochecknoglobals
	redirectFlag string            //nolint:gochecknoglobals
	netnsFlag    string            //nolint:gochecknoglobals
	dryRun       bool              //nolint:gochecknoglobals
	rootCmd      = &cobra.Command{ //nolint:gochecknoglobals
		Use:   "signalctl {good|medium|bad|off}",
		Short: "Toggle network impairment profiles on an interface",
		Long: `signalctl applies named delay/jitter/loss profiles to the egress and
ingress paths of a network interface using tc netem. Ingress traffic is
mirrored to an IFB redirect interface so it can be shaped like egress.`,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: types.ProfileNames(),
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("command execution failed: %w", err)
	}
	return nil
}

func init() { //nolint:gochecknoinits
	// Assigned here rather than in the literal to avoid an initialization
	// cycle (runApply -> loadConfigWithFlags -> rootCmd).
	rootCmd.RunE = runApply

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is signalctl.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&ifaceFlag, "interface", "i", "", "primary interface to shape (default eth0)")
	rootCmd.PersistentFlags().StringVar(&redirectFlag, "redirect-interface", "", "IFB interface for ingress shaping (default ifb0)")
	rootCmd.PersistentFlags().StringVar(&netnsFlag, "netns", "", "network namespace path to operate in")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print backend commands instead of executing them")

	cobra.OnInitialize(setupLogging)
}

// setupLogging configures logrus based on the log level flag
func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.WithError(err).WithField("level", logLevel).Warn("Invalid log level, using info")
		level = logrus.InfoLevel
	}

	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

// effectiveLogLevel resolves the log level once the config is loaded: an
// explicitly set flag wins, otherwise the config file's level applies.
func effectiveLogLevel(flagChanged bool, flagLevel, cfgLevel string) logrus.Level {
	pick := cfgLevel
	if flagChanged || cfgLevel == "" {
		pick = flagLevel
	}

	level, err := logrus.ParseLevel(pick)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// usageProfiles renders the valid profile names for error messages
func usageProfiles() string {
	return strings.Join(types.ProfileNames(), "|")
}

package cmd

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/netem-tools/signalctl/internal/network"
	"github.com/netem-tools/signalctl/internal/state"
)

var statusCmd = &cobra.Command{ //nolint:gochecknoglobals
	Use:   "status",
	Short: "Show the applied profile and live qdisc configuration",
	RunE:  runStatus,
}

func init() { //nolint:gochecknoinits
	rootCmd.AddCommand(statusCmd)
}

// runStatus reports the last recorded profile and the backend's qdisc state
func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfigWithFlags()
	if err != nil {
		return err
	}

	log := logrus.StandardLogger()
	out := cmd.OutOrStdout()

	recorder := state.NewFileRecorder(cfg.StatePath, log)
	if applied, ok := recorder.Last(); ok {
		fmt.Fprintf(out, "profile: %s (applied %s, interface %s, redirect %s)\n",
			applied.Profile, applied.AppliedAt.Format("2006-01-02 15:04:05"),
			applied.Interface, applied.Redirect)
	} else {
		fmt.Fprintln(out, "profile: unknown (no state recorded)")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	shaper := network.NewShaper(cfg.Interface, cfg.RedirectInterface, log)
	netnsRunner := network.NewNetnsRunner(log)

	return netnsRunner.RunInNamespace(cfg.Netns, func() error {
		dump := shaper.DumpQdiscs(ctx)
		if dump == "" {
			fmt.Fprintln(out, "no qdisc information available")
			return nil
		}
		fmt.Fprint(out, dump)
		return nil
	})
}

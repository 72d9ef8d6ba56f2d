package network

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vishvananda/netlink"

	"github.com/netem-tools/signalctl/internal/types"
)

// Commander executes a backend command. The production implementation shells
// out; tests substitute a recorder.
type Commander interface {
	Execute(ctx context.Context, cmd []string) (string, error)
}

// LinkProber checks whether a network link exists in the current namespace
type LinkProber func(name string) bool

// Shaper drives the traffic-shaping backend for one primary interface and its
// redirect (IFB) companion. All setup and teardown operations are idempotent:
// backend failures on them are logged at debug level and swallowed, on the
// assumption that the system is already in the requested state.
type Shaper struct {
	iface    string
	redirect string
	cmd      Commander
	probe    LinkProber
	log      logrus.FieldLogger
}

// NewShaper creates a shaper for the given primary and redirect interfaces
func NewShaper(iface, redirect string, log logrus.FieldLogger) *Shaper {
	if log == nil {
		log = logrus.New()
	}

	return &Shaper{
		iface:    iface,
		redirect: redirect,
		cmd:      &shellCommander{log: log.WithField("package", "network.exec")},
		probe:    netlinkLinkExists,
		log:      log.WithField("package", "network.shaper"),
	}
}

// NewShaperWithCommander creates a shaper with a custom commander and link
// prober, used by dry-run mode and tests.
func NewShaperWithCommander(iface, redirect string, cmd Commander, probe LinkProber, log logrus.FieldLogger) *Shaper {
	s := NewShaper(iface, redirect, log)
	if cmd != nil {
		s.cmd = cmd
	}
	if probe != nil {
		s.probe = probe
	}
	return s
}

// EnsureRedirectReady idempotently guarantees the redirect interface exists,
// is up, and receives the primary interface's ingress traffic via a mirred
// redirect filter.
func (s *Shaper) EnsureRedirectReady(ctx context.Context) {
	s.log.WithFields(logrus.Fields{
		"interface": s.iface,
		"redirect":  s.redirect,
	}).Debug("Ensuring redirect interface is ready")

	s.tolerate(ctx, []string{"modprobe", "ifb"})

	if !s.probe(s.redirect) {
		s.tolerate(ctx, []string{"ip", "link", "add", s.redirect, "type", "ifb"})
	}
	s.tolerate(ctx, []string{"ip", "link", "set", s.redirect, "up"})

	// Hook ingress traffic on the primary interface and mirror it to the
	// redirect interface, where it can be shaped as egress.
	s.tolerate(ctx, []string{"tc", "qdisc", "add", "dev", s.iface, "handle", "ffff:", "ingress"})
	s.tolerate(ctx, []string{
		"tc", "filter", "add", "dev", s.iface, "parent", "ffff:", "protocol", "all", "u32",
		"match", "u32", "0", "0", "action", "mirred", "egress", "redirect", "dev", s.redirect,
	})
}

// ClearShaping idempotently removes any queueing discipline from the primary
// interface's egress path, its ingress hook, and the redirect interface's
// egress path. It never fails: a missing qdisc is the desired outcome.
func (s *Shaper) ClearShaping(ctx context.Context) {
	s.log.WithFields(logrus.Fields{
		"interface": s.iface,
		"redirect":  s.redirect,
	}).Debug("Clearing shaping rules")

	s.tolerate(ctx, []string{"tc", "qdisc", "del", "dev", s.iface, "root"})
	s.tolerate(ctx, []string{"tc", "qdisc", "del", "dev", s.iface, "ingress"})
	s.tolerate(ctx, []string{"tc", "qdisc", "del", "dev", s.redirect, "root"})
}

// InstallEgressShaping installs a netem qdisc with the given parameters on
// the device's egress path. Failures are swallowed per the controller's
// error policy; the exit status of a run never depends on them.
func (s *Shaper) InstallEgressShaping(ctx context.Context, dev string, params *types.ShapingParams) {
	if params.IsZero() {
		s.log.WithField("device", dev).Debug("No shaping parameters to install")
		return
	}

	cmd := append([]string{"tc", "qdisc", "add", "dev", dev, "root", "handle", "1:", "netem"},
		netemArgs(params)...)

	s.log.WithFields(logrus.Fields{
		"device": dev,
		"params": fmt.Sprintf("%+v", params),
	}).Info("Installing egress shaping")

	s.tolerate(ctx, cmd)
}

// DestroyRedirect removes the redirect interface entirely
func (s *Shaper) DestroyRedirect(ctx context.Context) {
	s.log.WithField("redirect", s.redirect).Debug("Destroying redirect interface")
	s.tolerate(ctx, []string{"ip", "link", "del", s.redirect})
}

// DumpQdiscs returns the live qdisc configuration of both devices for
// diagnostics. Missing devices produce empty sections rather than errors.
func (s *Shaper) DumpQdiscs(ctx context.Context) string {
	var b strings.Builder

	for _, dev := range []string{s.iface, s.redirect} {
		out, err := s.cmd.Execute(ctx, []string{"tc", "qdisc", "show", "dev", dev})
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"device": dev,
				"error":  err,
			}).Debug("Failed to show qdisc status")
			continue
		}
		fmt.Fprintf(&b, "%s:\n%s", dev, out)
	}

	return b.String()
}

// Interface returns the primary interface name
func (s *Shaper) Interface() string { return s.iface }

// RedirectInterface returns the redirect interface name
func (s *Shaper) RedirectInterface() string { return s.redirect }

// tolerate runs a backend command and swallows any failure. Setup and
// teardown commands fail when the system is already in the requested state,
// and the backend does not distinguish that from a real error.
func (s *Shaper) tolerate(ctx context.Context, cmd []string) {
	if _, err := s.cmd.Execute(ctx, cmd); err != nil {
		s.log.WithFields(logrus.Fields{
			"command": strings.Join(cmd, " "),
			"error":   err,
		}).Debug("Backend command failed (may already be in desired state)")
	}
}

// netemArgs renders shaping parameters as netem qdisc arguments
func netemArgs(p *types.ShapingParams) []string {
	var args []string

	if p.Delay != nil {
		args = append(args, "delay", p.Delay.String())
		if p.Jitter != nil {
			args = append(args, p.Jitter.String())
			if p.Distribution != "" {
				args = append(args, "distribution", p.Distribution)
			}
		}
	}

	if p.Loss != nil {
		args = append(args, "loss", formatPercent(*p.Loss))
		if p.LossCorrelation != nil {
			args = append(args, formatPercent(*p.LossCorrelation))
		}
	}

	return args
}

// formatPercent renders a percentage the way tc expects, without trailing
// zeros for whole numbers.
func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

// netlinkLinkExists reports whether a link is present in the current namespace
func netlinkLinkExists(name string) bool {
	_, err := netlink.LinkByName(name)
	return err == nil
}

// shellCommander executes backend commands via the shell with a whitelist
// and per-command timeout.
type shellCommander struct {
	log logrus.FieldLogger
}

// commandTimeout bounds each backend invocation
const commandTimeout = 30 * time.Second

// allowedCommands restricts what the shaper may execute
var allowedCommands = map[string]bool{
	"tc":       true,
	"ip":       true,
	"modprobe": true,
}

func (c *shellCommander) Execute(ctx context.Context, cmd []string) (string, error) {
	if len(cmd) == 0 {
		return "", errors.New("command cannot be empty")
	}

	if !allowedCommands[cmd[0]] {
		return "", fmt.Errorf("command not allowed: %s", cmd[0])
	}

	c.log.WithField("command", strings.Join(cmd, " ")).Debug("Executing traffic control command")

	ctxWithTimeout, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	// #nosec G204 - Command arguments are constructed internally and validated above
	execCmd := exec.CommandContext(ctxWithTimeout, cmd[0], cmd[1:]...)
	output, err := execCmd.CombinedOutput()
	if err != nil {
		return string(output), fmt.Errorf("command failed: %w, output: %s", err, string(output))
	}

	return string(output), nil
}

// DryRunCommander prints commands instead of executing them
type DryRunCommander struct {
	Printf func(format string, args ...any)
}

// Execute logs the command it would have run and reports success
func (c *DryRunCommander) Execute(_ context.Context, cmd []string) (string, error) {
	c.Printf("%s\n", strings.Join(cmd, " "))
	return "", nil
}

package profile

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/netem-tools/signalctl/internal/state"
	"github.com/netem-tools/signalctl/internal/types"
)

// Backend is the traffic-shaping surface the controller drives. All
// operations are idempotent; the real implementation swallows backend
// failures, so none of them report errors.
type Backend interface {
	EnsureRedirectReady(ctx context.Context)
	ClearShaping(ctx context.Context)
	InstallEgressShaping(ctx context.Context, dev string, params *types.ShapingParams)
	DestroyRedirect(ctx context.Context)
	Interface() string
	RedirectInterface() string
}

// NamespaceRunner executes a function inside a network namespace
type NamespaceRunner interface {
	RunInNamespace(nsPath string, fn func() error) error
}

// Controller maps a requested profile to a deterministic sequence of
// idempotent backend operations. Every transition is valid from every state:
// each apply clears all prior shaping before installing its own, so a new
// profile fully supersedes the previous one.
type Controller struct {
	backend Backend
	netns   NamespaceRunner
	nsPath  string
	params  map[types.Profile]types.ProfileParams
	state   state.Recorder
	out     io.Writer
	log     logrus.FieldLogger
}

// NewController creates a profile controller. params may be nil to use the
// built-in presets; recorder may be nil to skip state file updates.
func NewController(backend Backend, netns NamespaceRunner, nsPath string,
	params map[types.Profile]types.ProfileParams, recorder state.Recorder,
	out io.Writer, log logrus.FieldLogger) *Controller {
	if log == nil {
		log = logrus.New()
	}
	if params == nil {
		params = types.DefaultProfileParams()
	}

	return &Controller{
		backend: backend,
		netns:   netns,
		nsPath:  nsPath,
		params:  params,
		state:   recorder,
		out:     out,
		log:     log.WithField("package", "profile.controller"),
	}
}

// ApplyProfile transitions the target interface to the given profile:
// clear all shaping, prepare the redirect path (unless turning off), install
// the profile's egress and ingress parameters, and for off destroy the
// redirect interface. Backend failures never surface here; the only errors
// are namespace entry failures.
func (c *Controller) ApplyProfile(ctx context.Context, p types.Profile) error {
	c.log.WithFields(logrus.Fields{
		"profile":   p.String(),
		"interface": c.backend.Interface(),
		"redirect":  c.backend.RedirectInterface(),
	}).Info("Applying profile")

	err := c.netns.RunInNamespace(c.nsPath, func() error {
		c.backend.ClearShaping(ctx)

		if p != types.ProfileOff {
			c.backend.EnsureRedirectReady(ctx)
		}

		pp := c.params[p]
		if !pp.Egress.IsZero() {
			c.backend.InstallEgressShaping(ctx, c.backend.Interface(), pp.Egress)
		}
		if !pp.Ingress.IsZero() {
			c.backend.InstallEgressShaping(ctx, c.backend.RedirectInterface(), pp.Ingress)
		}

		if p == types.ProfileOff {
			c.backend.DestroyRedirect(ctx)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to apply profile %s: %w", p, err)
	}

	if c.state != nil {
		if recErr := c.state.Record(p, c.backend.Interface(), c.backend.RedirectInterface()); recErr != nil {
			c.log.WithError(recErr).Debug("Failed to record applied profile")
		}
	}

	fmt.Fprintln(c.out, p.StatusLine())

	c.log.WithField("profile", p.String()).Info("Profile applied")
	return nil
}

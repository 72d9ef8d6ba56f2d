package network

import (
	"fmt"
	"os"
	"runtime"

	"github.com/sirupsen/logrus"
	"github.com/vishvananda/netns"
)

// NetnsRunner executes shaping operations inside an alternate network
// namespace, for shaping an interface that lives in a container or jail
// rather than on the host.
type NetnsRunner struct {
	log logrus.FieldLogger
}

// NewNetnsRunner creates a new network namespace runner
func NewNetnsRunner(log logrus.FieldLogger) *NetnsRunner {
	if log == nil {
		log = logrus.New()
	}
	return &NetnsRunner{
		log: log.WithField("package", "network.netns"),
	}
}

// RunInNamespace executes fn inside the namespace at nsPath, restoring the
// original namespace afterwards. An empty nsPath runs fn in the current
// namespace. The OS thread stays locked for the duration of fn so the
// namespace switch cannot leak to other goroutines.
func (n *NetnsRunner) RunInNamespace(nsPath string, fn func() error) error {
	if nsPath == "" {
		return fn()
	}

	if _, err := os.Stat(nsPath); os.IsNotExist(err) {
		return fmt.Errorf("namespace path %s does not exist: %w", nsPath, err)
	}

	n.log.WithField("namespace", nsPath).Debug("Executing in network namespace")

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	currentNs, err := netns.Get()
	if err != nil {
		return fmt.Errorf("failed to get current namespace: %w", err)
	}
	defer func() {
		if closeErr := currentNs.Close(); closeErr != nil {
			n.log.WithError(closeErr).Debug("Failed to close original namespace handle")
		}
	}()

	targetNs, err := netns.GetFromPath(nsPath)
	if err != nil {
		return fmt.Errorf("failed to open namespace %s: %w", nsPath, err)
	}

	if err := netns.Set(targetNs); err != nil {
		if closeErr := targetNs.Close(); closeErr != nil {
			n.log.WithError(closeErr).Debug("Failed to close target namespace handle")
		}
		return fmt.Errorf("failed to set namespace %s: %w", nsPath, err)
	}
	if closeErr := targetNs.Close(); closeErr != nil {
		n.log.WithError(closeErr).Debug("Failed to close target namespace handle")
	}

	var fnErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				fnErr = fmt.Errorf("panic in namespace function: %v", r)
			}
		}()
		fnErr = fn()
	}()

	if err := netns.Set(currentNs); err != nil {
		if fnErr != nil {
			return fmt.Errorf("function error: %w, restore error: %w", fnErr, err)
		}
		return fmt.Errorf("failed to restore original namespace: %w", err)
	}

	if fnErr != nil {
		return fmt.Errorf("function execution failed: %w", fnErr)
	}

	n.log.WithField("namespace", nsPath).Debug("Successfully executed in network namespace")
	return nil
}

package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/netem-tools/signalctl/internal/types"
)

// Applied describes the most recently applied profile
type Applied struct {
	Profile   string    `json:"profile"`
	Interface string    `json:"interface"`
	Redirect  string    `json:"redirect_interface"`
	AppliedAt time.Time `json:"applied_at"`
}

// Recorder persists the last applied profile between one-shot invocations
type Recorder interface {
	// Record stores the applied profile
	Record(p types.Profile, iface, redirect string) error
	// Last returns the most recently recorded profile, or ok=false when no
	// profile has been recorded
	Last() (*Applied, bool)
	// Clear removes the record
	Clear() error
}

// fileRecorder implements Recorder with a small JSON file
type fileRecorder struct {
	path string
	log  logrus.FieldLogger
}

// DefaultStatePath is where apply runs record the active profile
const DefaultStatePath = "/run/signalctl/state.json"

// NewFileRecorder creates a recorder backed by the given file path
func NewFileRecorder(path string, log logrus.FieldLogger) Recorder {
	if log == nil {
		log = logrus.New()
	}
	if path == "" {
		path = DefaultStatePath
	}

	return &fileRecorder{
		path: path,
		log:  log.WithField("package", "state"),
	}
}

// Record stores the applied profile
func (r *fileRecorder) Record(p types.Profile, iface, redirect string) error {
	applied := Applied{
		Profile:   p.String(),
		Interface: iface,
		Redirect:  redirect,
		AppliedAt: time.Now(),
	}

	data, err := json.MarshalIndent(applied, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"profile": applied.Profile,
		"path":    r.path,
	}).Debug("Recorded applied profile")

	return nil
}

// Last returns the most recently recorded profile
func (r *fileRecorder) Last() (*Applied, bool) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			r.log.WithError(err).Debug("Failed to read state file")
		}
		return nil, false
	}

	var applied Applied
	if err := json.Unmarshal(data, &applied); err != nil {
		r.log.WithError(err).Debug("Failed to parse state file")
		return nil, false
	}

	return &applied, true
}

// Clear removes the record. Removing an absent record is not an error.
func (r *fileRecorder) Clear() error {
	if err := os.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove state file: %w", err)
	}
	return nil
}

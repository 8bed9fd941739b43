// Package device toggles the system microphone. One Microphone interface
// has a platform-specific implementation chosen at startup.
package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/plugin"
)

var (
	// ErrPermissionDenied is returned when the OS refuses the mute change.
	ErrPermissionDenied = errors.New("microphone: permission denied")
	// ErrDeviceUnavailable is returned when no input device can be controlled.
	ErrDeviceUnavailable = errors.New("microphone: device unavailable")
)

// Microphone enables or disables audio capture.
type Microphone interface {
	SetMicrophoneEnabled(ctx context.Context, enable bool) error
}

// Kind selects a Microphone implementation.
type Kind string

const (
	KindAuto   Kind = "auto"
	KindPactl  Kind = "pactl"
	KindPlugin Kind = "plugin"
	KindNone   Kind = "none"
)

// Options configures New.
type Options struct {
	// Plugins is searched for a plugin with the mic-mute and mic-unmute actions.
	Plugins *plugin.Manager
	// PluginName pins a specific plugin; empty means any capable plugin.
	PluginName string
	// Timeout bounds one toggle call.
	Timeout time.Duration
	Logger  *slog.Logger
}

// New returns the Microphone for kind. KindAuto prefers pactl on Linux when
// it is installed, then a capable plugin, then a no-op that only logs.
func New(kind Kind, opts Options) (Microphone, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch kind {
	case KindPactl:
		return NewPactl(opts.Timeout), nil
	case KindPlugin:
		return NewPluginMicrophone(opts.Plugins, opts.PluginName, opts.Timeout)
	case KindNone:
		return NewNop(logger), nil
	case KindAuto, "":
	default:
		return nil, fmt.Errorf("unknown microphone kind %q", kind)
	}

	if runtime.GOOS == "linux" {
		if _, err := exec.LookPath("pactl"); err == nil {
			logger.Info("using pactl microphone control")
			return NewPactl(opts.Timeout), nil
		}
	}

	if opts.Plugins != nil {
		if mic, err := NewPluginMicrophone(opts.Plugins, opts.PluginName, opts.Timeout); err == nil {
			logger.Info("using plugin microphone control", "plugin", mic.Name())
			return mic, nil
		}
	}

	logger.Warn("no microphone control available, actions will only be logged", "os", runtime.GOOS)
	return NewNop(logger), nil
}

// Nop logs requests without touching any device.
type Nop struct {
	logger *slog.Logger
}

// NewNop creates a Nop microphone.
func NewNop(logger *slog.Logger) *Nop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Nop{logger: logger}
}

// SetMicrophoneEnabled logs the request.
func (n *Nop) SetMicrophoneEnabled(ctx context.Context, enable bool) error {
	n.logger.Info("microphone toggle (no-op)", "enabled", enable)
	return nil
}

// Tracked wraps a Microphone and remembers the last requested state and
// outcome, for status displays.
type Tracked struct {
	Microphone

	mu      sync.RWMutex
	known   bool
	enabled bool
	lastErr error
}

// NewTracked wraps mic.
func NewTracked(mic Microphone) *Tracked {
	return &Tracked{Microphone: mic}
}

// SetMicrophoneEnabled forwards to the wrapped Microphone and records the result.
func (t *Tracked) SetMicrophoneEnabled(ctx context.Context, enable bool) error {
	err := t.Microphone.SetMicrophoneEnabled(ctx, enable)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastErr = err
	if err == nil {
		t.known = true
		t.enabled = enable
	}
	return err
}

// State returns the last successfully applied state. known is false until
// a toggle has succeeded.
func (t *Tracked) State() (enabled, known bool, lastErr error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled, t.known, t.lastErr
}

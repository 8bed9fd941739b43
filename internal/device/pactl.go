package device

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds one toggle command.
const DefaultTimeout = 3 * time.Second

// DefaultSource is PulseAudio's alias for the current input device.
const DefaultSource = "@DEFAULT_SOURCE@"

// Pactl mutes the default PulseAudio/PipeWire source with pactl.
type Pactl struct {
	// Binary is the pactl executable; empty means look it up on PATH.
	Binary  string
	Source  string
	Timeout time.Duration
}

// NewPactl creates a Pactl for the default source.
func NewPactl(timeout time.Duration) *Pactl {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Pactl{
		Binary:  "pactl",
		Source:  DefaultSource,
		Timeout: timeout,
	}
}

// SetMicrophoneEnabled runs `pactl set-source-mute <source> 0|1`.
func (p *Pactl) SetMicrophoneEnabled(ctx context.Context, enable bool) error {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	mute := "1"
	if enable {
		mute = "0"
	}

	cmd := exec.CommandContext(ctx, p.Binary, "set-source-mute", p.Source, mute)
	cmd.WaitDelay = time.Second
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: pactl timed out after %s", ErrDeviceUnavailable, p.Timeout)
		}
		return classifyExecError(err, stderr.String())
	}
	return nil
}

// classifyExecError maps a failed command onto the device error taxonomy.
func classifyExecError(err error, stderr string) error {
	msg := strings.TrimSpace(stderr)
	if msg == "" {
		msg = err.Error()
	}

	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "access denied"),
		strings.Contains(lower, "permission denied"),
		strings.Contains(lower, "not authorized"):
		return fmt.Errorf("%w: %s", ErrPermissionDenied, msg)
	default:
		return fmt.Errorf("%w: %s", ErrDeviceUnavailable, msg)
	}
}

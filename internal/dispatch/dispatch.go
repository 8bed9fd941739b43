// Package dispatch turns confirmed gestures into microphone actions, at most
// one per cooldown window.
package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/binding"
	"github.com/ayusman/mudra/internal/device"
	"github.com/ayusman/mudra/internal/gesture"
)

// DefaultCooldown is the minimum time between two dispatched actions.
const DefaultCooldown = 4 * time.Second

// Action is what the dispatcher did with a confirmed gesture.
type Action string

const (
	ActionNone   Action = ""
	ActionMute   Action = "mute"
	ActionUnmute Action = "unmute"
)

func (a Action) String() string {
	if a == ActionNone {
		return "none"
	}
	return string(a)
}

// Reason explains why a confirmed gesture produced no action.
type Reason string

const (
	ReasonUnbound  Reason = "unbound"
	ReasonCooldown Reason = "cooldown"
)

// Resolver maps a confirmed gesture to the role it triggers.
type Resolver interface {
	Resolve(id gesture.ID) (binding.Role, bool)
}

// Result describes the outcome of OnConfirmedGesture.
type Result struct {
	Gesture gesture.ID
	Role    binding.Role
	Action  Action
	// Suppressed is set when Action is ActionNone.
	Suppressed Reason
	// ToggleErr is the device error of a dispatched action. The action
	// still counts toward the cooldown.
	ToggleErr error
	At        time.Time
}

// Dispatched reports whether an action was attempted.
func (r Result) Dispatched() bool {
	return r.Action != ActionNone
}

// Config holds the dispatcher's collaborators.
type Config struct {
	Cooldown   time.Duration
	Bindings   Resolver
	Microphone device.Microphone
	Logger     *slog.Logger
}

// Dispatcher applies the global cooldown and invokes the microphone.
type Dispatcher struct {
	cooldown time.Duration
	bindings Resolver
	mic      device.Microphone
	logger   *slog.Logger

	mu           sync.Mutex
	lastActionAt time.Time
	fired        bool
}

// New creates a dispatcher. A zero cooldown means DefaultCooldown.
func New(config Config) *Dispatcher {
	if config.Cooldown <= 0 {
		config.Cooldown = DefaultCooldown
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Microphone == nil {
		config.Microphone = device.NewNop(config.Logger)
	}

	return &Dispatcher{
		cooldown: config.Cooldown,
		bindings: config.Bindings,
		mic:      config.Microphone,
		logger:   config.Logger,
	}
}

// Cooldown returns the configured cooldown.
func (d *Dispatcher) Cooldown() time.Duration {
	return d.cooldown
}

// LastActionAt returns when the last action was dispatched, and false if
// none has been yet.
func (d *Dispatcher) LastActionAt() (time.Time, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastActionAt, d.fired
}

// OnConfirmedGesture looks up the role bound to id and, outside the cooldown
// window, toggles the microphone: disabled for MuteTrigger and enabled for
// UnmuteTrigger. A suppressed call leaves the cooldown untouched.
//
// The lock is held across the device call so two concurrent confirmations
// cannot both pass the cooldown check.
func (d *Dispatcher) OnConfirmedGesture(ctx context.Context, id gesture.ID, now time.Time) Result {
	res := Result{Gesture: id, At: now}

	if d.bindings == nil {
		res.Suppressed = ReasonUnbound
		return res
	}
	role, ok := d.bindings.Resolve(id)
	if !ok {
		res.Suppressed = ReasonUnbound
		return res
	}
	res.Role = role

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.fired && now.Sub(d.lastActionAt) <= d.cooldown {
		res.Suppressed = ReasonCooldown
		return res
	}
	d.lastActionAt = now
	d.fired = true

	enable := role == binding.UnmuteTrigger
	if enable {
		res.Action = ActionUnmute
	} else {
		res.Action = ActionMute
	}

	if err := d.mic.SetMicrophoneEnabled(ctx, enable); err != nil {
		res.ToggleErr = err
		d.logger.Warn("microphone toggle failed",
			"action", res.Action, "gesture", id, "error", err)
		return res
	}

	d.logger.Info("action dispatched", "action", res.Action, "gesture", id, "role", role)
	return res
}

// Reset forgets the last dispatched action.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastActionAt = time.Time{}
	d.fired = false
}

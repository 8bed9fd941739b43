// Package app wires landmark acquisition to the gesture pipeline.
package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/binding"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/device"
	"github.com/ayusman/mudra/internal/dispatch"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/metrics"
)

// DefaultFPS is the acquisition rate when none is configured.
const DefaultFPS = 15

// Config holds configuration options for the application.
type Config struct {
	Source        capture.LandmarkSource
	Bindings      *binding.Store
	Microphone    device.Microphone
	HoldThreshold time.Duration
	Cooldown      time.Duration
	FPS           int
	Metrics       *metrics.Metrics
	Logger        *slog.Logger
	// Now defaults to time.Now, whose monotonic reading keeps the timers
	// immune to wall-clock changes.
	Now func() time.Time
}

// Status is a snapshot for the tray and the HTTP API.
type Status struct {
	Running       bool       `json:"running"`
	Enabled       bool       `json:"enabled"`
	MicEnabled    *bool      `json:"mic_enabled"`
	MicError      string     `json:"mic_error,omitempty"`
	LastAction    string     `json:"last_action,omitempty"`
	LastActionAt  *time.Time `json:"last_action_at,omitempty"`
	Cooldown      string     `json:"cooldown"`
	HoldThreshold string     `json:"hold_threshold"`
	DroppedFrames uint64     `json:"dropped_frames"`
}

// App runs frame acquisition and processing on separate goroutines joined
// by a single-slot handoff, so a slow detector or device never queues
// stale frames.
type App struct {
	config   Config
	source   capture.LandmarkSource
	bindings *binding.Store
	mic      *device.Tracked
	pipeline *Pipeline
	latest   *capture.Latest
	logger   *slog.Logger
	now      func() time.Time

	mu         sync.RWMutex
	enabled    bool
	stopCh     chan struct{}
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	lastAction dispatch.Action
	watchers   []func(enabled bool)
}

// New creates an App. Detection starts enabled.
func New(config Config) *App {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.FPS <= 0 {
		config.FPS = DefaultFPS
	}
	if config.Bindings == nil {
		config.Bindings = binding.NewStore(nil, config.Logger)
	}
	if config.Microphone == nil {
		config.Microphone = device.NewNop(config.Logger)
	}

	mic := device.NewTracked(config.Microphone)
	dispatcher := dispatch.New(dispatch.Config{
		Cooldown:   config.Cooldown,
		Bindings:   config.Bindings,
		Microphone: mic,
		Logger:     config.Logger,
	})
	tracker := gesture.NewHoldTracker(config.HoldThreshold)

	a := &App{
		config:   config,
		source:   config.Source,
		bindings: config.Bindings,
		mic:      mic,
		pipeline: NewPipeline(tracker, dispatcher, config.Metrics, config.Logger),
		latest:   capture.NewLatest(),
		logger:   config.Logger,
		now:      config.Now,
		enabled:  true,
	}
	a.pipeline.AddListener(func(res dispatch.Result) {
		a.mu.Lock()
		a.lastAction = res.Action
		a.mu.Unlock()
	})

	return a
}

// SetEnabled enables or disables gesture detection. While disabled no
// frames are acquired. Watchers are called only when the state changes.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	changed := a.enabled != enabled
	a.enabled = enabled
	watchers := append([]func(bool)(nil), a.watchers...)
	a.mu.Unlock()

	if !changed {
		return
	}
	a.logger.Info("gesture detection toggled", "enabled", enabled)
	for _, fn := range watchers {
		fn(enabled)
	}
}

// OnEnabledChange registers fn to be called after detection is enabled or
// disabled, whoever made the change.
func (a *App) OnEnabledChange(fn func(enabled bool)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.watchers = append(a.watchers, fn)
}

// IsEnabled returns whether gesture detection is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// IsRunning reports whether the goroutines are started.
func (a *App) IsRunning() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stopCh != nil
}

// AddListener registers fn for every dispatched action.
func (a *App) AddListener(fn Listener) {
	a.pipeline.AddListener(fn)
}

// Start begins acquisition and processing.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}
	if a.source == nil {
		return errors.New("no landmark source configured")
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.stopCh = make(chan struct{})
	a.cancel = cancel

	a.wg.Add(2)
	go a.acquire(ctx, a.stopCh)
	go a.process(ctx, a.stopCh)

	a.logger.Info("gesture pipeline started", "fps", a.config.FPS)
	return nil
}

// Stop halts both goroutines and waits for them to exit.
func (a *App) Stop() {
	a.mu.Lock()
	if a.stopCh == nil {
		a.mu.Unlock()
		return
	}
	close(a.stopCh)
	a.cancel()
	a.stopCh = nil
	a.mu.Unlock()

	a.wg.Wait()
	a.logger.Info("gesture pipeline stopped")
}

func (a *App) acquire(ctx context.Context, stopCh <-chan struct{}) {
	defer a.wg.Done()

	ticker := time.NewTicker(time.Second / time.Duration(a.config.FPS))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			hand, err := a.source.NextFrame(ctx)
			if errors.Is(err, io.EOF) {
				a.logger.Info("landmark source exhausted")
				return
			}
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				a.logger.Warn("error reading landmarks", "error", err)
				continue
			}

			a.latest.Put(capture.Sample{Hand: hand, At: a.now()})
		}
	}
}

func (a *App) process(ctx context.Context, stopCh <-chan struct{}) {
	defer a.wg.Done()

	for {
		select {
		case <-stopCh:
			return
		case s := <-a.latest.C():
			a.pipeline.Process(ctx, s.Hand, s.At)
		}
	}
}

// Status returns a snapshot of the runtime state.
func (a *App) Status() Status {
	a.mu.RLock()
	st := Status{
		Running:    a.stopCh != nil,
		Enabled:    a.enabled,
		LastAction: string(a.lastAction),
	}
	a.mu.RUnlock()

	enabled, known, err := a.mic.State()
	if known {
		st.MicEnabled = &enabled
	}
	if err != nil {
		st.MicError = err.Error()
	}

	d := a.pipeline.Dispatcher()
	if at, ok := d.LastActionAt(); ok {
		st.LastActionAt = &at
	}
	st.Cooldown = d.Cooldown().String()
	st.HoldThreshold = a.pipeline.Tracker().Threshold().String()
	st.DroppedFrames = a.latest.Dropped()
	return st
}

// Pipeline returns the frame pipeline.
func (a *App) Pipeline() *Pipeline {
	return a.pipeline
}

// Bindings returns the binding store.
func (a *App) Bindings() *binding.Store {
	return a.bindings
}

// Microphone returns the state-tracking microphone.
func (a *App) Microphone() *device.Tracked {
	return a.mic
}

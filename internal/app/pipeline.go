package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/dispatch"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/metrics"
)

// Listener receives every action the dispatcher attempted.
type Listener func(res dispatch.Result)

// Outcome is what one frame produced.
type Outcome struct {
	Classified gesture.ID
	Confirmed  bool
	Result     dispatch.Result
}

// Pipeline runs classify, confirm and dispatch for one frame at a time.
type Pipeline struct {
	tracker    *gesture.HoldTracker
	dispatcher *dispatch.Dispatcher
	metrics    *metrics.Metrics
	logger     *slog.Logger

	mu        sync.Mutex
	listeners []Listener
}

// NewPipeline creates a pipeline. m may be nil.
func NewPipeline(tracker *gesture.HoldTracker, dispatcher *dispatch.Dispatcher, m *metrics.Metrics, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		tracker:    tracker,
		dispatcher: dispatcher,
		metrics:    m,
		logger:     logger,
	}
}

// AddListener registers fn for dispatched actions.
func (p *Pipeline) AddListener(fn Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// Process handles one observation. A nil hand is a frame with no hand; it
// classifies to no gesture and leaves every timer alone.
func (p *Pipeline) Process(ctx context.Context, hand *detector.HandLandmarks, now time.Time) Outcome {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.metrics != nil {
		p.metrics.Frames.Inc()
		if hand != nil {
			p.metrics.HandFrames.Inc()
		}
	}

	out := Outcome{Classified: gesture.Classify(hand)}
	if out.Classified == gesture.None {
		return out
	}
	if p.metrics != nil {
		p.metrics.Classified.WithLabelValues(string(out.Classified)).Inc()
	}

	if !p.tracker.Confirm(out.Classified, now) {
		return out
	}
	out.Confirmed = true
	p.logger.Debug("gesture confirmed", "gesture", out.Classified)
	if p.metrics != nil {
		p.metrics.Confirmed.WithLabelValues(string(out.Classified)).Inc()
	}

	out.Result = p.dispatcher.OnConfirmedGesture(ctx, out.Classified, now)
	p.record(out.Result)

	if out.Result.Dispatched() {
		for _, fn := range p.listeners {
			fn(out.Result)
		}
	}
	return out
}

func (p *Pipeline) record(res dispatch.Result) {
	if !res.Dispatched() {
		if res.Suppressed == dispatch.ReasonCooldown {
			p.logger.Debug("action suppressed by cooldown", "gesture", res.Gesture, "role", res.Role)
		}
		if p.metrics != nil {
			p.metrics.ActionsSuppressed.WithLabelValues(string(res.Suppressed)).Inc()
		}
		return
	}
	if p.metrics == nil {
		return
	}
	p.metrics.ActionsDispatched.WithLabelValues(string(res.Action)).Inc()
	if res.ToggleErr != nil {
		p.metrics.ToggleErrors.Inc()
	}
}

// Tracker returns the hold tracker.
func (p *Pipeline) Tracker() *gesture.HoldTracker {
	return p.tracker
}

// Dispatcher returns the action dispatcher.
func (p *Pipeline) Dispatcher() *dispatch.Dispatcher {
	return p.dispatcher
}

// Package metrics exposes pipeline counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mudra"

// Metrics holds the pipeline counters on their own registry.
type Metrics struct {
	registry *prometheus.Registry

	Frames            prometheus.Counter
	HandFrames        prometheus.Counter
	Classified        *prometheus.CounterVec
	Confirmed         *prometheus.CounterVec
	ActionsDispatched *prometheus.CounterVec
	ActionsSuppressed *prometheus.CounterVec
	ToggleErrors      prometheus.Counter
}

// New creates and registers every counter.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Frames processed by the pipeline.",
		}),
		HandFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hand_frames_total",
			Help:      "Frames in which a hand was detected.",
		}),
		Classified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gestures_classified_total",
			Help:      "Frames classified as a gesture.",
		}, []string{"gesture"}),
		Confirmed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gestures_confirmed_total",
			Help:      "Gesture events that passed the hold tracker.",
		}, []string{"gesture"}),
		ActionsDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_dispatched_total",
			Help:      "Actions sent to the microphone.",
		}, []string{"action"}),
		ActionsSuppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_suppressed_total",
			Help:      "Confirmed gestures that produced no action.",
		}, []string{"reason"}),
		ToggleErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "toggle_errors_total",
			Help:      "Dispatched actions whose microphone toggle failed.",
		}),
	}

	m.registry.MustRegister(
		m.Frames,
		m.HandFrames,
		m.Classified,
		m.Confirmed,
		m.ActionsDispatched,
		m.ActionsSuppressed,
		m.ToggleErrors,
	)

	return m
}

// Registry returns the registry holding the counters.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

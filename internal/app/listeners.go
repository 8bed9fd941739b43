package app

import (
	"log/slog"

	"github.com/ayusman/mudra/internal/dispatch"
	"github.com/ayusman/mudra/internal/store"
)

// EventLog returns a listener that appends every dispatched action to the
// persistent log and then hands the stored event, ID included, to each sink.
// Sinks still run when the write fails.
func EventLog(events *store.EventRepository, logger *slog.Logger, sinks ...func(*store.Event)) Listener {
	return func(res dispatch.Result) {
		e := ToEvent(res)
		if err := events.Create(e); err != nil {
			logger.Warn("failed to record dispatch event", "action", res.Action, "error", err)
		}
		for _, sink := range sinks {
			sink(e)
		}
	}
}

// ToEvent converts a dispatched result to its persisted form.
func ToEvent(res dispatch.Result) *store.Event {
	e := &store.Event{
		Gesture:   string(res.Gesture),
		Role:      string(res.Role),
		Action:    string(res.Action),
		Succeeded: res.ToggleErr == nil,
		CreatedAt: res.At,
	}
	if res.ToggleErr != nil {
		e.Error = res.ToggleErr.Error()
	}
	return e
}

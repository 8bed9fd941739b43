package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/mudra/internal/store"
)

// DefaultEventLimit is the page size when no limit is given.
const DefaultEventLimit = 50

const maxEventLimit = 1000

type listEventsResponse struct {
	Events []*store.Event `json:"events"`
	Total  int            `json:"total"`
}

// EventHandler serves the dispatch log.
type EventHandler struct {
	events *store.EventRepository
}

// NewEventHandler creates an EventHandler over events.
func NewEventHandler(events *store.EventRepository) *EventHandler {
	return &EventHandler{events: events}
}

// Routes registers GET / on r.
func (h *EventHandler) Routes(r chi.Router) {
	r.Get("/", h.list)
}

// list handles GET /api/events?limit=n, newest first.
func (h *EventHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := DefaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxEventLimit)
	}

	events, err := h.events.List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list events")
		return
	}
	total, err := h.events.Count()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count events")
		return
	}

	if events == nil {
		events = []*store.Event{}
	}
	writeJSON(w, http.StatusOK, listEventsResponse{Events: events, Total: total})
}

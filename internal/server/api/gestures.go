package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/mudra/internal/gesture"
)

type gestureResponse struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type listGesturesResponse struct {
	Gestures []gestureResponse `json:"gestures"`
}

// GestureHandler lists the gestures the classifier recognizes.
type GestureHandler struct{}

// NewGestureHandler creates a GestureHandler.
func NewGestureHandler() *GestureHandler {
	return &GestureHandler{}
}

// Routes registers GET / on r.
func (h *GestureHandler) Routes(r chi.Router) {
	r.Get("/", h.list)
}

// list handles GET /api/gestures.
func (h *GestureHandler) list(w http.ResponseWriter, r *http.Request) {
	ids := gesture.All()
	response := listGesturesResponse{Gestures: make([]gestureResponse, 0, len(ids))}
	for _, id := range ids {
		response.Gestures = append(response.Gestures, gestureResponse{ID: string(id), Label: id.Label()})
	}
	writeJSON(w, http.StatusOK, response)
}

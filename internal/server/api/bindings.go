package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/mudra/internal/binding"
	"github.com/ayusman/mudra/internal/gesture"
)

type setBindingRequest struct {
	Gesture string `json:"gesture"`
}

type bindingResponse struct {
	Role    string  `json:"role"`
	Gesture *string `json:"gesture"`
}

type listBindingsResponse struct {
	Bindings []bindingResponse `json:"bindings"`
}

// BindingHandler edits and persists the gesture bindings.
type BindingHandler struct {
	bindings *binding.Store
	logger   *slog.Logger
}

// NewBindingHandler creates a BindingHandler over b.
func NewBindingHandler(b *binding.Store, logger *slog.Logger) *BindingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BindingHandler{bindings: b, logger: logger}
}

// Routes registers the binding endpoints on r.
func (h *BindingHandler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/save", h.save)
	r.Post("/load", h.load)
	r.Get("/{role}", h.get)
	r.Put("/{role}", h.set)
	r.Delete("/{role}", h.clear)
}

func (h *BindingHandler) snapshot() listBindingsResponse {
	response := listBindingsResponse{}
	for _, role := range binding.Roles() {
		response.Bindings = append(response.Bindings, h.describe(role))
	}
	return response
}

func (h *BindingHandler) describe(role binding.Role) bindingResponse {
	resp := bindingResponse{Role: string(role)}
	if id := h.bindings.Get(role); id != gesture.None {
		name := string(id)
		resp.Gesture = &name
	}
	return resp
}

// list handles GET /api/bindings.
func (h *BindingHandler) list(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.snapshot())
}

// get handles GET /api/bindings/{role}.
func (h *BindingHandler) get(w http.ResponseWriter, r *http.Request) {
	role, err := binding.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.describe(role))
}

// set handles PUT /api/bindings/{role}. The change applies immediately but
// is persisted only by a save.
func (h *BindingHandler) set(w http.ResponseWriter, r *http.Request) {
	role, err := binding.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	var req setBindingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id, err := gesture.Parse(req.Gesture)
	if err == nil {
		err = h.bindings.Set(role, id)
	}
	if err != nil {
		if errors.Is(err, gesture.ErrUnknownGesture) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.Info("binding changed", "role", role, "gesture", id)
	writeJSON(w, http.StatusOK, h.describe(role))
}

// clear handles DELETE /api/bindings/{role}.
func (h *BindingHandler) clear(w http.ResponseWriter, r *http.Request) {
	role, err := binding.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err := h.bindings.Clear(role); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.Info("binding cleared", "role", role)
	w.WriteHeader(http.StatusNoContent)
}

// save handles POST /api/bindings/save.
func (h *BindingHandler) save(w http.ResponseWriter, r *http.Request) {
	if err := h.bindings.Save(); err != nil {
		h.logger.Error("failed to save bindings", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save bindings")
		return
	}
	writeJSON(w, http.StatusOK, h.snapshot())
}

// load handles POST /api/bindings/load, discarding unsaved edits.
func (h *BindingHandler) load(w http.ResponseWriter, r *http.Request) {
	h.bindings.Load()
	writeJSON(w, http.StatusOK, h.snapshot())
}

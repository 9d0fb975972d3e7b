// Package api provides HTTP API handlers for the mudra gesture engine.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
)

// GestureHandler serves the gesture tag table. Changes apply on the next
// start; the running engine keeps the configuration it was built with.
type GestureHandler struct {
	store *store.Store
}

// NewGestureHandler creates a new GestureHandler with the given store.
func NewGestureHandler(s *store.Store) *GestureHandler {
	return &GestureHandler{store: s}
}

// ServeHTTP routes /api/gestures and /api/gestures/{kind}.
func (h *GestureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/gestures")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	kind, err := gesture.ParseKind(path)
	if err != nil || kind == gesture.KindNone {
		writeError(w, http.StatusNotFound, "Unknown gesture")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, kind)
	case http.MethodPut:
		h.update(w, r, kind)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type updateGestureRequest struct {
	Class    *string `json:"class"`
	Position *int    `json:"position"`
	Enabled  *bool   `json:"enabled"`
}

type gestureResponse struct {
	Kind      string `json:"kind"`
	Class     string `json:"class"`
	Position  int    `json:"position"`
	Enabled   bool   `json:"enabled"`
	UpdatedAt string `json:"updated_at"`
}

type listGesturesResponse struct {
	Gestures []gestureResponse `json:"gestures"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toGestureResponse(t *store.GestureTag) gestureResponse {
	return gestureResponse{
		Kind:      t.Kind,
		Class:     t.Class,
		Position:  t.Position,
		Enabled:   t.Enabled,
		UpdatedAt: t.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func (h *GestureHandler) list(w http.ResponseWriter, r *http.Request) {
	tags, err := h.store.Tags().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list gestures")
		return
	}

	response := listGesturesResponse{
		Gestures: make([]gestureResponse, 0, len(tags)),
	}
	for _, t := range tags {
		response.Gestures = append(response.Gestures, toGestureResponse(t))
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *GestureHandler) get(w http.ResponseWriter, r *http.Request, kind gesture.Kind) {
	tag, err := h.store.Tags().Get(kind.String())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Gesture not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get gesture")
		return
	}

	writeJSON(w, http.StatusOK, toGestureResponse(tag))
}

// update handles PUT /api/gestures/{kind}. Missing rows are created with
// class none at the end of the registration order.
func (h *GestureHandler) update(w http.ResponseWriter, r *http.Request, kind gesture.Kind) {
	var req updateGestureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	tag, err := h.store.Tags().Get(kind.String())
	switch {
	case errors.Is(err, store.ErrNotFound):
		tags, err := h.store.Tags().List()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to list gestures")
			return
		}
		tag = &store.GestureTag{
			Kind:     kind.String(),
			Class:    gesture.ClassNone.String(),
			Position: len(tags),
			Enabled:  true,
		}
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to get gesture")
		return
	}

	if req.Class != nil {
		class, err := gesture.ParseClass(*req.Class)
		if err != nil {
			writeError(w, http.StatusBadRequest, "class must be one of none, show, hide")
			return
		}
		tag.Class = class.String()
	}
	if req.Position != nil {
		if *req.Position < 0 {
			writeError(w, http.StatusBadRequest, "position must not be negative")
			return
		}
		tag.Position = *req.Position
	}
	if req.Enabled != nil {
		tag.Enabled = *req.Enabled
	}

	if err := h.store.Tags().Upsert(tag); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update gesture")
		return
	}

	writeJSON(w, http.StatusOK, toGestureResponse(tag))
}

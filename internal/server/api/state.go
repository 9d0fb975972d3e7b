package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/mudra/internal/gesture"
)

// StateHandler exposes the engine's debounce state so a host can persist it
// across restarts.
type StateHandler struct {
	engine *gesture.Engine
}

// NewStateHandler creates a StateHandler for e.
func NewStateHandler(e *gesture.Engine) *StateHandler {
	return &StateHandler{engine: e}
}

type stateResponse struct {
	State      gesture.State `json:"state"`
	Phase      gesture.Phase `json:"phase"`
	Threshold  float64       `json:"threshold"`
	HoldFrames int           `json:"hold_frames"`
}

// ServeHTTP handles GET, PUT and DELETE on /api/state.
func (h *StateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.respond(w)
	case http.MethodPut:
		var s gesture.State
		if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if err := h.engine.Restore(s); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.respond(w)
	case http.MethodDelete:
		h.engine.Reset()
		h.respond(w)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *StateHandler) respond(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, stateResponse{
		State:      h.engine.Snapshot(),
		Phase:      h.engine.Phase(),
		Threshold:  h.engine.Threshold(),
		HoldFrames: h.engine.HoldFrames(),
	})
}

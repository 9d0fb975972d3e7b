package api

import (
	"context"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

// maxFrameBytes bounds a single ingested frame body.
const maxFrameBytes = 1 << 20

// FrameProcessor runs one landmark frame through the engine and dispatcher.
type FrameProcessor interface {
	ProcessFrame(ctx context.Context, f detector.Frame) []gesture.Event
}

// FrameHandler accepts landmark frames over HTTP.
type FrameHandler struct {
	processor     FrameProcessor
	log           *zap.Logger
	onDecodeError func(error)
}

// NewFrameHandler creates a FrameHandler. onDecodeError may be nil.
func NewFrameHandler(p FrameProcessor, log *zap.Logger, onDecodeError func(error)) *FrameHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &FrameHandler{processor: p, log: log, onDecodeError: onDecodeError}
}

type framesResponse struct {
	Events []gesture.Event `json:"events"`
}

// ServeHTTP handles POST /api/frames with one wire frame as the body.
func (h *FrameHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxFrameBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "Frame too large")
		return
	}

	frame, err := detector.DecodeFrame(body)
	if err != nil {
		h.log.Debug("rejecting frame", zap.Error(err))
		if h.onDecodeError != nil {
			h.onDecodeError(err)
		}
		writeError(w, http.StatusBadRequest, "Invalid frame")
		return
	}

	events := h.processor.ProcessFrame(r.Context(), frame)
	if events == nil {
		events = []gesture.Event{}
	}
	writeJSON(w, http.StatusOK, framesResponse{Events: events})
}

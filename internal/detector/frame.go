package detector

import (
	"encoding/json"
	"fmt"
)

// MaxHands is the number of hands the engine considers per frame. Upstream
// models may report more; the extras are ignored.
const MaxHands = 2

// Frame is the landmark set for one tracked video frame.
type Frame struct {
	Seq       uint64          `json:"seq,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"` // milliseconds
	Hands     []HandLandmarks `json:"hands"`
}

// Capped returns at most MaxHands hands in landmark-source order.
func (f Frame) Capped() []HandLandmarks {
	if len(f.Hands) > MaxHands {
		return f.Hands[:MaxHands]
	}
	return f.Hands
}

// DecodeFrame parses one wire frame. Hands with the wrong number of points are
// kept as-is so they fail closed during classification instead of dropping the
// whole frame.
func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	return f, nil
}

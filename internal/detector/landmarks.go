// Package detector defines the per-frame hand landmark contract consumed by the
// gesture engine and the sources that produce it.
package detector

import (
	"errors"
	"math"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Fingertips lists the tip indices from thumb to pinky.
var Fingertips = [5]int{ThumbTip, IndexTip, MiddleTip, RingTip, PinkyTip}

// ErrMalformedHand is returned when a hand does not carry exactly NumLandmarks
// finite points.
var ErrMalformedHand = errors.New("malformed hand landmarks")

// Point3D is a landmark in normalized image coordinates. X and Y are in [0,1]
// relative to the frame, origin top-left, Y increasing downward.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Distance2D returns the Euclidean distance between a and b in the image plane.
func Distance2D(a, b Point3D) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func (p Point3D) finite() bool {
	for _, v := range [3]float64{p.X, p.Y, p.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// HandLandmarks is one detected hand. Points holds NumLandmarks entries in
// MediaPipe index order when the hand is well formed.
type HandLandmarks struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness,omitempty"` // "Left" or "Right"
	Score      float64   `json:"score,omitempty"`
}

// Validate reports ErrMalformedHand if the hand breaks the 21-point contract.
func (h *HandLandmarks) Validate() error {
	if h == nil || len(h.Points) != NumLandmarks {
		return ErrMalformedHand
	}
	for _, p := range h.Points {
		if !p.finite() {
			return ErrMalformedHand
		}
	}
	return nil
}

// Valid is shorthand for Validate() == nil.
func (h *HandLandmarks) Valid() bool {
	return h.Validate() == nil
}

// At returns the landmark at index i. The hand must be valid.
func (h *HandLandmarks) At(i int) Point3D {
	return h.Points[i]
}

package detector

import (
	"context"
	"io"
	"sync"
)

// MockSource is a test implementation of the Source interface that plays back
// a fixed list of frames.
type MockSource struct {
	frames []Frame
	index  int
	err    error
	closed bool
	mu     sync.Mutex
}

// NewMockSource creates a MockSource that yields frames in order, then io.EOF.
func NewMockSource(frames ...Frame) *MockSource {
	return &MockSource{frames: frames}
}

// SetError sets the error that will be returned by Next.
func (m *MockSource) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Next returns the next pre-configured frame.
func (m *MockSource) Next(ctx context.Context) (Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	if m.err != nil {
		return Frame{}, m.err
	}
	if m.closed || m.index >= len(m.frames) {
		return Frame{}, io.EOF
	}

	f := m.frames[m.index]
	m.index++
	if f.Seq == 0 {
		f.Seq = uint64(m.index)
	}
	return f, nil
}

// Close marks the source exhausted.
func (m *MockSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Repeat returns n copies of f.
func Repeat(f Frame, n int) []Frame {
	out := make([]Frame, n)
	for i := range out {
		out[i] = f
	}
	return out
}

// FrameOf builds a frame from the given hands.
func FrameOf(hands ...HandLandmarks) Frame {
	return Frame{Hands: hands}
}

func newHand(handedness string) HandLandmarks {
	return HandLandmarks{
		Points:     make([]Point3D, NumLandmarks),
		Handedness: handedness,
		Score:      0.95,
	}
}

// MiddleFingerLandmarks returns a right hand with the middle finger raised and
// the thumb, index, ring and pinky curled.
func MiddleFingerLandmarks() HandLandmarks {
	h := newHand("Right")

	h.Points[Wrist] = Point3D{X: 0.50, Y: 0.80}

	// Thumb folded across the palm, tip below the IP joint
	h.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75}
	h.Points[ThumbMCP] = Point3D{X: 0.58, Y: 0.70}
	h.Points[ThumbIP] = Point3D{X: 0.57, Y: 0.66}
	h.Points[ThumbTip] = Point3D{X: 0.54, Y: 0.69}

	h.Points[IndexMCP] = Point3D{X: 0.55, Y: 0.62}
	h.Points[IndexPIP] = Point3D{X: 0.56, Y: 0.56, Z: -0.03}
	h.Points[IndexDIP] = Point3D{X: 0.55, Y: 0.60, Z: -0.05}
	h.Points[IndexTip] = Point3D{X: 0.54, Y: 0.63, Z: -0.04}

	// Middle finger straight up
	h.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.60}
	h.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.48}
	h.Points[MiddleDIP] = Point3D{X: 0.50, Y: 0.40}
	h.Points[MiddleTip] = Point3D{X: 0.50, Y: 0.32}

	h.Points[RingMCP] = Point3D{X: 0.45, Y: 0.62}
	h.Points[RingPIP] = Point3D{X: 0.45, Y: 0.57, Z: -0.03}
	h.Points[RingDIP] = Point3D{X: 0.46, Y: 0.61, Z: -0.05}
	h.Points[RingTip] = Point3D{X: 0.47, Y: 0.64, Z: -0.04}

	h.Points[PinkyMCP] = Point3D{X: 0.41, Y: 0.65}
	h.Points[PinkyPIP] = Point3D{X: 0.41, Y: 0.61, Z: -0.03}
	h.Points[PinkyDIP] = Point3D{X: 0.42, Y: 0.64, Z: -0.05}
	h.Points[PinkyTip] = Point3D{X: 0.43, Y: 0.66, Z: -0.04}

	return h
}

// OpenPalmLandmarks returns a right hand with all fingers extended upward.
func OpenPalmLandmarks() HandLandmarks {
	h := newHand("Right")

	h.Points[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	h.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.02}
	h.Points[ThumbMCP] = Point3D{X: 0.62, Y: 0.70, Z: 0.03}
	h.Points[ThumbIP] = Point3D{X: 0.68, Y: 0.65, Z: 0.03}
	h.Points[ThumbTip] = Point3D{X: 0.73, Y: 0.60, Z: 0.03}

	h.Points[IndexMCP] = Point3D{X: 0.55, Y: 0.68, Z: 0.0}
	h.Points[IndexPIP] = Point3D{X: 0.57, Y: 0.55, Z: 0.0}
	h.Points[IndexDIP] = Point3D{X: 0.58, Y: 0.45, Z: 0.0}
	h.Points[IndexTip] = Point3D{X: 0.58, Y: 0.35, Z: 0.0}

	h.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.66, Z: 0.0}
	h.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.52, Z: 0.0}
	h.Points[MiddleDIP] = Point3D{X: 0.50, Y: 0.40, Z: 0.0}
	h.Points[MiddleTip] = Point3D{X: 0.50, Y: 0.28, Z: 0.0}

	h.Points[RingMCP] = Point3D{X: 0.45, Y: 0.68, Z: 0.0}
	h.Points[RingPIP] = Point3D{X: 0.43, Y: 0.55, Z: 0.0}
	h.Points[RingDIP] = Point3D{X: 0.42, Y: 0.45, Z: 0.0}
	h.Points[RingTip] = Point3D{X: 0.42, Y: 0.35, Z: 0.0}

	h.Points[PinkyMCP] = Point3D{X: 0.40, Y: 0.70, Z: 0.0}
	h.Points[PinkyPIP] = Point3D{X: 0.37, Y: 0.60, Z: 0.0}
	h.Points[PinkyDIP] = Point3D{X: 0.35, Y: 0.50, Z: 0.0}
	h.Points[PinkyTip] = Point3D{X: 0.34, Y: 0.42, Z: 0.0}

	return h
}

// PrayerHands returns two hands pressed together with fingers up. The middle
// MCP joints are 0.05 apart and every fingertip pair is 0.1 apart, with all
// eight non-thumb fingertips above their wrists.
func PrayerHands() (HandLandmarks, HandLandmarks) {
	left := newHand("Left")

	left.Points[Wrist] = Point3D{X: 0.40, Y: 0.80}

	left.Points[ThumbCMC] = Point3D{X: 0.42, Y: 0.74}
	left.Points[ThumbMCP] = Point3D{X: 0.44, Y: 0.68}
	left.Points[ThumbIP] = Point3D{X: 0.45, Y: 0.62}
	left.Points[ThumbTip] = Point3D{X: 0.45, Y: 0.56}

	left.Points[IndexMCP] = Point3D{X: 0.46, Y: 0.58}
	left.Points[IndexPIP] = Point3D{X: 0.455, Y: 0.48}
	left.Points[IndexDIP] = Point3D{X: 0.452, Y: 0.42}
	left.Points[IndexTip] = Point3D{X: 0.45, Y: 0.36}

	left.Points[MiddleMCP] = Point3D{X: 0.475, Y: 0.57}
	left.Points[MiddlePIP] = Point3D{X: 0.47, Y: 0.46}
	left.Points[MiddleDIP] = Point3D{X: 0.46, Y: 0.39}
	left.Points[MiddleTip] = Point3D{X: 0.45, Y: 0.32}

	left.Points[RingMCP] = Point3D{X: 0.47, Y: 0.59}
	left.Points[RingPIP] = Point3D{X: 0.465, Y: 0.49}
	left.Points[RingDIP] = Point3D{X: 0.455, Y: 0.43}
	left.Points[RingTip] = Point3D{X: 0.45, Y: 0.38}

	left.Points[PinkyMCP] = Point3D{X: 0.46, Y: 0.62}
	left.Points[PinkyPIP] = Point3D{X: 0.455, Y: 0.54}
	left.Points[PinkyDIP] = Point3D{X: 0.452, Y: 0.49}
	left.Points[PinkyTip] = Point3D{X: 0.45, Y: 0.44}

	return left, Mirror(left)
}

// Mirror reflects a hand about the vertical centre line of the frame and flips
// its handedness.
func Mirror(h HandLandmarks) HandLandmarks {
	m := HandLandmarks{
		Points: make([]Point3D, len(h.Points)),
		Score:  h.Score,
	}
	switch h.Handedness {
	case "Left":
		m.Handedness = "Right"
	case "Right":
		m.Handedness = "Left"
	}
	for i, p := range h.Points {
		m.Points[i] = Point3D{X: 1 - p.X, Y: p.Y, Z: p.Z}
	}
	return m
}

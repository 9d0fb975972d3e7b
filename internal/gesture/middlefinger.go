package gesture

import "github.com/ayusman/mudra/internal/detector"

// Middle-finger weights. The confidence is the exact sum of the weights of
// the conditions that hold.
const (
	MiddleExtendedWeight = 0.4
	CurledWeight         = 0.15
)

// MiddleFingerPose breaks a hand down into the five conditions scored by the
// middle-finger classifier.
type MiddleFingerPose struct {
	MiddleExtended bool
	IndexCurled    bool
	RingCurled     bool
	PinkyCurled    bool
	ThumbCurled    bool
}

// ReadMiddleFingerPose compares fingertips with their lower joints by image
// height only. There is no hand-size normalization, so the result depends on
// the hand's distance from the camera.
func ReadMiddleFingerPose(h detector.HandLandmarks) MiddleFingerPose {
	p := h.Points
	return MiddleFingerPose{
		MiddleExtended: p[detector.MiddleTip].Y < p[detector.MiddlePIP].Y &&
			p[detector.MiddlePIP].Y < p[detector.MiddleMCP].Y,
		IndexCurled: p[detector.IndexTip].Y > p[detector.IndexPIP].Y,
		RingCurled:  p[detector.RingTip].Y > p[detector.RingPIP].Y,
		PinkyCurled: p[detector.PinkyTip].Y > p[detector.PinkyPIP].Y,
		ThumbCurled: p[detector.ThumbTip].Y > p[detector.ThumbIP].Y,
	}
}

// Confidence returns the weighted sum for the pose. Curled fingers are counted
// first and multiplied, so two curled fingers with the middle extended score
// exactly 0.7 and do not pass the default threshold. Adding the weights one at
// a time would land a rounding step above 0.7.
func (m MiddleFingerPose) Confidence() float64 {
	curled := 0
	for _, c := range [4]bool{m.IndexCurled, m.RingCurled, m.PinkyCurled, m.ThumbCurled} {
		if c {
			curled++
		}
	}

	conf := float64(curled) * CurledWeight
	if m.MiddleExtended {
		conf += MiddleExtendedWeight
	}
	return conf
}

// MiddleFinger returns the single-hand middle-finger classifier.
func MiddleFinger() Classifier {
	return Classifier{
		Kind:  KindMiddleFinger,
		Arity: SingleHand,
		Score: func(hands []detector.HandLandmarks) float64 {
			return ReadMiddleFingerPose(hands[0]).Confidence()
		},
	}
}

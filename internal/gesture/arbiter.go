package gesture

import (
	"fmt"

	"github.com/ayusman/mudra/internal/detector"
)

// DefaultThreshold is the confidence a candidate must exceed to be reported.
const DefaultThreshold = 0.7

// Arbiter picks at most one gesture per frame. It is first-match, not
// best-of: registration order breaks ties.
type Arbiter struct {
	threshold  float64
	twoHand    []Classifier
	singleHand []Classifier
}

// NewArbiter creates an Arbiter. Classifiers keep their relative order within
// each arity.
func NewArbiter(threshold float64, classifiers []Classifier) (*Arbiter, error) {
	if err := validateThreshold(threshold); err != nil {
		return nil, err
	}

	a := &Arbiter{threshold: threshold}
	for _, c := range classifiers {
		switch c.Arity {
		case SingleHand:
			a.singleHand = append(a.singleHand, c)
		case TwoHands:
			a.twoHand = append(a.twoHand, c)
		default:
			return nil, fmt.Errorf("classifier %q has unsupported arity %d", c.Kind, c.Arity)
		}
	}
	return a, nil
}

// Threshold returns the configured confidence threshold.
func (a *Arbiter) Threshold() float64 {
	return a.threshold
}

// Arbitrate classifies a frame. Two-hand gestures are checked first when the
// frame holds exactly two hands; then every single-hand classifier runs
// against each hand in source order. The first candidate above the threshold
// wins, otherwise the result is None.
func (a *Arbiter) Arbitrate(f detector.Frame) Candidate {
	hands := f.Capped()
	if len(hands) == 0 {
		return None
	}

	if len(hands) == 2 {
		for _, c := range a.twoHand {
			if cand := c.Classify(hands...); cand.Confidence > a.threshold {
				return cand
			}
		}
	}

	for _, h := range hands {
		for _, c := range a.singleHand {
			if cand := c.Classify(h); cand.Confidence > a.threshold {
				return cand
			}
		}
	}

	return None
}

func validateThreshold(t float64) error {
	if !(t > 0 && t <= 1) {
		return fmt.Errorf("%w: confidence threshold must be in (0,1], got %v", ErrInvalidOptions, t)
	}
	return nil
}

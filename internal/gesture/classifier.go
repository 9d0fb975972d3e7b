package gesture

import (
	"fmt"

	"github.com/ayusman/mudra/internal/detector"
)

// Candidate is the per-frame classification result.
type Candidate struct {
	Kind       Kind    `json:"gesture"`
	Confidence float64 `json:"confidence"`
}

// None is the candidate for frames where nothing cleared the threshold.
var None = Candidate{Kind: KindNone}

// Arity is the number of hands a classifier consumes.
type Arity int

const (
	// SingleHand classifiers run once per hand in the frame.
	SingleHand Arity = 1
	// TwoHands classifiers run once per frame that holds exactly two hands.
	TwoHands Arity = 2
)

// ScoreFunc computes a confidence for well-formed hands. It receives exactly as
// many hands as the classifier's Arity.
type ScoreFunc func(hands []detector.HandLandmarks) float64

// Classifier pairs a scoring function with the gesture it declares.
type Classifier struct {
	Kind  Kind
	Arity Arity
	Score ScoreFunc
}

// Classify scores hands. It fails closed: the wrong number of hands or any
// malformed hand yields confidence 0. Results are clamped to [0,1].
func (c Classifier) Classify(hands ...detector.HandLandmarks) Candidate {
	if len(hands) != int(c.Arity) || c.Score == nil {
		return Candidate{Kind: c.Kind}
	}
	for i := range hands {
		if !hands[i].Valid() {
			return Candidate{Kind: c.Kind}
		}
	}
	return Candidate{Kind: c.Kind, Confidence: clamp01(c.Score(hands))}
}

func clamp01(v float64) float64 {
	switch {
	case v != v, v < 0: // NaN or negative
		return 0
	case v > 1:
		return 1
	}
	return v
}

// Params carries the tunable constants of the built-in classifiers.
type Params struct {
	Prayer PrayerParams
}

// DefaultParams returns the built-in classifier constants.
func DefaultParams() Params {
	return Params{Prayer: DefaultPrayerParams()}
}

// DefaultOrder is the default classifier registration order.
func DefaultOrder() []Kind {
	return []Kind{KindPrayer, KindMiddleFinger}
}

// Builtin returns the built-in classifier for k.
func Builtin(k Kind, p Params) (Classifier, error) {
	switch k {
	case KindMiddleFinger:
		return MiddleFinger(), nil
	case KindPrayer:
		if err := p.Prayer.Validate(); err != nil {
			return Classifier{}, err
		}
		return Prayer(p.Prayer), nil
	}
	return Classifier{}, fmt.Errorf("no classifier for gesture %q", k)
}

// BuildClassifiers resolves an ordered gesture list into classifiers. Order is
// kept because the arbiter is first-match.
func BuildClassifiers(order []Kind, p Params) ([]Classifier, error) {
	seen := make(map[Kind]bool, len(order))
	out := make([]Classifier, 0, len(order))
	for _, k := range order {
		if seen[k] {
			return nil, fmt.Errorf("gesture %q registered twice", k)
		}
		seen[k] = true

		c, err := Builtin(k, p)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

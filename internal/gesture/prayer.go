package gesture

import (
	"fmt"

	"github.com/ayusman/mudra/internal/detector"
)

// PrayerParams holds the prayer-hands decision constants.
type PrayerParams struct {
	MaxPalmDistance      float64 // middle MCP to middle MCP
	MaxFingertipDistance float64 // mean of the five fingertip pair distances
	MinFingersUp         int     // non-thumb fingertips above their wrist, both hands
	CloseWeight          float64
	UpwardWeight         float64
}

// DefaultPrayerParams returns the reference thresholds and weights.
func DefaultPrayerParams() PrayerParams {
	return PrayerParams{
		MaxPalmDistance:      0.15,
		MaxFingertipDistance: 0.2,
		MinFingersUp:         6,
		CloseWeight:          0.6,
		UpwardWeight:         0.4,
	}
}

// Validate rejects parameters that could never match or that exceed [0,1].
func (p PrayerParams) Validate() error {
	switch {
	case p.MaxPalmDistance <= 0:
		return fmt.Errorf("prayer palm distance must be positive, got %v", p.MaxPalmDistance)
	case p.MaxFingertipDistance <= 0:
		return fmt.Errorf("prayer fingertip distance must be positive, got %v", p.MaxFingertipDistance)
	case p.MinFingersUp < 0 || p.MinFingersUp > 8:
		return fmt.Errorf("prayer fingers up must be within [0,8], got %d", p.MinFingersUp)
	case p.CloseWeight < 0 || p.UpwardWeight < 0 || p.CloseWeight+p.UpwardWeight > 1:
		return fmt.Errorf("prayer weights must be non-negative and sum to at most 1")
	}
	return nil
}

// PrayerMeasure holds the raw geometry the prayer classifier decides on.
type PrayerMeasure struct {
	PalmDistance      float64
	FingertipDistance float64
	FingersUp         int
}

// MeasurePrayer computes palm distance, mean fingertip distance and the upward
// finger count for a pair of hands.
func MeasurePrayer(a, b detector.HandLandmarks) PrayerMeasure {
	var m PrayerMeasure

	m.PalmDistance = detector.Distance2D(a.Points[detector.MiddleMCP], b.Points[detector.MiddleMCP])

	for _, tip := range detector.Fingertips {
		m.FingertipDistance += detector.Distance2D(a.Points[tip], b.Points[tip])
	}
	m.FingertipDistance /= float64(len(detector.Fingertips))

	// Thumb is skipped
	for _, tip := range detector.Fingertips[1:] {
		if a.Points[tip].Y < a.Points[detector.Wrist].Y {
			m.FingersUp++
		}
		if b.Points[tip].Y < b.Points[detector.Wrist].Y {
			m.FingersUp++
		}
	}

	return m
}

// Confidence scores a measurement.
func (p PrayerParams) Confidence(m PrayerMeasure) float64 {
	var conf float64
	if m.PalmDistance < p.MaxPalmDistance && m.FingertipDistance < p.MaxFingertipDistance {
		conf += p.CloseWeight
	}
	if m.FingersUp >= p.MinFingersUp {
		conf += p.UpwardWeight
	}
	return conf
}

// Prayer returns the two-hand prayer classifier.
func Prayer(p PrayerParams) Classifier {
	return Classifier{
		Kind:  KindPrayer,
		Arity: TwoHands,
		Score: func(hands []detector.HandLandmarks) float64 {
			return p.Confidence(MeasurePrayer(hands[0], hands[1]))
		},
	}
}

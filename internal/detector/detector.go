package detector

import "context"

// Source delivers landmark frames, one per tracked video frame.
type Source interface {
	// Next blocks until the next frame is available. It returns io.EOF once
	// the source is exhausted.
	Next(ctx context.Context) (Frame, error)

	// Close releases any resources held by the source.
	Close() error
}

// Config holds options passed to an external landmark extractor.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64
}

// DefaultConfig mirrors the tracker settings the gesture thresholds were tuned
// against.
func DefaultConfig() Config {
	return Config{
		MaxHands:        MaxHands,
		MinConfidence:   0.7,
		MinTrackingConf: 0.7,
	}
}

package config

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ayusman/mudra/internal/gesture"
)

// Validate fails fast on any setting the engine could not run with.
func (c *Config) Validate() error {
	_, err := c.Gesture.resolve()
	return err
}

// EngineOptions converts the gesture configuration into engine options.
func (c *Config) EngineOptions(log *zap.Logger) (gesture.EngineOptions, error) {
	r, err := c.Gesture.resolve()
	if err != nil {
		return gesture.EngineOptions{}, err
	}
	params := gesture.Params{Prayer: c.Gesture.Prayer}
	return gesture.EngineOptions{
		Threshold:    c.Gesture.Threshold,
		HoldFrames:   c.Gesture.HoldFrames,
		Tags:         r.tags,
		Order:        r.order,
		Params:       &params,
		EmitObserved: c.Gesture.EmitObserved,
		Logger:       log,
	}, nil
}

type resolved struct {
	tags  gesture.Tags
	order []gesture.Kind
}

func (g GestureConfig) resolve() (resolved, error) {
	if !(g.Threshold > 0 && g.Threshold <= 1) {
		return resolved{}, fmt.Errorf("%w: confidence threshold must be in (0,1], got %v", ErrInvalidConfig, g.Threshold)
	}
	if g.HoldFrames <= 0 {
		return resolved{}, fmt.Errorf("%w: hold frames must be positive, got %d", ErrInvalidConfig, g.HoldFrames)
	}
	if err := g.Prayer.Validate(); err != nil {
		return resolved{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	r := resolved{tags: gesture.Tags{}}

	tag := func(names []string, class gesture.Class) error {
		for _, name := range names {
			k, err := parseGesture(name)
			if err != nil {
				return err
			}
			if prev, ok := r.tags[k]; ok && prev != class {
				return fmt.Errorf("%w: gesture %q is tagged both %s and %s", ErrInvalidConfig, k, prev, class)
			}
			r.tags[k] = class
		}
		return nil
	}
	if err := tag(g.Show, gesture.ClassShow); err != nil {
		return resolved{}, err
	}
	if err := tag(g.Hide, gesture.ClassHide); err != nil {
		return resolved{}, err
	}

	seen := make(map[gesture.Kind]bool, len(g.Order))
	for _, name := range g.Order {
		k, err := parseGesture(name)
		if err != nil {
			return resolved{}, err
		}
		if seen[k] {
			return resolved{}, fmt.Errorf("%w: classifier %q listed twice", ErrInvalidConfig, k)
		}
		seen[k] = true
		r.order = append(r.order, k)
	}
	if r.order == nil {
		r.order = []gesture.Kind{}
	}

	return r, nil
}

func parseGesture(name string) (gesture.Kind, error) {
	k, err := gesture.ParseKind(name)
	if err != nil {
		return gesture.KindNone, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if k == gesture.KindNone {
		return gesture.KindNone, fmt.Errorf("%w: %q is not a gesture", ErrInvalidConfig, name)
	}
	return k, nil
}

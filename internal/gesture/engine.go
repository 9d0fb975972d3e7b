package gesture

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ayusman/mudra/internal/detector"
)

// ErrInvalidOptions is returned for engine settings or states that cannot be
// used.
var ErrInvalidOptions = errors.New("invalid gesture options")

// EngineOptions configures an Engine. Zero values select the defaults.
type EngineOptions struct {
	Threshold  float64
	HoldFrames int
	Tags       Tags
	Order      []Kind
	Params     *Params

	// Classifiers overrides Order and Params when set.
	Classifiers []Classifier

	// EmitObserved adds an observed event for every frame, none included.
	EmitObserved bool

	Logger *zap.Logger
}

func (o EngineOptions) withDefaults() EngineOptions {
	if o.Threshold == 0 {
		o.Threshold = DefaultThreshold
	}
	if o.HoldFrames == 0 {
		o.HoldFrames = DefaultHoldFrames
	}
	if o.Tags == nil {
		o.Tags = DefaultTags()
	}
	if o.Order == nil {
		o.Order = DefaultOrder()
	}
	if o.Params == nil {
		p := DefaultParams()
		o.Params = &p
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Result is the outcome of a single frame.
type Result struct {
	Seq       uint64
	Candidate Candidate
	// Malformed counts hands that were dropped before classification.
	Malformed int
	Events    []Event
}

// Engine combines the arbiter and the debouncer. One Engine serves one
// landmark stream; calls are serialized so a frame is fully applied before
// the next one is looked at.
type Engine struct {
	mu        sync.Mutex
	arbiter   *Arbiter
	debouncer *Debouncer
	observe   bool
	log       *zap.Logger
}

// NewEngine builds an Engine from options.
func NewEngine(opts EngineOptions) (*Engine, error) {
	opts = opts.withDefaults()

	classifiers := opts.Classifiers
	if classifiers == nil {
		var err error
		classifiers, err = BuildClassifiers(opts.Order, *opts.Params)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
		}
	}

	arbiter, err := NewArbiter(opts.Threshold, classifiers)
	if err != nil {
		return nil, err
	}

	debouncer, err := NewDebouncer(opts.HoldFrames, opts.Tags)
	if err != nil {
		return nil, err
	}

	return &Engine{
		arbiter:   arbiter,
		debouncer: debouncer,
		observe:   opts.EmitObserved,
		log:       opts.Logger.Named("engine"),
	}, nil
}

// Step processes one frame and returns the full result.
func (e *Engine) Step(f detector.Frame) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	res := Result{Seq: f.Seq}

	hands := f.Capped()
	valid := make([]detector.HandLandmarks, 0, len(hands))
	for i, h := range hands {
		if err := h.Validate(); err != nil {
			res.Malformed++
			e.log.Warn("dropping malformed hand",
				zap.Uint64("seq", f.Seq),
				zap.Int("hand", i),
				zap.Error(err),
			)
			continue
		}
		valid = append(valid, h)
	}
	f.Hands = valid

	res.Candidate = e.arbiter.Arbitrate(f)

	if e.observe {
		res.Events = append(res.Events, Event{
			Type:       EventObserved,
			Kind:       res.Candidate.Kind,
			Confidence: res.Candidate.Confidence,
			Seq:        f.Seq,
		})
	}

	if ev, ok := e.debouncer.Step(res.Candidate); ok {
		ev.Seq = f.Seq
		res.Events = append(res.Events, ev)
		e.log.Info("gesture transition",
			zap.Stringer("event", ev.Type),
			zap.Stringer("gesture", ev.Kind),
			zap.Uint64("seq", f.Seq),
		)
	}

	return res
}

// Process consumes a frame and returns the events it produced, if any.
func (e *Engine) Process(f detector.Frame) []Event {
	return e.Step(f).Events
}

// Snapshot returns the debouncer state.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.debouncer.State()
}

// Restore replaces the debouncer state.
func (e *Engine) Restore(s State) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.debouncer.SetState(s)
}

// MarshalState serializes the debouncer state as JSON.
func (e *Engine) MarshalState() ([]byte, error) {
	return json.Marshal(e.Snapshot())
}

// UnmarshalState restores a state produced by MarshalState.
func (e *Engine) UnmarshalState(data []byte) error {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return e.Restore(s)
}

// Reset returns the engine to idle.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.debouncer.state = State{}
}

// Active returns the active gesture and whether one is active.
func (e *Engine) Active() (Kind, bool) {
	k := e.Snapshot().Active
	return k, k != KindNone
}

// Phase returns the current debouncer phase.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.debouncer.State().Phase(e.debouncer.HoldFrames())
}

// Threshold returns the arbiter threshold.
func (e *Engine) Threshold() float64 {
	return e.arbiter.Threshold()
}

// HoldFrames returns the debouncer hold length.
func (e *Engine) HoldFrames() int {
	return e.debouncer.HoldFrames()
}

package gesture

import "fmt"

// DefaultHoldFrames is the streak length that confirms a gesture.
const DefaultHoldFrames = 5

// Phase is the externally meaningful state of the debouncer.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseHolding
	PhaseActive
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseHolding:
		return "holding"
	case PhaseActive:
		return "active"
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// State is the complete debouncer state. It round-trips through JSON so a
// detector can be checkpointed and resumed mid-stream.
type State struct {
	LastCandidate Kind `json:"last_candidate"`
	Count         int  `json:"count"`
	Active        Kind `json:"active"`
}

// Validate rejects states a debouncer could never reach.
func (s State) Validate() error {
	switch {
	case !s.LastCandidate.Known() || !s.Active.Known():
		return fmt.Errorf("%w: state references an unknown gesture", ErrInvalidOptions)
	case s.Count < 0:
		return fmt.Errorf("%w: state count must not be negative, got %d", ErrInvalidOptions, s.Count)
	}
	return nil
}

// Phase derives the phase for a given hold length.
func (s State) Phase(holdFrames int) Phase {
	switch {
	case s.Active != KindNone:
		return PhaseActive
	case s.LastCandidate != KindNone && s.Count > 0 && s.Count < holdFrames:
		return PhaseHolding
	}
	return PhaseIdle
}

// Debouncer turns the per-frame candidate stream into enter/exit events.
// It is not safe for concurrent use; Engine serializes access.
type Debouncer struct {
	holdFrames int
	tags       Tags
	state      State
}

// NewDebouncer creates a Debouncer in the idle state.
func NewDebouncer(holdFrames int, tags Tags) (*Debouncer, error) {
	if holdFrames <= 0 {
		return nil, fmt.Errorf("%w: hold frames must be positive, got %d", ErrInvalidOptions, holdFrames)
	}
	if tags == nil {
		tags = DefaultTags()
	}
	return &Debouncer{holdFrames: holdFrames, tags: tags.Clone()}, nil
}

// Step applies one frame's candidate. The changed frame itself starts a new
// streak at 1, so exactly holdFrames consecutive frames confirm a gesture.
// Emitting an event does not reset the counter; the same gesture cannot fire
// again until the streak is broken.
func (d *Debouncer) Step(c Candidate) (Event, bool) {
	s := &d.state

	if c.Kind == s.LastCandidate {
		s.Count++
	} else {
		s.LastCandidate = c.Kind
		s.Count = 1
	}

	if s.Count < d.holdFrames || c.Kind == s.Active {
		return Event{}, false
	}

	switch d.tags.Class(c.Kind) {
	case ClassShow:
		if s.Active == KindNone {
			s.Active = c.Kind
			return Event{Type: EventEntered, Kind: c.Kind, Confidence: c.Confidence}, true
		}
	case ClassHide:
		if s.Active != KindNone {
			prev := s.Active
			s.Active = KindNone
			return Event{Type: EventExited, Kind: prev, Confidence: c.Confidence}, true
		}
	}

	return Event{}, false
}

// State returns a copy of the current state.
func (d *Debouncer) State() State {
	return d.state
}

// SetState replaces the current state.
func (d *Debouncer) SetState(s State) error {
	if err := s.Validate(); err != nil {
		return err
	}
	d.state = s
	return nil
}

// HoldFrames returns the configured streak length.
func (d *Debouncer) HoldFrames() int {
	return d.holdFrames
}

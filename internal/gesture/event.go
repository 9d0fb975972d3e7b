package gesture

import "fmt"

// EventType distinguishes the events emitted by the engine.
type EventType uint8

const (
	// EventEntered fires once when a show-class gesture becomes active.
	EventEntered EventType = iota + 1
	// EventExited fires once when a hide-class gesture closes the active one.
	// Its Kind is the gesture that was active.
	EventExited
	// EventObserved carries the raw per-frame candidate for telemetry.
	EventObserved
)

var eventTypeNames = map[EventType]string{
	EventEntered:  "entered",
	EventExited:   "exited",
	EventObserved: "observed",
}

func (t EventType) String() string {
	if name, ok := eventTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("event(%d)", uint8(t))
}

// MarshalText implements encoding.TextMarshaler.
func (t EventType) MarshalText() ([]byte, error) {
	if _, ok := eventTypeNames[t]; !ok {
		return nil, fmt.Errorf("unknown event type %d", uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *EventType) UnmarshalText(text []byte) error {
	for et, name := range eventTypeNames {
		if name == string(text) {
			*t = et
			return nil
		}
	}
	return fmt.Errorf("unknown event type %q", text)
}

// Event is a discrete output of the engine.
type Event struct {
	Type       EventType `json:"type"`
	Kind       Kind      `json:"gesture"`
	Confidence float64   `json:"confidence,omitempty"`
	Seq        uint64    `json:"seq"`
}

// Transition reports whether the event changed the active state.
func (e Event) Transition() bool {
	return e.Type == EventEntered || e.Type == EventExited
}

func (e Event) String() string {
	if e.Type == EventObserved {
		return fmt.Sprintf("%s(%s, %.2f)", e.Type, e.Kind, e.Confidence)
	}
	return fmt.Sprintf("%s(%s)", e.Type, e.Kind)
}

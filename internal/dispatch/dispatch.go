// Package dispatch turns engine events into named actions and fans them out
// to notification sinks. No classification or debounce logic lives here.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/mudra/internal/gesture"
)

// Action is the name a transition is dispatched under.
type Action string

const (
	// ActionReveal follows an entered event.
	ActionReveal Action = "reveal"
	// ActionConceal follows an exited event.
	ActionConceal Action = "conceal"
)

// Actions lists every dispatcher action.
func Actions() []Action {
	return []Action{ActionReveal, ActionConceal}
}

// ParseAction validates an action name.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionReveal, ActionConceal:
		return a, nil
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// ActionFor maps a transition event to its action. Observed events have none.
func ActionFor(ev gesture.Event) (Action, bool) {
	switch ev.Type {
	case gesture.EventEntered:
		return ActionReveal, true
	case gesture.EventExited:
		return ActionConceal, true
	}
	return "", false
}

// Notification is what sinks receive for every transition.
type Notification struct {
	Action  Action       `json:"action"`
	Gesture gesture.Kind `json:"gesture"`
	Seq     uint64       `json:"seq"`
	At      time.Time    `json:"at"`
}

// Sink receives notifications.
type Sink interface {
	Notify(ctx context.Context, n Notification) error
}

// Observer is implemented by sinks that also want per-frame observations.
type Observer interface {
	Observe(ctx context.Context, ev gesture.Event)
}

// FuncSink adapts a function to the Sink interface.
type FuncSink func(ctx context.Context, n Notification) error

// Notify calls f.
func (f FuncSink) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// ErrorHook is called whenever a sink fails.
type ErrorHook func(sink string, err error)

// Dispatcher delivers notifications to every registered sink in order. A
// failing sink is logged and does not stop the others.
type Dispatcher struct {
	mu      sync.RWMutex
	sinks   []namedSink
	log     *zap.Logger
	onError ErrorHook
	now     func() time.Time
}

type namedSink struct {
	name string
	sink Sink
}

// New creates a Dispatcher.
func New(log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		log: log.Named("dispatch"),
		now: time.Now,
	}
}

// Add registers a sink under a name used in logs and metrics.
func (d *Dispatcher) Add(name string, s Sink) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sinks = append(d.sinks, namedSink{name: name, sink: s})
}

// OnError installs a hook called for every sink failure.
func (d *Dispatcher) OnError(h ErrorHook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onError = h
}

// Sinks returns the registered sink names in delivery order.
func (d *Dispatcher) Sinks() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, len(d.sinks))
	for i, s := range d.sinks {
		names[i] = s.name
	}
	return names
}

// Dispatch delivers events and returns the notifications that were built.
func (d *Dispatcher) Dispatch(ctx context.Context, events []gesture.Event) []Notification {
	if len(events) == 0 {
		return nil
	}

	d.mu.RLock()
	sinks := d.sinks
	onError := d.onError
	d.mu.RUnlock()

	var out []Notification
	for _, ev := range events {
		action, ok := ActionFor(ev)
		if !ok {
			for _, s := range sinks {
				if o, ok := s.sink.(Observer); ok {
					o.Observe(ctx, ev)
				}
			}
			continue
		}

		n := Notification{
			Action:  action,
			Gesture: ev.Kind,
			Seq:     ev.Seq,
			At:      d.now(),
		}
		out = append(out, n)

		d.log.Info("dispatching action",
			zap.String("action", string(n.Action)),
			zap.Stringer("gesture", n.Gesture),
			zap.Uint64("seq", n.Seq),
		)

		for _, s := range sinks {
			if err := s.sink.Notify(ctx, n); err != nil {
				d.log.Error("sink failed",
					zap.String("sink", s.name),
					zap.String("action", string(n.Action)),
					zap.Error(err),
				)
				if onError != nil {
					onError(s.name, err)
				}
			}
		}
	}
	return out
}

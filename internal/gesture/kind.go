// Package gesture classifies hand landmark frames into gestures and debounces
// the per-frame results into stable enter/exit events.
package gesture

import (
	"fmt"
	"strings"
)

// Kind identifies a recognized gesture.
type Kind uint8

const (
	// KindNone means no gesture cleared the confidence threshold.
	KindNone Kind = iota
	// KindMiddleFinger is a single hand with only the middle finger raised.
	KindMiddleFinger
	// KindPrayer is two hands pressed together, fingers up.
	KindPrayer
)

var kindNames = [...]string{
	KindNone:         "none",
	KindMiddleFinger: "middle_finger",
	KindPrayer:       "prayer",
}

// Kinds lists every recognized gesture, excluding KindNone.
func Kinds() []Kind {
	return []Kind{KindMiddleFinger, KindPrayer}
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Known reports whether k is a declared Kind.
func (k Kind) Known() bool {
	return int(k) < len(kindNames)
}

// ParseKind converts a gesture name into a Kind.
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return KindNone, fmt.Errorf("unknown gesture %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Known() {
		return nil, fmt.Errorf("unknown gesture kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Class tags a gesture with the effect a confirmed occurrence has on the
// active state.
type Class uint8

const (
	// ClassNone gestures are observed but never change the active state.
	ClassNone Class = iota
	// ClassShow gestures open the active state when nothing is active.
	ClassShow
	// ClassHide gestures close whatever gesture is active.
	ClassHide
)

var classNames = [...]string{
	ClassNone: "none",
	ClassShow: "show",
	ClassHide: "hide",
}

func (c Class) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return fmt.Sprintf("class(%d)", uint8(c))
}

// ParseClass converts a class name into a Class.
func ParseClass(s string) (Class, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	for i, name := range classNames {
		if name == s {
			return Class(i), nil
		}
	}
	return ClassNone, fmt.Errorf("unknown gesture class %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (c Class) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Class) UnmarshalText(text []byte) error {
	parsed, err := ParseClass(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Tags maps gestures to their show/hide class. Gestures missing from the map
// are ClassNone.
type Tags map[Kind]Class

// DefaultTags reveals on the middle finger and conceals on prayer hands.
func DefaultTags() Tags {
	return Tags{
		KindMiddleFinger: ClassShow,
		KindPrayer:       ClassHide,
	}
}

// Class returns the tag for k.
func (t Tags) Class(k Kind) Class {
	return t[k]
}

// Clone returns an independent copy of t.
func (t Tags) Clone() Tags {
	out := make(Tags, len(t))
	for k, c := range t {
		out[k] = c
	}
	return out
}

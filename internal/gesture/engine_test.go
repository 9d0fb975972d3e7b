package gesture

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ayusman/mudra/internal/detector"
)

func newTestEngine(t *testing.T, opts EngineOptions) *Engine {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = zaptest.NewLogger(t)
	}
	e, err := NewEngine(opts)
	require.NoError(t, err)
	return e
}

func processAll(e *Engine, frames []detector.Frame) []Event {
	var out []Event
	for _, f := range frames {
		out = append(out, e.Process(f)...)
	}
	return out
}

func middleFrames(n int) []detector.Frame {
	return detector.Repeat(detector.FrameOf(detector.MiddleFingerLandmarks()), n)
}

func prayerFrames(n int) []detector.Frame {
	return detector.Repeat(detector.FrameOf(detector.PrayerHands()), n)
}

func emptyFrames(n int) []detector.Frame {
	return detector.Repeat(detector.Frame{}, n)
}

func withSeq(frames []detector.Frame) []detector.Frame {
	out := make([]detector.Frame, len(frames))
	for i, f := range frames {
		f.Seq = uint64(i + 1)
		out[i] = f
	}
	return out
}

func TestEngine_Scenarios(t *testing.T) {
	e := newTestEngine(t, EngineOptions{})

	// Five middle-finger frames enter once, on the fifth.
	for i := 0; i < 4; i++ {
		assert.Empty(t, e.Process(middleFrames(1)[0]), "frame %d", i)
	}
	events := e.Process(detector.Frame{Seq: 5, Hands: middleFrames(1)[0].Hands})
	require.Len(t, events, 1)
	assert.Equal(t, Event{Type: EventEntered, Kind: KindMiddleFinger, Confidence: 1, Seq: 5}, events[0])
	active, ok := e.Active()
	assert.True(t, ok)
	assert.Equal(t, KindMiddleFinger, active)

	// Five prayer frames exit once.
	events = processAll(e, prayerFrames(5))
	require.Len(t, events, 1)
	assert.Equal(t, EventExited, events[0].Type)
	assert.Equal(t, KindMiddleFinger, events[0].Kind)
	_, ok = e.Active()
	assert.False(t, ok)
}

func TestEngine_InterruptedStreak(t *testing.T) {
	e := newTestEngine(t, EngineOptions{HoldFrames: 5})

	frames := append(middleFrames(3), emptyFrames(1)...)
	frames = append(frames, middleFrames(3)...)
	assert.Empty(t, processAll(e, frames))
	assert.Equal(t, PhaseHolding, e.Phase())
}

func TestEngine_EmptyFramesStayIdle(t *testing.T) {
	e := newTestEngine(t, EngineOptions{})

	for _, f := range emptyFrames(20) {
		res := e.Step(f)
		assert.Equal(t, None, res.Candidate)
		assert.Empty(t, res.Events)
	}
	assert.Equal(t, PhaseIdle, e.Phase())
}

func TestEngine_Idempotent(t *testing.T) {
	e := newTestEngine(t, EngineOptions{})

	events := processAll(e, middleFrames(100))
	require.Len(t, events, 1)

	events = processAll(e, append(emptyFrames(3), middleFrames(30)...))
	assert.Empty(t, events)
	assert.Equal(t, KindMiddleFinger, e.Snapshot().Active)
}

func TestEngine_RoundTrip(t *testing.T) {
	var frames []detector.Frame
	frames = append(frames, middleFrames(3)...)
	frames = append(frames, emptyFrames(1)...)
	frames = append(frames, middleFrames(6)...)
	frames = append(frames, prayerFrames(2)...)
	frames = append(frames, middleFrames(1)...)
	frames = append(frames, prayerFrames(7)...)
	frames = append(frames, middleFrames(5)...)
	frames = withSeq(frames)

	reference := processAll(newTestEngine(t, EngineOptions{}), frames)
	require.NotEmpty(t, reference)

	for cut := 0; cut <= len(frames); cut++ {
		first := newTestEngine(t, EngineOptions{})
		got := processAll(first, frames[:cut])

		data, err := first.MarshalState()
		require.NoError(t, err)

		second := newTestEngine(t, EngineOptions{})
		require.NoError(t, second.UnmarshalState(data))
		got = append(got, processAll(second, frames[cut:])...)

		assert.Equal(t, reference, got, "cut at %d", cut)
	}
}

func TestEngine_Restore(t *testing.T) {
	e := newTestEngine(t, EngineOptions{})

	require.NoError(t, e.Restore(State{LastCandidate: KindMiddleFinger, Count: 4}))
	events := e.Process(middleFrames(1)[0])
	require.Len(t, events, 1)
	assert.Equal(t, EventEntered, events[0].Type)

	assert.ErrorIs(t, e.Restore(State{Count: -2}), ErrInvalidOptions)
	assert.ErrorIs(t, e.UnmarshalState([]byte(`{"count":`)), ErrInvalidOptions)
	assert.Error(t, e.UnmarshalState([]byte(`{"active":"wave"}`)))

	// Failed restores leave the state untouched.
	assert.Equal(t, KindMiddleFinger, e.Snapshot().Active)

	e.Reset()
	assert.Equal(t, State{}, e.Snapshot())
}

func TestEngine_MalformedHandsAreLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	e := newTestEngine(t, EngineOptions{Logger: zap.New(core)})

	bad := detector.MiddleFingerLandmarks()
	bad.Points = bad.Points[:20]

	res := e.Step(detector.Frame{Seq: 9, Hands: []detector.HandLandmarks{bad, detector.MiddleFingerLandmarks()}})
	assert.Equal(t, 1, res.Malformed)
	assert.Equal(t, KindMiddleFinger, res.Candidate.Kind)

	entries := logs.FilterMessage("dropping malformed hand").All()
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(9), entries[0].ContextMap()["seq"])
}

func TestEngine_MalformedFrameDoesNotBreakStream(t *testing.T) {
	e := newTestEngine(t, EngineOptions{Logger: zap.NewNop()})

	bad := detector.FrameOf(detector.HandLandmarks{})
	frames := append(middleFrames(3), bad)
	frames = append(frames, middleFrames(5)...)

	events := processAll(e, frames)
	require.Len(t, events, 1)
	assert.Equal(t, EventEntered, events[0].Type)
}

func TestEngine_Observed(t *testing.T) {
	e := newTestEngine(t, EngineOptions{EmitObserved: true, HoldFrames: 2})

	events := e.Process(middleFrames(1)[0])
	require.Len(t, events, 1)
	assert.Equal(t, EventObserved, events[0].Type)
	assert.False(t, events[0].Transition())

	events = e.Process(middleFrames(1)[0])
	require.Len(t, events, 2)
	assert.Equal(t, EventObserved, events[0].Type)
	assert.Equal(t, EventEntered, events[1].Type)

	events = e.Process(detector.Frame{})
	require.Len(t, events, 1)
	assert.Equal(t, Event{Type: EventObserved, Kind: KindNone}, events[0])
}

func TestEngine_ObservedDoesNotChangeState(t *testing.T) {
	frames := append(middleFrames(4), prayerFrames(3)...)
	frames = append(frames, middleFrames(6)...)

	plain := newTestEngine(t, EngineOptions{})
	observing := newTestEngine(t, EngineOptions{EmitObserved: true})

	var want, got []Event
	for _, f := range frames {
		want = append(want, plain.Process(f)...)
		for _, ev := range observing.Process(f) {
			if ev.Transition() {
				got = append(got, ev)
			}
		}
		assert.Equal(t, plain.Snapshot(), observing.Snapshot())
	}
	assert.Equal(t, want, got)
}

func TestEngine_CustomOrder(t *testing.T) {
	e := newTestEngine(t, EngineOptions{Order: []Kind{KindMiddleFinger}})

	assert.Empty(t, processAll(e, prayerFrames(10)))
	assert.Len(t, processAll(e, middleFrames(5)), 1)
}

func TestEngine_Concurrent(t *testing.T) {
	e := newTestEngine(t, EngineOptions{Logger: zap.NewNop()})

	frame := middleFrames(1)[0]
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		events []Event
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				evs := e.Process(frame)
				mu.Lock()
				events = append(events, evs...)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, events, 1)
	assert.Equal(t, State{LastCandidate: KindMiddleFinger, Count: 200, Active: KindMiddleFinger}, e.Snapshot())
}

func TestNewEngine_Validation(t *testing.T) {
	tests := []struct {
		name string
		opts EngineOptions
	}{
		{"threshold above one", EngineOptions{Threshold: 1.5}},
		{"negative threshold", EngineOptions{Threshold: -0.2}},
		{"negative hold", EngineOptions{HoldFrames: -1}},
		{"duplicate order", EngineOptions{Order: []Kind{KindPrayer, KindPrayer}}},
		{"bad prayer params", EngineOptions{Params: &Params{Prayer: PrayerParams{}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(tt.opts)
			assert.ErrorIs(t, err, ErrInvalidOptions)
		})
	}
}

package metrics

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/dispatch"
	"github.com/ayusman/mudra/internal/gesture"
)

func TestObserveResult(t *testing.T) {
	m := New()

	m.ObserveResult(gesture.Result{
		Seq:       5,
		Candidate: gesture.Candidate{Kind: gesture.KindMiddleFinger, Confidence: 1},
		Malformed: 1,
		Events: []gesture.Event{
			{Type: gesture.EventEntered, Kind: gesture.KindMiddleFinger, Seq: 5},
		},
	}, time.Millisecond)
	m.ObserveResult(gesture.Result{Seq: 6, Candidate: gesture.None}, time.Millisecond)

	assert.Equal(t, uint64(2), m.FramesProcessed.Load())
	assert.Equal(t, uint64(1), m.MalformedHands.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.candidates.WithLabelValues("middle_finger")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.candidates.WithLabelValues("none")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("entered", "middle_finger")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.frameLatency))
}

func TestNotifyTracksActive(t *testing.T) {
	m := New()
	ctx := context.Background()

	require.NoError(t, m.Notify(ctx, dispatch.Notification{Action: dispatch.ActionReveal, Gesture: gesture.KindMiddleFinger}))
	assert.Equal(t, int32(1), m.active.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("reveal")))

	require.NoError(t, m.Notify(ctx, dispatch.Notification{Action: dispatch.ActionConceal, Gesture: gesture.KindMiddleFinger}))
	assert.Equal(t, int32(0), m.active.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("conceal")))
}

func TestErrorHooks(t *testing.T) {
	m := New()

	m.SinkError("plugins", errors.New("queue full"))
	m.PluginRun("media", nil)
	m.PluginRun("media", errors.New("exit 1"))
	m.PluginRun("media", nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.sinkErrors.WithLabelValues("plugins")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.pluginRuns.WithLabelValues("media", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pluginRuns.WithLabelValues("media", "error")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.FramesSkipped.Add(3)
	m.EventClients.Add(2)
	m.SetActive(true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)

	for _, want := range []string{
		"mudra_frames_skipped_total 3",
		"mudra_event_clients 2",
		"mudra_gesture_active 1",
		"mudra_frames_processed_total 0",
	} {
		assert.True(t, strings.Contains(text, want), "missing %q", want)
	}
}

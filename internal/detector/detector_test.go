package detector

import (
	"context"
	"errors"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const epsilon = 1e-9

func TestHandLandmarks_Validate(t *testing.T) {
	t.Run("fixtures are well formed", func(t *testing.T) {
		left, right := PrayerHands()
		for _, h := range []HandLandmarks{MiddleFingerLandmarks(), OpenPalmLandmarks(), left, right} {
			assert.NoError(t, h.Validate())
		}
	})

	t.Run("wrong point count", func(t *testing.T) {
		h := MiddleFingerLandmarks()
		h.Points = h.Points[:20]
		assert.ErrorIs(t, h.Validate(), ErrMalformedHand)
		assert.False(t, h.Valid())
	})

	t.Run("non-finite coordinate", func(t *testing.T) {
		h := MiddleFingerLandmarks()
		h.Points[MiddleTip].Y = math.NaN()
		assert.ErrorIs(t, h.Validate(), ErrMalformedHand)

		h = MiddleFingerLandmarks()
		h.Points[Wrist].X = math.Inf(1)
		assert.ErrorIs(t, h.Validate(), ErrMalformedHand)
	})

	t.Run("nil hand", func(t *testing.T) {
		var h *HandLandmarks
		assert.ErrorIs(t, h.Validate(), ErrMalformedHand)
	})
}

func TestDistance2D(t *testing.T) {
	d := Distance2D(Point3D{X: 0, Y: 0, Z: 5}, Point3D{X: 0.3, Y: 0.4, Z: -5})
	assert.InDelta(t, 0.5, d, epsilon, "z must not contribute")
}

func TestFrame_Capped(t *testing.T) {
	h := OpenPalmLandmarks()
	f := FrameOf(MiddleFingerLandmarks(), h, h)

	capped := f.Capped()
	require.Len(t, capped, MaxHands)
	assert.Equal(t, MiddleFingerLandmarks(), capped[0], "source order must be preserved")

	assert.Empty(t, Frame{}.Capped())
}

func TestDecodeFrame(t *testing.T) {
	t.Run("keeps malformed hands", func(t *testing.T) {
		f, err := DecodeFrame([]byte(`{"seq":7,"hands":[{"points":[{"x":0.1,"y":0.2,"z":0}],"handedness":"Left"}]}`))
		require.NoError(t, err)
		assert.Equal(t, uint64(7), f.Seq)
		require.Len(t, f.Hands, 1)
		assert.False(t, f.Hands[0].Valid())
		assert.Equal(t, "Left", f.Hands[0].Handedness)
	})

	t.Run("empty hands", func(t *testing.T) {
		f, err := DecodeFrame([]byte(`{"hands":[]}`))
		require.NoError(t, err)
		assert.Empty(t, f.Hands)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := DecodeFrame([]byte(`{"hands":`))
		assert.Error(t, err)
	})
}

func TestReplaySource(t *testing.T) {
	input := strings.Join([]string{
		`{"hands":[]}`,
		``,
		`not json`,
		`{"seq":42,"hands":[]}`,
		`{"timestamp":1000,"hands":[]}`,
	}, "\n")

	src := NewReplaySource(strings.NewReader(input), zaptest.NewLogger(t))
	ctx := context.Background()

	f, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), f.Seq)

	f, err = src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), f.Seq, "explicit sequence numbers are kept")

	f, err = src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), f.Seq)
	assert.Equal(t, int64(1000), f.Timestamp)

	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)

	assert.NoError(t, src.Close())
}

func TestReplaySource_Cancelled(t *testing.T) {
	src := NewReplaySource(strings.NewReader(`{"hands":[]}`), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockSource(t *testing.T) {
	ctx := context.Background()

	t.Run("yields frames then EOF", func(t *testing.T) {
		src := NewMockSource(Repeat(FrameOf(MiddleFingerLandmarks()), 2)...)

		f, err := src.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), f.Seq)
		assert.Len(t, f.Hands, 1)

		f, err = src.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), f.Seq)

		_, err = src.Next(ctx)
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("returns configured error", func(t *testing.T) {
		src := NewMockSource(FrameOf())
		boom := errors.New("tracker lost")
		src.SetError(boom)

		_, err := src.Next(ctx)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("EOF after close", func(t *testing.T) {
		src := NewMockSource(FrameOf())
		require.NoError(t, src.Close())

		_, err := src.Next(ctx)
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("implements Source interface", func(t *testing.T) {
		var _ Source = NewMockSource()
		var _ Source = &ReplaySource{}
		var _ Source = &SubprocessSource{}
	})
}

func TestNewSubprocessSource_EmptyCommand(t *testing.T) {
	_, err := NewSubprocessSource(nil, DefaultConfig(), nil)
	assert.Error(t, err)

	_, err = NewSubprocessSource([]string{""}, DefaultConfig(), nil)
	assert.Error(t, err)
}

func TestMiddleFingerLandmarks(t *testing.T) {
	h := MiddleFingerLandmarks()

	t.Run("middle finger is extended", func(t *testing.T) {
		assert.Less(t, h.At(MiddleTip).Y, h.At(MiddlePIP).Y)
		assert.Less(t, h.At(MiddlePIP).Y, h.At(MiddleMCP).Y)
	})

	t.Run("other fingers are curled", func(t *testing.T) {
		assert.Greater(t, h.At(IndexTip).Y, h.At(IndexPIP).Y)
		assert.Greater(t, h.At(RingTip).Y, h.At(RingPIP).Y)
		assert.Greater(t, h.At(PinkyTip).Y, h.At(PinkyPIP).Y)
		assert.Greater(t, h.At(ThumbTip).Y, h.At(ThumbIP).Y)
	})
}

func TestPrayerHands(t *testing.T) {
	left, right := PrayerHands()

	assert.Equal(t, "Left", left.Handedness)
	assert.Equal(t, "Right", right.Handedness)
	assert.InDelta(t, 0.05, Distance2D(left.At(MiddleMCP), right.At(MiddleMCP)), epsilon)

	for _, tip := range Fingertips {
		assert.InDelta(t, 0.1, Distance2D(left.At(tip), right.At(tip)), epsilon, "fingertip %d", tip)
	}
}

func TestMirror(t *testing.T) {
	h := OpenPalmLandmarks()
	m := Mirror(h)

	assert.Equal(t, "Left", m.Handedness)
	assert.InDelta(t, 1-h.At(Wrist).X, m.At(Wrist).X, epsilon)
	assert.Equal(t, h.At(Wrist).Y, m.At(Wrist).Y)

	back := Mirror(m)
	assert.Equal(t, h.Handedness, back.Handedness)
	for i := range h.Points {
		assert.InDelta(t, h.Points[i].X, back.Points[i].X, epsilon)
	}
}

package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/store"
)

type fakeBindings map[string][]*store.Action

func (f fakeBindings) ListEnabled(action string) ([]*store.Action, error) {
	return f[action], nil
}

type fakePlugins map[string]*plugin.Plugin

func (f fakePlugins) Get(name string) (*plugin.Plugin, error) {
	p, ok := f[name]
	if !ok {
		return nil, plugin.ErrPluginNotFound
	}
	return p, nil
}

type fakeRunner struct {
	mu       sync.Mutex
	requests []plugin.Request
	resp     *plugin.Response
	err      error
	block    chan struct{}
}

func (r *fakeRunner) Execute(ctx context.Context, _ *plugin.Plugin, req *plugin.Request) (*plugin.Response, error) {
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, *req)
	if r.err != nil {
		return nil, r.err
	}
	if r.resp != nil {
		return r.resp, nil
	}
	return &plugin.Response{Success: true}, nil
}

func (r *fakeRunner) seen() []plugin.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]plugin.Request(nil), r.requests...)
}

func mediaBindings() fakeBindings {
	return fakeBindings{
		"reveal": {{
			ID: "a1", Action: "reveal", PluginName: "media", PluginAction: "play",
			Config: json.RawMessage(`{"player":"vlc"}`), Enabled: true,
		}},
		"conceal": {{
			ID: "a2", Action: "conceal", PluginName: "media", PluginAction: "pause",
			Config: json.RawMessage(`{}`), Enabled: true,
		}},
	}
}

func TestPluginSink_RunsBindingsInOrder(t *testing.T) {
	runner := &fakeRunner{}
	type result struct {
		name string
		err  error
	}
	var mu sync.Mutex
	var results []result

	s := NewPluginSink(PluginSinkOptions{
		Bindings: mediaBindings(),
		Plugins:  fakePlugins{"media": {Manifest: plugin.Manifest{Name: "media"}}},
		Runner:   runner,
		OnResult: func(name string, err error) {
			mu.Lock()
			defer mu.Unlock()
			results = append(results, result{name, err})
		},
	})

	ctx := context.Background()
	require.NoError(t, s.Notify(ctx, Notification{Action: ActionReveal, Gesture: gesture.KindMiddleFinger, Seq: 5}))
	require.NoError(t, s.Notify(ctx, Notification{Action: ActionConceal, Gesture: gesture.KindMiddleFinger, Seq: 10}))
	require.NoError(t, s.Close())

	reqs := runner.seen()
	require.Len(t, reqs, 2)

	assert.Equal(t, "play", reqs[0].Action)
	assert.Equal(t, "reveal", reqs[0].Event)
	assert.Equal(t, "middle_finger", reqs[0].Gesture)
	assert.Equal(t, uint64(5), reqs[0].Seq)
	assert.JSONEq(t, `{"player":"vlc"}`, string(reqs[0].Config))

	assert.Equal(t, "pause", reqs[1].Action)
	assert.Equal(t, "conceal", reqs[1].Event)
	assert.Equal(t, uint64(10), reqs[1].Seq)

	assert.Equal(t, []result{{"media", nil}, {"media", nil}}, results)
}

func TestPluginSink_ReportsFailures(t *testing.T) {
	tests := []struct {
		name    string
		plugins fakePlugins
		runner  *fakeRunner
		wantErr string
	}{
		{
			name:    "missing plugin",
			plugins: fakePlugins{},
			runner:  &fakeRunner{},
			wantErr: "plugin not found",
		},
		{
			name:    "execution error",
			plugins: fakePlugins{"media": {}},
			runner:  &fakeRunner{err: errors.New("exit status 1")},
			wantErr: "exit status 1",
		},
		{
			name:    "plugin reported failure",
			plugins: fakePlugins{"media": {}},
			runner:  &fakeRunner{resp: &plugin.Response{Success: false, Error: "no player"}},
			wantErr: "no player",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got error
			s := NewPluginSink(PluginSinkOptions{
				Bindings: mediaBindings(),
				Plugins:  tt.plugins,
				Runner:   tt.runner,
				OnResult: func(_ string, err error) { got = err },
			})

			require.NoError(t, s.Notify(context.Background(), Notification{Action: ActionReveal}))
			require.NoError(t, s.Close())

			require.Error(t, got)
			assert.Contains(t, got.Error(), tt.wantErr)
		})
	}
}

func TestPluginSink_QueueFull(t *testing.T) {
	runner := &fakeRunner{block: make(chan struct{})}
	s := NewPluginSink(PluginSinkOptions{
		Bindings:  mediaBindings(),
		Plugins:   fakePlugins{"media": {}},
		Runner:    runner,
		QueueSize: 1,
	})
	defer s.Abort()

	ctx := context.Background()
	n := Notification{Action: ActionReveal}

	// The worker takes the first notification and blocks on the runner.
	require.NoError(t, s.Notify(ctx, n))
	require.Eventually(t, func() bool { return len(s.queue) == 0 }, time.Second, time.Millisecond)

	require.NoError(t, s.Notify(ctx, n))
	err := s.Notify(ctx, n)
	assert.ErrorIs(t, err, ErrQueueFull)

	close(runner.block)
}

func TestPluginSink_NotifyDoesNotBlock(t *testing.T) {
	runner := &fakeRunner{block: make(chan struct{})}
	s := NewPluginSink(PluginSinkOptions{
		Bindings: mediaBindings(),
		Plugins:  fakePlugins{"media": {}},
		Runner:   runner,
	})

	done := make(chan struct{})
	go func() {
		_ = s.Notify(context.Background(), Notification{Action: ActionReveal})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a slow plugin")
	}

	close(runner.block)
	require.NoError(t, s.Close())
	assert.Len(t, runner.seen(), 1)
}

func TestPluginSink_WithDispatcher(t *testing.T) {
	runner := &fakeRunner{}
	s := NewPluginSink(PluginSinkOptions{
		Bindings: mediaBindings(),
		Plugins:  fakePlugins{"media": {}},
		Runner:   runner,
	})

	d := New(nil)
	d.Add("plugins", s)
	d.Dispatch(context.Background(), []gesture.Event{
		{Type: gesture.EventObserved, Kind: gesture.KindMiddleFinger, Seq: 1},
		{Type: gesture.EventEntered, Kind: gesture.KindMiddleFinger, Seq: 5},
	})
	require.NoError(t, s.Close())

	reqs := runner.seen()
	require.Len(t, reqs, 1)
	assert.Equal(t, "play", reqs[0].Action)
}

func TestPluginSink_NotifyAfterClose(t *testing.T) {
	runner := &fakeRunner{}
	s := NewPluginSink(PluginSinkOptions{
		Bindings: mediaBindings(),
		Plugins:  fakePlugins{"media": {}},
		Runner:   runner,
	})
	require.NoError(t, s.Close())

	err := s.Notify(context.Background(), Notification{Action: ActionReveal})
	assert.ErrorIs(t, err, ErrSinkClosed)
	require.NoError(t, s.Close())
	assert.Empty(t, runner.seen())
}

func TestPluginSink_CloseWhileNotifying(t *testing.T) {
	s := NewPluginSink(PluginSinkOptions{
		Bindings: mediaBindings(),
		Plugins:  fakePlugins{"media": {}},
		Runner:   &fakeRunner{},
	})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				err := s.Notify(context.Background(), Notification{Action: ActionConceal})
				if err != nil && !errors.Is(err, ErrSinkClosed) && !errors.Is(err, ErrQueueFull) {
					t.Errorf("unexpected Notify error: %v", err)
				}
			}
		}()
	}

	require.NoError(t, s.Close())
	wg.Wait()
}

package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/store"
)

// LogSink writes notifications at Info and observations at Debug.
type LogSink struct {
	log *zap.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(log *zap.Logger) *LogSink {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogSink{log: log.Named("events")}
}

// Notify implements Sink.
func (s *LogSink) Notify(_ context.Context, n Notification) error {
	s.log.Info(string(n.Action),
		zap.Stringer("gesture", n.Gesture),
		zap.Uint64("seq", n.Seq),
		zap.Time("at", n.At),
	)
	return nil
}

// Observe implements Observer.
func (s *LogSink) Observe(_ context.Context, ev gesture.Event) {
	s.log.Debug("observed",
		zap.Stringer("gesture", ev.Kind),
		zap.Float64("confidence", ev.Confidence),
		zap.Uint64("seq", ev.Seq),
	)
}

var (
	// ErrQueueFull is returned when the plugin queue cannot take more work.
	ErrQueueFull = errors.New("plugin queue full")

	// ErrSinkClosed is returned by Notify once Close or Abort has been called.
	ErrSinkClosed = errors.New("plugin sink closed")
)

// BindingSource lists the enabled plugin bindings for an action.
type BindingSource interface {
	ListEnabled(action string) ([]*store.Action, error)
}

// PluginLookup resolves plugins by name.
type PluginLookup interface {
	Get(name string) (*plugin.Plugin, error)
}

// PluginRunner executes a plugin request.
type PluginRunner interface {
	Execute(ctx context.Context, p *plugin.Plugin, req *plugin.Request) (*plugin.Response, error)
}

// ResultHook is told about every finished plugin run.
type ResultHook func(pluginName string, err error)

// PluginSink runs the plugin bindings stored for each action. Runs happen on
// a single worker goroutine, in notification order, so a slow plugin never
// blocks frame processing.
type PluginSink struct {
	bindings BindingSource
	plugins  PluginLookup
	runner   PluginRunner
	log      *zap.Logger
	onResult ResultHook

	queue  chan Notification
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu guards closed and the close of queue against concurrent sends.
	mu     sync.Mutex
	closed bool
}

// PluginSinkOptions configures a PluginSink.
type PluginSinkOptions struct {
	Bindings  BindingSource
	Plugins   PluginLookup
	Runner    PluginRunner
	Logger    *zap.Logger
	QueueSize int
	OnResult  ResultHook
}

// NewPluginSink creates a PluginSink and starts its worker. Call Close to
// drain the queue and stop it.
func NewPluginSink(opts PluginSinkOptions) *PluginSink {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 16
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &PluginSink{
		bindings: opts.Bindings,
		plugins:  opts.Plugins,
		runner:   opts.Runner,
		log:      opts.Logger.Named("plugin-sink"),
		onResult: opts.OnResult,
		queue:    make(chan Notification, opts.QueueSize),
		ctx:      ctx,
		cancel:   cancel,
	}

	s.wg.Add(1)
	go s.worker()
	return s
}

// Notify queues n for the worker. It never blocks. After Close it returns
// ErrSinkClosed.
func (s *PluginSink) Notify(_ context.Context, n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("%w: dropping %s", ErrSinkClosed, n.Action)
	}
	select {
	case s.queue <- n:
		return nil
	default:
		return fmt.Errorf("%w: dropping %s", ErrQueueFull, n.Action)
	}
}

// Close waits for queued notifications to finish and stops the worker. It is
// safe to call more than once.
func (s *PluginSink) Close() error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.cancel()
	return nil
}

// Abort stops the worker without draining the queue.
func (s *PluginSink) Abort() {
	s.cancel()
	_ = s.Close()
}

func (s *PluginSink) worker() {
	defer s.wg.Done()
	for n := range s.queue {
		if s.ctx.Err() != nil {
			continue
		}
		s.run(s.ctx, n)
	}
}

func (s *PluginSink) run(ctx context.Context, n Notification) {
	bindings, err := s.bindings.ListEnabled(string(n.Action))
	if err != nil {
		s.log.Error("failed to load action bindings", zap.String("action", string(n.Action)), zap.Error(err))
		return
	}

	for _, b := range bindings {
		err := s.runBinding(ctx, n, b)
		if err != nil {
			s.log.Error("plugin action failed",
				zap.String("binding", b.ID),
				zap.String("plugin", b.PluginName),
				zap.String("plugin_action", b.PluginAction),
				zap.Error(err),
			)
		} else {
			s.log.Info("plugin action executed",
				zap.String("plugin", b.PluginName),
				zap.String("plugin_action", b.PluginAction),
				zap.String("action", string(n.Action)),
			)
		}
		if s.onResult != nil {
			s.onResult(b.PluginName, err)
		}
	}
}

func (s *PluginSink) runBinding(ctx context.Context, n Notification, b *store.Action) error {
	p, err := s.plugins.Get(b.PluginName)
	if err != nil {
		return fmt.Errorf("%s: %w", b.PluginName, err)
	}

	resp, err := s.runner.Execute(ctx, p, &plugin.Request{
		Action:  b.PluginAction,
		Event:   string(n.Action),
		Gesture: n.Gesture.String(),
		Seq:     n.Seq,
		Config:  json.RawMessage(b.Config),
	})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("plugin reported failure: %s", resp.Error)
	}
	return nil
}

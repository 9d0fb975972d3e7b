// Package app wires a landmark source, the gesture engine and the action
// dispatcher into one running detector.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/dispatch"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/metrics"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/store"
)

// ErrNoSource is returned by Run when the app has no landmark source.
var ErrNoSource = errors.New("no landmark source configured")

// Deps are the collaborators an App uses. Everything except Logger is
// optional.
type Deps struct {
	Source   detector.Source
	Store    *store.Store
	Plugins  *plugin.Manager
	Executor *plugin.Executor
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

// App is the main application. Frames from the source and frames ingested
// over HTTP both go through ProcessFrame, so they share one engine.
type App struct {
	engine     *gesture.Engine
	dispatcher *dispatch.Dispatcher
	pluginSink *dispatch.PluginSink
	source     detector.Source
	metrics    *metrics.Metrics
	log        *zap.Logger

	enabled bool
	mu      sync.RWMutex

	// stepMu spans engine step and dispatch so sinks see notifications in
	// the order the engine produced them, whichever input fed the frame.
	stepMu sync.Mutex
}

// New builds the engine from cfg and registers the standard sinks: the log
// sink, the metrics sink when Metrics is set, and the plugin sink when both
// Store and Plugins are set.
func New(cfg *config.Config, deps Deps) (*App, error) {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	opts, err := cfg.EngineOptions(log)
	if err != nil {
		return nil, err
	}
	engine, err := gesture.NewEngine(opts)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	a := &App{
		engine:     engine,
		dispatcher: dispatch.New(log),
		source:     deps.Source,
		metrics:    deps.Metrics,
		log:        log.Named("app"),
		enabled:    true,
	}

	a.dispatcher.Add("log", dispatch.NewLogSink(log))

	if deps.Metrics != nil {
		a.dispatcher.Add("metrics", deps.Metrics)
		a.dispatcher.OnError(deps.Metrics.SinkError)
	}

	if deps.Store != nil && deps.Plugins != nil {
		executor := deps.Executor
		if executor == nil {
			executor = plugin.NewExecutor(plugin.DefaultTimeout)
		}
		opts := dispatch.PluginSinkOptions{
			Bindings: deps.Store.Actions(),
			Plugins:  deps.Plugins,
			Runner:   executor,
			Logger:   log,
		}
		if deps.Metrics != nil {
			opts.OnResult = deps.Metrics.PluginRun
		}
		a.pluginSink = dispatch.NewPluginSink(opts)
		a.dispatcher.Add("plugins", a.pluginSink)
	}

	return a, nil
}

// AddSink registers an extra notification sink.
func (a *App) AddSink(name string, s dispatch.Sink) {
	a.dispatcher.Add(name, s)
}

// SetEnabled enables or disables detection. Disabled apps drop frames
// without touching the engine state.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	changed := a.enabled != enabled
	a.enabled = enabled
	a.mu.Unlock()

	if changed {
		a.log.Info("detection toggled", zap.Bool("enabled", enabled))
	}
}

// IsEnabled returns whether detection is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Engine returns the gesture engine.
func (a *App) Engine() *gesture.Engine {
	return a.engine
}

// Dispatcher returns the action dispatcher.
func (a *App) Dispatcher() *dispatch.Dispatcher {
	return a.dispatcher
}

// ProcessFrame runs one frame through the engine and dispatches the events
// it produced. It returns nil while detection is disabled. Concurrent callers
// are serialized, so dispatch order always matches engine order.
func (a *App) ProcessFrame(ctx context.Context, f detector.Frame) []gesture.Event {
	if !a.IsEnabled() {
		if a.metrics != nil {
			a.metrics.FramesSkipped.Add(1)
		}
		return nil
	}

	a.stepMu.Lock()
	defer a.stepMu.Unlock()

	start := time.Now()
	res := a.engine.Step(f)
	if a.metrics != nil {
		a.metrics.ObserveResult(res, time.Since(start))
	}

	a.dispatcher.Dispatch(ctx, res.Events)
	return res.Events
}

// Close drains queued plugin runs and closes the source.
func (a *App) Close() error {
	var errs []error
	if a.pluginSink != nil {
		errs = append(errs, a.pluginSink.Close())
	}
	if a.source != nil {
		errs = append(errs, a.source.Close())
	}
	return errors.Join(errs...)
}

// Package metrics exposes engine and dispatch counters in Prometheus format.
package metrics

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ayusman/mudra/internal/dispatch"
	"github.com/ayusman/mudra/internal/gesture"
)

// Metrics holds the process-wide counters.
type Metrics struct {
	FramesProcessed atomic.Uint64
	FramesSkipped   atomic.Uint64
	MalformedHands  atomic.Uint64
	DecodeErrors    atomic.Uint64
	EventClients    atomic.Int64

	active atomic.Int32

	candidates    *prometheus.CounterVec
	events        *prometheus.CounterVec
	notifications *prometheus.CounterVec
	sinkErrors    *prometheus.CounterVec
	pluginRuns    *prometheus.CounterVec
	frameLatency  prometheus.Histogram

	registry *prometheus.Registry
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		candidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mudra_candidates_total",
			Help: "Per-frame arbitration winners by gesture",
		}, []string{"gesture"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mudra_events_total",
			Help: "Engine events by type and gesture",
		}, []string{"type", "gesture"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mudra_notifications_total",
			Help: "Dispatched notifications by action",
		}, []string{"action"}),
		sinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mudra_sink_errors_total",
			Help: "Notification sink failures by sink",
		}, []string{"sink"}),
		pluginRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mudra_plugin_runs_total",
			Help: "Plugin executions by plugin and result",
		}, []string{"plugin", "result"}),
		frameLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mudra_frame_duration_seconds",
			Help:    "Time spent classifying and debouncing one frame",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}),
	}

	m.registry.MustRegister(
		m.candidates,
		m.events,
		m.notifications,
		m.sinkErrors,
		m.pluginRuns,
		m.frameLatency,
	)

	m.registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "mudra_frames_processed_total",
		Help: "Frames run through the engine",
	}, func() float64 { return float64(m.FramesProcessed.Load()) }))

	m.registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "mudra_frames_skipped_total",
		Help: "Frames dropped while detection was disabled",
	}, func() float64 { return float64(m.FramesSkipped.Load()) }))

	m.registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "mudra_malformed_hands_total",
		Help: "Hands dropped for invalid landmarks",
	}, func() float64 { return float64(m.MalformedHands.Load()) }))

	m.registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "mudra_decode_errors_total",
		Help: "Ingested frames that failed to decode",
	}, func() float64 { return float64(m.DecodeErrors.Load()) }))

	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "mudra_event_clients",
		Help: "Connected event stream clients",
	}, func() float64 { return float64(m.EventClients.Load()) }))

	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "mudra_gesture_active",
		Help: "1 while a show gesture is active",
	}, func() float64 { return float64(m.active.Load()) }))

	return m
}

// ObserveResult records one engine step.
func (m *Metrics) ObserveResult(res gesture.Result, took time.Duration) {
	m.FramesProcessed.Add(1)
	m.MalformedHands.Add(uint64(res.Malformed))
	m.candidates.WithLabelValues(res.Candidate.Kind.String()).Inc()
	m.frameLatency.Observe(took.Seconds())
	for _, ev := range res.Events {
		m.events.WithLabelValues(ev.Type.String(), ev.Kind.String()).Inc()
	}
}

// SetActive records whether a show gesture is active.
func (m *Metrics) SetActive(active bool) {
	if active {
		m.active.Store(1)
	} else {
		m.active.Store(0)
	}
}

// Notify implements dispatch.Sink.
func (m *Metrics) Notify(_ context.Context, n dispatch.Notification) error {
	m.notifications.WithLabelValues(string(n.Action)).Inc()
	m.SetActive(n.Action == dispatch.ActionReveal)
	return nil
}

// SinkError counts a failed sink delivery. It matches dispatch.ErrorHook.
func (m *Metrics) SinkError(sink string, _ error) {
	m.sinkErrors.WithLabelValues(sink).Inc()
}

// PluginRun counts a finished plugin execution. It matches dispatch.ResultHook.
func (m *Metrics) PluginRun(pluginName string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.pluginRuns.WithLabelValues(pluginName, result).Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler serving the metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

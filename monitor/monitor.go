// monitor/monitor.go
package monitor

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wfunc/killzone/logger"
)

type Metrics struct {
	CodecRequests    *prometheus.CounterVec
	CodecLatency     *prometheus.HistogramVec
	PhaseTransitions *prometheus.CounterVec
	DrawOps          prometheus.Counter
	TrackedEntities  prometheus.Gauge
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		CodecRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "codec_requests_total",
			Help:      "Codec requests by protocol, operation and outcome",
		}, []string{"variant", "op", "outcome"}),
		CodecLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "codec_request_seconds",
			Help:      "Codec request latency",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"variant", "op"}),
		PhaseTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phase_transitions_total",
			Help:      "Session phase transitions by target phase",
		}, []string{"phase"}),
		DrawOps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "draw_ops_total",
			Help:      "Draw operations emitted by the renderer",
		}),
		TrackedEntities: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tracked_entities",
			Help:      "Other entities held by the world model",
		}),
	}
}

// Monitor owns a private registry so several clients (or tests) can
// coexist in one process.
type Monitor struct {
	metrics   *Metrics
	registry  *prometheus.Registry
	startTime time.Time
	frames    int64
	mutex     sync.Mutex
	server    *http.Server
}

func NewMonitor(namespace string) *Monitor {
	m := &Monitor{
		metrics:   NewMetrics(namespace),
		registry:  prometheus.NewRegistry(),
		startTime: time.Now(),
	}
	m.registry.MustRegister(
		m.metrics.CodecRequests,
		m.metrics.CodecLatency,
		m.metrics.PhaseTransitions,
		m.metrics.DrawOps,
		m.metrics.TrackedEntities,
	)
	return m
}

// Handler serves the metrics and expvar pages.
func (m *Monitor) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	mux.Handle("/debug/vars", expvar.Handler())
	return mux
}

// StartServer serves Handler on addr in the background.
func (m *Monitor) StartServer(addr string) {
	// 添加expvar指标
	expvar.Publish("uptime", expvar.Func(func() interface{} {
		return time.Since(m.startTime).Seconds()
	}))

	expvar.Publish("frames", expvar.Func(func() interface{} {
		m.mutex.Lock()
		defer m.mutex.Unlock()
		return m.frames
	}))

	m.server = &http.Server{Addr: addr, Handler: m.Handler()}
	go func() {
		if err := m.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Errorf("metrics server: %v", err)
		}
	}()
}

func (m *Monitor) Shutdown(ctx context.Context) error {
	if m.server == nil {
		return nil
	}
	return m.server.Shutdown(ctx)
}

// ObserveRequest implements codec.Observer.
func (m *Monitor) ObserveRequest(variant, op string, ok bool, d time.Duration) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.metrics.CodecRequests.WithLabelValues(variant, op, outcome).Inc()
	m.metrics.CodecLatency.WithLabelValues(variant, op).Observe(d.Seconds())
}

func (m *Monitor) ObservePhase(phase string) {
	m.metrics.PhaseTransitions.WithLabelValues(phase).Inc()
}

func (m *Monitor) ObserveFrame(ops, entities int) {
	m.metrics.DrawOps.Add(float64(ops))
	m.metrics.TrackedEntities.Set(float64(entities))
	m.mutex.Lock()
	m.frames++
	m.mutex.Unlock()
}

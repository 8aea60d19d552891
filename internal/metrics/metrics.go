// Package metrics exposes engine counters in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cycle results.
const (
	ResultOK               = "ok"
	ResultResolutionFailed = "resolution_failed"
	ResultCommitFailed     = "commit_failed"
)

// Metrics holds the collectors of one engine. A nil *Metrics is a valid no-op.
type Metrics struct {
	registry         *prometheus.Registry
	cyclesTotal      *prometheus.CounterVec
	cycleDuration    prometheus.Histogram
	evalWarnings     prometheus.Counter
	runningInstances prometheus.Gauge
	degraded         prometheus.Gauge
	pointSamples     prometheus.Counter
}

// New registers all collectors on a private registry so several engines
// (and tests) can coexist in one process.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ifmemory_cycles_total",
			Help: "Evaluation cycles by result.",
		}, []string{"result"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ifmemory_cycle_duration_seconds",
			Help:    "Duration of one evaluation cycle including resolve and commit.",
			Buckets: prometheus.DefBuckets,
		}),
		evalWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ifmemory_condition_errors_total",
			Help: "Branch conditions that failed to evaluate and were treated as false.",
		}),
		runningInstances: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ifmemory_running_instances",
			Help: "Enabled IfMemory instances with a running timer.",
		}),
		degraded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ifmemory_degraded_instances",
			Help: "Instances whose last cycle failed to resolve or commit.",
		}),
		pointSamples: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ifmemory_point_samples_total",
			Help: "Point samples accepted into the live store.",
		}),
	}

	m.registry.MustRegister(
		m.cyclesTotal,
		m.cycleDuration,
		m.evalWarnings,
		m.runningInstances,
		m.degraded,
		m.pointSamples,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveCycle(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.cyclesTotal.WithLabelValues(result).Inc()
	m.cycleDuration.Observe(d.Seconds())
}

func (m *Metrics) ConditionErrors(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.evalWarnings.Add(float64(n))
}

func (m *Metrics) SetRunning(n int) {
	if m == nil {
		return
	}
	m.runningInstances.Set(float64(n))
}

// Degraded moves the degraded gauge by +1 or -1 on health transitions.
func (m *Metrics) Degraded(delta int) {
	if m == nil {
		return
	}
	m.degraded.Add(float64(delta))
}

func (m *Metrics) PointSampled() {
	if m == nil {
		return
	}
	m.pointSamples.Inc()
}

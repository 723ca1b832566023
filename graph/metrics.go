package graph

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsNamespace prefixes every metric name.
const MetricsNamespace = "interview_graph"

// PrometheusMetrics collects engine metrics.
//
// Metrics exposed:
//
//  1. inflight_nodes (gauge): nodes executing right now.
//  2. node_latency_ms (histogram): node execution time per attempt.
//     Labels: node_id, status (success, error, timeout, panic).
//  3. node_retries_total (counter): retry attempts. Labels: node_id.
//  4. steps_total (counter): completed steps.
//  5. step_failures_total (counter): steps discarded. Labels: reason
//     (node, validation, routing, store).
//  6. session_transitions_total (counter): Labels: status (PAUSED, ENDED).
//
// Session ids are deliberately not used as labels.
//
// Example:
//
//	registry := prometheus.NewRegistry()
//	metrics := graph.NewPrometheusMetrics(registry)
//	eng := graph.New(reducer, st, emitter, graph.WithMetrics(metrics))
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
type PrometheusMetrics struct {
	inflightNodes prometheus.Gauge
	nodeLatency   *prometheus.HistogramVec
	retries       *prometheus.CounterVec
	steps         prometheus.Counter
	stepFailures  *prometheus.CounterVec
	transitions   *prometheus.CounterVec

	inflight atomic.Int64
	disabled atomic.Bool
}

// NewPrometheusMetrics creates and registers the engine metrics with
// registry. A nil registry uses prometheus.DefaultRegisterer.
func NewPrometheusMetrics(registry prometheus.Registerer) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &PrometheusMetrics{
		inflightNodes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "inflight_nodes",
			Help:      "Number of nodes currently executing",
		}),
		nodeLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Name:      "node_latency_ms",
			Help:      "Node execution duration in milliseconds, per attempt",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000, 30000},
		}, []string{"node_id", "status"}),
		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "node_retries_total",
			Help:      "Node retry attempts",
		}, []string{"node_id"}),
		steps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "steps_total",
			Help:      "Steps merged successfully",
		}),
		stepFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "step_failures_total",
			Help:      "Steps discarded because of an error",
		}, []string{"reason"}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "session_transitions_total",
			Help:      "Sessions reaching PAUSED or ENDED",
		}, []string{"status"}),
	}
}

func (pm *PrometheusMetrics) nodeStarted() {
	if pm == nil || pm.disabled.Load() {
		return
	}
	pm.inflightNodes.Set(float64(pm.inflight.Add(1)))
}

func (pm *PrometheusMetrics) nodeFinished(nodeID string, latency time.Duration, status string) {
	if pm == nil {
		return
	}
	n := pm.inflight.Add(-1)
	if pm.disabled.Load() {
		return
	}
	pm.inflightNodes.Set(float64(n))
	pm.nodeLatency.WithLabelValues(nodeID, status).Observe(float64(latency.Milliseconds()))
}

func (pm *PrometheusMetrics) nodeRetried(nodeID string) {
	if pm == nil || pm.disabled.Load() {
		return
	}
	pm.retries.WithLabelValues(nodeID).Inc()
}

func (pm *PrometheusMetrics) stepMerged() {
	if pm == nil || pm.disabled.Load() {
		return
	}
	pm.steps.Inc()
}

func (pm *PrometheusMetrics) stepFailed(reason string) {
	if pm == nil || pm.disabled.Load() {
		return
	}
	pm.stepFailures.WithLabelValues(reason).Inc()
}

func (pm *PrometheusMetrics) transition(status Status) {
	if pm == nil || pm.disabled.Load() {
		return
	}
	pm.transitions.WithLabelValues(string(status)).Inc()
}

// Disable stops recording until Enable is called.
func (pm *PrometheusMetrics) Disable() { pm.disabled.Store(true) }

// Enable resumes recording after Disable.
func (pm *PrometheusMetrics) Enable() { pm.disabled.Store(false) }

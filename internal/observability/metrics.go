// Package observability provides Prometheus metrics for analysis runs.
package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const defaultNamespace = "poolscope"

// Metrics holds the run metrics on a private registry. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	EngineRuns     *prometheus.CounterVec
	EngineDuration *prometheus.HistogramVec
	PoolsScored    *prometheus.CounterVec
	PoolsSkipped   *prometheus.CounterVec
	SnapshotPools  prometheus.Gauge
	SnapshotTokens prometheus.Gauge
	LastRun        prometheus.Gauge
}

// NewMetrics creates and registers all metrics.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = defaultNamespace
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		EngineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "runs_total",
			Help:      "Engine executions by outcome",
		}, []string{"engine", "status"}),
		EngineDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "duration_seconds",
			Help:      "Engine execution time in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"engine"}),
		PoolsScored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "pools_scored_total",
			Help:      "Pools that received a score",
		}, []string{"engine", "backend"}),
		PoolsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "pools_skipped_total",
			Help:      "Pools excluded from ranking after a scoring failure",
		}, []string{"engine", "backend"}),
		SnapshotPools: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "pools",
			Help:      "Pools in the analysed snapshot",
		}),
		SnapshotTokens: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "tokens",
			Help:      "Tokens in the analysed snapshot",
		}),
		LastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last completed run",
		}),
	}

	m.registry.MustRegister(
		m.EngineRuns,
		m.EngineDuration,
		m.PoolsScored,
		m.PoolsSkipped,
		m.SnapshotPools,
		m.SnapshotTokens,
		m.LastRun,
	)
	return m
}

// Registry returns the registry holding the metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveEngine records one engine execution.
func (m *Metrics) ObserveEngine(engine string, failed bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if failed {
		status = "error"
	}
	m.EngineRuns.WithLabelValues(engine, status).Inc()
	m.EngineDuration.WithLabelValues(engine).Observe(elapsed.Seconds())
}

// ObserveScoring records scored and skipped pool counts for one engine run.
func (m *Metrics) ObserveScoring(engine, backend string, scored, skipped int) {
	if m == nil {
		return
	}
	m.PoolsScored.WithLabelValues(engine, backend).Add(float64(scored))
	m.PoolsSkipped.WithLabelValues(engine, backend).Add(float64(skipped))
}

// ObserveSnapshot records the size of the analysed snapshot.
func (m *Metrics) ObserveSnapshot(tokens, pools int) {
	if m == nil {
		return
	}
	m.SnapshotTokens.Set(float64(tokens))
	m.SnapshotPools.Set(float64(pools))
}

// MarkRun stamps the completion time of a run.
func (m *Metrics) MarkRun(at time.Time) {
	if m == nil {
		return
	}
	m.LastRun.Set(float64(at.Unix()))
}

// WriteTextfile writes the metrics in the node exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

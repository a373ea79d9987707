// Package metrics exposes Prometheus collectors for bucket transfers.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder owns a private registry so a CLI run exports only its own series.
type Recorder struct {
	registry *prometheus.Registry

	transfersTotal  *prometheus.CounterVec
	bytesTotal      *prometheus.CounterVec
	durationSeconds *prometheus.HistogramVec
	runsTotal       *prometheus.CounterVec
	lastRunSuccess  *prometheus.GaugeVec
}

// New registers the bucketsync collectors on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		transfersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bucketsync_transfers_total",
				Help: "Total number of file transfers, labeled by direction and outcome.",
			},
			[]string{"direction", "outcome"},
		),
		bytesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bucketsync_transfer_bytes_total",
				Help: "Total number of bytes moved, labeled by direction.",
			},
			[]string{"direction"},
		),
		durationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bucketsync_transfer_duration_seconds",
				Help:    "Histogram of single-file transfer latencies, labeled by direction.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"direction"},
		),
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bucketsync_runs_total",
				Help: "Total number of command runs, labeled by operation and status.",
			},
			[]string{"operation", "status"},
		),
		lastRunSuccess: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bucketsync_last_run_success",
				Help: "1 if the last run of an operation had no failures, 0 otherwise.",
			},
			[]string{"operation"},
		),
	}
}

// ObserveTransfer records one file transfer. Skipped items carry no duration.
func (r *Recorder) ObserveTransfer(direction, outcome string, bytes int64, duration time.Duration) {
	r.transfersTotal.WithLabelValues(direction, outcome).Inc()
	if bytes > 0 {
		r.bytesTotal.WithLabelValues(direction).Add(float64(bytes))
	}
	if duration > 0 {
		r.durationSeconds.WithLabelValues(direction).Observe(duration.Seconds())
	}
}

// ObserveRun records the overall status of a command.
func (r *Recorder) ObserveRun(operation string, ok bool) {
	status := "success"
	gauge := 1.0
	if !ok {
		status = "failure"
		gauge = 0
	}
	r.runsTotal.WithLabelValues(operation, status).Inc()
	r.lastRunSuccess.WithLabelValues(operation).Set(gauge)
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

package secrets

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sweepKeysScanned   prometheus.Counter
	sweepKeysDeleted   *prometheus.CounterVec
	sweepDeleteFailed  prometheus.Counter
	sweepRunsTotal     prometheus.Counter

	metricsOnce       sync.Once
	metricsRegistered bool
)

// InitMetrics initializes the Prometheus metrics for cleanup sweeps. Call
// once at startup when metrics are enabled; sweeps record nothing until
// then.
func InitMetrics() {
	metricsOnce.Do(func() {
		sweepRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "unichat_secrets_sweep_runs_total",
			Help: "Total number of unused-secret cleanup sweeps",
		})

		sweepKeysScanned = promauto.NewCounter(prometheus.CounterOpts{
			Name: "unichat_secrets_sweep_keys_scanned_total",
			Help: "Total number of owned storage keys examined by sweeps",
		})

		sweepKeysDeleted = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unichat_secrets_sweep_keys_deleted_total",
				Help: "Total number of storage keys deleted by sweeps",
			},
			[]string{"reason"},
		)

		sweepDeleteFailed = promauto.NewCounter(prometheus.CounterOpts{
			Name: "unichat_secrets_sweep_delete_failures_total",
			Help: "Total number of sweep deletions that failed; the next sweep retries them",
		})

		metricsRegistered = true
	})
}

func recordSweepRun(scanned int) {
	if !metricsRegistered {
		return
	}
	sweepRunsTotal.Inc()
	sweepKeysScanned.Add(float64(scanned))
}

func recordSweepDeleted(reason string) {
	if !metricsRegistered || sweepKeysDeleted == nil {
		return
	}
	sweepKeysDeleted.WithLabelValues(reason).Inc()
}

func recordSweepDeleteFailure() {
	if !metricsRegistered || sweepDeleteFailed == nil {
		return
	}
	sweepDeleteFailed.Inc()
}

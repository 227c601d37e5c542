package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// LedgerMetrics records vote cast outcomes. Collectors are registered once,
// in NewLedgerMetrics; registering twice on one registry panics.
type LedgerMetrics struct {
	Casts    *prometheus.CounterVec
	Failures *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
}

func NewLedgerMetrics(registerer prometheus.Registerer, namespace string) *LedgerMetrics {
	factory := promauto.With(registerer)
	return &LedgerMetrics{
		Casts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "casts_total",
				Help:      "Vote casts by resulting action and poll mode",
			},
			[]string{"action", "mode"},
		),
		Failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "cast_failures_total",
				Help:      "Vote casts that failed, by failing stage",
			},
			[]string{"stage"},
		),
		Latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "cast_duration_seconds",
				Help:      "Histogram of vote cast times",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~2s
			},
			[]string{"mode"},
		),
	}
}

func (m *LedgerMetrics) ObserveCast(action string, singleVote bool, elapsed time.Duration) {
	mode := modeLabel(singleVote)
	m.Casts.WithLabelValues(action, mode).Inc()
	m.Latency.WithLabelValues(mode).Observe(elapsed.Seconds())
}

func (m *LedgerMetrics) ObserveCastFailure(stage string) {
	m.Failures.WithLabelValues(stage).Inc()
}

func modeLabel(singleVote bool) string {
	if singleVote {
		return "single"
	}
	return "multi"
}

// Package metrics exposes Prometheus counters for the relation engine and
// the content lifecycle.
//
// Usage:
//
//	metrics.RecordToggle("like", true)
//	metrics.RecordCounterClamp("users", "follower_count")
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ToggleActivated   = "activated"
	ToggleDeactivated = "deactivated"
	ToggleReplayed    = "replayed"
)

var (
	// TogglesTotal counts committed toggles by relation and resulting state.
	TogglesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relation_toggles_total",
			Help: "Total number of committed relation toggles",
		},
		[]string{"relation", "result"},
	)

	// NotificationsEmittedTotal counts notification rows written by the fan-out.
	NotificationsEmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_emitted_total",
			Help: "Total number of notifications emitted",
		},
		[]string{"type"},
	)

	// NotificationsSuppressedTotal counts self-directed interactions that produced no notification.
	NotificationsSuppressedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_suppressed_total",
			Help: "Total number of self-directed interactions with no notification",
		},
		[]string{"type"},
	)

	// CounterClampsTotal counts adjustments that would have produced a negative counter.
	CounterClampsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "counter_clamps_total",
			Help: "Total number of counter adjustments floored at zero",
		},
		[]string{"table", "field"},
	)

	// CounterDriftCorrectedTotal counts counters rewritten by the audit.
	CounterDriftCorrectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "counter_drift_corrected_total",
			Help: "Total number of denormalized counters corrected by reconciliation",
		},
		[]string{"table", "field"},
	)

	// TxRetriesTotal counts transactions re-run after a serialization failure or unique violation.
	TxRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tx_retries_total",
			Help: "Total number of retried transactions",
		},
		[]string{"operation"},
	)

	// CascadeDeletesTotal counts content deletions by kind and outcome.
	CascadeDeletesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_cascade_deletes_total",
			Help: "Total number of content cascade deletions",
		},
		[]string{"kind", "outcome"},
	)

	// CascadeRowsDeletedTotal counts dependent rows removed by cascades.
	CascadeRowsDeletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_cascade_rows_deleted_total",
			Help: "Total number of dependent rows removed by content cascades",
		},
		[]string{"table"},
	)

	// CircuitBreakerState is 0 closed, 1 half-open, 2 open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// ReelViewsTotal counts recorded reel views.
	ReelViewsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reel_views_total",
			Help: "Total number of reel views recorded",
		},
	)
)

// RecordToggle records a committed toggle.
func RecordToggle(relation string, active bool) {
	result := ToggleDeactivated
	if active {
		result = ToggleActivated
	}
	TogglesTotal.WithLabelValues(relation, result).Inc()
}

// RecordToggleReplay records a toggle answered from an idempotency receipt.
func RecordToggleReplay(relation string) {
	TogglesTotal.WithLabelValues(relation, ToggleReplayed).Inc()
}

func RecordNotification(notificationType string) {
	NotificationsEmittedTotal.WithLabelValues(notificationType).Inc()
}

func RecordSuppressedNotification(notificationType string) {
	NotificationsSuppressedTotal.WithLabelValues(notificationType).Inc()
}

func RecordCounterClamp(table, field string) {
	CounterClampsTotal.WithLabelValues(table, field).Inc()
}

func RecordCounterDrift(table, field string) {
	CounterDriftCorrectedTotal.WithLabelValues(table, field).Inc()
}

func RecordTxRetry(operation string) {
	TxRetriesTotal.WithLabelValues(operation).Inc()
}

// RecordCascade records a cascade outcome and the dependent rows it removed.
func RecordCascade(kind, outcome string, rowsByTable map[string]int64) {
	CascadeDeletesTotal.WithLabelValues(kind, outcome).Inc()
	for table, rows := range rowsByTable {
		CascadeRowsDeletedTotal.WithLabelValues(table).Add(float64(rows))
	}
}

func RecordReelView() {
	ReelViewsTotal.Inc()
}

// RecordBreakerState records a circuit breaker transition.
func RecordBreakerState(name, from, to string, value float64) {
	CircuitBreakerState.WithLabelValues(name).Set(value)
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}

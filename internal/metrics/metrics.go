// internal/metrics/metrics.go

// Package metrics exposes Prometheus counters for the money movement engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MovementOperations counts movement engine invocations by operation and outcome.
	MovementOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pixbank",
		Name:      "movement_operations_total",
		Help:      "Movement engine operations by type and outcome.",
	}, []string{"operation", "outcome"})

	// ConflictRetries counts internal retries triggered by detected lost-update races.
	ConflictRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pixbank",
		Name:      "concurrency_conflict_retries_total",
		Help:      "Internal retries after a concurrency conflict.",
	})
)

// RecordOperation increments the operation counter with a success/failure outcome.
func RecordOperation(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	MovementOperations.WithLabelValues(operation, outcome).Inc()
}

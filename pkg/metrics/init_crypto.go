package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initCryptoMetrics() {
	r.OperationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "seedvault_operations_total",
			Help: "Total number of vault operations",
		},
		[]string{"operation", "status"}, // status: success or an error kind
	)

	r.OperationDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "seedvault_operation_duration_seconds",
			Help:    "Duration of vault operations in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		},
		[]string{"operation"},
	)

	r.KeyDerivationDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "seedvault_key_derivation_duration_seconds",
			Help:    "Duration of key derivation in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		},
		[]string{"algorithm"},
	)

	r.IntegrityFailuresTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "seedvault_integrity_failures_total",
			Help: "Total number of containers rejected by the integrity check",
		},
	)

	r.AuthFailuresTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "seedvault_authentication_failures_total",
			Help: "Total number of authentication tag mismatches",
		},
	)
}

package metrics

import (
	"runtime"
	"time"
)

// StatusSuccess is the status label for operations that completed.
const StatusSuccess = "success"

// RecordOperation records one vault operation. status is StatusSuccess or
// the name of the error kind that ended it.
func (r *Registry) RecordOperation(operation, status string, duration time.Duration) {
	r.OperationsTotal.WithLabelValues(operation, status).Inc()
	r.OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordKeyDerivation records the time spent in one key derivation.
func (r *Registry) RecordKeyDerivation(algorithm string, duration time.Duration) {
	r.KeyDerivationDuration.WithLabelValues(algorithm).Observe(duration.Seconds())
}

// RecordIntegrityFailure counts a container rejected by its digest.
func (r *Registry) RecordIntegrityFailure() {
	r.IntegrityFailuresTotal.Inc()
}

// RecordAuthenticationFailure counts an AEAD tag mismatch.
func (r *Registry) RecordAuthenticationFailure() {
	r.AuthFailuresTotal.Inc()
}

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordResponseSize records the size of an HTTP response body
func (r *Registry) RecordResponseSize(method, path string, size float64) {
	r.HTTPResponseSizeBytes.WithLabelValues(method, path).Observe(size)
}

// RecordRateLimited counts a request throttled before reaching its handler.
func (r *Registry) RecordRateLimited(path string) {
	r.RateLimitedTotal.WithLabelValues(path).Inc()
}

// IncHTTPRequestsInFlight increments the in-flight request gauge
func (r *Registry) IncHTTPRequestsInFlight() {
	r.HTTPRequestsInFlight.Inc()
}

// DecHTTPRequestsInFlight decrements the in-flight request gauge
func (r *Registry) DecHTTPRequestsInFlight() {
	r.HTTPRequestsInFlight.Dec()
}

// UpdateSystemMetrics refreshes uptime, goroutine and heap gauges.
func (r *Registry) UpdateSystemMetrics(startTime time.Time) {
	r.UptimeSeconds.Set(time.Since(startTime).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	r.MemoryAllocBytes.Set(float64(m.Alloc))
}

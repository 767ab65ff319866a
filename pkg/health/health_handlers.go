package health

import (
	"encoding/json"
	"net/http"
)

// HTTPHandler serves the full check set. Degraded still answers 200 so that
// a memory warning does not take the service out of rotation.
func (hc *HealthChecker) HTTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, hc.Check(), true)
	}
}

// ReadinessHandler serves the readiness checks; anything but healthy is 503.
func (hc *HealthChecker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, hc.CheckReadiness(), false)
	}
}

// LivenessHandler serves the liveness checks; anything but healthy is 503.
func (hc *HealthChecker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, hc.CheckLiveness(), false)
	}
}

func writeResponse(w http.ResponseWriter, response Response, allowDegraded bool) {
	status := http.StatusServiceUnavailable
	switch response.Status {
	case StatusHealthy:
		status = http.StatusOK
	case StatusDegraded:
		if allowDegraded {
			status = http.StatusOK
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

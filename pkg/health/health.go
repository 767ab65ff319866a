// Package health runs named checks and serves their aggregate over HTTP.
package health

import (
	"time"
)

// NewHealthChecker creates a new health checker
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		checks:      make(map[string]CheckFunc),
		readyChecks: make(map[string]CheckFunc),
		liveChecks:  make(map[string]CheckFunc),
		started:     time.Now(),
	}
}

func (hc *HealthChecker) register(set map[string]CheckFunc, name string, check CheckFunc) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	set[name] = check
}

// RegisterCheck registers a check reported by Check and HTTPHandler.
func (hc *HealthChecker) RegisterCheck(name string, check CheckFunc) {
	hc.register(hc.checks, name, check)
}

// RegisterReadinessCheck registers a readiness check
func (hc *HealthChecker) RegisterReadinessCheck(name string, check CheckFunc) {
	hc.register(hc.readyChecks, name, check)
}

// RegisterLivenessCheck registers a liveness check
func (hc *HealthChecker) RegisterLivenessCheck(name string, check CheckFunc) {
	hc.register(hc.liveChecks, name, check)
}

// Check performs all health checks
func (hc *HealthChecker) Check() Response {
	return hc.performChecks(hc.checks)
}

// CheckReadiness performs readiness checks
func (hc *HealthChecker) CheckReadiness() Response {
	return hc.performChecks(hc.readyChecks)
}

// CheckLiveness performs liveness checks. With none registered the process
// is reported alive.
func (hc *HealthChecker) CheckLiveness() Response {
	return hc.performChecks(hc.liveChecks)
}

// performChecks runs every check in set; the worst status wins.
func (hc *HealthChecker) performChecks(set map[string]CheckFunc) Response {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	now := time.Now()
	response := Response{
		Status:    StatusHealthy,
		Timestamp: now,
		Checks:    make(map[string]Check, len(set)),
		Uptime:    now.Sub(hc.started).Seconds(),
	}

	for name, checkFunc := range set {
		start := time.Now()
		check := checkFunc()
		if check.Name == "" {
			check.Name = name
		}
		check.Duration = time.Since(start)
		check.LastChecked = start
		response.Checks[name] = check

		if severity(check.Status) > severity(response.Status) {
			response.Status = check.Status
		}
	}

	return response
}

func severity(s Status) int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}

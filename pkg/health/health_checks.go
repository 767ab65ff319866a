package health

import "math"

// SelfTestCheck runs a known-answer or round-trip test of the crypto core.
// Any error marks the service unhealthy.
func SelfTestCheck(selfTest func() error) CheckFunc {
	return func() Check {
		check := Check{
			Name: "crypto",
		}

		if err := selfTest(); err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
		} else {
			check.Status = StatusHealthy
			check.Message = "Self-test passed"
		}

		return check
	}
}

// WordlistCheck reports the loaded word list. size returns 0 when no list is
// loaded, which is only a problem when enforcement is on.
func WordlistCheck(size func() int, enforce bool) CheckFunc {
	return func() Check {
		check := Check{
			Name:    "wordlist",
			Details: make(map[string]any),
		}

		n := size()
		check.Details["words"] = n
		check.Details["enforce"] = enforce

		switch {
		case n == 0 && enforce:
			check.Status = StatusUnhealthy
			check.Message = "Word list required but not loaded"
		case n == 0:
			check.Status = StatusHealthy
			check.Message = "Word list not configured"
		default:
			check.Details["bits_per_word"] = math.Log2(float64(n))
			check.Status = StatusHealthy
			check.Message = "Word list loaded"
		}

		return check
	}
}

// MemoryCheck creates a health check for memory usage
func MemoryCheck(getUsage func() (alloc, sys uint64)) CheckFunc {
	return func() Check {
		check := Check{
			Name:    "memory",
			Details: make(map[string]any),
		}

		alloc, sys := getUsage()

		check.Details["alloc_bytes"] = alloc
		check.Details["sys_bytes"] = sys

		// Degraded when allocated memory exceeds 90% of memory obtained from the OS
		usagePercent := 0.0
		if sys > 0 {
			usagePercent = float64(alloc) / float64(sys) * 100
		}

		if usagePercent > 90 {
			check.Status = StatusDegraded
			check.Message = "High memory usage"
		} else {
			check.Status = StatusHealthy
			check.Message = "Memory usage normal"
		}

		return check
	}
}

package transport

import (
	"sync"
	"time"
)

// Status represents the health state of the backend as seen by the transport.
type Status int

const (
	StatusHealthy   Status = iota // Backend is answering normally
	StatusDegraded                // Backend is slow or erroring
	StatusThrottled               // Backend is rate limiting
)

func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusThrottled:
		return "throttled"
	default:
		return "unknown"
	}
}

// MonitorStats holds monitoring statistics for the transport.
type MonitorStats struct {
	Status         Status        `json:"status"`
	AverageLatency time.Duration `json:"average_latency"`
	Successes      int           `json:"successes"`
	Failures       int           `json:"failures"`
	ThrottleCount  int           `json:"throttle_count"`
	ErrorRate      float64       `json:"error_rate"`
	LastSuccessAt  time.Time     `json:"last_success_at"`
	LastFailureAt  time.Time     `json:"last_failure_at"`
}

// Monitor tracks transport latency, failures and rate limiting.
type Monitor struct {
	mu sync.RWMutex

	recentLatencies  []time.Duration
	maxLatencyWindow int

	successes     int
	failures      int
	lastSuccessAt time.Time
	lastFailureAt time.Time

	throttleCount    int
	lastThrottleTime time.Time
	throttleCooldown time.Duration

	slowResponseThreshold time.Duration
	degradedErrorRate     float64
}

// NewMonitor creates a new monitor with default settings.
func NewMonitor() *Monitor {
	return &Monitor{
		recentLatencies:       make([]time.Duration, 0, 100),
		maxLatencyWindow:      100,
		throttleCooldown:      60 * time.Second,
		slowResponseThreshold: 3 * time.Second,
		degradedErrorRate:     0.5,
	}
}

// RecordSuccess records a completed request with its latency.
func (m *Monitor) RecordSuccess(latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.successes++
	m.lastSuccessAt = time.Now()

	m.recentLatencies = append(m.recentLatencies, latency)
	if len(m.recentLatencies) > m.maxLatencyWindow {
		m.recentLatencies = m.recentLatencies[1:]
	}
}

// RecordFailure records a failed request.
func (m *Monitor) RecordFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failures++
	m.lastFailureAt = time.Now()
}

// RecordThrottle records a 429 response.
func (m *Monitor) RecordThrottle() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.throttleCount++
	m.lastThrottleTime = time.Now()
}

// Status returns the current status of the backend.
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.statusLocked()
}

func (m *Monitor) statusLocked() Status {
	if m.throttleCount > 0 && time.Since(m.lastThrottleTime) < m.throttleCooldown {
		return StatusThrottled
	}

	if total := m.successes + m.failures; total >= 10 {
		if float64(m.failures)/float64(total) > m.degradedErrorRate {
			return StatusDegraded
		}
	}

	if len(m.recentLatencies) > 10 && m.averageLatencyLocked() > m.slowResponseThreshold {
		return StatusDegraded
	}

	return StatusHealthy
}

func (m *Monitor) averageLatencyLocked() time.Duration {
	if len(m.recentLatencies) == 0 {
		return 0
	}
	var total time.Duration
	for _, lat := range m.recentLatencies {
		total += lat
	}
	return total / time.Duration(len(m.recentLatencies))
}

// Stats returns current monitoring statistics.
func (m *Monitor) Stats() MonitorStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := MonitorStats{
		Status:         m.statusLocked(),
		AverageLatency: m.averageLatencyLocked(),
		Successes:      m.successes,
		Failures:       m.failures,
		ThrottleCount:  m.throttleCount,
		LastSuccessAt:  m.lastSuccessAt,
		LastFailureAt:  m.lastFailureAt,
	}
	if total := m.successes + m.failures; total > 0 {
		stats.ErrorRate = float64(m.failures) / float64(total)
	}
	return stats
}

package health

import (
	"github.com/discover-rso/rso/internal/connection"
	"github.com/discover-rso/rso/internal/infra/transport"
)

// ConnectionSource exposes the probe state.
type ConnectionSource interface {
	State() connection.State
	Attempts() int
	Finished() <-chan struct{}
}

// QueueSource exposes request queue occupancy.
type QueueSource interface {
	Started() bool
	Pending() int
}

// StatsSource exposes transport statistics.
type StatsSource interface {
	Stats() transport.MonitorStats
}

// Monitor aggregates health status from the client components.
type Monitor struct {
	conn  ConnectionSource
	queue QueueSource
	stats StatsSource
}

// NewMonitor creates a new health monitor.
func NewMonitor(conn ConnectionSource, queue QueueSource, stats StatsSource) *Monitor {
	return &Monitor{
		conn:  conn,
		queue: queue,
		stats: stats,
	}
}

// CheckHealth builds a report from the current component state.
func (m *Monitor) CheckHealth() Report {
	report := Report{
		Connection:    m.conn.State().String(),
		ProbeAttempts: m.conn.Attempts(),
		QueueStarted:  m.queue.Started(),
		QueuePending:  m.queue.Pending(),
		Transport:     m.stats.Stats(),
	}

	select {
	case <-m.conn.Finished():
		report.ProbeFinished = true
	default:
	}

	switch {
	case m.conn.State() != connection.StateConnected && report.ProbeFinished:
		// Probing gave up; nothing will ever be dispatched.
		report.Status = StatusCritical
	case m.conn.State() != connection.StateConnected:
		report.Status = StatusDegraded
	case report.Transport.Status != transport.StatusHealthy:
		report.Status = StatusDegraded
	default:
		report.Status = StatusHealthy
	}

	return report
}

// Package health reports the client's connectivity for operators.
package health

import (
	"github.com/discover-rso/rso/internal/infra/transport"
)

// SystemStatus represents the overall health state of the client.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// Report contains the full health report.
type Report struct {
	Status        SystemStatus           `json:"status"`
	Connection    string                 `json:"connection"`
	ProbeAttempts int                    `json:"probe_attempts"`
	ProbeFinished bool                   `json:"probe_finished"`
	QueueStarted  bool                   `json:"queue_started"`
	QueuePending  int                    `json:"queue_pending"`
	Transport     transport.MonitorStats `json:"transport"`
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProbeAttempts tracks startup probe attempts by outcome
	ProbeAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rso_probe_attempts_total",
			Help: "Total number of startup probe attempts",
		},
		[]string{"outcome"},
	)

	// Connected is 1 once the handshake succeeded
	Connected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rso_connected",
			Help: "Whether the backend handshake has succeeded",
		},
	)

	// RequestsTotal tracks queued requests by path and outcome
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rso_requests_total",
			Help: "Total number of queued requests completed",
		},
		[]string{"path", "outcome"},
	)

	// RequestLatency tracks transport latency of queued requests
	RequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rso_request_latency_seconds",
			Help:    "Request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	// QueuePending tracks requests waiting for a worker
	QueuePending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rso_queue_pending",
			Help: "Requests waiting for a worker",
		},
	)

	// DecodeErrors tracks payloads rejected by the summary decoder
	DecodeErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rso_decode_errors_total",
			Help: "Total number of responses that failed to decode",
		},
	)
)

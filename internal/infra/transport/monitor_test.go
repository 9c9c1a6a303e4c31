package transport

import (
	"testing"
	"time"
)

func TestMonitor_Accumulates(t *testing.T) {
	m := NewMonitor()

	m.RecordSuccess(100 * time.Millisecond)
	for i := 0; i < 100; i++ {
		m.RecordSuccess(50 * time.Millisecond)
	}

	stats := m.Stats()
	if stats.Successes != 101 {
		t.Errorf("Expected 101 successes, got %d", stats.Successes)
	}
	// Latency window is capped at 100, so the first 100ms sample is gone.
	if stats.AverageLatency != 50*time.Millisecond {
		t.Errorf("Expected 50ms average, got %v", stats.AverageLatency)
	}
	if stats.Status != StatusHealthy {
		t.Errorf("Expected healthy, got %s", stats.Status)
	}
}

func TestMonitor_DegradedOnErrors(t *testing.T) {
	m := NewMonitor()

	for i := 0; i < 3; i++ {
		m.RecordSuccess(time.Millisecond)
	}
	for i := 0; i < 7; i++ {
		m.RecordFailure()
	}

	stats := m.Stats()
	if stats.Status != StatusDegraded {
		t.Errorf("Expected degraded, got %s", stats.Status)
	}
	if stats.ErrorRate != 0.7 {
		t.Errorf("Expected error rate 0.7, got %v", stats.ErrorRate)
	}
}

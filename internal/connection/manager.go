// Package connection verifies that the RSO backend is reachable before any
// feature request is allowed onto the network.
//
// A Manager probes the backend root on a background goroutine with a bounded
// number of attempts. The first probe whose body equals the acknowledgment
// literal publishes the Connected state, exactly once, and starts the shared
// request queue. If every attempt fails the manager stays Unresolved forever;
// callers detect that through the AwaitConnected timeout.
package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/discover-rso/rso/internal/core/clienterr"
	"github.com/discover-rso/rso/internal/infra/metrics"
	"github.com/discover-rso/rso/internal/infra/transport"
)

// State is the resolved connectivity of a Manager.
type State int32

const (
	StateUnresolved State = iota
	StateConnected
)

func (s State) String() string {
	if s == StateConnected {
		return "connected"
	}
	return "unresolved"
}

// Starter is the request machinery released once the handshake succeeds.
type Starter interface {
	Start()
}

// Config controls the startup probe.
type Config struct {
	Acknowledgment string
	Retry          transport.RetryConfig
	AwaitTimeout   time.Duration
}

// DefaultConfig returns the reference probe policy: 8 attempts, 1s apart,
// a 2s await timeout.
func DefaultConfig(ack string) Config {
	return Config{
		Acknowledgment: ack,
		Retry:          transport.DefaultProbeRetry,
		AwaitTimeout:   2 * time.Second,
	}
}

// Manager owns startup probing and the one-time Connected publish.
type Manager struct {
	cfg    Config
	prober transport.Getter
	queue  Starter
	log    *slog.Logger

	state     atomic.Int32
	attempts  atomic.Int32
	connected chan struct{}
	finished  chan struct{}
	publish   sync.Once
	startOnce sync.Once

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Manager without starting it. queue may be nil.
func New(cfg Config, prober transport.Getter, queue Starter) *Manager {
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = transport.DefaultProbeRetry
	}
	if cfg.AwaitTimeout <= 0 {
		cfg.AwaitTimeout = 2 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		cfg:       cfg,
		prober:    prober,
		queue:     queue,
		log:       slog.Default().With("component", "connection"),
		connected: make(chan struct{}),
		finished:  make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}
}

var (
	sharedMu sync.Mutex
	shared   *Manager
)

// Start returns the process-wide Manager, creating and starting it on first
// use. Later calls ignore their arguments and return the existing instance
// until it is stopped; the next call after that creates a fresh one.
func Start(cfg Config, prober transport.Getter, queue Starter) *Manager {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if shared == nil {
		shared = New(cfg, prober, queue)
		shared.Start()
	}
	return shared
}

// Shared returns the process-wide Manager, or nil before Start.
func Shared() *Manager {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	return shared
}

// Detach removes m from the process-wide slot, if it holds it, so the next
// package-level Start creates a fresh Manager. Stop detaches as well.
func (m *Manager) Detach() {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if shared == m {
		shared = nil
	}
}

// Start launches the probe loop on its own goroutine. Only the first call
// has an effect.
func (m *Manager) Start() {
	m.startOnce.Do(func() {
		go m.run()
	})
}

// AwaitConnected waits up to timeout for the handshake to succeed. A
// non-positive timeout uses the configured default.
func (m *Manager) AwaitConnected(timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = m.cfg.AwaitTimeout
	}
	if m.State() == StateConnected {
		return true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-m.connected:
		return true
	case <-timer.C:
		return false
	}
}

// Connected is closed once the handshake succeeds.
func (m *Manager) Connected() <-chan struct{} {
	return m.connected
}

// Finished is closed when the probe loop exits, connected or not.
func (m *Manager) Finished() <-chan struct{} {
	return m.finished
}

// State returns the current connectivity.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// Attempts returns how many probes have been issued.
func (m *Manager) Attempts() int {
	return int(m.attempts.Load())
}

// Queue returns the request machinery released on Connected, or nil.
func (m *Manager) Queue() Starter {
	return m.queue
}

// Stop abandons probing. It does not stop the queue, which has its own owner.
// A stopped Manager is no longer returned by the package-level Start.
func (m *Manager) Stop(ctx context.Context) error {
	m.Detach()
	m.cancel()

	select {
	case <-m.finished:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop connection manager: %w", ctx.Err())
	}
}

func (m *Manager) run() {
	defer close(m.finished)

	maxAttempts := m.cfg.Retry.MaxAttempts
	for attempt := 0; attempt < maxAttempts; attempt++ {
		m.attempts.Add(1)

		err := m.probe()
		if err == nil {
			metrics.ProbeAttempts.WithLabelValues("success").Inc()
			m.markConnected(attempt + 1)
			return
		}

		outcome := strings.ToLower(string(clienterr.KindOf(err)))
		if outcome == "" {
			outcome = "error"
		}
		metrics.ProbeAttempts.WithLabelValues(outcome).Inc()
		m.log.Debug("Probe failed", "attempt", attempt+1, "max_attempts", maxAttempts, "error", err)

		if errors.Is(err, context.Canceled) || m.ctx.Err() != nil {
			m.log.Info("Probe loop stopped", "attempts", attempt+1)
			return
		}
		if attempt == maxAttempts-1 {
			break
		}
		if !transport.Sleep(m.ctx, m.cfg.Retry.Backoff(attempt)) {
			m.log.Info("Probe loop stopped", "attempts", attempt+1)
			return
		}
	}

	m.log.Error("Client couldn't connect", "attempts", maxAttempts)
}

// probe issues one synchronous GET against the backend root.
func (m *Manager) probe() error {
	body, err := m.prober.Get(m.ctx, "")
	if err != nil {
		return err
	}

	// A single trailing newline is not significant.
	got := strings.TrimSuffix(strings.TrimSuffix(string(body), "\n"), "\r")
	if got != m.cfg.Acknowledgment {
		return clienterr.NewHandshake(m.cfg.Acknowledgment, got)
	}
	return nil
}

func (m *Manager) markConnected(attempts int) {
	m.publish.Do(func() {
		m.state.Store(int32(StateConnected))
		metrics.Connected.Set(1)
		close(m.connected)
		if m.queue != nil {
			m.queue.Start()
		}
		m.log.Info("Connected to backend", "attempts", attempts)
	})
}

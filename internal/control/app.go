package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/discover-rso/rso/internal/connection"
	"github.com/discover-rso/rso/internal/core/config"
	"github.com/discover-rso/rso/internal/health"
	"github.com/discover-rso/rso/internal/infra/transport"
	"github.com/discover-rso/rso/internal/queue"
	"github.com/discover-rso/rso/internal/summary"
)

// App wires the transport, request queue, connection manager and summary
// client for one backend.
type App struct {
	cfg       *config.AppConfig
	transport *transport.HTTPTransport
	queue     *queue.Queue
	conn      *connection.Manager
	summaries *summary.Client

	healthMon    *health.Monitor
	healthServer *health.Server
	log          *slog.Logger

	sharedConn bool
	shared     *sharedClient
	stopOnce   sync.Once
	stopErr    error
}

// Option configures an App.
type Option func(*App)

// WithSharedConnection makes the App use the process-wide connection manager
// together with its transport and request queue. The first shared App's
// server and queue settings apply until the last shared App stops.
func WithSharedConnection() Option {
	return func(a *App) { a.sharedConn = true }
}

// sharedClient is the transport and queue behind the process-wide
// connection manager, counted by the Apps using it.
type sharedClient struct {
	transport *transport.HTTPTransport
	queue     *queue.Queue
	refs      int
}

var (
	sharedMu sync.Mutex
	shared   *sharedClient
)

func acquireShared(cfg *config.AppConfig) *sharedClient {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if shared == nil {
		tr, q := newRequestPath(cfg)
		shared = &sharedClient{transport: tr, queue: q}
	}
	shared.refs++
	return shared
}

// releaseShared drops one reference. On the last one it returns the shared
// connection manager bound to s, already detached, for the caller to stop.
func releaseShared(s *sharedClient) (last bool, conn *connection.Manager) {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	s.refs--
	if s.refs > 0 {
		return false, nil
	}
	if shared == s {
		shared = nil
	}
	// Detach under sharedMu so a new shared App cannot pick this manager up.
	if m := connection.Shared(); m != nil && m.Queue() == s.queue {
		m.Detach()
		conn = m
	}
	return true, conn
}

func newRequestPath(cfg *config.AppConfig) (*transport.HTTPTransport, *queue.Queue) {
	tr := transport.NewHTTPTransport(cfg.Server.URL, cfg.Server.Timeout)
	q := queue.New(tr, queue.Config{
		Workers:        cfg.Queue.Workers,
		DeliveryBuffer: cfg.Queue.DeliveryBuffer,
	})
	return tr, q
}

// NewApp creates an App with all dependencies initialized. Nothing touches
// the network until Start.
func NewApp(cfg *config.AppConfig, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{
		cfg: cfg,
		log: slog.Default().With("component", "app"),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.sharedConn {
		a.shared = acquireShared(cfg)
		a.transport, a.queue = a.shared.transport, a.shared.queue
	} else {
		a.transport, a.queue = newRequestPath(cfg)
	}
	a.summaries = summary.NewClient(a.queue)
	return a, nil
}

// connectionConfig maps the YAML handshake block onto the probe policy.
func connectionConfig(cfg *config.AppConfig) connection.Config {
	return connection.Config{
		Acknowledgment: cfg.Handshake.Acknowledgment,
		Retry: transport.RetryConfig{
			MaxAttempts:     cfg.Handshake.MaxAttempts,
			InitialDelay:    cfg.Handshake.RetryDelay,
			MaxDelay:        cfg.Handshake.RetryDelay,
			BackoffMultiple: 1.0,
		},
		AwaitTimeout: cfg.Handshake.AwaitTimeout,
	}
}

// Start launches the probe loop and, when configured, the health server.
// It returns immediately; use AwaitConnected to wait for the handshake.
func (a *App) Start(_ context.Context) error {
	if a.sharedConn {
		a.conn = connection.Start(connectionConfig(a.cfg), a.transport, a.queue)
		if a.conn.Queue() != a.queue {
			return errors.New("shared connection manager is bound to another request queue")
		}
	} else {
		a.conn = connection.New(connectionConfig(a.cfg), a.transport, a.queue)
		a.conn.Start()
	}

	a.healthMon = health.NewMonitor(a.conn, a.queue, a.transport.Monitor)
	if a.cfg.Health.Port > 0 {
		a.healthServer = health.NewServer(a.healthMon, a.cfg.Health.Port)
		go func() {
			if err := a.healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Error("Health server failed", "error", err)
			}
		}()
		a.log.Info("Health server listening", "port", a.cfg.Health.Port)
	}

	a.log.Info("Client started", "server", a.transport.BaseURL())
	return nil
}

// AwaitConnected waits up to timeout for the handshake. A non-positive timeout
// uses handshake.await_timeout.
func (a *App) AwaitConnected(timeout time.Duration) bool {
	if a.conn == nil {
		return false
	}
	return a.conn.AwaitConnected(timeout)
}

// Summaries returns the summary client.
func (a *App) Summaries() *summary.Client {
	return a.summaries
}

// Connection returns the connection manager, or nil before Start.
func (a *App) Connection() *connection.Manager {
	return a.conn
}

// Health returns the current health report.
func (a *App) Health() health.Report {
	if a.healthMon == nil {
		return health.Report{Status: health.StatusDegraded, Connection: connection.StateUnresolved.String()}
	}
	return a.healthMon.CheckHealth()
}

// Stop shuts down probing, the queue and the health server. A shared App
// only releases its reference; the last one to stop shuts the shared
// manager, queue and transport down. Later calls return the first result.
func (a *App) Stop(ctx context.Context) error {
	a.stopOnce.Do(func() {
		a.stopErr = a.stop(ctx)
	})
	return a.stopErr
}

func (a *App) stop(ctx context.Context) error {
	a.log.Info("Stopping client...")

	conn, owner := a.conn, a.shared == nil
	if a.shared != nil {
		var sharedConn *connection.Manager
		if owner, sharedConn = releaseShared(a.shared); sharedConn != nil {
			conn = sharedConn
		}
	}

	var errs []error
	if owner {
		if conn != nil {
			if err := conn.Stop(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		if err := a.queue.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
		_ = a.transport.Close()
	} else {
		a.log.Debug("Shared client still in use")
	}

	if a.healthServer != nil {
		if err := a.healthServer.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop health server: %w", err))
		}
	}

	return errors.Join(errs...)
}

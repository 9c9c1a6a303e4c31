// Package queue dispatches GET requests on a bounded worker pool and hands
// completions to a single delivery goroutine.
//
// Requests may be added before the queue is started; they wait until Start
// is called. Every request's callback runs exactly once: with the response,
// with the transport error, or with ErrQueueStopped when the queue shuts down
// first.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/discover-rso/rso/internal/infra/metrics"
	"github.com/discover-rso/rso/internal/infra/transport"
)

// ErrQueueStopped is delivered to requests that never reached a worker.
// Requests added after Stop receive it on their own goroutine, outside the
// delivery goroutine, so those callbacks are not serialized with the rest.
var ErrQueueStopped = errors.New("request queue stopped")

// Callback receives the body of a 2xx response, or the error that replaced it.
type Callback func(body []byte, err error)

// Config sizes the queue.
type Config struct {
	Workers        int // concurrent requests in flight (default: 4)
	DeliveryBuffer int // completions buffered ahead of the delivery goroutine (default: 16)
}

// DefaultConfig returns default queue configuration.
func DefaultConfig() Config {
	return Config{
		Workers:        4,
		DeliveryBuffer: 16,
	}
}

// Request is one queued GET.
type Request struct {
	ID         string
	Path       string
	EnqueuedAt time.Time

	callback Callback
	once     sync.Once
}

func (r *Request) complete(body []byte, err error) {
	r.once.Do(func() {
		if r.callback != nil {
			r.callback(body, err)
		}
	})
}

// Queue is the shared request-issuing machinery.
type Queue struct {
	cfg    Config
	getter transport.Getter
	log    *slog.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	pending []*Request
	started bool
	stopped bool

	ctx          context.Context
	cancel       context.CancelFunc
	workers      sync.WaitGroup
	deliveries   chan func()
	deliveryDone chan struct{}
	stopOnce     sync.Once
}

// New creates a stopped queue that issues requests through getter.
func New(getter transport.Getter, cfg Config) *Queue {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.DeliveryBuffer <= 0 {
		cfg.DeliveryBuffer = def.DeliveryBuffer
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		cfg:          cfg,
		getter:       getter,
		log:          slog.Default().With("component", "queue"),
		ctx:          ctx,
		cancel:       cancel,
		deliveries:   make(chan func(), cfg.DeliveryBuffer),
		deliveryDone: make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)

	go q.deliveryLoop()
	return q
}

// Add enqueues a GET for path. It never blocks on the network.
// After Stop the callback runs with ErrQueueStopped on a new goroutine,
// since the delivery goroutine has exited.
func (q *Queue) Add(path string, cb Callback) *Request {
	r := &Request{
		ID:         uuid.NewString(),
		Path:       path,
		EnqueuedAt: time.Now(),
		callback:   cb,
	}

	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		go r.complete(nil, ErrQueueStopped)
		return r
	}
	q.pending = append(q.pending, r)
	metrics.QueuePending.Set(float64(len(q.pending)))
	q.cond.Signal()
	q.mu.Unlock()

	q.log.Debug("Request queued", "id", r.ID, "path", path)
	return r
}

// Start launches the workers. It is a no-op if already started or stopped.
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.started || q.stopped {
		return
	}
	q.started = true

	for i := 0; i < q.cfg.Workers; i++ {
		q.workers.Add(1)
		go q.worker()
	}
	q.log.Info("Request queue started", "workers", q.cfg.Workers, "pending", len(q.pending))
}

// Started reports whether Start has been called.
func (q *Queue) Started() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.started
}

// Pending returns the number of requests waiting for a worker.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Stop waits for in-flight requests, fails the pending ones with
// ErrQueueStopped and drains the delivery goroutine. If ctx expires first,
// in-flight requests are cancelled.
func (q *Queue) Stop(ctx context.Context) error {
	var stopErr error

	q.stopOnce.Do(func() {
		q.mu.Lock()
		q.stopped = true
		drained := q.pending
		q.pending = nil
		metrics.QueuePending.Set(0)
		q.cond.Broadcast()
		q.mu.Unlock()

		done := make(chan struct{})
		go func() {
			q.workers.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			stopErr = fmt.Errorf("stop queue: %w", ctx.Err())
			q.cancel()
			<-done
		}
		q.cancel()

		for _, r := range drained {
			q.deliveries <- func() { r.complete(nil, ErrQueueStopped) }
		}
		close(q.deliveries)
		<-q.deliveryDone

		q.log.Info("Request queue stopped", "dropped", len(drained))
	})

	return stopErr
}

func (q *Queue) worker() {
	defer q.workers.Done()

	for {
		q.mu.Lock()
		for len(q.pending) == 0 && !q.stopped {
			q.cond.Wait()
		}
		if q.stopped {
			q.mu.Unlock()
			return
		}
		r := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		metrics.QueuePending.Set(float64(len(q.pending)))
		q.mu.Unlock()

		q.dispatch(r)
	}
}

func (q *Queue) dispatch(r *Request) {
	start := time.Now()
	body, err := q.getter.Get(q.ctx, r.Path)
	latency := time.Since(start)

	metrics.RequestLatency.WithLabelValues(r.Path).Observe(latency.Seconds())
	if err != nil {
		metrics.RequestsTotal.WithLabelValues(r.Path, "error").Inc()
		q.log.Warn("Request failed", "id", r.ID, "path", r.Path, "latency", latency, "error", err)
	} else {
		metrics.RequestsTotal.WithLabelValues(r.Path, "success").Inc()
		q.log.Debug("Request completed", "id", r.ID, "path", r.Path, "latency", latency, "bytes", len(body))
	}

	q.deliveries <- func() { r.complete(body, err) }
}

func (q *Queue) deliveryLoop() {
	defer close(q.deliveryDone)

	for fn := range q.deliveries {
		q.run(fn)
	}
}

func (q *Queue) run(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			q.log.Error("Callback panicked", "panic", rec)
		}
	}()
	fn()
}

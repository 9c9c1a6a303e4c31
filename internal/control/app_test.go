package control

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/discover-rso/rso/internal/connection"
	"github.com/discover-rso/rso/internal/core/clienterr"
	"github.com/discover-rso/rso/internal/core/config"
	"github.com/discover-rso/rso/internal/health"
	"github.com/discover-rso/rso/internal/summary"
)

func newBackend(t *testing.T, ack string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(ack))
	})
	mux.HandleFunc("/summary/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id": "42", "title": "Chess Club", "categories": "Blue-student org"}]`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testConfig(url string) *config.AppConfig {
	cfg := config.Default()
	cfg.Server.URL = url
	cfg.Server.Timeout = time.Second
	cfg.Handshake.RetryDelay = 10 * time.Millisecond
	return cfg
}

func stopApp(t *testing.T, app *App) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.Stop(ctx); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
}

func TestApp_FetchAfterHandshake(t *testing.T) {
	server := newBackend(t, config.DefaultAcknowledgment)

	app, err := NewApp(testConfig(server.URL))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	defer stopApp(t, app)

	// Requested before the handshake; held until the queue starts.
	pending := app.Summaries().Summaries()

	if err := app.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !app.AwaitConnected(2 * time.Second) {
		t.Fatal("expected app to connect")
	}

	select {
	case r := <-pending:
		summaries, err := r.Get()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(summaries) != 1 || summaries[0].Title() != "Chess Club" {
			t.Errorf("unexpected summaries: %v", summaries)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("fetch never completed")
	}

	if report := app.Health(); report.Status != health.StatusHealthy {
		t.Errorf("expected healthy, got %+v", report)
	}
}

func TestApp_WrongAcknowledgment(t *testing.T) {
	server := newBackend(t, "not the backend you are looking for")

	cfg := testConfig(server.URL)
	cfg.Handshake.MaxAttempts = 3

	app, err := NewApp(cfg)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	_ = app.Start(context.Background())

	if app.AwaitConnected(200 * time.Millisecond) {
		t.Fatal("expected handshake to fail")
	}

	select {
	case <-app.Connection().Finished():
	case <-time.After(5 * time.Second):
		t.Fatal("probe loop did not finish")
	}
	if report := app.Health(); report.Status != health.StatusCritical {
		t.Errorf("expected critical, got %s", report.Status)
	}

	// The queue never started, so stopping fails the pending fetch.
	pending := app.Summaries().Summaries()
	stopApp(t, app)

	r := <-pending
	if !clienterr.Is(r.Err(), clienterr.KindTransport) {
		t.Errorf("expected transport error after stop, got %v", r.Err())
	}
}

func TestNewApp_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Server.URL = "not a url"

	if _, err := NewApp(cfg); err == nil {
		t.Error("expected error for invalid server url")
	}
	if _, err := NewApp(nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func awaitFetch(t *testing.T, name string, ch <-chan summary.Result) {
	t.Helper()
	select {
	case r := <-ch:
		if _, err := r.Get(); err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("%s: fetch never completed", name)
	}
}

func TestApp_SharedConnection(t *testing.T) {
	server := newBackend(t, config.DefaultAcknowledgment)

	newShared := func() *App {
		app, err := NewApp(testConfig(server.URL), WithSharedConnection())
		if err != nil {
			t.Fatalf("NewApp failed: %v", err)
		}
		if err := app.Start(context.Background()); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		return app
	}

	first := newShared()
	second := newShared()

	if first.Connection() != second.Connection() {
		t.Fatal("expected both apps to share one connection manager")
	}
	if !second.AwaitConnected(2 * time.Second) {
		t.Fatal("expected second app to connect")
	}
	awaitFetch(t, "second", second.Summaries().Summaries())
	awaitFetch(t, "first", first.Summaries().Summaries())

	// The remaining app keeps working after the other stops.
	stopApp(t, first)
	if connection.Shared() != second.Connection() {
		t.Fatal("stopping one shared app must not detach the manager")
	}
	awaitFetch(t, "second after first stopped", second.Summaries().Summaries())

	stopApp(t, second)
	if connection.Shared() != nil {
		t.Fatal("expected the last shared app to release the manager")
	}

	// A new shared app starts over with a live manager.
	third := newShared()
	defer stopApp(t, third)
	if third.Connection() == first.Connection() {
		t.Fatal("expected a fresh manager after all shared apps stopped")
	}
	if !third.AwaitConnected(2 * time.Second) {
		t.Fatal("expected third app to connect")
	}
	awaitFetch(t, "third", third.Summaries().Summaries())
}

func TestApp_SharedReleasedByUnstartedApp(t *testing.T) {
	server := newBackend(t, config.DefaultAcknowledgment)

	started, err := NewApp(testConfig(server.URL), WithSharedConnection())
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	idle, err := NewApp(testConfig(server.URL), WithSharedConnection())
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if err := started.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !started.AwaitConnected(2 * time.Second) {
		t.Fatal("expected app to connect")
	}

	stopApp(t, started)
	stopApp(t, idle)

	if connection.Shared() != nil {
		t.Error("expected the last release to stop the shared manager even if that app never started")
	}
	select {
	case r := <-idle.Summaries().Summaries():
		if !clienterr.Is(r.Err(), clienterr.KindTransport) {
			t.Errorf("expected the shared queue to be stopped, got %v", r.Err())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("fetch on a released shared queue never completed")
	}
}

// Package transport issues plain HTTP requests against the RSO backend.
//
// This package contains:
//   - HTTPTransport: GET requests rooted at the backend URL
//   - Monitor: latency, failure and throttle tracking
//   - RetryConfig: bounded retry with fixed or exponential backoff
package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/discover-rso/rso/internal/core/clienterr"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 8 << 20

// Getter fetches the body found at a path below the backend root.
type Getter interface {
	Get(ctx context.Context, path string) ([]byte, error)
}

// HTTPTransport implements Getter over HTTP.
type HTTPTransport struct {
	baseURL    string
	httpClient *http.Client
	maxBody    int64

	Monitor *Monitor
}

// NewHTTPTransport creates a transport rooted at baseURL.
// Redirects are followed, the default for http.Client.
func NewHTTPTransport(baseURL string, timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		maxBody: maxBodyBytes,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		Monitor: NewMonitor(),
	}
}

// BaseURL returns the backend root.
func (t *HTTPTransport) BaseURL() string {
	return t.baseURL
}

// URL resolves path against the backend root. An empty path is the root itself.
func (t *HTTPTransport) URL(path string) string {
	if path == "" {
		return t.baseURL
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return t.baseURL + path
}

// Get issues a GET and returns the full body of a 2xx response.
// Failures are *clienterr.Error values of kind TRANSPORT.
func (t *HTTPTransport) Get(ctx context.Context, path string) ([]byte, error) {
	start := time.Now()
	url := t.URL(path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		t.Monitor.RecordFailure()
		return nil, clienterr.NewTransport("create request", err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.Monitor.RecordFailure()
		return nil, clienterr.NewTransport(fmt.Sprintf("get %s", url), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBody+1))
	if err != nil {
		t.Monitor.RecordFailure()
		return nil, clienterr.NewTransport("read response", err)
	}
	if int64(len(body)) > t.maxBody {
		t.Monitor.RecordFailure()
		return nil, clienterr.NewTransport(fmt.Sprintf("response body from %s exceeds %d bytes", url, t.maxBody), nil)
	}

	// Rate limit detection
	if resp.StatusCode == http.StatusTooManyRequests {
		t.Monitor.RecordThrottle()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		t.Monitor.RecordFailure()
		return nil, clienterr.NewStatus(resp.StatusCode, url, strings.TrimSpace(string(body)))
	}

	t.Monitor.RecordSuccess(time.Since(start))
	return body, nil
}

// Close releases idle connections.
func (t *HTTPTransport) Close() error {
	t.httpClient.CloseIdleConnections()
	return nil
}

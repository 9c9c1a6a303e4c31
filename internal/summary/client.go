// Package summary fetches the RSO summary list from the backend.
package summary

import (
	"log/slog"

	"github.com/discover-rso/rso/internal/core/clienterr"
	"github.com/discover-rso/rso/internal/core/domain"
	"github.com/discover-rso/rso/internal/core/result"
	"github.com/discover-rso/rso/internal/infra/metrics"
	"github.com/discover-rso/rso/internal/queue"
)

// Path is the collection endpoint below the backend root.
const Path = "/summary/"

// Result is the outcome of one summaries fetch.
type Result = result.Result[[]domain.Summary]

// Enqueuer accepts asynchronous GET requests.
type Enqueuer interface {
	Add(path string, cb queue.Callback) *queue.Request
}

// Client is the RSO summary API client.
type Client struct {
	queue Enqueuer
	log   *slog.Logger
}

// NewClient creates a client that issues its requests through q.
func NewClient(q Enqueuer) *Client {
	return &Client{
		queue: q,
		log:   slog.Default().With("component", "summary"),
	}
}

// FetchSummaries retrieves the summary list without blocking. onResult is
// called exactly once on the queue's delivery goroutine, with either the full
// decoded list or the error that prevented it.
func (c *Client) FetchSummaries(onResult func(Result)) {
	c.queue.Add(Path, func(body []byte, err error) {
		onResult(c.decode(body, err))
	})
}

// Summaries is FetchSummaries as a one-shot channel. The channel receives one
// Result and is then closed.
func (c *Client) Summaries() <-chan Result {
	ch := make(chan Result, 1)
	c.FetchSummaries(func(r Result) {
		ch <- r
		close(ch)
	})
	return ch
}

func (c *Client) decode(body []byte, err error) Result {
	if err != nil {
		if clienterr.KindOf(err) == "" {
			err = clienterr.NewTransport("fetch summaries", err)
		}
		return result.Error[[]domain.Summary](err)
	}

	summaries, err := domain.DecodeSummaries(body)
	if err != nil {
		metrics.DecodeErrors.Inc()
		c.log.Warn("Rejected summary payload", "bytes", len(body), "error", err)
		return result.Error[[]domain.Summary](clienterr.NewDecode(err))
	}

	c.log.Debug("Fetched summaries", "count", len(summaries))
	return result.Value(summaries)
}

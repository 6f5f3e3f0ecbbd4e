// Package upstream is the shared HTTP plumbing for catalog, review and music providers:
// a GET helper guarded by a per-provider circuit breaker, with metrics and
// structured logging on every call.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"curator/internal/logging"
	"curator/internal/metrics"
)

// maxBodyBytes caps how much of a provider response is read.
const maxBodyBytes = 4 << 20

// Response is a completed provider call. Non-2xx statuses below 500 are returned
// as responses rather than errors so callers can treat 404 as "absent".
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// StatusError is returned for 5xx and 429 responses.
type StatusError struct {
	Provider string
	Status   int
	Snippet  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s request failed: status %d: %s", e.Provider, e.Status, e.Snippet)
}

// ErrCircuitOpen is returned while the provider's breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker open")

// Client performs GET requests against one provider.
type Client struct {
	name  string
	httpc *http.Client
	cb    *gobreaker.CircuitBreaker[*Response]
}

// BreakerSettings tunes when a provider is considered down.
type BreakerSettings struct {
	MinRequests  uint32
	FailureRatio float64
	OpenTimeout  time.Duration
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{MinRequests: 10, FailureRatio: 0.6, OpenTimeout: time.Minute}
}

// NewClient builds a client named after its provider ("tmdb", "omdb", ...).
func NewClient(name string, httpc *http.Client, bs BreakerSettings) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	if bs.MinRequests == 0 {
		bs = DefaultBreakerSettings()
	}
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	log := logging.WithComponent(name)
	cb := gobreaker.NewCircuitBreaker[*Response](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     bs.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < bs.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= bs.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
	return &Client{name: name, httpc: httpc, cb: cb}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Name returns the provider name.
func (c *Client) Name() string { return c.name }

// Get issues GET endpoint?params. The operation label is used for metrics and logs.
func (c *Client) Get(ctx context.Context, operation, endpoint string, params url.Values) (*Response, error) {
	u := endpoint
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + params.Encode()
	}

	started := time.Now()
	resp, err := c.cb.Execute(func() (*Response, error) {
		return c.do(ctx, u)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.ObserveUpstream(c.name, operation, "rejected", started)
			return nil, fmt.Errorf("%s %s: %w", c.name, operation, ErrCircuitOpen)
		}
		metrics.ObserveUpstream(c.name, operation, "error", started)
		return nil, fmt.Errorf("%s %s: %w", c.name, operation, err)
	}

	outcome := "ok"
	if resp.StatusCode == http.StatusNotFound {
		outcome = "not_found"
	} else if !resp.OK() {
		outcome = "error"
	}
	metrics.ObserveUpstream(c.name, operation, outcome, started)
	logging.Ctx(ctx, logging.WithComponent(c.name)).Debug().
		Str("operation", operation).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(started)).
		Msg("upstream call")
	return resp, nil
}

func (c *Client) do(ctx context.Context, u string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		snippet := strings.TrimSpace(string(body[:min(200, len(body))]))
		return nil, &StatusError{Provider: c.name, Status: resp.StatusCode, Snippet: snippet}
	}
	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

// Package webhook posts session_completed events to an HTTP endpoint.
//
// Server errors, 429 and network failures are retried with backoff. Other
// 4xx responses end the publish at once.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/justapithecus/vgmlink/adapter"
	"github.com/justapithecus/vgmlink/iox"
	"github.com/justapithecus/vgmlink/types"
)

const (
	// DefaultTimeout bounds one POST.
	DefaultTimeout = 10 * time.Second
	// DefaultRetries is the retry count after the first attempt.
	DefaultRetries = 3
	// MaxRetryAfter caps a server-requested delay.
	MaxRetryAfter = 30 * time.Second
)

// Headers set on every request, in addition to Config.Headers.
const (
	HeaderEvent   = "X-Vgmlink-Event"
	HeaderSession = "X-Vgmlink-Session"
)

// Config configures the webhook adapter.
type Config struct {
	URL string
	// Headers are added to each request and may override the defaults.
	Headers map[string]string
	Timeout time.Duration
	Retries int
	// Backoff overrides adapter.Backoff.
	Backoff func(attempt int) time.Duration
}

// Adapter posts events as JSON.
type Adapter struct {
	cfg    Config
	client *http.Client
}

// New validates cfg and returns an adapter.
func New(cfg Config) (*Adapter, error) {
	if cfg.URL == "" {
		return nil, errors.New("webhook adapter requires a URL")
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("retries must be >= 0, got %d", cfg.Retries)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Backoff == nil {
		cfg.Backoff = adapter.Backoff
	}
	return &Adapter{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}, nil
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
	// RetryAfter is the delay the server asked for, zero if none.
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// retriable reports whether another attempt can succeed.
func retriable(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return true
	}
	return se.Code == http.StatusTooManyRequests || se.Code >= 500
}

// Publish posts event, retrying as configured.
func (a *Adapter) Publish(ctx context.Context, event *adapter.SessionCompletedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	attempts := 1 + a.cfg.Retries
	var lastErr error
	for i := range attempts {
		if i > 0 {
			if err := adapter.Sleep(ctx, a.delay(i, lastErr)); err != nil {
				return fmt.Errorf("webhook: canceled during backoff: %w", err)
			}
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("webhook: canceled: %w", err)
		}

		lastErr = a.post(ctx, event, body)
		if lastErr == nil {
			return nil
		}
		if !retriable(lastErr) {
			return fmt.Errorf("webhook: non-retriable error: %w", lastErr)
		}
	}
	return fmt.Errorf("webhook: failed after %d attempts: %w", attempts, lastErr)
}

// delay is the wait before attempt i. A Retry-After from the previous
// response wins over the backoff schedule.
func (a *Adapter) delay(i int, prev error) time.Duration {
	var se *StatusError
	if errors.As(prev, &se) && se.RetryAfter > 0 {
		return min(se.RetryAfter, MaxRetryAfter)
	}
	return a.cfg.Backoff(i)
}

func (a *Adapter) post(ctx context.Context, event *adapter.SessionCompletedEvent, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "vgmlink/"+types.Version)
	req.Header.Set(HeaderEvent, event.EventType)
	req.Header.Set(HeaderSession, event.SessionID)
	for k, v := range a.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer iox.DiscardClose(resp.Body)
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return &StatusError{Code: resp.StatusCode, RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
}

// parseRetryAfter reads the delay-seconds form. HTTP dates are ignored.
func parseRetryAfter(v string) time.Duration {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}

// Close drops idle connections.
func (a *Adapter) Close() error {
	a.client.CloseIdleConnections()
	return nil
}

var _ adapter.Adapter = (*Adapter)(nil)

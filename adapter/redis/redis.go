// Package redis publishes session events on a Redis pub/sub channel.
//
// The channel name may carry {board} and {outcome} placeholders so
// subscribers can follow one board or only failures. When RecentKey is
// set, each event is also pushed onto a capped list of recent sessions.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/justapithecus/vgmlink/adapter"
)

const (
	// DefaultChannel is used when Config.Channel is empty.
	DefaultChannel = "vgmlink:session_completed"
	// DefaultTimeout bounds one publish round trip.
	DefaultTimeout = 5 * time.Second
	// DefaultRetries is the retry count after the first attempt.
	DefaultRetries = 3
	// DefaultRecentLen caps the recent-sessions list.
	DefaultRecentLen = 100
)

// Config configures the Redis adapter.
type Config struct {
	// URL is redis://[:password@]host:port[/db].
	URL string
	// Channel is the pub/sub channel, with optional {board} and
	// {outcome} placeholders.
	Channel string
	// RecentKey names a list that keeps the newest events. Empty disables it.
	RecentKey string
	// RecentLen caps the list. Zero means DefaultRecentLen.
	RecentLen int
	Timeout   time.Duration
	Retries   int
	// Backoff overrides adapter.Backoff.
	Backoff func(attempt int) time.Duration
}

// Adapter publishes events with PUBLISH.
type Adapter struct {
	cfg    Config
	client *goredis.Client
}

// New validates cfg and connects lazily.
func New(cfg Config) (*Adapter, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis adapter requires a URL")
	}
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis adapter: invalid URL: %w", err)
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("retries must be >= 0, got %d", cfg.Retries)
	}
	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	if cfg.RecentLen <= 0 {
		cfg.RecentLen = DefaultRecentLen
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Backoff == nil {
		cfg.Backoff = adapter.Backoff
	}
	return &Adapter{cfg: cfg, client: goredis.NewClient(opts)}, nil
}

// Channel returns the configured channel template.
func (a *Adapter) Channel() string {
	return a.cfg.Channel
}

// ChannelFor expands the channel template for event.
func (a *Adapter) ChannelFor(event *adapter.SessionCompletedEvent) string {
	return strings.NewReplacer(
		"{board}", placeholder(event.Board),
		"{outcome}", placeholder(event.Outcome),
	).Replace(a.cfg.Channel)
}

func placeholder(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

// Publish sends event as JSON, retrying as configured.
func (a *Adapter) Publish(ctx context.Context, event *adapter.SessionCompletedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("redis: marshal event: %w", err)
	}
	channel := a.ChannelFor(event)

	attempts := 1 + a.cfg.Retries
	var lastErr error
	for i := range attempts {
		if i > 0 {
			if err := adapter.Sleep(ctx, a.cfg.Backoff(i)); err != nil {
				return fmt.Errorf("redis: canceled during backoff: %w", err)
			}
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("redis: canceled: %w", err)
		}

		lastErr = a.send(ctx, channel, body)
		if lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("redis: failed after %d attempts: %w", attempts, lastErr)
}

// send runs PUBLISH, and the list update when enabled, in one pipeline.
func (a *Adapter) send(ctx context.Context, channel string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	if a.cfg.RecentKey == "" {
		return a.client.Publish(ctx, channel, body).Err()
	}
	_, err := a.client.Pipelined(ctx, func(p goredis.Pipeliner) error {
		p.Publish(ctx, channel, body)
		p.LPush(ctx, a.cfg.RecentKey, body)
		p.LTrim(ctx, a.cfg.RecentKey, 0, int64(a.cfg.RecentLen-1))
		return nil
	})
	return err
}

// Close closes the client.
func (a *Adapter) Close() error {
	return a.client.Close()
}

var _ adapter.Adapter = (*Adapter)(nil)

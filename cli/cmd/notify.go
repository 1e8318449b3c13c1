package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/vgmlink/adapter"
	"github.com/justapithecus/vgmlink/adapter/redis"
	"github.com/justapithecus/vgmlink/adapter/webhook"
	"github.com/justapithecus/vgmlink/cli/config"
	"github.com/justapithecus/vgmlink/lode"
	"github.com/justapithecus/vgmlink/log"
	"github.com/justapithecus/vgmlink/types"
)

// adapterFlags configure the downstream session_completed notification.
func adapterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "adapter",
			Usage: "Notify downstream when the session ends: webhook or redis",
		},
		&cli.StringFlag{
			Name:  "adapter-url",
			Usage: "Webhook endpoint or redis://host:port URL",
		},
		&cli.StringFlag{
			Name:  "adapter-channel",
			Usage: "Redis pub/sub channel, {board} and {outcome} expand (default: " + redis.DefaultChannel + ")",
		},
		&cli.StringFlag{
			Name:  "adapter-recent-key",
			Usage: "Redis list that keeps the most recent session events",
		},
		&cli.StringSliceFlag{
			Name:  "adapter-header",
			Usage: "Webhook header as Key=Value (repeatable)",
		},
		&cli.DurationFlag{
			Name:  "adapter-timeout",
			Usage: "Per-attempt publish timeout",
			Value: 10 * time.Second,
		},
		&cli.IntFlag{
			Name:  "adapter-retries",
			Usage: "Publish retry attempts",
			Value: 3,
		},
	}
}

// adapterChoice holds the resolved adapter configuration.
type adapterChoice struct {
	adapterType string
	url         string
	channel     string
	recentKey   string
	headers     map[string]string
	timeout     time.Duration
	retries     int
}

// resolveAdapterType returns the adapter type or "" when none is configured.
func resolveAdapterType(c *cli.Context, cfg *config.Config) string {
	return resolveString(c, "adapter", configVal(cfg, func(c *config.Config) string { return c.Adapter.Type }))
}

// parseAdapterConfigWithPrecedence resolves adapter settings. CLI flags
// win over config values; config headers are merged under CLI headers.
func parseAdapterConfigWithPrecedence(c *cli.Context, cfg *config.Config, adapterType string) (adapterChoice, error) {
	ac := adapterChoice{
		adapterType: adapterType,
		url:         resolveString(c, "adapter-url", configVal(cfg, func(c *config.Config) string { return c.Adapter.URL })),
		channel:     resolveString(c, "adapter-channel", configVal(cfg, func(c *config.Config) string { return c.Adapter.Channel })),
		recentKey:   resolveString(c, "adapter-recent-key", configVal(cfg, func(c *config.Config) string { return c.Adapter.RecentKey })),
		timeout:     resolveDuration(c, "adapter-timeout", configVal(cfg, func(c *config.Config) time.Duration { return c.Adapter.Timeout.Duration })),
		retries:     c.Int("adapter-retries"),
		headers:     make(map[string]string),
	}
	if !c.IsSet("adapter-retries") {
		if r := configVal(cfg, func(c *config.Config) *int { return c.Adapter.Retries }); r != nil {
			ac.retries = *r
		}
	}

	for k, v := range configVal(cfg, func(c *config.Config) map[string]string { return c.Adapter.Headers }) {
		ac.headers[k] = v
	}
	for _, h := range c.StringSlice("adapter-header") {
		k, v, ok := strings.Cut(h, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return adapterChoice{}, fmt.Errorf("invalid --adapter-header %q\n  Format: Key=Value", h)
		}
		ac.headers[strings.TrimSpace(k)] = v
	}

	switch adapterType {
	case "webhook", "redis":
		if ac.url == "" {
			return adapterChoice{}, fmt.Errorf("--adapter-url is required when --adapter=%s", adapterType)
		}
	default:
		return adapterChoice{}, fmt.Errorf("unknown adapter type %q\n  Valid options: webhook, redis", adapterType)
	}
	return ac, nil
}

// buildAdapter constructs the adapter for ac.
func buildAdapter(ac adapterChoice) (adapter.Adapter, error) {
	switch ac.adapterType {
	case "webhook":
		return webhook.New(webhook.Config{
			URL:     ac.url,
			Headers: ac.headers,
			Timeout: ac.timeout,
			Retries: ac.retries,
		})
	case "redis":
		return redis.New(redis.Config{
			URL:       ac.url,
			Channel:   ac.channel,
			RecentKey: ac.recentKey,
			Timeout:   ac.timeout,
			Retries:   ac.retries,
		})
	default:
		return nil, fmt.Errorf("unknown adapter type %q", ac.adapterType)
	}
}

// buildSessionCompletedEvent maps an archived session onto the event payload.
func buildSessionCompletedEvent(rec *lode.SessionRecord, archivePath string) *adapter.SessionCompletedEvent {
	return &adapter.SessionCompletedEvent{
		EventType:         adapter.EventTypeSessionCompleted,
		Version:           types.Version,
		SessionID:         rec.SessionID,
		Source:            rec.Source,
		Title:             rec.Title,
		Board:             rec.Board,
		Port:              rec.Port,
		Outcome:           rec.Outcome,
		Error:             rec.Error,
		Timestamp:         rec.StartedAt.Add(time.Duration(rec.DurationMs) * time.Millisecond).UTC().Format(time.RFC3339),
		DurationMs:        rec.DurationMs,
		Passes:            rec.Passes,
		BytesConfirmed:    rec.BytesConfirmed,
		Retransmits:       rec.Retransmits,
		PlaybackConfirmed: rec.PlaybackConfirmed,
		ArchivePath:       archivePath,
	}
}

// publishEvent sends ev through a. Failures are logged, never returned.
func publishEvent(ctx context.Context, a adapter.Adapter, ev *adapter.SessionCompletedEvent, logger *log.Logger) {
	if err := a.Publish(ctx, ev); err != nil {
		logger.Warn("adapter publish failed", map[string]any{
			"session_id": ev.SessionID,
			"error":      err.Error(),
		})
		return
	}
	logger.Info("adapter publish ok", map[string]any{"session_id": ev.SessionID})
}

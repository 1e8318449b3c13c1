// Package adapter defines the downstream notification boundary.
//
// Adapters publish a session_completed event after a streaming session
// ends. Publishing is best effort: the session outcome never depends on it.
package adapter

import "context"

// EventTypeSessionCompleted is the only event type published.
const EventTypeSessionCompleted = "session_completed"

// SessionCompletedEvent is the payload published when a session finishes.
type SessionCompletedEvent struct {
	EventType  string `json:"event_type"` // always "session_completed"
	Version    string `json:"version"`
	SessionID  string `json:"session_id"`
	Source     string `json:"source"`
	Title      string `json:"title,omitempty"`
	Board      string `json:"board"`
	Port       string `json:"port"`
	Outcome    string `json:"outcome"` // done, failed, interrupted
	Error      string `json:"error,omitempty"`
	Timestamp  string `json:"timestamp"` // RFC 3339
	DurationMs int64  `json:"duration_ms"`
	Passes     int    `json:"passes"`
	// BytesConfirmed is the acknowledged payload byte count.
	BytesConfirmed    int64  `json:"bytes_confirmed"`
	Retransmits       int64  `json:"retransmits"`
	PlaybackConfirmed bool   `json:"playback_confirmed"`
	ArchivePath       string `json:"archive_path,omitempty"`
}

// Adapter publishes session completion events to a downstream system.
type Adapter interface {
	// Publish sends one event. Must respect context cancellation.
	Publish(ctx context.Context, event *SessionCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}

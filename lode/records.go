package lode

import (
	"encoding/json"
	"fmt"
	"time"
)

// RecordKindSession discriminates session report records.
const RecordKindSession = "session"

// Partition keys of the session dataset, in layout order.
var partitionKeys = []string{"board", "day", "session_id"}

// DeriveDay computes the partition day from a session start time.
// Format: YYYY-MM-DD in UTC.
func DeriveDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// SessionRecord is one archived streaming session.
type SessionRecord struct {
	SessionID string `json:"session_id" yaml:"session_id"`
	Source    string `json:"source" yaml:"source"`
	Title     string `json:"title,omitempty" yaml:"title,omitempty"`
	Game      string `json:"game,omitempty" yaml:"game,omitempty"`
	Board     string `json:"board" yaml:"board"`
	Port      string `json:"port" yaml:"port"`

	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	DurationMs int64     `json:"duration_ms" yaml:"duration_ms"`
	Outcome    string    `json:"outcome" yaml:"outcome"`
	Error      string    `json:"error,omitempty" yaml:"error,omitempty"`

	Reduction string `json:"reduction" yaml:"reduction"`
	Loop      string `json:"loop" yaml:"loop"`
	Passes    int    `json:"passes" yaml:"passes"`

	BytesTotal        int64 `json:"bytes_total" yaml:"bytes_total"`
	BytesConfirmed    int64 `json:"bytes_confirmed" yaml:"bytes_confirmed"`
	ChunksSent        int64 `json:"chunks_sent" yaml:"chunks_sent"`
	Retransmits       int64 `json:"retransmits" yaml:"retransmits"`
	UnknownBytes      int64 `json:"unknown_bytes" yaml:"unknown_bytes"`
	HandshakeAttempts int64 `json:"handshake_attempts" yaml:"handshake_attempts"`
	PlaybackConfirmed bool  `json:"playback_confirmed" yaml:"playback_confirmed"`

	// Artifact is the sidecar path of the compiled stream, if stored.
	Artifact string `json:"artifact,omitempty" yaml:"artifact,omitempty"`
}

// Validate checks the fields used as partition keys.
func (r *SessionRecord) Validate() error {
	if r.SessionID == "" {
		return fmt.Errorf("session record: session_id is required")
	}
	if r.Board == "" {
		return fmt.Errorf("session record: board is required")
	}
	if r.StartedAt.IsZero() {
		return fmt.Errorf("session record: started_at is required")
	}
	return nil
}

// toRecordMap converts r to a map for Lode storage.
// Lode HiveLayout requires records as map[string]any.
func toRecordMap(r *SessionRecord) map[string]any {
	m := map[string]any{
		"record_kind":        RecordKindSession,
		"session_id":         r.SessionID,
		"source":             r.Source,
		"board":              r.Board,
		"port":               r.Port,
		"day":                DeriveDay(r.StartedAt),
		"started_at":         r.StartedAt.UTC().Format(time.RFC3339Nano),
		"duration_ms":        r.DurationMs,
		"outcome":            r.Outcome,
		"reduction":          r.Reduction,
		"loop":               r.Loop,
		"passes":             r.Passes,
		"bytes_total":        r.BytesTotal,
		"bytes_confirmed":    r.BytesConfirmed,
		"chunks_sent":        r.ChunksSent,
		"retransmits":        r.Retransmits,
		"unknown_bytes":      r.UnknownBytes,
		"handshake_attempts": r.HandshakeAttempts,
		"playback_confirmed": r.PlaybackConfirmed,
	}
	if r.Title != "" {
		m["title"] = r.Title
	}
	if r.Game != "" {
		m["game"] = r.Game
	}
	if r.Error != "" {
		m["error"] = r.Error
	}
	if r.Artifact != "" {
		m["artifact"] = r.Artifact
	}
	return m
}

// fromRecordMap decodes a stored record. ok is false for records of
// another kind.
func fromRecordMap(m map[string]any) (SessionRecord, bool) {
	if toString(m["record_kind"]) != RecordKindSession {
		return SessionRecord{}, false
	}
	r := SessionRecord{
		SessionID:         toString(m["session_id"]),
		Source:            toString(m["source"]),
		Title:             toString(m["title"]),
		Game:              toString(m["game"]),
		Board:             toString(m["board"]),
		Port:              toString(m["port"]),
		DurationMs:        toInt64(m["duration_ms"]),
		Outcome:           toString(m["outcome"]),
		Error:             toString(m["error"]),
		Reduction:         toString(m["reduction"]),
		Loop:              toString(m["loop"]),
		Passes:            int(toInt64(m["passes"])),
		BytesTotal:        toInt64(m["bytes_total"]),
		BytesConfirmed:    toInt64(m["bytes_confirmed"]),
		ChunksSent:        toInt64(m["chunks_sent"]),
		Retransmits:       toInt64(m["retransmits"]),
		UnknownBytes:      toInt64(m["unknown_bytes"]),
		HandshakeAttempts: toInt64(m["handshake_attempts"]),
		PlaybackConfirmed: toBool(m["playback_confirmed"]),
		Artifact:          toString(m["artifact"]),
	}
	if ts, err := time.Parse(time.RFC3339Nano, toString(m["started_at"])); err == nil {
		r.StartedAt = ts
	}
	return r, true
}

// toString converts a value to string, returning empty string for nil/non-string.
func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// toInt64 accepts the numeric forms a codec may decode to.
func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case uint64:
		return int64(n)
	case json.Number:
		i, _ := n.Int64()
		return i
	default:
		return 0
	}
}

func toBool(v any) bool {
	b, _ := v.(bool)
	return b
}

package types

import (
	"errors"
	"strings"
)

// SessionMeta identifies one streaming session.
type SessionMeta struct {
	// SessionID is globally unique.
	SessionID string
	// Source is the input file path.
	Source string
	// Port is the serial port name, or "simulator".
	Port string
}

// Validate checks the session identity fields.
func (m *SessionMeta) Validate() error {
	if m.SessionID == "" {
		return errors.New("session_id must be non-empty")
	}
	if m.Source == "" {
		return errors.New("source must be non-empty")
	}
	return nil
}

// Outcome is the final status of a session.
type Outcome string

const (
	// OutcomeDone means every byte was confirmed and the stream was closed.
	OutcomeDone Outcome = "done"
	// OutcomeFailed means the session reached Failed.
	OutcomeFailed Outcome = "failed"
	// OutcomeInterrupted means the user canceled the session.
	OutcomeInterrupted Outcome = "interrupted"
)

// IsSuccess reports whether the session completed.
func (o Outcome) IsSuccess() bool {
	return o == OutcomeDone
}

// LoopMode selects how often the stream plays.
type LoopMode string

const (
	LoopNone     LoopMode = "none"
	LoopInfinite LoopMode = "infinite"
	LoopCount    LoopMode = "count"
)

// ParseOutcome parses a stored outcome value.
func ParseOutcome(s string) (Outcome, bool) {
	switch o := Outcome(strings.ToLower(s)); o {
	case OutcomeDone, OutcomeFailed, OutcomeInterrupted:
		return o, true
	default:
		return "", false
	}
}

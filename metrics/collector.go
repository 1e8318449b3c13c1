// Package metrics collects per-session transport counters.
//
// The Collector accumulates counters during a single streaming session.
// It is a leaf package with no internal dependencies.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of the session counters.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Session lifecycle
	SessionsStarted     int64 `json:"sessions_started" yaml:"sessions_started"`
	SessionsCompleted   int64 `json:"sessions_completed" yaml:"sessions_completed"`
	SessionsFailed      int64 `json:"sessions_failed" yaml:"sessions_failed"`
	SessionsInterrupted int64 `json:"sessions_interrupted" yaml:"sessions_interrupted"`

	// Handshake
	HandshakeAttempts int64 `json:"handshake_attempts" yaml:"handshake_attempts"`

	// Transfer
	ChunksSent     int64 `json:"chunks_sent" yaml:"chunks_sent"`
	ChunksAcked    int64 `json:"chunks_acked" yaml:"chunks_acked"`
	Naks           int64 `json:"naks" yaml:"naks"`
	Retransmits    int64 `json:"retransmits" yaml:"retransmits"`
	Rewinds        int64 `json:"rewinds" yaml:"rewinds"`
	UnknownBytes   int64 `json:"unknown_bytes" yaml:"unknown_bytes"`
	BytesSent      int64 `json:"bytes_sent" yaml:"bytes_sent"`
	BytesConfirmed int64 `json:"bytes_confirmed" yaml:"bytes_confirmed"`
	Loops          int64 `json:"loops" yaml:"loops"`

	// Archive / Storage
	ArchiveWriteSuccess int64 `json:"archive_write_success" yaml:"archive_write_success"`
	ArchiveWriteFailure int64 `json:"archive_write_failure" yaml:"archive_write_failure"`

	// Dimensions (informational, set at construction)
	Board     string `json:"board" yaml:"board"`
	Port      string `json:"port" yaml:"port"`
	SessionID string `json:"session_id" yaml:"session_id"`
}

// Collector accumulates metrics during a single session.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	sessionsStarted     int64
	sessionsCompleted   int64
	sessionsFailed      int64
	sessionsInterrupted int64

	handshakeAttempts int64

	chunksSent     int64
	chunksAcked    int64
	naks           int64
	retransmits    int64
	rewinds        int64
	unknownBytes   int64
	bytesSent      int64
	bytesConfirmed int64
	loops          int64

	archiveWriteSuccess int64
	archiveWriteFailure int64

	board     string
	port      string
	sessionID string
}

// NewCollector creates a Collector with dimension labels.
// board is filled in later by SetBoard once the handshake names it.
func NewCollector(port, sessionID string) *Collector {
	return &Collector{port: port, sessionID: sessionID}
}

// SetBoard records the negotiated board name.
func (c *Collector) SetBoard(name string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.board = name
	c.mu.Unlock()
}

// --- Session lifecycle ---

// IncSessionStarted records a session start.
func (c *Collector) IncSessionStarted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sessionsStarted++
	c.mu.Unlock()
}

// IncSessionCompleted records a session that reached Done.
func (c *Collector) IncSessionCompleted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sessionsCompleted++
	c.mu.Unlock()
}

// IncSessionFailed records a session that reached Failed.
func (c *Collector) IncSessionFailed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sessionsFailed++
	c.mu.Unlock()
}

// IncSessionInterrupted records a session the user canceled.
func (c *Collector) IncSessionInterrupted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sessionsInterrupted++
	c.mu.Unlock()
}

// --- Handshake ---

// IncHandshakeAttempt records one PING sent.
func (c *Collector) IncHandshakeAttempt() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.handshakeAttempts++
	c.mu.Unlock()
}

// --- Transfer ---
// Retransmits and rewinds count as sent chunks too; ChunksSent minus
// both is the number of distinct chunks.

// IncChunkSent records one chunk written with n payload bytes.
func (c *Collector) IncChunkSent(n int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.chunksSent++
	c.bytesSent += int64(n)
	c.mu.Unlock()
}

// IncChunkAcked records one chunk confirmed with n payload bytes.
func (c *Collector) IncChunkAcked(n int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.chunksAcked++
	c.bytesConfirmed += int64(n)
	c.mu.Unlock()
}

// IncNak records a negative acknowledgment.
func (c *Collector) IncNak() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.naks++
	c.mu.Unlock()
}

// IncRetransmit records a chunk resent after a NAK.
func (c *Collector) IncRetransmit() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.retransmits++
	c.mu.Unlock()
}

// IncRewind records a chunk resent only because an earlier chunk in the
// same window was rejected.
func (c *Collector) IncRewind() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.rewinds++
	c.mu.Unlock()
}

// IncUnknownByte records an inbound byte that is neither READY nor NAK.
func (c *Collector) IncUnknownByte() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.unknownBytes++
	c.mu.Unlock()
}

// IncLoop records a replay from the loop offset.
func (c *Collector) IncLoop() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.loops++
	c.mu.Unlock()
}

// --- Archive / Storage ---

// IncArchiveWriteSuccess records a successful history write.
func (c *Collector) IncArchiveWriteSuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.archiveWriteSuccess++
	c.mu.Unlock()
}

// IncArchiveWriteFailure records a failed history write.
func (c *Collector) IncArchiveWriteFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.archiveWriteFailure++
	c.mu.Unlock()
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all metrics.
// The returned Snapshot is safe to read concurrently; the Collector can
// continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		SessionsStarted:     c.sessionsStarted,
		SessionsCompleted:   c.sessionsCompleted,
		SessionsFailed:      c.sessionsFailed,
		SessionsInterrupted: c.sessionsInterrupted,

		HandshakeAttempts: c.handshakeAttempts,

		ChunksSent:     c.chunksSent,
		ChunksAcked:    c.chunksAcked,
		Naks:           c.naks,
		Retransmits:    c.retransmits,
		Rewinds:        c.rewinds,
		UnknownBytes:   c.unknownBytes,
		BytesSent:      c.bytesSent,
		BytesConfirmed: c.bytesConfirmed,
		Loops:          c.loops,

		ArchiveWriteSuccess: c.archiveWriteSuccess,
		ArchiveWriteFailure: c.archiveWriteFailure,

		Board:     c.board,
		Port:      c.port,
		SessionID: c.sessionID,
	}
}

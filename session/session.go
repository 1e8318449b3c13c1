// Package session drives one streaming session over a serial link.
//
// A Session owns the link: it is the only writer, and inbound bytes
// arrive through a link.Reader. The session negotiates a board profile,
// sends the program as checksummed chunks under a sliding window,
// replays the loop section as requested, and closes the stream.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/justapithecus/vgmlink/board"
	"github.com/justapithecus/vgmlink/chunk"
	"github.com/justapithecus/vgmlink/command"
	"github.com/justapithecus/vgmlink/link"
	"github.com/justapithecus/vgmlink/log"
	"github.com/justapithecus/vgmlink/metrics"
	"github.com/justapithecus/vgmlink/types"
)

// Defaults for Config fields left zero.
const (
	DefaultHandshakeAttempts = 5
	DefaultHandshakeWindow   = time.Second
	DefaultPollInterval      = 100 * time.Millisecond
	DefaultEndAckWindow      = time.Second
	DefaultDrainTimeout      = 10 * time.Minute
	DefaultSettleDelay       = 2 * time.Second
)

// readBuffer bounds the inbound byte channel.
const readBuffer = 1024

// Config configures a Session.
type Config struct {
	// Table resolves handshake board identifiers.
	// If empty, board.DefaultTable is used.
	Table board.Table
	// HandshakeAttempts is the PING retry budget.
	HandshakeAttempts int
	// HandshakeWindow bounds each attempt.
	HandshakeWindow time.Duration
	// PollInterval bounds each wait for a window slot.
	PollInterval time.Duration
	// EndAckWindow bounds the wait for the end-of-stream acknowledgment.
	EndAckWindow time.Duration
	// DrainTimeout bounds the wait for the playback-finished signal.
	DrainTimeout time.Duration
	// SettleDelay is waited before the first PING. Boards that reset on
	// open need it. Negative disables it.
	SettleDelay time.Duration
	// Override replaces the negotiated chunk size and depth when set.
	// The handshake still has to succeed.
	Override *board.Profile
	// Events receives progress. Sends never block. May be nil.
	Events chan<- Event
	// Collector records counters. May be nil.
	Collector *metrics.Collector
	// Logger may be nil.
	Logger *log.Logger
	// PortName is used in diagnostics.
	PortName string
	// Baud is used in diagnostics.
	Baud int
}

func (c Config) withDefaults() Config {
	if c.Table.Len() == 0 {
		c.Table = board.DefaultTable()
	}
	if c.HandshakeAttempts <= 0 {
		c.HandshakeAttempts = DefaultHandshakeAttempts
	}
	if c.HandshakeWindow <= 0 {
		c.HandshakeWindow = DefaultHandshakeWindow
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.EndAckWindow <= 0 {
		c.EndAckWindow = DefaultEndAckWindow
	}
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = DefaultDrainTimeout
	}
	if c.SettleDelay == 0 {
		c.SettleDelay = DefaultSettleDelay
	}
	if c.Logger == nil {
		c.Logger = log.Nop()
	}
	if c.PortName == "" {
		c.PortName = "serial"
	}
	return c
}

// Program is the byte stream a session sends.
type Program struct {
	Data []byte
	// LoopOffset is where loop passes resume. Ignored unless HasLoop.
	LoopOffset int
	HasLoop    bool
}

// ProgramFrom adapts an encoded command stream.
func ProgramFrom(e command.Encoded) Program {
	p := Program{Data: e.Data}
	if e.HasLoop() {
		p.LoopOffset = e.LoopOffset
		p.HasLoop = true
	}
	return p
}

// Loop selects how many times the program plays.
type Loop struct {
	Mode types.LoopMode
	// Count is the total number of plays for LoopCount.
	Count int
}

// Passes returns the total play count, or 0 for infinite.
func (l Loop) Passes() int {
	switch l.Mode {
	case types.LoopInfinite:
		return 0
	case types.LoopCount:
		if l.Count < 1 {
			return 1
		}
		return l.Count
	default:
		return 1
	}
}

// Result summarizes a finished session.
type Result struct {
	Outcome types.Outcome `json:"outcome"`
	Profile board.Profile `json:"board"`
	// BytesTotal is the payload byte count written, excluding resends.
	BytesTotal     int64 `json:"bytes_total"`
	BytesConfirmed int64 `json:"bytes_confirmed"`
	ChunksSent     int64 `json:"chunks_sent"`
	// Retransmits counts rejected chunks resent.
	Retransmits int64 `json:"retransmits"`
	// Rewound counts chunks resent because an earlier one was rejected.
	Rewound      int64 `json:"rewound"`
	UnknownBytes int64 `json:"unknown_bytes"`
	// Passes is the number of completed traversals.
	Passes int `json:"passes"`
	// PlaybackConfirmed is set when the device reported playback finished.
	PlaybackConfirmed bool             `json:"playback_confirmed"`
	Duration          time.Duration    `json:"duration"`
	Metrics           metrics.Snapshot `json:"metrics"`
}

// Session is one transport session over a port.
type Session struct {
	cfg    Config
	port   link.Port
	reader *link.Reader

	mu      sync.Mutex
	state   State
	profile board.Profile
	ready   bool

	res   Result
	start time.Time

	closeOnce sync.Once
	closeErr  error
}

// New wraps an open port. The session takes ownership of the port.
func New(port link.Port, cfg Config) *Session {
	cfg = cfg.withDefaults()
	return &Session{
		cfg:    cfg,
		port:   port,
		reader: link.NewReader(port, readBuffer),
		state:  StateIdle,
	}
}

// State returns the current phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Profile returns the negotiated board profile.
func (s *Session) Profile() (board.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile, s.ready
}

func (s *Session) transition(to State) {
	s.mu.Lock()
	from := s.state
	s.state = to
	s.mu.Unlock()
	if from != to {
		s.cfg.Logger.Debug("session state", map[string]any{
			"from": from.String(),
			"to":   to.String(),
		})
	}
}

// Close releases the link. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.reader.Close()
	})
	return s.closeErr
}

func (s *Session) emit(ev Event) {
	if s.cfg.Events == nil {
		return
	}
	ev.State = s.State()
	ev.Retransmits = s.res.Retransmits
	ev.BytesConfirmed = s.res.BytesConfirmed
	select {
	case s.cfg.Events <- ev:
	default:
	}
}

func (s *Session) write(p []byte) error {
	if _, err := s.port.Write(p); err != nil {
		return &TransportError{Op: "write", Err: err}
	}
	return nil
}

// next reads one byte. A timeout is reported as ok=false with no error.
func (s *Session) next(ctx context.Context, timeout time.Duration) (byte, bool, error) {
	b, err := s.reader.Next(ctx, timeout)
	switch {
	case err == nil:
		return b, true, nil
	case errors.Is(err, link.ErrTimeout):
		return 0, false, nil
	case ctx.Err() != nil:
		return 0, false, ctx.Err()
	default:
		return 0, false, &TransportError{Op: "read", Err: err}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Handshake negotiates the board profile.
//
// Each attempt discards stale input, sends PING and expects ACK, a known
// board identifier and READY within the handshake window. Bytes before
// ACK are ignored.
func (s *Session) Handshake(ctx context.Context) (board.Profile, error) {
	if p, ok := s.Profile(); ok {
		return p, nil
	}
	if s.start.IsZero() {
		s.start = time.Now()
	}
	s.transition(StateHandshaking)

	if err := sleep(ctx, s.cfg.SettleDelay); err != nil {
		return board.Profile{}, err
	}

	for attempt := 1; attempt <= s.cfg.HandshakeAttempts; attempt++ {
		if err := s.reader.Drain(); err != nil {
			s.transition(StateFailed)
			return board.Profile{}, &TransportError{Op: "reset", Err: err}
		}
		s.cfg.Collector.IncHandshakeAttempt()
		if err := s.write([]byte{chunk.Ping}); err != nil {
			s.transition(StateFailed)
			return board.Profile{}, err
		}

		p, ok, err := s.awaitHello(ctx)
		if err != nil {
			if ctx.Err() == nil {
				s.transition(StateFailed)
			}
			return board.Profile{}, err
		}
		if ok {
			p = s.applyOverride(p)
			s.mu.Lock()
			s.profile = p
			s.ready = true
			s.mu.Unlock()
			s.cfg.Collector.SetBoard(p.Name)
			s.cfg.Logger = s.cfg.Logger.WithBoard(p.Name)
			s.cfg.Logger.Info("handshake complete", map[string]any{
				"board":      p.Name,
				"chunk_size": p.ChunkSize,
				"depth":      p.Depth,
				"attempt":    attempt,
			})
			return p, nil
		}
		s.cfg.Logger.Warn("handshake attempt timed out", map[string]any{
			"attempt": attempt,
			"max":     s.cfg.HandshakeAttempts,
		})
	}

	s.transition(StateFailed)
	return board.Profile{}, &ProtocolError{
		Port:     s.cfg.PortName,
		Attempts: s.cfg.HandshakeAttempts,
		Baud:     s.cfg.Baud,
	}
}

func (s *Session) applyOverride(p board.Profile) board.Profile {
	o := s.cfg.Override
	if o == nil {
		return p
	}
	if o.ChunkSize > 0 {
		p.ChunkSize = min(o.ChunkSize, chunk.MaxPayload)
	}
	if o.Depth > 0 {
		p.Depth = o.Depth
	}
	return p
}

// awaitHello reads the ACK, board id, READY sequence of one attempt.
func (s *Session) awaitHello(ctx context.Context) (board.Profile, bool, error) {
	deadline := time.Now().Add(s.cfg.HandshakeWindow)
	const (
		wantAck = iota
		wantID
		wantReady
	)
	step := wantAck
	var p board.Profile

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return board.Profile{}, false, nil
		}
		b, ok, err := s.next(ctx, remaining)
		if err != nil {
			return board.Profile{}, false, err
		}
		if !ok {
			return board.Profile{}, false, nil
		}

		switch step {
		case wantAck:
			if b == chunk.Ack {
				step = wantID
			}
		case wantID:
			profile, known := s.cfg.Table.Lookup(board.ID(b))
			if !known {
				s.cfg.Logger.Warn("unknown board identifier", map[string]any{"id": b})
				return board.Profile{}, false, nil
			}
			p = profile
			step = wantReady
		case wantReady:
			if b == chunk.Ready {
				return p, true, nil
			}
			return board.Profile{}, false, nil
		}
	}
}

// Stream sends prog, replays its loop section as loop requests and
// closes the stream. It negotiates first if Handshake has not run.
//
// Cancellation closes the link and returns a partial Result with
// Outcome interrupted and a nil error.
func (s *Session) Stream(ctx context.Context, prog Program, loop Loop) (*Result, error) {
	if s.start.IsZero() {
		s.start = time.Now()
	}
	s.cfg.Collector.IncSessionStarted()

	err := s.run(ctx, prog, loop)
	return s.finish(ctx, err)
}

func (s *Session) run(ctx context.Context, prog Program, loop Loop) error {
	p, err := s.Handshake(ctx)
	if err != nil {
		return err
	}
	s.res.Profile = p

	if prog.HasLoop && (prog.LoopOffset < 0 || prog.LoopOffset > len(prog.Data)) {
		s.transition(StateFailed)
		return fmt.Errorf("loop offset %d outside program of %d bytes", prog.LoopOffset, len(prog.Data))
	}

	passes := loop.Passes()
	data := prog.Data
	if passes != 1 {
		data = trimEnd(data)
	}
	loopData := data
	if prog.HasLoop {
		loopData = data[min(prog.LoopOffset, len(data)):]
	}

	s.transition(StateStreaming)
	for pass := 1; ; pass++ {
		body := data
		if pass > 1 {
			body = loopData
		}
		if err := s.sendAll(ctx, body, pass); err != nil {
			return err
		}
		s.res.Passes = pass

		last := passes != 0 && pass >= passes
		if !last && len(loopData) == 0 {
			s.cfg.Logger.Warn("loop section is empty, stopping", map[string]any{"pass": pass})
			last = true
		}
		if last {
			break
		}
		s.transition(StateLoopContinue)
		s.cfg.Collector.IncLoop()
		s.cfg.Logger.Debug("loop restart", map[string]any{"pass": pass + 1})
		s.transition(StateStreaming)
	}

	if passes != 1 {
		if err := s.sendAll(ctx, []byte{command.OpEnd}, s.res.Passes); err != nil {
			return err
		}
	}
	return s.drain(ctx)
}

// trimEnd drops one trailing end-of-stream opcode.
func trimEnd(data []byte) []byte {
	if n := len(data); n > 0 && data[n-1] == command.OpEnd {
		return data[:n-1]
	}
	return data
}

// sendAll sends data as chunks with at most profile.Depth outstanding,
// returning once every chunk is acknowledged.
//
// Replies arrive one per frame in send order. A NAK rejects the oldest
// outstanding chunk; the device then discards everything behind it, so
// the session collects those replies, resyncs and resends from the
// rejected chunk.
func (s *Session) sendAll(ctx context.Context, data []byte, pass int) error {
	chunks := chunk.Split(data, s.res.Profile.ChunkSize)
	depth := max(s.res.Profile.Depth, 1)
	window := make([]int, 0, depth)
	next := 0
	sent := 0
	rejected := -1
	recovering := false
	confirmed := 0

	for {
		if recovering && len(window) == 0 {
			if err := s.resync(ctx); err != nil {
				return err
			}
			recovering = false
			next = rejected
		}
		if next >= len(chunks) && len(window) == 0 {
			return nil
		}

		for !recovering && next < len(chunks) && len(window) < depth {
			payload := chunks[next]
			if err := s.write(chunk.Encode(payload)); err != nil {
				return err
			}
			s.res.ChunksSent++
			s.cfg.Collector.IncChunkSent(len(payload))
			switch {
			case next >= sent:
				s.res.BytesTotal += int64(len(payload))
				sent = next + 1
			case next != rejected:
				s.res.Rewound++
				s.cfg.Collector.IncRewind()
			}
			window = append(window, next)
			next++
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		b, ok, err := s.next(ctx, s.cfg.PollInterval)
		if err != nil {
			return err
		}
		for ok {
			switch {
			case b == chunk.Ready && len(window) > 0:
				if recovering {
					return &TransportError{
						Op:  "stream",
						Err: fmt.Errorf("device accepted chunk %d after rejecting chunk %d; lower the pipeline depth", window[0], rejected),
					}
				}
				n := len(chunks[window[0]])
				window = window[1:]
				confirmed += n
				s.res.BytesConfirmed += int64(n)
				s.cfg.Collector.IncChunkAcked(n)
			case b == chunk.Nak && len(window) > 0:
				s.cfg.Collector.IncNak()
				if !recovering {
					rejected = window[0]
					recovering = true
					s.res.Retransmits++
					s.cfg.Collector.IncRetransmit()
				}
				window = window[1:]
			default:
				s.res.UnknownBytes++
				s.cfg.Collector.IncUnknownByte()
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			b, ok = s.reader.Poll()
		}
		s.emit(Event{Pass: pass, Confirmed: confirmed, Total: len(data), InFlight: len(window)})
	}
}

// resync sends PING until the device answers with its hello, which ends
// its discard phase after a rejected chunk.
func (s *Session) resync(ctx context.Context) error {
	for attempt := 1; attempt <= s.cfg.HandshakeAttempts; attempt++ {
		if err := s.write([]byte{chunk.Ping}); err != nil {
			return err
		}
		_, ok, err := s.awaitHello(ctx)
		if err != nil {
			return err
		}
		if ok {
			s.cfg.Logger.Debug("resync complete", map[string]any{"attempt": attempt})
			return nil
		}
	}
	return &ProtocolError{
		Port:     s.cfg.PortName,
		Attempts: s.cfg.HandshakeAttempts,
		Baud:     s.cfg.Baud,
	}
}

// drain closes the stream and waits for the device to finish playing.
func (s *Session) drain(ctx context.Context) error {
	s.transition(StateDraining)
	s.emit(Event{Pass: s.res.Passes})
	if err := s.write([]byte{chunk.End}); err != nil {
		return err
	}

	acked, err := s.awaitReady(ctx, s.cfg.EndAckWindow)
	if err != nil {
		return err
	}
	if !acked {
		s.cfg.Logger.Warn("end of stream not acknowledged", nil)
	}
	s.res.PlaybackConfirmed, err = s.awaitReady(ctx, s.cfg.DrainTimeout)
	if err != nil {
		return err
	}
	if !s.res.PlaybackConfirmed {
		s.cfg.Logger.Warn("playback completion not confirmed", map[string]any{
			"timeout": s.cfg.DrainTimeout.String(),
		})
	}
	return nil
}

func (s *Session) awaitReady(ctx context.Context, window time.Duration) (bool, error) {
	deadline := time.Now().Add(window)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false, nil
		}
		b, ok, err := s.next(ctx, remaining)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		if b == chunk.Ready {
			return true, nil
		}
		s.res.UnknownBytes++
		s.cfg.Collector.IncUnknownByte()
	}
}

func (s *Session) finish(ctx context.Context, err error) (*Result, error) {
	s.res.Duration = time.Since(s.start)
	fields := map[string]any{
		"passes":          s.res.Passes,
		"bytes_confirmed": s.res.BytesConfirmed,
		"retransmits":     s.res.Retransmits,
	}

	switch {
	case err == nil:
		s.transition(StateDone)
		s.res.Outcome = types.OutcomeDone
		s.cfg.Collector.IncSessionCompleted()
		s.cfg.Logger.Info("session complete", fields)
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		s.res.Outcome = types.OutcomeInterrupted
		s.cfg.Collector.IncSessionInterrupted()
		s.cfg.Logger.Warn("session interrupted", fields)
		if cerr := s.Close(); cerr != nil {
			s.cfg.Logger.Warn("close link", map[string]any{"error": cerr.Error()})
		}
		s.transition(StateInterrupted)
		err = nil
	default:
		s.transition(StateFailed)
		s.res.Outcome = types.OutcomeFailed
		s.cfg.Collector.IncSessionFailed()
		fields["error"] = err.Error()
		s.cfg.Logger.Error("session failed", fields)
	}

	s.res.Metrics = s.cfg.Collector.Snapshot()
	res := s.res
	s.emit(Event{Pass: res.Passes})
	if err != nil {
		return &res, err
	}
	return &res, nil
}

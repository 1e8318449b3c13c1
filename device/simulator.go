// Package device simulates the receiving firmware at the wire level.
//
// A Simulator is a link.Port: bytes the host writes are decoded as the
// device would decode them, and the device's replies become readable.
// It verifies every checksum, records the delivered stream, and can
// inject NAKs to exercise the resend path.
//
// The device consumes strictly in order. Once it rejects a chunk it
// discards every following data frame with a NAK until the host resyncs
// with a PING, so nothing queued behind the rejected chunk is played
// ahead of it.
package device

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/justapithecus/vgmlink/board"
	"github.com/justapithecus/vgmlink/chunk"
)

// Options configures a Simulator.
type Options struct {
	// Board is the identifier reported in the handshake.
	Board board.ID
	// IgnorePings drops the first N pings unanswered.
	IgnorePings int
	// NakFirst rejects the first K data chunks received. Discarded
	// frames are not counted.
	NakFirst int
	// NakEvery rejects every Nth data chunk received (0 disables).
	NakEvery int
	// PlaybackDelay is how long after End the device reports playback
	// finished.
	PlaybackDelay time.Duration
	// NoPlaybackReady suppresses the playback-finished signal.
	NoPlaybackReady bool
}

// Stats counts what the simulator saw.
type Stats struct {
	Pings    int
	Chunks   int
	Naks     int
	Stray    int
	Ends     int
	Accepted int
	// Discarded counts data frames dropped while waiting for a resync.
	Discarded int
}

// ErrClosed is returned by Read and Write after Close.
var ErrClosed = errors.New("simulator closed")

// Simulator is an in-memory device.
type Simulator struct {
	opts Options

	pw *io.PipeWriter

	mu        sync.Mutex
	cond      *sync.Cond
	out       []byte
	closed    bool
	delivered []byte
	stats     Stats
	// discarding is set from a rejected chunk until the next PING.
	discarding bool

	done chan struct{}
}

// New starts a simulator.
func New(opts Options) *Simulator {
	if opts.Board == 0 {
		opts.Board = board.Other
	}
	pr, pw := io.Pipe()
	s := &Simulator{opts: opts, pw: pw, done: make(chan struct{})}
	s.cond = sync.NewCond(&s.mu)
	go s.run(pr)
	return s
}

func (s *Simulator) run(pr *io.PipeReader) {
	defer close(s.done)
	dec := chunk.NewDecoder(pr)
	for {
		f, err := dec.Next()
		if err != nil {
			var fe *chunk.FrameError
			switch {
			case errors.As(err, &fe) && fe.Kind == chunk.FrameErrorChecksum:
				s.count(func(st *Stats) {
					if s.discarding {
						st.Discarded++
						return
					}
					st.Chunks++
					st.Naks++
					s.discarding = true
				})
				s.emit(chunk.Nak)
				continue
			case errors.As(err, &fe) && fe.Kind == chunk.FrameErrorStray:
				s.count(func(st *Stats) { st.Stray++ })
				continue
			default:
				return
			}
		}

		switch f.Kind {
		case chunk.FramePing:
			s.handlePing()
		case chunk.FrameData:
			s.handleData(f.Payload)
		case chunk.FrameEnd:
			s.handleEnd()
		}
	}
}

func (s *Simulator) handlePing() {
	s.mu.Lock()
	s.stats.Pings++
	ignore := s.stats.Pings <= s.opts.IgnorePings
	if !ignore {
		s.discarding = false
	}
	s.mu.Unlock()
	if ignore {
		return
	}
	s.emit(chunk.Ack, byte(s.opts.Board), chunk.Ready)
}

func (s *Simulator) handleData(payload []byte) {
	s.mu.Lock()
	if s.discarding {
		s.stats.Discarded++
		s.mu.Unlock()
		s.emit(chunk.Nak)
		return
	}
	s.stats.Chunks++
	n := s.stats.Chunks
	reject := n <= s.opts.NakFirst || (s.opts.NakEvery > 0 && n%s.opts.NakEvery == 0)
	if reject {
		s.stats.Naks++
		s.discarding = true
	} else {
		s.stats.Accepted++
		s.delivered = append(s.delivered, payload...)
	}
	s.mu.Unlock()

	if reject {
		s.emit(chunk.Nak)
		return
	}
	s.emit(chunk.Ready)
}

func (s *Simulator) handleEnd() {
	s.count(func(st *Stats) { st.Ends++ })
	s.emit(chunk.Ready)
	if s.opts.NoPlaybackReady {
		return
	}
	if s.opts.PlaybackDelay <= 0 {
		s.emit(chunk.Ready)
		return
	}
	time.AfterFunc(s.opts.PlaybackDelay, func() { s.emit(chunk.Ready) })
}

func (s *Simulator) count(fn func(*Stats)) {
	s.mu.Lock()
	fn(&s.stats)
	s.mu.Unlock()
}

func (s *Simulator) emit(b ...byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.out = append(s.out, b...)
	s.cond.Broadcast()
}

// Read blocks until the device has replied or the simulator is closed.
func (s *Simulator) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.out) == 0 && !s.closed {
		s.cond.Wait()
	}
	if len(s.out) == 0 {
		return 0, ErrClosed
	}
	n := copy(p, s.out)
	s.out = s.out[n:]
	return n, nil
}

// Write feeds host bytes to the device. It returns once the device has
// consumed them.
func (s *Simulator) Write(p []byte) (int, error) {
	n, err := s.pw.Write(p)
	if errors.Is(err, io.ErrClosedPipe) {
		return n, ErrClosed
	}
	return n, err
}

// ResetInputBuffer drops unread device replies.
func (s *Simulator) ResetInputBuffer() error {
	s.mu.Lock()
	s.out = nil
	s.mu.Unlock()
	return nil
}

// Close stops the device. Pending Reads return ErrClosed.
func (s *Simulator) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.out = nil
	s.cond.Broadcast()
	s.mu.Unlock()

	s.pw.Close()
	<-s.done
	return nil
}

// Delivered returns a copy of every accepted payload byte in order.
func (s *Simulator) Delivered() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.delivered...)
}

// Stats returns a snapshot of the counters.
func (s *Simulator) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

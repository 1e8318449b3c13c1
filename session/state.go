package session

// State is a transport session phase.
type State int

const (
	StateIdle State = iota
	StateHandshaking
	StateStreaming
	StateLoopContinue
	StateDraining
	StateDone
	StateFailed
	// StateInterrupted ends a session stopped by cancellation. It is not
	// a failure.
	StateInterrupted
)

var stateNames = [...]string{
	StateIdle:         "idle",
	StateHandshaking:  "handshaking",
	StateStreaming:    "streaming",
	StateLoopContinue: "loop_continue",
	StateDraining:     "draining",
	StateDone:         "done",
	StateFailed:       "failed",
	StateInterrupted:  "interrupted",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed || s == StateInterrupted
}

// Event is a progress notification. Events are dropped when the
// consumer is slow; the session never waits for one.
type Event struct {
	State State
	// Pass is the 1-based traversal number.
	Pass int
	// Confirmed is the acknowledged byte count of the current pass.
	Confirmed int
	// Total is the byte length of the current pass.
	Total int
	// InFlight is the number of unacknowledged chunks.
	InFlight    int
	Retransmits int64
	// BytesConfirmed is the acknowledged byte count across all passes.
	BytesConfirmed int64
}

package command

import (
	"errors"
	"fmt"
)

// NoLoop is the LoopIndex of a stream that plays once.
const NoLoop = -1

// Stream is an ordered command sequence with an optional loop point.
//
// When LoopIndex is not NoLoop it is the index of the stream's only
// LoopMarker. Transforms rebuild streams through a Builder, which keeps
// the index in step with the marker.
type Stream struct {
	Commands  []Command
	LoopIndex int
}

// NewStream wraps cmds and locates the first LoopMarker.
// Later markers are discarded.
func NewStream(cmds []Command) *Stream {
	b := NewBuilder(len(cmds))
	for _, c := range cmds {
		b.Add(c)
	}
	return b.Stream()
}

// HasLoop reports whether the stream carries a loop point.
func (s *Stream) HasLoop() bool {
	return s.LoopIndex != NoLoop
}

// Len returns the number of commands.
func (s *Stream) Len() int {
	return len(s.Commands)
}

// TotalSamples sums the sample cost of every command.
func (s *Stream) TotalSamples() uint64 {
	var total uint64
	for _, c := range s.Commands {
		total += uint64(c.SampleCost())
	}
	return total
}

// LoopSamples sums the sample cost from the loop point to the end.
// It is zero for a stream without a loop.
func (s *Stream) LoopSamples() uint64 {
	if !s.HasLoop() {
		return 0
	}
	var total uint64
	for _, c := range s.Commands[s.LoopIndex:] {
		total += uint64(c.SampleCost())
	}
	return total
}

// EncodedLen returns the byte length of the full encoding.
func (s *Stream) EncodedLen() int {
	n := 0
	for _, c := range s.Commands {
		n += c.Len()
	}
	return n
}

// Count returns how many commands of kind k the stream holds.
func (s *Stream) Count(k Kind) int {
	n := 0
	for _, c := range s.Commands {
		if c.Kind() == k {
			n++
		}
	}
	return n
}

// Validate checks the loop index invariant.
func (s *Stream) Validate() error {
	markers := 0
	first := NoLoop
	for i, c := range s.Commands {
		if c.Kind() == KindLoopMarker {
			if markers == 0 {
				first = i
			}
			markers++
		}
	}
	switch {
	case markers > 1:
		return fmt.Errorf("stream has %d loop markers, want at most 1", markers)
	case s.LoopIndex == NoLoop && markers == 1:
		return errors.New("stream has a loop marker but no loop index")
	case s.LoopIndex != NoLoop && (s.LoopIndex < 0 || s.LoopIndex >= len(s.Commands)):
		return fmt.Errorf("loop index %d out of range [0, %d)", s.LoopIndex, len(s.Commands))
	case s.LoopIndex != NoLoop && s.LoopIndex != first:
		return fmt.Errorf("loop index %d does not point at the loop marker", s.LoopIndex)
	}
	return nil
}

// Builder accumulates commands for a new Stream.
type Builder struct {
	cmds []Command
	loop int
}

// NewBuilder returns a Builder with room for n commands.
func NewBuilder(n int) *Builder {
	return &Builder{cmds: make([]Command, 0, n), loop: NoLoop}
}

// Add appends c. A second LoopMarker is dropped.
func (b *Builder) Add(c Command) {
	if c.Kind() == KindLoopMarker {
		if b.loop != NoLoop {
			return
		}
		b.loop = len(b.cmds)
	}
	b.cmds = append(b.cmds, c)
}

// Len returns the number of commands added so far.
func (b *Builder) Len() int {
	return len(b.cmds)
}

// Stream returns the built stream. The Builder must not be reused.
func (b *Builder) Stream() *Stream {
	return &Stream{Commands: b.cmds, LoopIndex: b.loop}
}

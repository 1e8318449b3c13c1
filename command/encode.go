package command

// Encoded is the flat byte form of a Stream.
type Encoded struct {
	Data []byte
	// LoopOffset is the byte position playback resumes from, or NoLoop.
	LoopOffset int
	// Samples is the total playback length of Data.
	Samples uint64
	// Truncated is set when the stream was cut to fit Encoder.Limit.
	Truncated bool
}

// HasLoop reports whether the encoding carries a loop offset.
func (e Encoded) HasLoop() bool {
	return e.LoopOffset != NoLoop
}

// truncateMargin is kept free below a flash limit.
const truncateMargin = 10

// Encoder serializes streams.
type Encoder struct {
	// Limit caps the encoded size in bytes. Zero means unlimited.
	// A capped stream is cut at a command boundary, leaving a small
	// margin, and terminated with End.
	Limit int
}

// Encode concatenates every command's wire bytes and records the byte
// offset of the loop marker.
func (e Encoder) Encode(s *Stream) Encoded {
	out := Encoded{LoopOffset: NoLoop}

	size := s.EncodedLen()
	if e.Limit > 0 && size > e.Limit {
		return e.truncate(s)
	}

	out.Data = make([]byte, 0, size)
	for i, c := range s.Commands {
		if i == s.LoopIndex {
			out.LoopOffset = len(out.Data)
		}
		out.Data = c.AppendTo(out.Data)
		out.Samples += uint64(c.SampleCost())
	}
	return out
}

func (e Encoder) truncate(s *Stream) Encoded {
	out := Encoded{LoopOffset: NoLoop, Truncated: true}
	target := e.Limit - truncateMargin
	if target < 1 {
		target = 1
	}

	out.Data = make([]byte, 0, target)
	for i, c := range s.Commands {
		if c.Kind() == KindEnd {
			break
		}
		// One byte stays free for the terminator.
		if len(out.Data)+c.Len()+1 > target {
			break
		}
		if i == s.LoopIndex {
			out.LoopOffset = len(out.Data)
		}
		out.Data = c.AppendTo(out.Data)
		out.Samples += uint64(c.SampleCost())
	}
	// A loop point at the cut would replay nothing.
	if out.LoopOffset == len(out.Data) {
		out.LoopOffset = NoLoop
	}
	out.Data = append(out.Data, OpEnd)
	return out
}

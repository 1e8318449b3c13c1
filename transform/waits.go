package transform

import "github.com/justapithecus/vgmlink/command"

// ConsolidateWaits merges each run of consecutive Wait commands into one
// sample count and re-emits it in the smallest encoding. DAC writes and
// the loop marker end a run, so no merge crosses the loop point.
type ConsolidateWaits struct{}

func (ConsolidateWaits) Name() string { return "consolidate_waits" }

func (ConsolidateWaits) Apply(s *command.Stream) *command.Stream {
	b := command.NewBuilder(s.Len())
	var pending uint64
	flush := func() {
		for _, w := range EncodeWait(pending) {
			b.Add(w)
		}
		pending = 0
	}
	for _, c := range s.Commands {
		if command.IsWait(c) {
			pending += uint64(c.SampleCost())
			continue
		}
		flush()
		b.Add(c)
	}
	flush()
	return b.Stream()
}

// EncodeWait splits total samples into the fewest wait commands:
// a run of NTSC frames for exact multiples of two or more frames, the
// one-byte frame forms, a short wait up to 16 samples, and general waits
// of up to 65535 samples otherwise.
func EncodeWait(total uint64) []command.Wait {
	var out []command.Wait
	for total > 0 {
		switch {
		case total >= 2*command.SamplesNTSC && total%command.SamplesNTSC == 0:
			frames := total / command.SamplesNTSC
			if frames > command.MaxRunFrames {
				frames = command.MaxRunFrames
			}
			out = append(out, command.RunFrames(uint32(frames)))
			total -= frames * command.SamplesNTSC
		case total == command.SamplesNTSC:
			out = append(out, command.FrameNTSC())
			total = 0
		case total == command.SamplesPAL:
			out = append(out, command.FramePAL())
			total = 0
		case total <= command.MaxShortWait:
			out = append(out, command.ShortWait(uint32(total)))
			total = 0
		case total <= command.MaxGeneralWait:
			out = append(out, command.GeneralWait(uint32(total)))
			total = 0
		default:
			out = append(out, command.GeneralWait(command.MaxGeneralWait))
			total -= command.MaxGeneralWait
		}
	}
	return out
}

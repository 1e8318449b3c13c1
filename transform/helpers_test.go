package transform

import (
	"testing"

	"github.com/justapithecus/vgmlink/command"
)

func stream(cmds ...command.Command) *command.Stream {
	return command.NewStream(cmds)
}

func encode(s *command.Stream) []byte {
	return command.Encoder{}.Encode(s).Data
}

func assertSamples(t *testing.T, before, after *command.Stream) {
	t.Helper()
	if b, a := before.TotalSamples(), after.TotalSamples(); b != a {
		t.Errorf("TotalSamples = %d after, %d before", a, b)
	}
}

func assertValid(t *testing.T, s *command.Stream) {
	t.Helper()
	if err := s.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

// mixedStream has every command kind and a loop point in the middle.
func mixedStream() *command.Stream {
	return stream(
		command.PSG(0x9F),
		command.FM(0, 0x2B, 0x80),
		command.Dac{Sample: 0x10, Wait: 2},
		command.ShortWait(3),
		command.FrameNTSC(),
		command.Dac{Sample: 0x20, Wait: 0},
		command.Dac{Sample: 0x30, Wait: 7},
		command.LoopMarker{},
		command.GeneralWait(200),
		command.FramePAL(),
		command.Dac{Sample: 0x40, Wait: 15},
		command.Dac{Sample: 0x50, Wait: 1},
		command.PSG(0xB5),
		command.GeneralWait(65535),
		command.GeneralWait(65535),
		command.End{},
	)
}

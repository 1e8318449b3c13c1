package transform

import "github.com/justapithecus/vgmlink/command"

const (
	// DefaultBalanceStep is the PSG attenuation increase for mixed streams.
	DefaultBalanceStep = 2
	// psgSilent is the attenuation level that mutes a channel.
	psgSilent = 15
)

// BalanceChips lowers PSG volume when the stream also drives the FM chip,
// so the tone generator does not mask the FM voices on a shared output.
// A silent channel stays silent and an audible one never reaches silence.
type BalanceChips struct {
	Step uint8
}

func (BalanceChips) Name() string { return "balance_chips" }

func (p BalanceChips) Apply(s *command.Stream) *command.Stream {
	psg, fm := DetectChips(s)
	if !psg || !fm {
		return s
	}
	b := command.NewBuilder(s.Len())
	for _, c := range s.Commands {
		w, ok := c.(command.ChipWrite)
		if ok && w.IsAttenuation() {
			w.Value = w.Value&0xF0 | attenuate(w.Value&0x0F, p.Step)
			c = w
		}
		b.Add(c)
	}
	return b.Stream()
}

func attenuate(level, step uint8) uint8 {
	if level == psgSilent {
		return psgSilent
	}
	return min(psgSilent-1, level+step)
}

// DetectChips reports whether s writes to the PSG and to the FM chip.
// DAC writes count as FM.
func DetectChips(s *command.Stream) (psg, fm bool) {
	for _, c := range s.Commands {
		switch c := c.(type) {
		case command.ChipWrite:
			if c.Chip == command.ChipPSG {
				psg = true
			} else {
				fm = true
			}
		case command.Dac:
			fm = true
		}
		if psg && fm {
			return
		}
	}
	return
}

package transform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/justapithecus/vgmlink/command"
)

// ReductionMode is the audio channel treatment.
type ReductionMode uint8

const (
	// ReductionFull keeps every sample.
	ReductionFull ReductionMode = iota
	// ReductionStrip removes the audio channel.
	ReductionStrip
	// ReductionRate keeps one sample in N.
	ReductionRate
)

// Reduction is a parsed audio reduction setting.
type Reduction struct {
	Mode ReductionMode
	// Factor is N for ReductionRate.
	Factor int
}

// Full keeps every audio sample.
func Full() Reduction { return Reduction{Mode: ReductionFull, Factor: 1} }

// Strip removes the audio channel.
func Strip() Reduction { return Reduction{Mode: ReductionStrip} }

// Rate keeps one audio sample in n. Rate(1) is Full.
func Rate(n int) Reduction {
	if n <= 1 {
		return Full()
	}
	return Reduction{Mode: ReductionRate, Factor: n}
}

// ParseReduction accepts "full", "strip", "rate-N" or a bare N.
func ParseReduction(s string) (Reduction, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "full", "1", "rate-1":
		return Full(), nil
	case "strip", "none", "off":
		return Strip(), nil
	}
	v = strings.TrimPrefix(v, "rate-")
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return Reduction{}, fmt.Errorf("invalid audio reduction %q (must be full, strip, or rate-N with N >= 1)", s)
	}
	return Rate(n), nil
}

// String renders the reduction in ParseReduction form.
func (r Reduction) String() string {
	switch r.Mode {
	case ReductionStrip:
		return "strip"
	case ReductionRate:
		return fmt.Sprintf("rate-%d", r.Factor)
	default:
		return "full"
	}
}

// Pass returns the pass implementing r, or nil for Full.
func (r Reduction) Pass() Pass {
	switch r.Mode {
	case ReductionStrip:
		return StripAudio{}
	case ReductionRate:
		return ReduceAudioRate{Factor: r.Factor}
	default:
		return nil
	}
}

// StripAudio turns every DAC write into its wait.
type StripAudio struct{}

func (StripAudio) Name() string { return "strip_audio" }

func (StripAudio) Apply(s *command.Stream) *command.Stream {
	b := command.NewBuilder(s.Len())
	for _, c := range s.Commands {
		d, ok := c.(command.Dac)
		if !ok {
			b.Add(c)
			continue
		}
		if d.Wait > 0 {
			b.Add(command.ShortWait(uint32(d.Wait)))
		}
	}
	return b.Stream()
}

// ReduceAudioRate keeps the 1st, (N+1)th, (2N+1)th... DAC write counted
// across the whole stream. The others become their waits.
type ReduceAudioRate struct {
	Factor int
}

func (r ReduceAudioRate) Name() string { return fmt.Sprintf("reduce_audio_rate_%d", r.Factor) }

func (r ReduceAudioRate) Apply(s *command.Stream) *command.Stream {
	if r.Factor <= 1 {
		return s
	}
	b := command.NewBuilder(s.Len())
	n := 0
	for _, c := range s.Commands {
		d, ok := c.(command.Dac)
		if !ok {
			b.Add(c)
			continue
		}
		n++
		if n%r.Factor == 1 {
			b.Add(d)
			continue
		}
		if d.Wait > 0 {
			b.Add(command.ShortWait(uint32(d.Wait)))
		}
	}
	return b.Stream()
}

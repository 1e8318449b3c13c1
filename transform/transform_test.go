package transform

import (
	"testing"

	"github.com/justapithecus/vgmlink/command"
)

func TestBuild_PassOrder(t *testing.T) {
	p := Build(Options{Reduction: Rate(4), Balance: true})
	want := []string{"drop_foreign", "balance_chips", "reduce_audio_rate_4", "consolidate_waits"}
	got := p.Passes()
	if len(got) != len(want) {
		t.Fatalf("Passes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Passes[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBuild_FullKeepForeign(t *testing.T) {
	got := Build(Options{Reduction: Full(), KeepForeign: true}).Passes()
	if len(got) != 1 || got[0] != "consolidate_waits" {
		t.Errorf("Passes = %v, want [consolidate_waits]", got)
	}
}

func TestPipeline_Run(t *testing.T) {
	in := mixedStream()
	in = command.NewStream(append([]command.Command{command.Raw{Opcode: 0xC0, Args: []byte{1, 2, 3}}}, in.Commands...))

	out, steps, err := Build(Options{Reduction: Strip(), Balance: true}).Run(in)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(steps) != 4 {
		t.Fatalf("steps = %d, want 4", len(steps))
	}
	if steps[0].Before-steps[0].After != 1 {
		t.Errorf("drop_foreign removed %d commands, want 1", steps[0].Before-steps[0].After)
	}
	assertSamples(t, in, out)
	assertValid(t, out)
	if !out.HasLoop() {
		t.Error("loop point lost")
	}
	if n := out.Count(command.KindRaw); n != 0 {
		t.Errorf("Raw commands = %d, want 0", n)
	}
}

type breakLoop struct{}

func (breakLoop) Name() string { return "break_loop" }

func (breakLoop) Apply(s *command.Stream) *command.Stream {
	return &command.Stream{Commands: s.Commands, LoopIndex: s.Len() + 1}
}

func TestPipeline_RejectsBrokenLoopIndex(t *testing.T) {
	_, _, err := NewPipeline(breakLoop{}).Run(mixedStream())
	if err == nil {
		t.Fatal("expected error for invalid loop index")
	}
}

package transform

import (
	"bytes"
	"testing"

	"github.com/justapithecus/vgmlink/command"
)

func TestEncodeWait(t *testing.T) {
	tests := []struct {
		total uint64
		want  []command.Wait
	}{
		{0, nil},
		{1, []command.Wait{command.ShortWait(1)}},
		{16, []command.Wait{command.ShortWait(16)}},
		{17, []command.Wait{command.GeneralWait(17)}},
		{735, []command.Wait{command.FrameNTSC()}},
		{882, []command.Wait{command.FramePAL()}},
		{1470, []command.Wait{command.RunFrames(2)}},
		{735 * 255, []command.Wait{command.RunFrames(255)}},
		{735 * 256, []command.Wait{command.RunFrames(255), command.FrameNTSC()}},
		{735 * 300, []command.Wait{command.RunFrames(255), command.RunFrames(45)}},
		{1471, []command.Wait{command.GeneralWait(1471)}},
		{65535, []command.Wait{command.GeneralWait(65535)}},
		{65536, []command.Wait{command.GeneralWait(65535), command.ShortWait(1)}},
		{140000, []command.Wait{command.GeneralWait(65535), command.GeneralWait(65535), command.GeneralWait(8930)}},
	}
	for _, tt := range tests {
		got := EncodeWait(tt.total)
		if len(got) != len(tt.want) {
			t.Errorf("EncodeWait(%d) = %v, want %v", tt.total, got, tt.want)
			continue
		}
		var sum uint64
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("EncodeWait(%d)[%d] = %+v, want %+v", tt.total, i, got[i], tt.want[i])
			}
			sum += uint64(got[i].Samples)
		}
		if sum != tt.total {
			t.Errorf("EncodeWait(%d) sums to %d", tt.total, sum)
		}
	}
}

func TestConsolidateWaits_PreservesSamples(t *testing.T) {
	in := mixedStream()
	out := ConsolidateWaits{}.Apply(in)
	assertSamples(t, in, out)
	assertValid(t, out)
}

func TestConsolidateWaits_StopsAtLoopMarker(t *testing.T) {
	in := stream(
		command.ShortWait(5),
		command.FrameNTSC(),
		command.LoopMarker{},
		command.FrameNTSC(),
		command.ShortWait(2),
		command.End{},
	)
	out := ConsolidateWaits{}.Apply(in)

	want := []command.Command{
		command.GeneralWait(740),
		command.LoopMarker{},
		command.GeneralWait(737),
		command.End{},
	}
	if out.Len() != len(want) {
		t.Fatalf("Commands = %v, want %v", out.Commands, want)
	}
	for i := range want {
		if out.Commands[i] != want[i] {
			t.Errorf("Commands[%d] = %#v, want %#v", i, out.Commands[i], want[i])
		}
	}
	if out.LoopIndex != 1 {
		t.Errorf("LoopIndex = %d, want 1", out.LoopIndex)
	}

	// Samples before and after the loop point are unchanged.
	inEnc := command.Encoder{}.Encode(in)
	outEnc := command.Encoder{}.Encode(out)
	if in.LoopSamples() != out.LoopSamples() {
		t.Errorf("LoopSamples = %d, want %d", out.LoopSamples(), in.LoopSamples())
	}
	if outEnc.Data[outEnc.LoopOffset] != command.OpWait {
		t.Errorf("byte at loop offset = 0x%02X, want 0x61", outEnc.Data[outEnc.LoopOffset])
	}
	if inEnc.Data[inEnc.LoopOffset] != command.OpWaitNTSC {
		t.Errorf("input byte at loop offset = 0x%02X, want 0x62", inEnc.Data[inEnc.LoopOffset])
	}
}

func TestConsolidateWaits_DacBreaksRun(t *testing.T) {
	in := stream(command.ShortWait(2), command.Dac{Sample: 1, Wait: 3}, command.ShortWait(4), command.End{})
	out := ConsolidateWaits{}.Apply(in)
	if out.Len() != 4 {
		t.Errorf("Len = %d, want 4", out.Len())
	}
}

func TestConsolidateWaits_TwoWritesAndWait(t *testing.T) {
	in := stream(
		command.FM(0, 0x28, 0xF0),
		command.PSG(0x9F),
		command.GeneralWait(100),
		command.End{},
	)

	out, _, err := Build(Options{Reduction: Rate(1)}).Run(in)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got, want := encode(out), encode(in); !bytes.Equal(got, want) {
		t.Errorf("encoded = % X, want % X", got, want)
	}
}

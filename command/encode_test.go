package command

import (
	"bytes"
	"testing"
)

func TestEncode_LoopOffset(t *testing.T) {
	s := NewStream([]Command{
		PSG(0x9F),
		FM(0, 0x28, 0x00),
		LoopMarker{},
		GeneralWait(100),
		End{},
	})

	enc := Encoder{}.Encode(s)

	want := []byte{0x50, 0x9F, 0x52, 0x28, 0x00, 0x61, 0x64, 0x00, 0x66}
	if !bytes.Equal(enc.Data, want) {
		t.Errorf("Data = % X, want % X", enc.Data, want)
	}
	if enc.LoopOffset != 5 {
		t.Errorf("LoopOffset = %d, want 5", enc.LoopOffset)
	}
	if enc.Samples != 100 {
		t.Errorf("Samples = %d, want 100", enc.Samples)
	}
	if enc.Truncated {
		t.Error("Truncated = true, want false")
	}
}

func TestEncode_NoLoop(t *testing.T) {
	enc := Encoder{}.Encode(NewStream([]Command{ShortWait(2), End{}}))
	if enc.HasLoop() {
		t.Errorf("LoopOffset = %d, want none", enc.LoopOffset)
	}
}

func TestEncode_Truncate(t *testing.T) {
	var cmds []Command
	for i := 0; i < 20; i++ {
		cmds = append(cmds, FM(0, 0x2A, byte(i)), ShortWait(1))
	}
	cmds = append(cmds, End{})
	s := NewStream(cmds)

	enc := Encoder{Limit: 30}.Encode(s)

	if !enc.Truncated {
		t.Fatal("Truncated = false, want true")
	}
	// 20 bytes of budget after the margin, one reserved for End:
	// whole (3+1)-byte pairs fit four times, plus one more write.
	if len(enc.Data) > 20 {
		t.Errorf("len(Data) = %d, want <= 20", len(enc.Data))
	}
	if enc.Data[len(enc.Data)-1] != OpEnd {
		t.Errorf("last byte = 0x%02X, want 0x66", enc.Data[len(enc.Data)-1])
	}
	if got := len(enc.Data); got != 20 {
		t.Errorf("len(Data) = %d, want 20", got)
	}
	if enc.Samples != 4 {
		t.Errorf("Samples = %d, want 4", enc.Samples)
	}
}

func TestEncode_TruncateDropsLoopPastCut(t *testing.T) {
	cmds := []Command{}
	for i := 0; i < 10; i++ {
		cmds = append(cmds, FM(0, 0x2A, byte(i)))
	}
	cmds = append(cmds, LoopMarker{}, GeneralWait(500), End{})

	enc := Encoder{Limit: 20}.Encode(NewStream(cmds))

	if enc.HasLoop() {
		t.Errorf("LoopOffset = %d, want none", enc.LoopOffset)
	}
}

func TestEncode_UnderLimitUnchanged(t *testing.T) {
	s := NewStream([]Command{PSG(0x80), End{}})
	full := Encoder{}.Encode(s)
	capped := Encoder{Limit: 1024}.Encode(s)
	if !bytes.Equal(full.Data, capped.Data) || capped.Truncated {
		t.Errorf("capped = % X (truncated %v), want % X", capped.Data, capped.Truncated, full.Data)
	}
}

package command

import (
	"bytes"
	"testing"
)

func TestAppendTo(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want []byte
	}{
		{"psg", PSG(0x9F), []byte{0x50, 0x9F}},
		{"fm port0", FM(0, 0x28, 0xF0), []byte{0x52, 0x28, 0xF0}},
		{"fm port1", FM(1, 0xB4, 0xC0), []byte{0x53, 0xB4, 0xC0}},
		{"short 1", ShortWait(1), []byte{0x70}},
		{"short 16", ShortWait(16), []byte{0x7F}},
		{"ntsc", FrameNTSC(), []byte{0x62}},
		{"pal", FramePAL(), []byte{0x63}},
		{"general", GeneralWait(1000), []byte{0x61, 0xE8, 0x03}},
		{"run", RunFrames(3), []byte{0xC0, 0x03}},
		{"dac", Dac{Sample: 0xAB, Wait: 5}, []byte{0x85, 0xAB}},
		{"raw", Raw{Opcode: 0x4F, Args: []byte{0x0F}}, []byte{0x4F, 0x0F}},
		{"marker", LoopMarker{}, nil},
		{"end", End{}, []byte{0x66}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cmd.AppendTo(nil)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("AppendTo = % X, want % X", got, tt.want)
			}
			if tt.cmd.Len() != len(tt.want) {
				t.Errorf("Len = %d, want %d", tt.cmd.Len(), len(tt.want))
			}
		})
	}
}

func TestSampleCost(t *testing.T) {
	tests := []struct {
		cmd  Command
		want uint32
	}{
		{PSG(0x90), 0},
		{FM(0, 0x2A, 0x80), 0},
		{ShortWait(7), 7},
		{FrameNTSC(), 735},
		{FramePAL(), 882},
		{GeneralWait(40000), 40000},
		{RunFrames(10), 7350},
		{Dac{Wait: 15}, 15},
		{LoopMarker{}, 0},
		{End{}, 0},
	}
	for _, tt := range tests {
		if got := tt.cmd.SampleCost(); got != tt.want {
			t.Errorf("%s SampleCost = %d, want %d", tt.cmd.Kind(), got, tt.want)
		}
	}
}

func TestIsAttenuation(t *testing.T) {
	tests := []struct {
		value byte
		want  bool
	}{
		{0x9F, true},  // channel 0 attenuation
		{0xFF, true},  // noise attenuation
		{0x80, false}, // channel 0 tone latch
		{0x0F, false}, // data byte
	}
	for _, tt := range tests {
		if got := PSG(tt.value).IsAttenuation(); got != tt.want {
			t.Errorf("PSG(0x%02X).IsAttenuation() = %v, want %v", tt.value, got, tt.want)
		}
	}
	if FM(0, 0x90, 0x9F).IsAttenuation() {
		t.Error("FM write reported as attenuation")
	}
}

func TestNewStream_LoopIndex(t *testing.T) {
	s := NewStream([]Command{PSG(0x9F), LoopMarker{}, ShortWait(4), LoopMarker{}, End{}})
	if s.LoopIndex != 1 {
		t.Errorf("LoopIndex = %d, want 1", s.LoopIndex)
	}
	if s.Len() != 4 {
		t.Errorf("Len = %d, want 4 (second marker dropped)", s.Len())
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestStream_Validate(t *testing.T) {
	tests := []struct {
		name    string
		stream  Stream
		wantErr bool
	}{
		{"no loop", Stream{Commands: []Command{End{}}, LoopIndex: NoLoop}, false},
		{"valid loop", Stream{Commands: []Command{LoopMarker{}, End{}}, LoopIndex: 0}, false},
		{"index off marker", Stream{Commands: []Command{End{}, LoopMarker{}}, LoopIndex: 0}, true},
		{"index out of range", Stream{Commands: []Command{End{}}, LoopIndex: 5}, true},
		{"orphan marker", Stream{Commands: []Command{LoopMarker{}}, LoopIndex: NoLoop}, true},
		{"two markers", Stream{Commands: []Command{LoopMarker{}, LoopMarker{}}, LoopIndex: 0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.stream.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStream_Samples(t *testing.T) {
	s := NewStream([]Command{ShortWait(10), LoopMarker{}, FrameNTSC(), Dac{Wait: 3}, End{}})
	if got := s.TotalSamples(); got != 748 {
		t.Errorf("TotalSamples = %d, want 748", got)
	}
	if got := s.LoopSamples(); got != 738 {
		t.Errorf("LoopSamples = %d, want 738", got)
	}
}

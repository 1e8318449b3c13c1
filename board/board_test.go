package board

import (
	"testing"

	"github.com/justapithecus/vgmlink/transform"
)

func TestDefaultTable(t *testing.T) {
	tbl := DefaultTable()

	tests := []struct {
		id        ID
		name      string
		chunk     int
		depth     int
		reduction transform.Reduction
	}{
		{Uno, "uno", 64, 1, transform.Rate(4)},
		{Mega, "mega", 128, 1, transform.Rate(4)},
		{Other, "other", 128, 1, transform.Full()},
		{Teensy4, "teensy4", 128, 1, transform.Full()},
		{ESP32, "esp32", 128, 1, transform.Full()},
	}
	for _, tt := range tests {
		p, ok := tbl.Lookup(tt.id)
		if !ok {
			t.Errorf("Lookup(%d) missing", tt.id)
			continue
		}
		if p.Name != tt.name {
			t.Errorf("Lookup(%d).Name = %q, want %q", tt.id, p.Name, tt.name)
		}
		if p.ChunkSize != tt.chunk {
			t.Errorf("%s ChunkSize = %d, want %d", tt.name, p.ChunkSize, tt.chunk)
		}
		if p.Depth != tt.depth {
			t.Errorf("%s Depth = %d, want %d", tt.name, p.Depth, tt.depth)
		}
		if got := p.DefaultReduction(); got != tt.reduction {
			t.Errorf("%s DefaultReduction = %v, want %v", tt.name, got, tt.reduction)
		}
	}
	if tbl.Has(0x06) || tbl.Has(0x0F) || tbl.Has(0x00) {
		t.Error("control bytes must not be board ids")
	}
}

func TestTable_ByName(t *testing.T) {
	tbl := DefaultTable()
	p, err := tbl.ByName("ESP32")
	if err != nil {
		t.Fatalf("ByName: %v", err)
	}
	if p.ID != ESP32 {
		t.Errorf("ID = %d, want %d", p.ID, ESP32)
	}
	if _, err := tbl.ByName("amiga"); err == nil {
		t.Error("expected error for unknown board")
	}
}

func TestTable_Profiles(t *testing.T) {
	profiles := DefaultTable().Profiles()
	for i := 1; i < len(profiles); i++ {
		if profiles[i-1].ID >= profiles[i].ID {
			t.Fatalf("Profiles not ordered by ID: %v", profiles)
		}
	}
}

func TestNewTable_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		profiles []Profile
	}{
		{"chunk too big", []Profile{{ID: 1, Name: "a", ChunkSize: 256, Depth: 1, AudioRate: 1}}},
		{"zero depth", []Profile{{ID: 1, Name: "a", ChunkSize: 64, AudioRate: 1}}},
		{"duplicate id", []Profile{
			{ID: 1, Name: "a", ChunkSize: 64, Depth: 1, AudioRate: 1},
			{ID: 1, Name: "b", ChunkSize: 64, Depth: 1, AudioRate: 1},
		}},
		{"duplicate name", []Profile{
			{ID: 1, Name: "a", ChunkSize: 64, Depth: 1, AudioRate: 1},
			{ID: 2, Name: "A", ChunkSize: 64, Depth: 1, AudioRate: 1},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTable(tt.profiles...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

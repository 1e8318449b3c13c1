// Package board describes the device classes the firmware reports during
// the handshake.
package board

import (
	"fmt"
	"sort"
	"strings"

	"github.com/justapithecus/vgmlink/transform"
)

// ID is the board identifier byte sent after the handshake ACK.
type ID byte

// Known board identifiers.
const (
	Uno     ID = 1
	Mega    ID = 2
	Other   ID = 3
	Teensy4 ID = 4
	ESP32   ID = 5
)

// Profile is the negotiated shape of a session with one device class.
type Profile struct {
	ID   ID     `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	// ChunkSize is the largest payload per chunk.
	ChunkSize int `json:"chunk_size" yaml:"chunk_size"`
	// Depth is how many chunks may be unacknowledged at once.
	Depth int `json:"pipeline_depth" yaml:"pipeline_depth"`
	// AudioRate is the default keep-one-in-N audio reduction.
	AudioRate int `json:"audio_rate" yaml:"audio_rate"`
	// FlashLimit caps a compiled stream stored on the device. Zero means
	// no limit.
	FlashLimit int `json:"flash_limit" yaml:"flash_limit"`
}

// DefaultReduction is the profile's audio reduction.
func (p Profile) DefaultReduction() transform.Reduction {
	return transform.Rate(p.AudioRate)
}

// Validate checks the profile against framing limits.
func (p Profile) Validate() error {
	if p.ChunkSize < 1 || p.ChunkSize > 255 {
		return fmt.Errorf("board %s: chunk size %d out of range [1, 255]", p.Name, p.ChunkSize)
	}
	if p.Depth < 1 {
		return fmt.Errorf("board %s: pipeline depth %d must be at least 1", p.Name, p.Depth)
	}
	if p.AudioRate < 1 {
		return fmt.Errorf("board %s: audio rate %d must be at least 1", p.Name, p.AudioRate)
	}
	return nil
}

// Table is an immutable set of profiles keyed by ID.
type Table struct {
	byID map[ID]Profile
}

// NewTable builds a table from profiles. Duplicate IDs or names and
// invalid profiles are rejected.
func NewTable(profiles ...Profile) (Table, error) {
	t := Table{byID: make(map[ID]Profile, len(profiles))}
	names := make(map[string]bool, len(profiles))
	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			return Table{}, err
		}
		if _, dup := t.byID[p.ID]; dup {
			return Table{}, fmt.Errorf("duplicate board id %d", p.ID)
		}
		key := strings.ToLower(p.Name)
		if names[key] {
			return Table{}, fmt.Errorf("duplicate board name %q", p.Name)
		}
		names[key] = true
		t.byID[p.ID] = p
	}
	return t, nil
}

// DefaultTable returns the profiles of the shipped firmware.
func DefaultTable() Table {
	t, err := NewTable(
		Profile{ID: Uno, Name: "uno", ChunkSize: 64, Depth: 1, AudioRate: 4, FlashLimit: 24 * 1024},
		Profile{ID: Mega, Name: "mega", ChunkSize: 128, Depth: 1, AudioRate: 4, FlashLimit: 28 * 1024},
		Profile{ID: Other, Name: "other", ChunkSize: 128, Depth: 1, AudioRate: 1},
		Profile{ID: Teensy4, Name: "teensy4", ChunkSize: 128, Depth: 1, AudioRate: 1, FlashLimit: 1536 * 1024},
		Profile{ID: ESP32, Name: "esp32", ChunkSize: 128, Depth: 1, AudioRate: 1, FlashLimit: 2 * 1024 * 1024},
	)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the profile for id.
func (t Table) Lookup(id ID) (Profile, bool) {
	p, ok := t.byID[id]
	return p, ok
}

// Has reports whether b is a known board identifier.
func (t Table) Has(b byte) bool {
	_, ok := t.byID[ID(b)]
	return ok
}

// ByName returns the profile whose name matches, ignoring case.
func (t Table) ByName(name string) (Profile, error) {
	for _, p := range t.byID {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("unknown board %q (known: %s)", name, strings.Join(t.Names(), ", "))
}

// Profiles returns every profile ordered by ID.
func (t Table) Profiles() []Profile {
	out := make([]Profile, 0, len(t.byID))
	for _, p := range t.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Names returns every profile name ordered by ID.
func (t Table) Names() []string {
	profiles := t.Profiles()
	names := make([]string, len(profiles))
	for i, p := range profiles {
		names[i] = p.Name
	}
	return names
}

// Len returns the number of profiles.
func (t Table) Len() int {
	return len(t.byID)
}

package vgm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

var gd3Magic = []byte("Gd3 ")

// gd3Fields is the number of strings a GD3 tag carries.
const gd3Fields = 11

// Tags is the GD3 metadata block.
type Tags struct {
	TrackEN  string `json:"track" yaml:"track"`
	TrackJP  string `json:"track_jp,omitempty" yaml:"track_jp,omitempty"`
	GameEN   string `json:"game" yaml:"game"`
	GameJP   string `json:"game_jp,omitempty" yaml:"game_jp,omitempty"`
	SystemEN string `json:"system" yaml:"system"`
	SystemJP string `json:"system_jp,omitempty" yaml:"system_jp,omitempty"`
	AuthorEN string `json:"author" yaml:"author"`
	AuthorJP string `json:"author_jp,omitempty" yaml:"author_jp,omitempty"`
	Date     string `json:"date,omitempty" yaml:"date,omitempty"`
	Ripper   string `json:"ripper,omitempty" yaml:"ripper,omitempty"`
	Notes    string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// ParseGD3 decodes the tag at the absolute offset off.
func ParseGD3(data []byte, off int) (*Tags, error) {
	if off < 0 || off+12 > len(data) {
		return nil, fmt.Errorf("gd3 offset 0x%X out of range", off)
	}
	if !bytes.Equal(data[off:off+4], gd3Magic) {
		return nil, errors.New("gd3 signature missing")
	}
	size := int(binary.LittleEndian.Uint32(data[off+8:]))
	body := off + 12
	if size < 0 || body+size > len(data) {
		return nil, fmt.Errorf("gd3 length %d runs past end of file", size)
	}

	dec := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	fields := make([]string, 0, gd3Fields)
	raw := data[body : body+size]
	for len(fields) < gd3Fields && len(raw) >= 2 {
		end := 0
		for end+1 < len(raw) && (raw[end] != 0 || raw[end+1] != 0) {
			end += 2
		}
		s, err := dec.Bytes(raw[:end])
		if err != nil {
			return nil, fmt.Errorf("gd3 field %d: %w", len(fields), err)
		}
		fields = append(fields, string(s))
		if end+2 > len(raw) {
			break
		}
		raw = raw[end+2:]
	}
	for len(fields) < gd3Fields {
		fields = append(fields, "")
	}

	return &Tags{
		TrackEN:  fields[0],
		TrackJP:  fields[1],
		GameEN:   fields[2],
		GameJP:   fields[3],
		SystemEN: fields[4],
		SystemJP: fields[5],
		AuthorEN: fields[6],
		AuthorJP: fields[7],
		Date:     fields[8],
		Ripper:   fields[9],
		Notes:    fields[10],
	}, nil
}

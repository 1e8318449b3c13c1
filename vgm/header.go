// Package vgm reads VGM containers and decodes their command section into
// command streams.
package vgm

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Header field offsets.
const (
	offEOF         = 0x04
	offVersion     = 0x08
	offSN76489     = 0x0C
	offYM2413      = 0x10
	offGD3         = 0x14
	offTotal       = 0x18
	offLoop        = 0x1C
	offLoopSamples = 0x20
	offRate        = 0x24
	offYM2612      = 0x2C
	offData        = 0x34
)

const (
	// MinHeaderSize is the fixed header every version carries.
	MinHeaderSize = 0x40
	// DefaultDataOffset is where commands start before version 1.50.
	DefaultDataOffset = 0x40
	// noLoop is the loop offset value reserved for "no loop".
	noLoop = 0xFFFFFFFF
)

var magic = []byte("Vgm ")

// Header holds the fixed facts of a container. It is read once.
type Header struct {
	Version      uint32
	EOFOffset    uint32
	SN76489Clock uint32
	YM2413Clock  uint32
	YM2612Clock  uint32
	Rate         uint32
	TotalSamples uint32
	LoopSamples  uint32
	// GD3Offset is absolute; zero when no tag is present.
	GD3Offset int
	// LoopOffset is absolute; zero when the file does not loop.
	LoopOffset int
	// DataOffset is the absolute start of the command section.
	DataOffset int
}

// HasLoop reports whether the header names a loop point.
func (h Header) HasLoop() bool {
	return h.LoopOffset != 0
}

// Chips lists the chips with a nonzero clock.
func (h Header) Chips() []string {
	var chips []string
	if h.SN76489Clock != 0 {
		chips = append(chips, "sn76489")
	}
	if h.YM2413Clock != 0 {
		chips = append(chips, "ym2413")
	}
	if h.YM2612Clock != 0 {
		chips = append(chips, "ym2612")
	}
	return chips
}

// VersionString renders the BCD version, e.g. "1.71".
func (h Header) VersionString() string {
	return fmt.Sprintf("%x.%02x", h.Version>>8, h.Version&0xFF)
}

// ParseHeader validates the magic and reads the header fields. data must
// already be inflated.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < 4 || !bytes.Equal(data[:4], magic) {
		return Header{}, formatErrorf(FormatBadMagic, 0, "missing %q signature", magic)
	}
	if len(data) < MinHeaderSize {
		return Header{}, formatErrorf(FormatTruncated, len(data), "header needs %d bytes, have %d", MinHeaderSize, len(data))
	}

	u32 := func(off int) uint32 { return binary.LittleEndian.Uint32(data[off:]) }

	h := Header{
		EOFOffset:    u32(offEOF),
		Version:      u32(offVersion),
		SN76489Clock: u32(offSN76489),
		YM2413Clock:  u32(offYM2413),
		TotalSamples: u32(offTotal),
		LoopSamples:  u32(offLoopSamples),
		DataOffset:   DefaultDataOffset,
	}
	if h.Version >= 0x101 {
		h.Rate = u32(offRate)
	}
	if h.Version >= 0x110 {
		h.YM2612Clock = u32(offYM2612)
	}
	if rel := u32(offGD3); rel != 0 {
		h.GD3Offset = offGD3 + int(rel)
	}
	if h.Version >= 0x150 {
		if rel := u32(offData); rel != 0 {
			h.DataOffset = offData + int(rel)
		}
	}
	if h.DataOffset > len(data) {
		return Header{}, formatErrorf(FormatBadOffset, offData, "data offset 0x%X past end of file (0x%X)", h.DataOffset, len(data))
	}
	if rel := u32(offLoop); rel != 0 && rel != noLoop {
		h.LoopOffset = offLoop + int(rel)
		if h.LoopOffset < h.DataOffset || h.LoopOffset >= len(data) {
			return Header{}, formatErrorf(FormatBadOffset, offLoop, "loop offset 0x%X outside command data [0x%X, 0x%X)", h.LoopOffset, h.DataOffset, len(data))
		}
	}
	return h, nil
}

// Package command defines the canonical instruction set that sits between
// the VGM decoder and the device byte stream.
//
// Command is a closed union: the only implementations are the types in
// this package. Every variant knows its encoded length, its timing cost in
// samples, and how to append its wire bytes to a buffer.
package command

import "encoding/binary"

// Kind tags a Command variant.
type Kind uint8

const (
	KindChipWrite Kind = iota + 1
	KindRaw
	KindWait
	KindDac
	KindLoopMarker
	KindEnd
)

var kindNames = map[Kind]string{
	KindChipWrite:  "chip_write",
	KindRaw:        "raw",
	KindWait:       "wait",
	KindDac:        "dac",
	KindLoopMarker: "loop_marker",
	KindEnd:        "end",
}

// String returns the snake_case kind name.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Command is one canonical instruction.
type Command interface {
	Kind() Kind
	// Len is the number of bytes AppendTo writes.
	Len() int
	// SampleCost is the playback time the command consumes.
	SampleCost() uint32
	// AppendTo appends the wire encoding to dst.
	AppendTo(dst []byte) []byte

	sealed()
}

// ChipWrite writes one register on a hosted chip.
// PSG writes carry only Value; Register and Port are ignored.
type ChipWrite struct {
	Chip     Chip
	Port     uint8
	Register uint8
	Value    uint8
}

func (ChipWrite) Kind() Kind         { return KindChipWrite }
func (ChipWrite) SampleCost() uint32 { return 0 }
func (ChipWrite) sealed()            {}

func (w ChipWrite) Len() int {
	if w.Chip == ChipPSG {
		return 2
	}
	return 3
}

func (w ChipWrite) AppendTo(dst []byte) []byte {
	if w.Chip == ChipPSG {
		return append(dst, OpPSGWrite, w.Value)
	}
	op := OpFMWritePort0
	if w.Port == 1 {
		op = OpFMWritePort1
	}
	return append(dst, op, w.Register, w.Value)
}

// PSG returns a tone generator write.
func PSG(value uint8) ChipWrite { return ChipWrite{Chip: ChipPSG, Value: value} }

// FM returns a YM2612 write on port 0 or 1.
func FM(port, register, value uint8) ChipWrite {
	return ChipWrite{Chip: ChipFM, Port: port & 1, Register: register, Value: value}
}

// IsAttenuation reports whether w is a PSG attenuation latch byte.
func (w ChipWrite) IsAttenuation() bool {
	return w.Chip == ChipPSG && w.Value&0x90 == 0x90
}

// Raw is an opaque instruction for a chip the device does not host.
// It is copied through verbatim so stream alignment survives.
type Raw struct {
	Opcode byte
	Args   []byte
}

func (Raw) Kind() Kind         { return KindRaw }
func (Raw) SampleCost() uint32 { return 0 }
func (Raw) sealed()            {}
func (r Raw) Len() int         { return 1 + len(r.Args) }

func (r Raw) AppendTo(dst []byte) []byte {
	dst = append(dst, r.Opcode)
	return append(dst, r.Args...)
}

// WaitForm selects the wire encoding of a Wait.
type WaitForm uint8

const (
	WaitGeneral WaitForm = iota
	WaitShort
	WaitNTSC
	WaitPAL
	WaitRun
)

// Wait pauses playback for Samples samples.
// Samples must be representable in Form; the constructors guarantee it.
type Wait struct {
	Form    WaitForm
	Samples uint32
}

func (Wait) Kind() Kind           { return KindWait }
func (Wait) sealed()              {}
func (w Wait) SampleCost() uint32 { return w.Samples }

func (w Wait) Len() int {
	switch w.Form {
	case WaitShort, WaitNTSC, WaitPAL:
		return 1
	case WaitRun:
		return 2
	default:
		return 3
	}
}

func (w Wait) AppendTo(dst []byte) []byte {
	switch w.Form {
	case WaitShort:
		return append(dst, OpWaitShort|byte(w.Samples-1))
	case WaitNTSC:
		return append(dst, OpWaitNTSC)
	case WaitPAL:
		return append(dst, OpWaitPAL)
	case WaitRun:
		return append(dst, OpRunNTSC, byte(w.Samples/SamplesNTSC))
	default:
		return binary.LittleEndian.AppendUint16(append(dst, OpWait), uint16(w.Samples))
	}
}

// ShortWait returns a one-byte wait of 1-16 samples.
func ShortWait(n uint32) Wait { return Wait{Form: WaitShort, Samples: n} }

// GeneralWait returns a three-byte wait of up to 65535 samples.
func GeneralWait(n uint32) Wait { return Wait{Form: WaitGeneral, Samples: n} }

// FrameNTSC returns the one-byte 735-sample wait.
func FrameNTSC() Wait { return Wait{Form: WaitNTSC, Samples: SamplesNTSC} }

// FramePAL returns the one-byte 882-sample wait.
func FramePAL() Wait { return Wait{Form: WaitPAL, Samples: SamplesPAL} }

// RunFrames returns a run-length wait of frames NTSC frames (1-255).
func RunFrames(frames uint32) Wait { return Wait{Form: WaitRun, Samples: frames * SamplesNTSC} }

// Dac writes one sample to the FM chip's DAC and then waits 0-15 samples.
// The sample byte is inlined from the container's audio bank.
type Dac struct {
	Sample byte
	Wait   uint8
}

func (Dac) Kind() Kind           { return KindDac }
func (Dac) Len() int             { return 2 }
func (Dac) sealed()              {}
func (d Dac) SampleCost() uint32 { return uint32(d.Wait) }

func (d Dac) AppendTo(dst []byte) []byte {
	return append(dst, OpDacWait|(d.Wait&0x0F), d.Sample)
}

// LoopMarker marks where repeated playback resumes. It encodes to nothing.
type LoopMarker struct{}

func (LoopMarker) Kind() Kind                 { return KindLoopMarker }
func (LoopMarker) Len() int                   { return 0 }
func (LoopMarker) SampleCost() uint32         { return 0 }
func (LoopMarker) AppendTo(dst []byte) []byte { return dst }
func (LoopMarker) sealed()                    {}

// End terminates the stream.
type End struct{}

func (End) Kind() Kind                 { return KindEnd }
func (End) Len() int                   { return 1 }
func (End) SampleCost() uint32         { return 0 }
func (End) AppendTo(dst []byte) []byte { return append(dst, OpEnd) }
func (End) sealed()                    {}

// IsWait reports whether c is a pure Wait.
func IsWait(c Command) bool {
	_, ok := c.(Wait)
	return ok
}

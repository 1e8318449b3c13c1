package command

// Wire opcodes shared by the VGM container and the device stream.
// Values are fixed by the device firmware and must not change.
const (
	OpPSGWrite     byte = 0x50
	OpFMWritePort0 byte = 0x52
	OpFMWritePort1 byte = 0x53
	OpWait         byte = 0x61
	OpWaitNTSC     byte = 0x62
	OpWaitPAL      byte = 0x63
	OpEnd          byte = 0x66
	OpDataBlock    byte = 0x67
	OpWaitShort    byte = 0x70 // 0x70-0x7F, low nibble = samples-1
	OpDacWait      byte = 0x80 // 0x80-0x8F, low nibble = wait samples
	OpRunNTSC      byte = 0xC0 // followed by a frame count
	OpBankSeek     byte = 0xE0
)

// Timing constants, in 44.1 kHz samples.
const (
	SamplesNTSC    = 735
	SamplesPAL     = 882
	MaxShortWait   = 16
	MaxGeneralWait = 65535
	MaxRunFrames   = 255
	MaxDacWait     = 15
)

// Chip identifies a sound chip hosted by the device.
type Chip uint8

const (
	// ChipPSG is the SN76489 tone generator.
	ChipPSG Chip = iota + 1
	// ChipFM is the YM2612 FM synthesizer.
	ChipFM
)

// String returns the chip's conventional name.
func (c Chip) String() string {
	switch c {
	case ChipPSG:
		return "sn76489"
	case ChipFM:
		return "ym2612"
	default:
		return "unknown"
	}
}

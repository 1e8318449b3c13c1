package vgm

import (
	"encoding/binary"

	"github.com/justapithecus/vgmlink/command"
)

// pcmBlockType is the data block type of YM2612 PCM samples.
const pcmBlockType = 0x00

// dacSilence is inlined when a DAC command outruns the bank.
const dacSilence = 0x80

// DecodeStats summarizes one decode.
type DecodeStats struct {
	BankSize      int  `json:"bank_size" yaml:"bank_size"`
	Commands      int  `json:"commands" yaml:"commands"`
	DacSamples    int  `json:"dac_samples" yaml:"dac_samples"`
	BankSeeks     int  `json:"bank_seeks" yaml:"bank_seeks"`
	BankUnderruns int  `json:"bank_underruns" yaml:"bank_underruns"`
	DataBlocks    int  `json:"data_blocks" yaml:"data_blocks"`
	Foreign       int  `json:"foreign" yaml:"foreign"`
	LoopMapped    bool `json:"loop_mapped" yaml:"loop_mapped"`
}

// Decode walks f's command section into a stream. The audio bank is
// extracted first so every DAC command carries its sample byte.
func Decode(f *File) (*command.Stream, DecodeStats, error) {
	return decode(f.Data, f.Header.DataOffset, f.Header.LoopOffset)
}

// ExtractBank returns the first YM2612 PCM data block in the command
// section starting at start, or nil when there is none.
func ExtractBank(data []byte, start int) ([]byte, error) {
	var bank []byte
	err := walk(data, start, func(pos int, op byte, n int) bool {
		if op != command.OpDataBlock {
			return op != command.OpEnd
		}
		if bank == nil && data[pos+2] == pcmBlockType {
			bank = data[pos+dataBlockHeader : pos+n]
		}
		return true
	})
	return bank, err
}

// walk steps through commands from start, calling fn with each command's
// position, opcode and total length. It stops when fn returns false or the
// buffer ends.
func walk(data []byte, start int, fn func(pos int, op byte, n int) bool) error {
	pos := start
	for pos < len(data) {
		op := data[pos]
		n := commandLen(op)
		if op == command.OpDataBlock {
			if pos+dataBlockHeader > len(data) {
				return formatErrorf(FormatBadCommand, pos, "data block header truncated")
			}
			size := int(binary.LittleEndian.Uint32(data[pos+3:]))
			n = dataBlockHeader + size
			if size < 0 || pos+n > len(data) {
				return formatErrorf(FormatBadCommand, pos, "data block of %d bytes runs past end of file", size)
			}
		}
		if pos+n > len(data) {
			return formatErrorf(FormatBadCommand, pos, "command 0x%02X needs %d bytes, have %d", op, n, len(data)-pos)
		}
		if !fn(pos, op, n) {
			return nil
		}
		pos += n
	}
	return nil
}

func decode(data []byte, start, loopOffset int) (*command.Stream, DecodeStats, error) {
	var stats DecodeStats

	bank, err := ExtractBank(data, start)
	if err != nil {
		return nil, stats, err
	}
	stats.BankSize = len(bank)

	b := command.NewBuilder(len(data) / 2)
	cursor := 0
	ended := false

	err = walk(data, start, func(pos int, op byte, n int) bool {
		if loopOffset != 0 && !stats.LoopMapped && pos >= loopOffset {
			b.Add(command.LoopMarker{})
			stats.LoopMapped = true
		}
		args := data[pos+1 : pos+n]

		switch {
		case op == command.OpEnd:
			b.Add(command.End{})
			ended = true
			return false
		case op == command.OpDataBlock:
			stats.DataBlocks++
		case op == command.OpPSGWrite:
			b.Add(command.PSG(args[0]))
		case op == command.OpFMWritePort0 || op == command.OpFMWritePort1:
			b.Add(command.FM(op-command.OpFMWritePort0, args[0], args[1]))
		case op == command.OpWait:
			b.Add(command.GeneralWait(uint32(binary.LittleEndian.Uint16(args))))
		case op == command.OpWaitNTSC:
			b.Add(command.FrameNTSC())
		case op == command.OpWaitPAL:
			b.Add(command.FramePAL())
		case op >= command.OpWaitShort && op < command.OpDacWait:
			b.Add(command.ShortWait(uint32(op&0x0F) + 1))
		case op >= command.OpDacWait && op <= command.OpDacWait|0x0F:
			sample := byte(dacSilence)
			if cursor < len(bank) {
				sample = bank[cursor]
				cursor++
			} else {
				stats.BankUnderruns++
			}
			b.Add(command.Dac{Sample: sample, Wait: op & 0x0F})
			stats.DacSamples++
		case op == command.OpBankSeek:
			cursor = int(binary.LittleEndian.Uint32(args))
			stats.BankSeeks++
		default:
			b.Add(command.Raw{Opcode: op, Args: append([]byte(nil), args...)})
			stats.Foreign++
		}
		return true
	})
	if err != nil {
		return nil, stats, err
	}
	if !ended {
		b.Add(command.End{})
	}

	s := b.Stream()
	stats.Commands = s.Len()
	return s, stats, nil
}

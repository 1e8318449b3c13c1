package vgm

// commandLen returns the total byte length (opcode included) of op for
// every fixed-size opcode. Data blocks (0x67) are variable and handled by
// the caller. Opcodes outside the known families take one byte.
func commandLen(op byte) int {
	switch {
	case op == 0x50:
		return 2
	case op == 0x52 || op == 0x53:
		return 3
	case op == 0x61:
		return 3
	case op == 0x62 || op == 0x63 || op == 0x66:
		return 1
	case op >= 0x70 && op <= 0x8F:
		return 1
	case op == 0xE0:
		return 5
	case op >= 0x30 && op <= 0x3F:
		return 2
	case op >= 0x40 && op <= 0x4E:
		return 3
	case op == 0x4F:
		return 2
	case op >= 0x51 && op <= 0x5F:
		return 3
	case op == 0x68:
		return 12
	case op == 0x90 || op == 0x91 || op == 0x95:
		return 5
	case op == 0x92:
		return 6
	case op == 0x93:
		return 11
	case op == 0x94:
		return 2
	case op >= 0xA0 && op <= 0xBF:
		return 3
	case op >= 0xC0 && op <= 0xDF:
		return 4
	case op >= 0xE1:
		return 5
	default:
		return 1
	}
}

// dataBlockHeader is 0x67 0x66 type size32.
const dataBlockHeader = 7

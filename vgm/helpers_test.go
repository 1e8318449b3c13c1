package vgm

import (
	"bytes"
	"encoding/binary"

	"github.com/klauspost/compress/gzip"
)

type testFile struct {
	version    uint32
	sn76489    uint32
	ym2612     uint32
	dataOffset int // absolute; 0 means 0x40
	loopAt     int // index into body; -1 means no loop
	body       []byte
	gd3        []byte
}

func buildVGM(tf testFile) []byte {
	start := tf.dataOffset
	if start == 0 {
		start = DefaultDataOffset
	}
	out := make([]byte, start)
	copy(out, magic)
	put := func(off int, v uint32) { binary.LittleEndian.PutUint32(out[off:], v) }

	put(offVersion, tf.version)
	put(offSN76489, tf.sn76489)
	put(offYM2612, tf.ym2612)
	if tf.version >= 0x150 {
		put(offData, uint32(start-offData))
	}
	if tf.loopAt >= 0 {
		put(offLoop, uint32(start+tf.loopAt-offLoop))
	}
	out = append(out, tf.body...)
	if tf.gd3 != nil {
		put(offGD3, uint32(len(out)-offGD3))
		out = append(out, tf.gd3...)
	}
	put(offEOF, uint32(len(out)-offEOF))
	return out
}

func gzipBytes(b []byte) []byte {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write(b)
	zw.Close()
	return buf.Bytes()
}

func utf16z(s string) []byte {
	var out []byte
	for _, r := range s {
		out = binary.LittleEndian.AppendUint16(out, uint16(r))
	}
	return append(out, 0, 0)
}

func buildGD3(fields ...string) []byte {
	var body []byte
	for i := 0; i < gd3Fields; i++ {
		f := ""
		if i < len(fields) {
			f = fields[i]
		}
		body = append(body, utf16z(f)...)
	}
	out := append([]byte{}, gd3Magic...)
	out = binary.LittleEndian.AppendUint32(out, 0x100)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(body)))
	return append(out, body...)
}

func dataBlock(kind byte, payload []byte) []byte {
	out := []byte{0x67, 0x66, kind}
	out = binary.LittleEndian.AppendUint32(out, uint32(len(payload)))
	return append(out, payload...)
}

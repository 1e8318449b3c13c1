// Package chunk implements the serial framing between host and device.
//
// A data chunk is [Header][len][payload][checksum], where checksum is len
// XOR every payload byte. A lone End byte closes the transmission. The
// device answers each chunk with Ready or Nak.
package chunk

import (
	"errors"
	"fmt"
	"io"
)

// Control bytes. They sit outside the data opcode range.
const (
	// Ping asks the device to identify itself.
	Ping byte = 0x00
	// Ack opens the device's handshake reply.
	Ack byte = 0x0F
	// Ready acknowledges a chunk, or reports playback finished.
	Ready byte = 0x06
	// Nak reports a checksum failure; the chunk must be resent.
	Nak byte = 0x15
	// Header starts a data chunk.
	Header byte = 0x01
	// End closes the transmission.
	End byte = 0x02
)

const (
	// MaxPayload is the largest payload a one-byte length can carry.
	MaxPayload = 255
	// Overhead is the framing bytes around a payload.
	Overhead = 3
)

// Checksum returns the XOR of the length byte and every payload byte.
func Checksum(length byte, payload []byte) byte {
	sum := length
	for _, b := range payload {
		sum ^= b
	}
	return sum
}

// Encode frames payload. It panics if payload exceeds MaxPayload.
func Encode(payload []byte) []byte {
	return AppendFrame(make([]byte, 0, len(payload)+Overhead), payload)
}

// AppendFrame appends the framed payload to dst.
func AppendFrame(dst, payload []byte) []byte {
	if len(payload) > MaxPayload {
		panic(fmt.Sprintf("chunk: payload of %d bytes exceeds %d", len(payload), MaxPayload))
	}
	n := byte(len(payload))
	dst = append(dst, Header, n)
	dst = append(dst, payload...)
	return append(dst, Checksum(n, payload))
}

// Split cuts data into payloads of at most size bytes.
func Split(data []byte, size int) [][]byte {
	if size < 1 || size > MaxPayload {
		panic(fmt.Sprintf("chunk: size %d out of range [1, %d]", size, MaxPayload))
	}
	out := make([][]byte, 0, (len(data)+size-1)/size)
	for pos := 0; pos < len(data); pos += size {
		out = append(out, data[pos:min(pos+size, len(data))])
	}
	return out
}

// FrameErrorKind classifies receive-side framing failures.
type FrameErrorKind int

const (
	// FrameErrorTruncated means the stream ended inside a frame.
	FrameErrorTruncated FrameErrorKind = iota
	// FrameErrorChecksum means the checksum did not match.
	FrameErrorChecksum
	// FrameErrorStray means a byte arrived where a frame header was expected.
	FrameErrorStray
)

// FrameError is a receive-side framing failure.
type FrameError struct {
	Kind FrameErrorKind
	Msg  string
	Err  error
}

func (e *FrameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether the receiver must stop. Checksum failures and
// stray bytes are recovered by resend.
func (e *FrameError) IsFatal() bool {
	return e.Kind == FrameErrorTruncated
}

// IsFatalFrameError reports whether err is a fatal FrameError.
func IsFatalFrameError(err error) bool {
	var frameErr *FrameError
	if errors.As(err, &frameErr) {
		return frameErr.IsFatal()
	}
	return false
}

// FrameKind tags a received frame.
type FrameKind int

const (
	FrameData FrameKind = iota
	FrameEnd
	FramePing
)

// Frame is one received unit.
type Frame struct {
	Kind    FrameKind
	Payload []byte
}

// Decoder reads frames on the device side of the link.
type Decoder struct {
	reader io.Reader
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{reader: r}
}

// Next reads a single frame.
//
// Errors:
//   - io.EOF: stream ended between frames
//   - *FrameError with Kind=FrameErrorTruncated: stream ended inside a frame (fatal)
//   - *FrameError with Kind=FrameErrorChecksum: payload consumed, checksum mismatch
//   - *FrameError with Kind=FrameErrorStray: unexpected byte consumed
func (d *Decoder) Next() (Frame, error) {
	var b [1]byte
	if _, err := io.ReadFull(d.reader, b[:]); err != nil {
		if err == io.EOF {
			return Frame{}, io.EOF
		}
		return Frame{}, &FrameError{Kind: FrameErrorTruncated, Msg: "failed to read frame header", Err: err}
	}

	switch b[0] {
	case End:
		return Frame{Kind: FrameEnd}, nil
	case Ping:
		return Frame{Kind: FramePing}, nil
	case Header:
	default:
		return Frame{}, &FrameError{Kind: FrameErrorStray, Msg: fmt.Sprintf("unexpected byte 0x%02X", b[0])}
	}

	if _, err := io.ReadFull(d.reader, b[:]); err != nil {
		return Frame{}, &FrameError{Kind: FrameErrorTruncated, Msg: "failed to read length", Err: err}
	}
	n := b[0]

	buf := make([]byte, int(n)+1)
	if _, err := io.ReadFull(d.reader, buf); err != nil {
		return Frame{}, &FrameError{Kind: FrameErrorTruncated, Msg: "failed to read payload", Err: err}
	}
	payload, sum := buf[:n], buf[n]
	if want := Checksum(n, payload); sum != want {
		return Frame{}, &FrameError{
			Kind: FrameErrorChecksum,
			Msg:  fmt.Sprintf("checksum 0x%02X, want 0x%02X", sum, want),
		}
	}
	return Frame{Kind: FrameData, Payload: payload}, nil
}

// Package artifact stores compiled command streams.
//
// An artifact file is the magic "VGLK", a 4-byte big-endian payload
// length, and a msgpack-encoded File. It can be streamed without
// decoding the source VGM again.
package artifact

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/justapithecus/vgmlink/command"
	"github.com/justapithecus/vgmlink/iox"
	"github.com/justapithecus/vgmlink/vgm"
)

// Magic opens every artifact file.
const Magic = "VGLK"

// FormatVersion is the current payload layout.
const FormatVersion = 1

const (
	// MaxPayloadSize caps the decoded payload (64 MiB).
	MaxPayloadSize = 64 * 1024 * 1024
	// LengthPrefixSize is the size of the length prefix in bytes.
	LengthPrefixSize = 4
	headerSize       = len(Magic) + LengthPrefixSize
)

// Ext is the conventional file extension.
const Ext = ".vgl"

// File is a compiled stream and the facts it was compiled from.
type File struct {
	FormatVersion int    `msgpack:"format_version"`
	Producer      string `msgpack:"producer"`
	// Source is the input file base name.
	Source string `msgpack:"source"`
	// Target is the board the stream was sized for, if any.
	Target    string `msgpack:"target,omitempty"`
	Reduction string `msgpack:"reduction"`
	Balanced  bool   `msgpack:"balanced"`

	Data       []byte `msgpack:"data"`
	LoopOffset int    `msgpack:"loop_offset"`
	Samples    uint64 `msgpack:"samples"`
	Truncated  bool   `msgpack:"truncated"`

	VGMVersion   string    `msgpack:"vgm_version"`
	Chips        []string  `msgpack:"chips"`
	LoopSamples  uint32    `msgpack:"loop_samples"`
	Tags         *vgm.Tags `msgpack:"tags,omitempty"`
	CommandCount int       `msgpack:"command_count"`
}

// HasLoop reports whether the stream carries a loop offset.
func (f *File) HasLoop() bool {
	return f.LoopOffset != command.NoLoop
}

// Encoded returns the stream in encoder form.
func (f *File) Encoded() command.Encoded {
	return command.Encoded{
		Data:       f.Data,
		LoopOffset: f.LoopOffset,
		Samples:    f.Samples,
		Truncated:  f.Truncated,
	}
}

// Validate checks the decoded file for consistency.
func (f *File) Validate() error {
	if f.FormatVersion < 1 || f.FormatVersion > FormatVersion {
		return fmt.Errorf("unsupported artifact format %d", f.FormatVersion)
	}
	if len(f.Data) == 0 {
		return errors.New("artifact has no stream data")
	}
	if f.HasLoop() && (f.LoopOffset < 0 || f.LoopOffset >= len(f.Data)) {
		return fmt.Errorf("loop offset %d outside stream of %d bytes", f.LoopOffset, len(f.Data))
	}
	return nil
}

// Is reports whether data starts with the artifact magic.
func Is(data []byte) bool {
	return bytes.HasPrefix(data, []byte(Magic))
}

// Marshal encodes f with its header.
func Marshal(f *File) ([]byte, error) {
	if f.FormatVersion == 0 {
		f.FormatVersion = FormatVersion
	}
	payload, err := msgpack.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode artifact: %w", err)
	}
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("artifact payload %d exceeds maximum %d", len(payload), MaxPayloadSize)
	}
	out := make([]byte, headerSize, headerSize+len(payload))
	copy(out, Magic)
	binary.BigEndian.PutUint32(out[len(Magic):], uint32(len(payload)))
	return append(out, payload...), nil
}

// Write encodes f to w.
func Write(w io.Writer, f *File) error {
	data, err := Marshal(f)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Read decodes one artifact from r.
func Read(r io.Reader) (*File, error) {
	var head [headerSize]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return nil, fmt.Errorf("read artifact header: %w", err)
	}
	if !Is(head[:]) {
		return nil, errors.New("not an artifact file")
	}
	size := binary.BigEndian.Uint32(head[len(Magic):])
	if size > MaxPayloadSize {
		return nil, fmt.Errorf("artifact payload %d exceeds maximum %d", size, MaxPayloadSize)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read artifact payload: %w", err)
	}

	var f File
	if err := msgpack.Unmarshal(payload, &f); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Unmarshal decodes an artifact held in memory.
func Unmarshal(data []byte) (*File, error) {
	return Read(bytes.NewReader(data))
}

// WriteFile writes f to path.
func WriteFile(path string, f *File) error {
	data, err := Marshal(f)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadFile reads an artifact from path.
func ReadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer iox.DiscardClose(fh)
	f, err := Read(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

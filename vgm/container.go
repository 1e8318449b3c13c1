package vgm

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// File is a parsed container. Data is the inflated file image; header
// offsets index into it.
type File struct {
	Header     Header
	Tags       *Tags
	Data       []byte
	Compressed bool
}

// IsGzip reports whether raw starts with the gzip magic.
func IsGzip(raw []byte) bool {
	return len(raw) >= 2 && raw[0] == 0x1F && raw[1] == 0x8B
}

// Inflate returns raw unchanged unless it is gzip-compressed, in which
// case the whole buffer is decompressed.
func Inflate(raw []byte) ([]byte, bool, error) {
	if !IsGzip(raw) {
		return raw, false, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, true, &FormatError{Kind: FormatCompression, Msg: "open gzip stream", Err: err}
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, true, &FormatError{Kind: FormatCompression, Msg: "inflate gzip stream", Err: err}
	}
	return data, true, nil
}

// Parse inflates raw if needed, then reads the header and GD3 tag.
// A missing or malformed GD3 tag leaves Tags nil.
func Parse(raw []byte) (*File, error) {
	data, compressed, err := Inflate(raw)
	if err != nil {
		return nil, err
	}
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	f := &File{Header: h, Data: data, Compressed: compressed}
	if h.GD3Offset != 0 {
		if tags, err := ParseGD3(data, h.GD3Offset); err == nil {
			f.Tags = tags
		}
	}
	return f, nil
}

// ReadFile reads and parses the container at path.
func ReadFile(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	f, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return f, nil
}

// Commands returns the command section of the file.
func (f *File) Commands() []byte {
	return f.Data[f.Header.DataOffset:]
}

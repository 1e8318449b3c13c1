package vgm

import (
	"errors"
	"fmt"
)

// FormatErrorKind classifies container failures.
type FormatErrorKind int

const (
	// FormatBadMagic means the buffer does not start with "Vgm ".
	FormatBadMagic FormatErrorKind = iota
	// FormatTruncated means the buffer is shorter than the fixed header.
	FormatTruncated
	// FormatBadOffset means a header offset points outside the buffer.
	FormatBadOffset
	// FormatBadCommand means a command's operands run past the buffer.
	FormatBadCommand
	// FormatCompression means a gzip container failed to inflate.
	FormatCompression
)

func (k FormatErrorKind) String() string {
	switch k {
	case FormatBadMagic:
		return "bad magic"
	case FormatTruncated:
		return "truncated header"
	case FormatBadOffset:
		return "bad offset"
	case FormatBadCommand:
		return "bad command"
	case FormatCompression:
		return "compression"
	default:
		return "unknown"
	}
}

// FormatError reports an unreadable container. It is never retried.
type FormatError struct {
	Kind   FormatErrorKind
	Offset int
	Msg    string
	Err    error
}

func (e *FormatError) Error() string {
	msg := fmt.Sprintf("vgm %s at offset 0x%X: %s", e.Kind, e.Offset, e.Msg)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// IsFormatError reports whether err wraps a FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

func formatErrorf(kind FormatErrorKind, offset int, format string, args ...any) *FormatError {
	return &FormatError{Kind: kind, Offset: offset, Msg: fmt.Sprintf(format, args...)}
}

package session

import (
	"errors"
	"fmt"
)

// TransportError is a link open, write or read failure. It is fatal and
// never retried.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("serial %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError means the device never completed the handshake.
type ProtocolError struct {
	Port     string
	Attempts int
	Baud     int
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("no handshake reply from %s after %d attempts", e.Port, e.Attempts)
}

// Guidance lists the usual causes of a silent device.
func (e *ProtocolError) Guidance() []string {
	hints := []string{"make sure the streaming firmware is uploaded"}
	if e.Baud > 0 {
		hints = append(hints, fmt.Sprintf("check the firmware baud rate matches %d", e.Baud))
	} else {
		hints = append(hints, "check the firmware baud rate matches the host")
	}
	return append(hints, "close any other program holding the port")
}

// IsTransportError reports whether err wraps a TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsProtocolError reports whether err wraps a ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// Package link owns the byte-oriented serial connection to the device.
//
// One goroutine reads the port into a bounded channel; the session loop
// is the only writer.
package link

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// Port is the part of a serial port the session uses.
// go.bug.st/serial ports satisfy it, as does the device simulator.
type Port interface {
	io.ReadWriteCloser
	// ResetInputBuffer discards bytes received but not yet read.
	ResetInputBuffer() error
}

// DefaultBaud matches the firmware's default serial speed.
const DefaultBaud = 1000000

// readTimeout bounds each port read so the reader notices Close.
const readTimeout = 50 * time.Millisecond

// Open opens a serial port at baud, 8N1.
func Open(name string, baud int) (Port, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	if err := p.SetReadTimeout(readTimeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", name, err)
	}
	return p, nil
}

// PortInfo describes one serial port on the host.
type PortInfo struct {
	Name    string `json:"name" yaml:"name"`
	USB     bool   `json:"usb" yaml:"usb"`
	VID     string `json:"vid,omitempty" yaml:"vid,omitempty"`
	PID     string `json:"pid,omitempty" yaml:"pid,omitempty"`
	Serial  string `json:"serial,omitempty" yaml:"serial,omitempty"`
	Product string `json:"product,omitempty" yaml:"product,omitempty"`
}

// List enumerates serial ports.
func List() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("enumerate serial ports: %w", err)
	}
	out := make([]PortInfo, 0, len(details))
	for _, d := range details {
		out = append(out, PortInfo{
			Name:    d.Name,
			USB:     d.IsUSB,
			VID:     d.VID,
			PID:     d.PID,
			Serial:  d.SerialNumber,
			Product: d.Product,
		})
	}
	return out, nil
}

// deviceHints match USB product strings of supported boards and their
// common USB-serial bridges.
var deviceHints = []string{"arduino", "mega", "uno", "ch340", "ch341", "ftdi", "teensy", "esp32", "cp210"}

// ErrNoPort is returned by Detect when no candidate port exists.
var ErrNoPort = errors.New("no serial port found")

// Detect picks the port a device is most likely attached to.
func Detect() (string, error) {
	ports, err := List()
	if err != nil {
		return "", err
	}
	return pick(ports)
}

func pick(ports []PortInfo) (string, error) {
	for _, p := range ports {
		desc := strings.ToLower(p.Product)
		for _, hint := range deviceHints {
			if strings.Contains(desc, hint) {
				return p.Name, nil
			}
		}
	}
	if len(ports) == 1 {
		return ports[0].Name, nil
	}
	if len(ports) == 0 {
		return "", ErrNoPort
	}
	names := make([]string, len(ports))
	for i, p := range ports {
		names[i] = p.Name
	}
	return "", fmt.Errorf("%w: %d candidates (%s), pass --port", ErrNoPort, len(ports), strings.Join(names, ", "))
}

// ErrTimeout is returned by Reader.Next when no byte arrives in time.
var ErrTimeout = errors.New("read timeout")

// ErrClosed is returned by Reader.Next after Close.
var ErrClosed = errors.New("link closed")

// Reader delivers inbound bytes from a Port over a bounded channel.
type Reader struct {
	port  Port
	bytes chan byte
	stop  chan struct{}
	done  chan struct{}

	mu  sync.Mutex
	err error

	closeOnce sync.Once
}

// NewReader starts reading port. size bounds the inbound buffer.
func NewReader(port Port, size int) *Reader {
	r := &Reader{
		port:  port,
		bytes: make(chan byte, size),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *Reader) run() {
	defer close(r.done)
	buf := make([]byte, 256)
	for {
		n, err := r.port.Read(buf)
		for i := 0; i < n; i++ {
			select {
			case r.bytes <- buf[i]:
			case <-r.stop:
				return
			}
		}
		if err != nil {
			r.mu.Lock()
			r.err = err
			r.mu.Unlock()
			return
		}
		select {
		case <-r.stop:
			return
		default:
		}
	}
}

// Err returns the error that stopped the reader, if any.
func (r *Reader) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Next waits up to timeout for one byte. A canceled ctx wins over
// buffered input.
func (r *Reader) Next(ctx context.Context, timeout time.Duration) (byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	select {
	case b := <-r.bytes:
		return b, nil
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case b := <-r.bytes:
		return b, nil
	case <-r.done:
		select {
		case b := <-r.bytes:
			return b, nil
		default:
		}
		if err := r.Err(); err != nil {
			return 0, err
		}
		return 0, ErrClosed
	case <-timer.C:
		return 0, ErrTimeout
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Poll returns a buffered byte without blocking.
func (r *Reader) Poll() (byte, bool) {
	select {
	case b := <-r.bytes:
		return b, true
	default:
		return 0, false
	}
}

// Drain discards buffered input on both sides of the reader.
func (r *Reader) Drain() error {
	for {
		if _, ok := r.Poll(); !ok {
			break
		}
	}
	return r.port.ResetInputBuffer()
}

// Close stops the reader and closes the port.
func (r *Reader) Close() error {
	var err error
	r.closeOnce.Do(func() {
		close(r.stop)
		err = r.port.Close()
		<-r.done
	})
	return err
}

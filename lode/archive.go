package lode

import (
	"context"

	"github.com/justapithecus/vgmlink/metrics"
)

// Archive stores session reports and their sidecar files.
type Archive interface {
	// WriteSession appends one session record.
	WriteSession(ctx context.Context, rec *SessionRecord) error
	// PutFile stores a sidecar file and returns its path.
	PutFile(ctx context.Context, ref FileRef, data []byte) (string, error)
	// Close releases archive resources.
	Close() error
}

// InstrumentedArchive wraps an Archive and counts write outcomes on a
// metrics collector.
type InstrumentedArchive struct {
	inner     Archive
	collector *metrics.Collector
}

// NewInstrumentedArchive wraps inner with metrics instrumentation.
func NewInstrumentedArchive(inner Archive, collector *metrics.Collector) *InstrumentedArchive {
	return &InstrumentedArchive{inner: inner, collector: collector}
}

func (a *InstrumentedArchive) record(err error) {
	if err != nil {
		a.collector.IncArchiveWriteFailure()
	} else {
		a.collector.IncArchiveWriteSuccess()
	}
}

// WriteSession delegates to the inner archive and records the outcome.
func (a *InstrumentedArchive) WriteSession(ctx context.Context, rec *SessionRecord) error {
	err := a.inner.WriteSession(ctx, rec)
	a.record(err)
	return err
}

// PutFile delegates to the inner archive and records the outcome.
func (a *InstrumentedArchive) PutFile(ctx context.Context, ref FileRef, data []byte) (string, error) {
	path, err := a.inner.PutFile(ctx, ref, data)
	a.record(err)
	return path, err
}

// Close delegates to the inner archive.
func (a *InstrumentedArchive) Close() error {
	return a.inner.Close()
}

var _ Archive = (*InstrumentedArchive)(nil)

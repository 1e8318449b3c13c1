package lode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/justapithecus/lode/lode"
)

// ErrBadFilename is returned for sidecar names with path elements.
var ErrBadFilename = errors.New("sidecar filename must not contain path separators or \"..\"")

// FileRef locates a sidecar file under a session partition.
type FileRef struct {
	Board     string
	Day       string
	SessionID string
	Filename  string
}

func (r FileRef) validate() error {
	if r.Filename == "" || strings.ContainsAny(r.Filename, `/\`) || strings.Contains(r.Filename, "..") {
		return fmt.Errorf("%w: %q", ErrBadFilename, r.Filename)
	}
	if r.Board == "" || r.Day == "" || r.SessionID == "" {
		return errors.New("sidecar file needs board, day and session_id")
	}
	return nil
}

// PutFile writes a sidecar file and returns its store path.
// Files live beside the records and bypass the dataset manifest.
func (c *Client) PutFile(ctx context.Context, ref FileRef, data []byte) (string, error) {
	if err := ref.validate(); err != nil {
		return "", err
	}
	store, err := c.getOrCreateStore()
	if err != nil {
		return "", WrapInitError(fmt.Errorf("file write store init failed: %w", err), c.config.dataset())
	}

	path := c.buildFilePath(ref)
	if err := store.Put(ctx, path, bytes.NewReader(data)); err != nil {
		return "", WrapPutError(err, path)
	}
	return path, nil
}

// getOrCreateStore lazily initializes the Store from the factory.
func (c *Client) getOrCreateStore() (lode.Store, error) {
	c.storeOnce.Do(func() {
		c.store, c.storeErr = c.storeFactory()
	})
	return c.store, c.storeErr
}

// buildFilePath computes the Hive-partitioned path for a sidecar file.
// Format: datasets/<dataset>/partitions/board=<b>/day=<d>/session_id=<s>/files/<filename>
func (c *Client) buildFilePath(ref FileRef) string {
	return fmt.Sprintf("datasets/%s/partitions/board=%s/day=%s/session_id=%s/files/%s",
		c.config.dataset(),
		ref.Board,
		ref.Day,
		ref.SessionID,
		ref.Filename,
	)
}

// StubArchive records writes for testing.
type StubArchive struct {
	mu       sync.Mutex
	Sessions []SessionRecord
	Files    []StubFileRecord
	Closed   bool
	// Err is returned by every write when set.
	Err error
}

// StubFileRecord is a recorded file write.
type StubFileRecord struct {
	Ref  FileRef
	Data []byte
}

// NewStubArchive creates a new stub archive.
func NewStubArchive() *StubArchive {
	return &StubArchive{}
}

// WriteSession implements Archive.
func (a *StubArchive) WriteSession(_ context.Context, rec *SessionRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Err != nil {
		return a.Err
	}
	a.Sessions = append(a.Sessions, *rec)
	return nil
}

// PutFile implements Archive.
func (a *StubArchive) PutFile(_ context.Context, ref FileRef, data []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Err != nil {
		return "", a.Err
	}
	a.Files = append(a.Files, StubFileRecord{Ref: ref, Data: data})
	return "files/" + ref.Filename, nil
}

// Close implements Archive.
func (a *StubArchive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Closed = true
	return nil
}

var _ Archive = (*StubArchive)(nil)

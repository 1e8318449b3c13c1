// Package lode archives streaming sessions on a Lode dataset.
//
// Session reports are JSONL records partitioned by board, day and
// session id. Compiled streams can be stored next to them as sidecar
// files. The dataset lives on the local filesystem or in S3.
package lode

import (
	"context"
	"fmt"
	"sync"

	"github.com/justapithecus/lode/lode"
)

// DefaultDataset is the dataset ID used when Config.Dataset is empty.
const DefaultDataset = "vgmlink"

// Config holds archive configuration.
type Config struct {
	// Dataset is the Lode dataset ID.
	Dataset string
}

func (c Config) dataset() string {
	if c.Dataset == "" {
		return DefaultDataset
	}
	return c.Dataset
}

// Client is a Lode-backed Archive.
type Client struct {
	dataset      lode.Dataset
	config       Config
	storeFactory lode.StoreFactory

	storeOnce sync.Once
	store     lode.Store
	storeErr  error
}

// newDataset opens the session dataset with the shared layout and codec.
func newDataset(id string, factory lode.StoreFactory) (lode.Dataset, error) {
	return lode.NewDataset(
		lode.DatasetID(id),
		factory,
		lode.WithHiveLayout(partitionKeys...),
		lode.WithCodec(lode.NewJSONLCodec()),
	)
}

// NewClient creates a client with filesystem storage under root.
func NewClient(cfg Config, root string) (*Client, error) {
	return NewClientWithFactory(cfg, lode.NewFSFactory(root))
}

// NewClientWithFactory creates a client with a custom store factory.
// Use lode.NewMemoryFactory() for testing.
func NewClientWithFactory(cfg Config, factory lode.StoreFactory) (*Client, error) {
	ds, err := newDataset(cfg.dataset(), factory)
	if err != nil {
		return nil, WrapInitError(err, cfg.dataset())
	}
	return newClient(ds, cfg, factory), nil
}

func newClient(ds lode.Dataset, cfg Config, factory lode.StoreFactory) *Client {
	return &Client{dataset: ds, config: cfg, storeFactory: factory}
}

// Dataset returns the underlying dataset for queries.
func (c *Client) Dataset() lode.Dataset {
	return c.dataset
}

// WriteSession appends one session record.
func (c *Client) WriteSession(ctx context.Context, rec *SessionRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if _, err := c.dataset.Write(ctx, []any{toRecordMap(rec)}, lode.Metadata{}); err != nil {
		return WrapWriteError(err, fmt.Sprintf("%s/session_id=%s", c.config.dataset(), rec.SessionID))
	}
	return nil
}

// Close releases client resources.
func (c *Client) Close() error {
	return nil
}

var _ Archive = (*Client)(nil)

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lodelib "github.com/justapithecus/lode/lode"
	"github.com/urfave/cli/v2"

	"github.com/justapithecus/vgmlink/cli/config"
	"github.com/justapithecus/vgmlink/lode"
	"github.com/justapithecus/vgmlink/metrics"
)

// storageChoice holds the resolved session archive configuration.
type storageChoice struct {
	backend   string // "fs" or "s3"
	path      string // fs: directory, s3: bucket/prefix
	dataset   string
	region    string
	endpoint  string
	pathStyle bool
}

func (s storageChoice) enabled() bool {
	return s.backend != "" || s.path != ""
}

func parseStorageChoice(c *cli.Context, cfg *config.Config) storageChoice {
	sc := storageChoice{
		backend:   resolveString(c, "storage-backend", configVal(cfg, func(c *config.Config) string { return c.Storage.Backend })),
		path:      resolveString(c, "storage-path", configVal(cfg, func(c *config.Config) string { return c.Storage.Path })),
		dataset:   resolveString(c, "storage-dataset", configVal(cfg, func(c *config.Config) string { return c.Storage.Dataset })),
		region:    resolveString(c, "storage-region", configVal(cfg, func(c *config.Config) string { return c.Storage.Region })),
		endpoint:  resolveString(c, "storage-endpoint", configVal(cfg, func(c *config.Config) string { return c.Storage.Endpoint })),
		pathStyle: resolveBool(c, "storage-s3-path-style", configVal(cfg, func(c *config.Config) bool { return c.Storage.S3PathStyle })),
	}
	if sc.backend == "" && sc.path != "" {
		sc.backend = "fs"
	}
	if sc.dataset == "" {
		sc.dataset = lode.DefaultDataset
	}
	return sc
}

// validateStorageConfig checks the archive settings with actionable
// messages.
func validateStorageConfig(sc storageChoice) error {
	switch sc.backend {
	case "fs":
		if sc.path == "" {
			return fmt.Errorf("--storage-path required for fs backend\n  Example: --storage-path ./sessions")
		}
		info, err := os.Stat(sc.path)
		if os.IsNotExist(err) {
			return fmt.Errorf("storage path %q does not exist\n  Create it with: mkdir -p %s", sc.path, sc.path)
		}
		if err != nil {
			return fmt.Errorf("cannot access storage path %q: %w", sc.path, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("storage path %q is not a directory", sc.path)
		}
		return nil
	case "s3":
		if sc.path == "" {
			return fmt.Errorf("--storage-path required for s3 backend\n  Format: bucket-name/optional-prefix")
		}
		s3cfg := sc.s3Config()
		if err := s3cfg.Validate(); err != nil {
			return fmt.Errorf("invalid --storage-path %q: %w\n  Format: bucket-name/optional-prefix", sc.path, err)
		}
		return nil
	default:
		return fmt.Errorf("invalid --storage-backend %q\n  Valid options: fs, s3", sc.backend)
	}
}

func (sc storageChoice) s3Config() lode.S3Config {
	bucket, prefix := lode.ParseS3Path(sc.path)
	return lode.S3Config{
		Bucket:       bucket,
		Prefix:       prefix,
		Region:       sc.region,
		Endpoint:     sc.endpoint,
		UsePathStyle: sc.pathStyle,
	}
}

func (sc storageChoice) factory(ctx context.Context) (lodelib.StoreFactory, error) {
	switch sc.backend {
	case "fs":
		return lodelib.NewFSFactory(sc.path), nil
	case "s3":
		return lode.S3Factory(ctx, sc.s3Config())
	default:
		return nil, fmt.Errorf("unknown storage backend: %s (must be fs or s3)", sc.backend)
	}
}

// buildArchive opens the session archive, instrumented on collector.
// Returns a nil archive when storage is not configured.
func buildArchive(ctx context.Context, sc storageChoice, collector *metrics.Collector) (lode.Archive, error) {
	if !sc.enabled() {
		return nil, nil
	}
	if err := validateStorageConfig(sc); err != nil {
		return nil, err
	}
	factory, err := sc.factory(ctx)
	if err != nil {
		return nil, err
	}
	client, err := lode.NewClientWithFactory(lode.Config{Dataset: sc.dataset}, factory)
	if err != nil {
		return nil, err
	}
	return lode.NewInstrumentedArchive(client, collector), nil
}

// openHistory opens the session dataset for queries.
func openHistory(ctx context.Context, sc storageChoice) (lodelib.Dataset, error) {
	if !sc.enabled() {
		return nil, fmt.Errorf("history needs a session archive\n  Set --storage-path or storage.path in %s", config.DefaultFile)
	}
	if err := validateStorageConfig(sc); err != nil {
		return nil, err
	}
	factory, err := sc.factory(ctx)
	if err != nil {
		return nil, err
	}
	return lode.NewReadDataset(sc.dataset, factory)
}

// buildStoragePath renders the partition location of one session for
// display and downstream events.
func buildStoragePath(sc storageChoice, dataset, board, day, sessionID string) string {
	partition := fmt.Sprintf("datasets/%s/partitions/board=%s/day=%s/session_id=%s", dataset, board, day, sessionID)
	switch sc.backend {
	case "fs":
		abs, err := filepath.Abs(sc.path)
		if err != nil {
			abs = sc.path
		}
		return "file://" + filepath.ToSlash(filepath.Join(abs, partition))
	case "s3":
		bucket, prefix := lode.ParseS3Path(sc.path)
		if prefix = strings.Trim(prefix, "/"); prefix != "" {
			return fmt.Sprintf("s3://%s/%s/%s", bucket, prefix, partition)
		}
		return fmt.Sprintf("s3://%s/%s", bucket, partition)
	default:
		return partition
	}
}

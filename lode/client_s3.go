package lode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/justapithecus/lode/lode"
	lodes3 "github.com/justapithecus/lode/lode/s3"
)

// S3Config locates the session archive in an S3-compatible bucket.
type S3Config struct {
	Bucket string
	// Prefix is prepended to every key. Empty stores at the bucket root.
	Prefix string
	// Region overrides the default AWS chain.
	Region string
	// Endpoint targets S3-compatible providers such as MinIO or R2.
	Endpoint     string
	UsePathStyle bool
}

// Validate checks the bucket name against the S3 naming rules that
// matter for a typo: length and allowed characters.
func (c *S3Config) Validate() error {
	if c.Bucket == "" {
		return errors.New("S3 bucket is required")
	}
	if n := len(c.Bucket); n < 3 || n > 63 {
		return fmt.Errorf("S3 bucket %q must be 3-63 characters", c.Bucket)
	}
	for _, r := range c.Bucket {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' && r != '.' {
			return fmt.Errorf("S3 bucket %q may only contain lowercase letters, digits, '-' and '.'", c.Bucket)
		}
	}
	return nil
}

// ParseS3Path splits "bucket/prefix". An s3:// scheme and stray slashes
// are tolerated.
func ParseS3Path(path string) (bucket, prefix string) {
	path = strings.Trim(strings.TrimPrefix(path, "s3://"), "/")
	bucket, prefix, _ = strings.Cut(path, "/")
	return bucket, strings.Trim(prefix, "/")
}

// S3Factory returns a store factory for s3cfg. Credentials come from the
// AWS default chain.
func S3Factory(ctx context.Context, s3cfg S3Config) (lode.StoreFactory, error) {
	if err := s3cfg.Validate(); err != nil {
		return nil, err
	}

	var loadOpts []func(*config.LoadOptions) error
	if s3cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(s3cfg.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if s3cfg.Endpoint != "" {
			o.BaseEndpoint = &s3cfg.Endpoint
		}
		o.UsePathStyle = s3cfg.UsePathStyle
	})

	return func() (lode.Store, error) {
		return lodes3.New(client, lodes3.Config{Bucket: s3cfg.Bucket, Prefix: s3cfg.Prefix})
	}, nil
}

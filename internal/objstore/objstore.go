// Package objstore mirrors committed artifacts to object storage. It
// supports S3-compatible endpoints, Azure Blob Storage, and Google Cloud
// Storage behind one upload interface.
package objstore

import (
	"context"
	"fmt"

	"sgx-ingest/internal/config"
)

// ObjectStore uploads one local file to a bucket under a key.
// Implementations: S3Store, AzureStore, GCSStore.
type ObjectStore interface {
	Put(ctx context.Context, bucket, key, localPath string) error
	Kind() string
}

// NewFromConfig builds the configured backend. An empty backend returns
// (nil, nil): publishing is disabled and the Publisher no-ops.
func NewFromConfig(ctx context.Context, cfg *config.Config) (ObjectStore, error) {
	switch cfg.ObjectStoreBackend {
	case "":
		return nil, nil
	case "s3":
		return NewS3Store(cfg)
	case "azure":
		return NewAzureStore(cfg)
	case "gcs":
		return NewGCSStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported object store backend %q", cfg.ObjectStoreBackend)
	}
}

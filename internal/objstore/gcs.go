package objstore

import (
	"context"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"sgx-ingest/internal/config"
)

// Compile-time check: GCSStore implements ObjectStore.
var _ ObjectStore = (*GCSStore)(nil)

// GCSStore uploads artifacts to Google Cloud Storage.
type GCSStore struct {
	client *storage.Client
}

// NewGCSStore creates a store authenticated by a service account key file.
func NewGCSStore(ctx context.Context, cfg *config.Config) (*GCSStore, error) {
	if cfg.GCSCredentialsFile == "" {
		return nil, fmt.Errorf("GCS credentials file is required")
	}

	client, err := storage.NewClient(ctx, option.WithAuthCredentialsFile(option.ServiceAccount, cfg.GCSCredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}

	return &GCSStore{client: client}, nil
}

// Put uploads localPath to bucket under key.
func (s *GCSStore) Put(ctx context.Context, bucket, key, localPath string) error {
	f, err := os.Open(localPath) //nolint:gosec // path comes from our own staging
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close() //nolint:errcheck

	w := s.client.Bucket(bucket).Object(key).NewWriter(ctx)
	if _, err := io.Copy(w, f); err != nil {
		w.Close() //nolint:errcheck,gosec
		return fmt.Errorf("write gs://%s/%s: %w", bucket, key, err)
	}
	// The write is not durable until Close returns.
	if err := w.Close(); err != nil {
		return fmt.Errorf("close gs://%s/%s: %w", bucket, key, err)
	}
	return nil
}

// Kind returns the backend name.
func (s *GCSStore) Kind() string { return "gcs" }

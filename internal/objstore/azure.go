package objstore

import (
	"context"
	"fmt"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"sgx-ingest/internal/config"
)

// Compile-time check: AzureStore implements ObjectStore.
var _ ObjectStore = (*AzureStore)(nil)

// AzureStore uploads artifacts to Azure Blob Storage. Only account-key
// authentication is supported; the bucket name maps to a blob container.
type AzureStore struct {
	client *azblob.Client
}

// NewAzureStore creates a store from the account name and shared key.
func NewAzureStore(cfg *config.Config) (*AzureStore, error) {
	if !cfg.HasAzureConfig() {
		return nil, fmt.Errorf("Azure config is incomplete")
	}

	cred, err := azblob.NewSharedKeyCredential(cfg.AzureAccountName, cfg.AzureAccountKey)
	if err != nil {
		return nil, fmt.Errorf("create shared key credential: %w", err)
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net", cfg.AzureAccountName)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create Azure blob client: %w", err)
	}

	return &AzureStore{client: client}, nil
}

// Put uploads localPath to the container under key.
func (s *AzureStore) Put(ctx context.Context, bucket, key, localPath string) error {
	f, err := os.Open(localPath) //nolint:gosec // path comes from our own staging
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close() //nolint:errcheck

	if _, err := s.client.UploadFile(ctx, bucket, key, f, nil); err != nil {
		return fmt.Errorf("upload az://%s/%s: %w", bucket, key, err)
	}
	return nil
}

// Kind returns the backend name.
func (s *AzureStore) Kind() string { return "azure" }

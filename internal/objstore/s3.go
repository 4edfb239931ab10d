package objstore

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"sgx-ingest/internal/config"
)

// Compile-time check: S3Store implements ObjectStore.
var _ ObjectStore = (*S3Store)(nil)

// S3Store uploads artifacts to S3-compatible object storage (AWS, MinIO,
// Hetzner). It uses the AWS SDK v2, configured with path-style addressing
// so bucket-in-path endpoints keep working.
type S3Store struct {
	client *s3.Client
}

// NewS3Store creates a store from the static credential quartet.
func NewS3Store(cfg *config.Config) (*S3Store, error) {
	if !cfg.HasS3Config() {
		return nil, fmt.Errorf("S3 config is incomplete")
	}

	endpoint := fmt.Sprintf("https://%s", *cfg.S3Endpoint)

	client := s3.New(s3.Options{
		Region: *cfg.S3Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			*cfg.S3KeyID, *cfg.S3Secret, "",
		),
		BaseEndpoint: aws.String(endpoint),
		UsePathStyle: true, // MinIO and Hetzner require path-style URLs
	})

	return &S3Store{client: client}, nil
}

// Put uploads localPath to bucket under key.
func (s *S3Store) Put(ctx context.Context, bucket, key, localPath string) error {
	f, err := os.Open(localPath) //nolint:gosec // path comes from our own staging
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close() //nolint:errcheck

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}

// Kind returns the backend name.
func (s *S3Store) Kind() string { return "s3" }

package objstore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sgx-ingest/internal/config"
	"sgx-ingest/internal/domain"
)

// fakeStore records uploads and delegates behaviour to PutFn.
type fakeStore struct {
	PutFn   func(ctx context.Context, bucket, key, localPath string) error
	buckets []string
	keys    []string
}

func (f *fakeStore) Put(ctx context.Context, bucket, key, localPath string) error {
	f.buckets = append(f.buckets, bucket)
	f.keys = append(f.keys, key)
	if f.PutFn != nil {
		return f.PutFn(ctx, bucket, key, localPath)
	}
	return nil
}

func (f *fakeStore) Kind() string { return "fake" }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPublisher(store ObjectStore, retryCount int) *Publisher {
	cfg := &config.Config{
		Bucket:          "datalake",
		WarehousePrefix: "derivative_data",
		PublishTimeout:  time.Minute,
		RetryCount:      retryCount,
	}
	return NewPublisher(store, cfg, discardLogger())
}

func stageFile(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte("payload"), 0o644))
	return p
}

func TestPublisher_FlatKeyShape(t *testing.T) {
	store := &fakeStore{}
	pub := newTestPublisher(store, 0)

	local := stageFile(t, "WEBPXTICK_DT_2024-03-07.zip")
	require.NoError(t, pub.PublishFlat(context.Background(), local, "raw"))

	require.Len(t, store.keys, 1)
	assert.Equal(t, "datalake", store.buckets[0])
	assert.Equal(t, "raw/WEBPXTICK_DT_2024-03-07.zip", store.keys[0])
}

func TestPublisher_WarehouseKeyShape(t *testing.T) {
	store := &fakeStore{}
	pub := newTestPublisher(store, 0)

	local := stageFile(t, "WEBPXTICK_DT-20240307.csv")
	date := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)
	require.NoError(t, pub.PublishWarehouse(context.Background(), local, "WEBPXTICK_DT", date))

	require.Len(t, store.keys, 1)
	assert.Equal(t, "derivative_data/WEBPXTICK_DT/year=2024/month=03/day=07/WEBPXTICK_DT-20240307.csv", store.keys[0])
}

func TestPublisher_AppliesUploadTimeout(t *testing.T) {
	store := &fakeStore{
		PutFn: func(ctx context.Context, _, _, _ string) error {
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			return nil
		},
	}
	pub := newTestPublisher(store, 0)

	local := stageFile(t, "a.dat")
	require.NoError(t, pub.PublishFlat(context.Background(), local, "raw"))
}

func TestPublisher_RetriesTransientFailure(t *testing.T) {
	calls := 0
	store := &fakeStore{
		PutFn: func(context.Context, string, string, string) error {
			calls++
			if calls == 1 {
				return errors.New("connection reset")
			}
			return nil
		},
	}
	pub := newTestPublisher(store, 1)

	local := stageFile(t, "a.dat")
	require.NoError(t, pub.PublishFlat(context.Background(), local, "raw"))
	assert.Equal(t, 2, calls)
}

func TestPublisher_ExhaustedRetriesYieldPublishError(t *testing.T) {
	store := &fakeStore{
		PutFn: func(context.Context, string, string, string) error {
			return errors.New("access denied")
		},
	}
	pub := newTestPublisher(store, 0)

	local := stageFile(t, "a.dat")
	err := pub.PublishFlat(context.Background(), local, "raw")
	require.Error(t, err)

	var pubErr *domain.PublishError
	require.ErrorAs(t, err, &pubErr)
	assert.Contains(t, pubErr.Error(), "raw/a.dat")
}

func TestPublisher_NilBackendNoop(t *testing.T) {
	pub := newTestPublisher(nil, 0)
	assert.False(t, pub.Enabled())

	local := stageFile(t, "a.dat")
	require.NoError(t, pub.PublishFlat(context.Background(), local, "raw"))
	require.NoError(t, pub.PublishWarehouse(context.Background(), local, "T", time.Now()))
}

package warehouse

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sgx-ingest/internal/domain"
)

// fakePublisher records publish calls and delegates to WarehouseFn.
type fakePublisher struct {
	WarehouseFn func(ctx context.Context, localPath, table string, date time.Time) error
	published   []string
	disabled    bool
}

func (f *fakePublisher) PublishFlat(context.Context, string, string) error { return nil }

func (f *fakePublisher) PublishWarehouse(ctx context.Context, localPath, table string, date time.Time) error {
	f.published = append(f.published, localPath)
	if f.WarehouseFn != nil {
		return f.WarehouseFn(ctx, localPath, table, date)
	}
	return nil
}

func (f *fakePublisher) Enabled() bool { return !f.disabled }

func stageMembers(t *testing.T, names ...string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "extract-test")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("member "+name), 0o644))
	}
	return dir
}

func TestPartitioner_PartitionDirShape(t *testing.T) {
	p := NewPartitioner("/data/warehouse", &fakePublisher{}, discardLogger())
	date := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)
	assert.Equal(t,
		filepath.Join("/data/warehouse", "WEBPXTICK_DT", "year=2024", "month=03", "day=07"),
		p.PartitionDir("WEBPXTICK_DT", date))
}

func TestPartitioner_DistributeThreeMembers(t *testing.T) {
	warehouseDir := t.TempDir()
	pub := &fakePublisher{}
	p := NewPartitioner(warehouseDir, pub, discardLogger())

	staging := stageMembers(t, "a.csv", "b.csv", "c.csv")
	date := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)

	objects, err := p.Distribute(context.Background(), staging, "WEBPXTICK_DT", date)
	require.NoError(t, err)
	require.Len(t, objects, 3)

	destDir := p.PartitionDir("WEBPXTICK_DT", date)
	for _, obj := range objects {
		assert.Equal(t, "WEBPXTICK_DT", obj.Table)
		assert.True(t, obj.Published)
		assert.FileExists(t, filepath.Join(destDir, obj.Filename))
	}

	// Each member was published from its warehouse location.
	assert.Len(t, pub.published, 3)
	for _, path := range pub.published {
		assert.Equal(t, destDir, filepath.Dir(path))
	}

	// The extraction directory is gone.
	assert.NoDirExists(t, staging)
}

func TestPartitioner_PublishFailureKeepsLocalCopies(t *testing.T) {
	warehouseDir := t.TempDir()
	pub := &fakePublisher{
		WarehouseFn: func(_ context.Context, localPath, _ string, _ time.Time) error {
			if filepath.Base(localPath) == "b.csv" {
				return errors.New("bucket unavailable")
			}
			return nil
		},
	}
	p := NewPartitioner(warehouseDir, pub, discardLogger())

	staging := stageMembers(t, "a.csv", "b.csv", "c.csv")
	date := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)

	objects, err := p.Distribute(context.Background(), staging, "WEBPXTICK_DT", date)
	require.NoError(t, err)
	require.Len(t, objects, 3)

	destDir := p.PartitionDir("WEBPXTICK_DT", date)
	byName := make(map[string]domain.WarehouseObject, len(objects))
	for _, obj := range objects {
		byName[obj.Filename] = obj
		assert.FileExists(t, filepath.Join(destDir, obj.Filename))
	}
	assert.True(t, byName["a.csv"].Published)
	assert.False(t, byName["b.csv"].Published)
	assert.True(t, byName["c.csv"].Published)
}

func TestPartitioner_DisabledPublisherLeavesUnpublished(t *testing.T) {
	warehouseDir := t.TempDir()
	pub := &fakePublisher{disabled: true}
	p := NewPartitioner(warehouseDir, pub, discardLogger())

	staging := stageMembers(t, "a.csv")
	date := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)

	objects, err := p.Distribute(context.Background(), staging, "WEBPXTICK_DT", date)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.False(t, objects[0].Published)
}

func TestPartitioner_MoveFailureAborts(t *testing.T) {
	warehouseDir := t.TempDir()
	p := NewPartitioner(warehouseDir, &fakePublisher{}, discardLogger())

	staging := stageMembers(t, "a.csv")
	date := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)

	// A directory squatting on the member's destination makes the move fail.
	destDir := p.PartitionDir("WEBPXTICK_DT", date)
	require.NoError(t, os.MkdirAll(filepath.Join(destDir, "a.csv"), 0o755))

	_, err := p.Distribute(context.Background(), staging, "WEBPXTICK_DT", date)
	require.Error(t, err)

	var storeErr *domain.StoreError
	assert.ErrorAs(t, err, &storeErr)
}

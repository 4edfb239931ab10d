package warehouse

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"sgx-ingest/internal/domain"
	"sgx-ingest/internal/fsx"
)

// Compile-time check: Partitioner implements domain.WarehouseDistributor.
var _ domain.WarehouseDistributor = (*Partitioner)(nil)

// Partitioner moves extracted container members into the warehouse
// partition tree and mirrors each one to the object store.
type Partitioner struct {
	warehouseDir string
	publisher    domain.ArtifactPublisher
	logger       *slog.Logger
}

// NewPartitioner creates a Partitioner rooted at warehouseDir.
func NewPartitioner(warehouseDir string, publisher domain.ArtifactPublisher, logger *slog.Logger) *Partitioner {
	return &Partitioner{
		warehouseDir: warehouseDir,
		publisher:    publisher,
		logger:       logger.With("component", "partitioner"),
	}
}

// PartitionDir returns the absolute partition directory for a table and date.
func (p *Partitioner) PartitionDir(table string, date time.Time) string {
	return filepath.Join(p.warehouseDir, filepath.FromSlash(domain.PartitionPath(table, date)))
}

// Distribute moves every regular file under stagingDir into the partition
// directory for (table, date), publishing each member as it lands. Move
// failures abort with a StoreError; publish failures are logged per member
// and never undo local placement, the local tree stays authoritative. The
// emptied staging directory is removed best-effort.
func (p *Partitioner) Distribute(ctx context.Context, stagingDir, table string, date time.Time) ([]domain.WarehouseObject, error) {
	destDir := p.PartitionDir(table, date)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, domain.ErrStore("create partition %s: %v", destDir, err)
	}

	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		return nil, domain.ErrStore("read extraction dir %s: %v", stagingDir, err)
	}

	var objects []domain.WarehouseObject
	for _, entry := range entries {
		if entry.IsDir() {
			p.logger.Debug("skipping nested directory in container", "name", entry.Name())
			continue
		}

		src := filepath.Join(stagingDir, entry.Name())
		dst := filepath.Join(destDir, entry.Name())
		if err := fsx.Move(src, dst); err != nil {
			return objects, domain.ErrStore("place member %s: %v", entry.Name(), err)
		}

		obj := domain.WarehouseObject{Table: table, Date: date, Filename: entry.Name()}
		if err := p.publisher.PublishWarehouse(ctx, dst, table, date); err != nil {
			p.logger.Warn("publish failed, keeping local copy",
				"member", entry.Name(), "error", err)
		} else {
			obj.Published = p.publisher.Enabled()
		}
		objects = append(objects, obj)
	}

	if err := os.RemoveAll(stagingDir); err != nil {
		p.logger.Warn("could not remove extraction dir", "dir", stagingDir, "error", err)
	}

	p.logger.Info("distributed container members",
		"table", table,
		"partition", domain.PartitionPath(table, date),
		"members", len(objects))
	return objects, nil
}

package objstore

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"time"

	"sgx-ingest/internal/config"
	"sgx-ingest/internal/domain"
	"sgx-ingest/internal/retry"
)

// Compile-time check: Publisher implements domain.ArtifactPublisher.
var _ domain.ArtifactPublisher = (*Publisher)(nil)

// Publisher mirrors local artifacts to the object store under deterministic
// keys. Failed uploads never disturb the local stores: the artifact stays
// durable on disk and the next run republishes it.
type Publisher struct {
	store           ObjectStore
	bucket          string
	warehousePrefix string
	timeout         time.Duration
	retryCount      int
	logger          *slog.Logger
}

// NewPublisher wires a backend to the bucket and retry policy. A nil store
// disables publishing; both Publish methods become logged no-ops so the
// pipeline keeps running local-only.
func NewPublisher(store ObjectStore, cfg *config.Config, logger *slog.Logger) *Publisher {
	return &Publisher{
		store:           store,
		bucket:          cfg.Bucket,
		warehousePrefix: cfg.WarehousePrefix,
		timeout:         cfg.PublishTimeout,
		retryCount:      cfg.RetryCount,
		logger:          logger.With("component", "publisher"),
	}
}

// Enabled reports whether a backend is configured.
func (p *Publisher) Enabled() bool { return p.store != nil }

// PublishFlat uploads localPath under "<prefix>/<basename>".
func (p *Publisher) PublishFlat(ctx context.Context, localPath, prefix string) error {
	key := path.Join(prefix, filepath.Base(localPath))
	return p.put(ctx, localPath, key)
}

// PublishWarehouse uploads localPath under the partition-mirroring key
// "<warehousePrefix>/<table>/year=<YYYY>/month=<MM>/day=<DD>/<basename>".
func (p *Publisher) PublishWarehouse(ctx context.Context, localPath, table string, date time.Time) error {
	key := path.Join(p.warehousePrefix, domain.PartitionPath(table, date), filepath.Base(localPath))
	return p.put(ctx, localPath, key)
}

// put uploads with bounded retry. Each attempt gets its own timeout so a
// stalled transfer cannot hold the whole run.
func (p *Publisher) put(ctx context.Context, localPath, key string) error {
	if p.store == nil {
		p.logger.Debug("object store disabled, skipping publish", "key", key)
		return nil
	}

	err := retry.Do(ctx, p.logger, fmt.Sprintf("publish %s", key), p.retryCount, func() error {
		putCtx := ctx
		if p.timeout > 0 {
			var cancel context.CancelFunc
			putCtx, cancel = context.WithTimeout(ctx, p.timeout)
			defer cancel()
		}
		return p.store.Put(putCtx, p.bucket, key, localPath)
	})
	if err != nil {
		return domain.ErrPublish("upload %s to %s/%s: %v", filepath.Base(localPath), p.bucket, key, err)
	}

	p.logger.Info("published artifact",
		"backend", p.store.Kind(),
		"bucket", p.bucket,
		"key", key)
	return nil
}

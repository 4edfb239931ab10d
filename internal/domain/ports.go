package domain

import (
	"context"
	"time"
)

// CatalogSource resolves which release to ingest.
// Implemented by feed.Client.
type CatalogSource interface {
	// ListAvailable returns the feed's items sorted most recent first,
	// with undated or keyless entries dropped.
	ListAvailable(ctx context.Context) ([]CatalogItem, error)
	// Select returns the most recent item when target is nil, or the item
	// whose date exactly matches target. No match yields a NoDateError
	// carrying the available dates.
	Select(ctx context.Context, target *time.Time) (*CatalogItem, error)
}

// ArtifactFetcher downloads one named artifact into the staging area.
// Implemented by feed.Fetcher.
type ArtifactFetcher interface {
	Fetch(ctx context.Context, key, filename string) (StagedArtifact, error)
}

// VersionStore commits staged content under SCD-2 versioning and serves
// the read side of the version table.
// Implemented by version.Store.
type VersionStore interface {
	Commit(ctx context.Context, fileName string, staged StagedArtifact, destDir string, asOf time.Time) (CommitOutcome, error)
	Current(ctx context.Context, fileName string) (*VersionRecord, error)
	ListCurrent(ctx context.Context) ([]VersionRecord, error)
	History(ctx context.Context, fileName string) ([]VersionRecord, error)
}

// ContainerExtractor unpacks a zip container into a fresh staging
// directory and returns that directory.
// Implemented by warehouse.Extractor.
type ContainerExtractor interface {
	Extract(containerPath string) (string, error)
}

// WarehouseDistributor moves extracted members into the partition layout
// and publishes each one.
// Implemented by warehouse.Partitioner.
type WarehouseDistributor interface {
	Distribute(ctx context.Context, stagingDir, table string, date time.Time) ([]WarehouseObject, error)
}

// ArtifactPublisher mirrors local artifacts to the object store under
// deterministic keys. Implemented by objstore.Publisher.
type ArtifactPublisher interface {
	// PublishFlat uploads under "<prefix>/<basename>".
	PublishFlat(ctx context.Context, localPath, prefix string) error
	// PublishWarehouse uploads under the partition-mirroring key
	// "<rootPrefix>/<table>/year=<Y>/month=<MM>/day=<DD>/<basename>".
	PublishWarehouse(ctx context.Context, localPath, table string, date time.Time) error
	// Enabled reports whether an object store backend is configured.
	// When false both Publish methods are no-ops.
	Enabled() bool
}

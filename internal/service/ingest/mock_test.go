package ingest

import (
	"context"
	"time"

	"sgx-ingest/internal/domain"
)

// === Catalog Source Mock ===

type mockCatalog struct {
	listAvailableFn func(ctx context.Context) ([]domain.CatalogItem, error)
	selectFn        func(ctx context.Context, target *time.Time) (*domain.CatalogItem, error)
}

func (m *mockCatalog) ListAvailable(ctx context.Context) ([]domain.CatalogItem, error) {
	if m.listAvailableFn != nil {
		return m.listAvailableFn(ctx)
	}
	panic("unexpected call to mockCatalog.ListAvailable")
}

func (m *mockCatalog) Select(ctx context.Context, target *time.Time) (*domain.CatalogItem, error) {
	if m.selectFn != nil {
		return m.selectFn(ctx, target)
	}
	panic("unexpected call to mockCatalog.Select")
}

// === Artifact Fetcher Mock ===

type mockFetcher struct {
	fetchFn func(ctx context.Context, key, filename string) (domain.StagedArtifact, error)
}

func (m *mockFetcher) Fetch(ctx context.Context, key, filename string) (domain.StagedArtifact, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, key, filename)
	}
	panic("unexpected call to mockFetcher.Fetch")
}

// === Version Store Mock ===

type mockVersions struct {
	commitFn      func(ctx context.Context, fileName string, staged domain.StagedArtifact, destDir string, asOf time.Time) (domain.CommitOutcome, error)
	currentFn     func(ctx context.Context, fileName string) (*domain.VersionRecord, error)
	listCurrentFn func(ctx context.Context) ([]domain.VersionRecord, error)
	historyFn     func(ctx context.Context, fileName string) ([]domain.VersionRecord, error)
}

func (m *mockVersions) Commit(ctx context.Context, fileName string, staged domain.StagedArtifact, destDir string, asOf time.Time) (domain.CommitOutcome, error) {
	if m.commitFn != nil {
		return m.commitFn(ctx, fileName, staged, destDir, asOf)
	}
	panic("unexpected call to mockVersions.Commit")
}

func (m *mockVersions) Current(ctx context.Context, fileName string) (*domain.VersionRecord, error) {
	if m.currentFn != nil {
		return m.currentFn(ctx, fileName)
	}
	panic("unexpected call to mockVersions.Current")
}

func (m *mockVersions) ListCurrent(ctx context.Context) ([]domain.VersionRecord, error) {
	if m.listCurrentFn != nil {
		return m.listCurrentFn(ctx)
	}
	panic("unexpected call to mockVersions.ListCurrent")
}

func (m *mockVersions) History(ctx context.Context, fileName string) ([]domain.VersionRecord, error) {
	if m.historyFn != nil {
		return m.historyFn(ctx, fileName)
	}
	panic("unexpected call to mockVersions.History")
}

// === Container Extractor Mock ===

type mockExtractor struct {
	extractFn func(containerPath string) (string, error)
}

func (m *mockExtractor) Extract(containerPath string) (string, error) {
	if m.extractFn != nil {
		return m.extractFn(containerPath)
	}
	panic("unexpected call to mockExtractor.Extract")
}

// === Warehouse Distributor Mock ===

type mockDistributor struct {
	distributeFn func(ctx context.Context, stagingDir, table string, date time.Time) ([]domain.WarehouseObject, error)
}

func (m *mockDistributor) Distribute(ctx context.Context, stagingDir, table string, date time.Time) ([]domain.WarehouseObject, error) {
	if m.distributeFn != nil {
		return m.distributeFn(ctx, stagingDir, table, date)
	}
	panic("unexpected call to mockDistributor.Distribute")
}

// === Artifact Publisher Mock ===

type mockPublisher struct {
	publishFlatFn      func(ctx context.Context, localPath, prefix string) error
	publishWarehouseFn func(ctx context.Context, localPath, table string, date time.Time) error
	enabled            bool
}

func (m *mockPublisher) PublishFlat(ctx context.Context, localPath, prefix string) error {
	if m.publishFlatFn != nil {
		return m.publishFlatFn(ctx, localPath, prefix)
	}
	panic("unexpected call to mockPublisher.PublishFlat")
}

func (m *mockPublisher) PublishWarehouse(ctx context.Context, localPath, table string, date time.Time) error {
	if m.publishWarehouseFn != nil {
		return m.publishWarehouseFn(ctx, localPath, table, date)
	}
	panic("unexpected call to mockPublisher.PublishWarehouse")
}

func (m *mockPublisher) Enabled() bool { return m.enabled }

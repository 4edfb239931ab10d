// Package ingest orchestrates one end-to-end ingestion run: select a
// release from the catalog, fetch and version each artifact, unpack tick
// containers into the warehouse, and mirror everything to the object store.
package ingest

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"sgx-ingest/internal/config"
	"sgx-ingest/internal/domain"
)

// Service composes the pipeline components into runs. It owns no state of
// its own; the version store is the only shared-mutation point and
// serializes internally, so overlapping runs stay safe.
type Service struct {
	catalog     domain.CatalogSource
	fetcher     domain.ArtifactFetcher
	versions    domain.VersionStore
	extractor   domain.ContainerExtractor
	distributor domain.WarehouseDistributor
	publisher   domain.ArtifactPublisher
	cfg         *config.Config
	logger      *slog.Logger
}

// NewService wires the pipeline components together.
func NewService(
	catalog domain.CatalogSource,
	fetcher domain.ArtifactFetcher,
	versions domain.VersionStore,
	extractor domain.ContainerExtractor,
	distributor domain.WarehouseDistributor,
	publisher domain.ArtifactPublisher,
	cfg *config.Config,
	logger *slog.Logger,
) *Service {
	return &Service{
		catalog:     catalog,
		fetcher:     fetcher,
		versions:    versions,
		extractor:   extractor,
		distributor: distributor,
		publisher:   publisher,
		cfg:         cfg,
		logger:      logger.With("component", "ingest"),
	}
}

// artifactResult is what one artifact contributed to the run.
type artifactResult struct {
	stored    *domain.StoredArtifact
	warehouse []domain.WarehouseObject
}

// Run executes one ingestion run. A nil target selects the most recent
// release. Catalog failures abort the run; per-artifact failures are logged
// and isolated so the remaining artifacts proceed. A run that stored no
// changed content returns a nil outcome.
func (s *Service) Run(ctx context.Context, target *time.Time) (*domain.RunOutcome, error) {
	started := time.Now()

	item, err := s.catalog.Select(ctx, target)
	if err != nil {
		var noDate *domain.NoDateError
		if errors.As(err, &noDate) {
			s.logger.Error("no catalog item for requested date",
				"requested", noDate.Requested,
				"available", noDate.Available)
		}
		return nil, err
	}

	s.logger.Info("run selected release",
		"date", item.Date.Format(domain.ISODate),
		"display_date", item.DisplayDate,
		"key", item.Key,
		"artifacts", len(item.Artifacts))

	results := make([]artifactResult, len(item.Artifacts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(item.Artifacts)) // all artifacts in flight at once

	for i := range item.Artifacts {
		idx := i
		ref := item.Artifacts[i]
		g.Go(func() error {
			res, err := s.processArtifact(gctx, item, ref)
			if err != nil {
				s.logger.Error("artifact failed, continuing run",
					"kind", ref.Kind,
					"file", ref.Filename,
					"error", err)
				return nil // one artifact never sinks the others
			}
			results[idx] = res
			return nil
		})
	}
	_ = g.Wait() // closures always return nil

	outcome := &domain.RunOutcome{SelectedDate: item.Date.Format(domain.ISODate)}
	for _, res := range results {
		if res.stored == nil {
			continue
		}
		outcome.Stored = append(outcome.Stored, *res.stored)
		outcome.Warehouse = append(outcome.Warehouse, res.warehouse...)
	}

	if len(outcome.Stored) == 0 {
		s.logger.Info("run complete, no content changes",
			"date", outcome.SelectedDate,
			"duration", time.Since(started))
		return nil, nil
	}

	s.logger.Info("run complete",
		"date", outcome.SelectedDate,
		"stored", len(outcome.Stored),
		"warehouse_members", len(outcome.Warehouse),
		"duration", time.Since(started))
	return outcome, nil
}

// processArtifact runs one artifact through fetch, versioned commit, flat
// publish, and, for mapped containers, warehouse deployment.
func (s *Service) processArtifact(ctx context.Context, item *domain.CatalogItem, ref domain.ArtifactRef) (artifactResult, error) {
	staged, err := s.fetcher.Fetch(ctx, item.Key, ref.Filename)
	if err != nil {
		return artifactResult{}, err
	}

	destDir, prefix := s.route(ref.Kind)
	out, err := s.versions.Commit(ctx, ref.Filename, staged, destDir, item.Date)
	if err != nil {
		return artifactResult{}, err
	}
	if out.Status == domain.CommitUnchanged {
		s.logger.Info("artifact unchanged", "kind", ref.Kind, "file", ref.Filename)
		return artifactResult{}, nil
	}

	res := artifactResult{stored: &domain.StoredArtifact{
		Kind:       ref.Kind,
		FileName:   ref.Filename,
		StoredName: filepath.Base(out.Path),
		Path:       out.Path,
		Checksum:   out.Record.Checksum,
	}}

	// The version is durable from here on. Publish and warehouse failures
	// below are logged but never undo the commit.
	if err := s.publisher.PublishFlat(ctx, out.Path, prefix); err != nil {
		s.logger.Warn("flat publish failed, keeping local copy",
			"file", ref.Filename, "error", err)
	} else {
		res.stored.Published = s.publisher.Enabled()
	}

	if table, ok := s.cfg.TableFor(ref.Filename); ok {
		objects, err := s.deployContainer(ctx, out.Path, table, item.Date)
		if err != nil {
			s.logger.Error("container deployment failed, version kept",
				"file", ref.Filename,
				"table", table,
				"error", err)
		} else {
			res.warehouse = objects
		}
	}

	return res, nil
}

// route returns the durable directory and flat publish prefix for a kind.
// Schema artifacts land in the reference store, data artifacts in raw.
func (s *Service) route(kind domain.ArtifactKind) (destDir, prefix string) {
	if kind.IsSchema() {
		return s.cfg.ReferenceDir, s.cfg.ReferencePrefix
	}
	return s.cfg.RawDir, s.cfg.RawPrefix
}

// deployContainer unpacks a stored container and distributes its members
// into the warehouse partition for the release date.
func (s *Service) deployContainer(ctx context.Context, containerPath, table string, date time.Time) ([]domain.WarehouseObject, error) {
	dir, err := s.extractor.Extract(containerPath)
	if err != nil {
		return nil, err
	}
	return s.distributor.Distribute(ctx, dir, table, date)
}

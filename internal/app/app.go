// Package app provides application-level wiring and dependency injection
// for the ingestion service.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"sgx-ingest/internal/api"
	"sgx-ingest/internal/config"
	"sgx-ingest/internal/db/repository"
	"sgx-ingest/internal/feed"
	"sgx-ingest/internal/objstore"
	"sgx-ingest/internal/service/ingest"
	"sgx-ingest/internal/service/version"
	"sgx-ingest/internal/service/warehouse"
	"sgx-ingest/internal/ui"
)

// Deps holds the external dependencies that main() must provide.
// These are things the app package cannot (or should not) create itself:
// database handles, config, and the process logger.
type Deps struct {
	Cfg     *config.Config
	WriteDB *sql.DB
	ReadDB  *sql.DB
	Logger  *slog.Logger
}

// App holds the fully-wired application: the ingestion service, the
// version store the handlers read from, the optional scheduler, and the
// HTTP handlers for router setup.
type App struct {
	Ingest    *ingest.Service
	Versions  *version.Store
	Scheduler *ingest.Scheduler // nil when the scheduler is disabled
	API       *api.Handler
	UI        *ui.Handler
}

// New wires repositories, pipeline components, and handlers from the
// provided deps.
func New(ctx context.Context, deps Deps) (*App, error) {
	cfg := deps.Cfg

	versionRepo := repository.NewVersionRepo(deps.WriteDB, deps.ReadDB)
	versions := version.NewStore(versionRepo, deps.Logger)

	// One limiter across catalog requests and artifact downloads so the
	// process as a whole honors the feed's politeness limit.
	limiter := rate.NewLimiter(rate.Limit(cfg.FeedRPS), 1)
	catalog := feed.NewClient(cfg.FeedURL, cfg.FeedTimeout, limiter, deps.Logger)
	fetcher := feed.NewFetcher(cfg.LinksURL, cfg.StagingDir, cfg.FetchTimeout, limiter, cfg.RetryCount, deps.Logger)

	store, err := objstore.NewFromConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("object store: %w", err)
	}
	publisher := objstore.NewPublisher(store, cfg, deps.Logger)

	extractor := warehouse.NewExtractor(cfg.StagingDir, deps.Logger)
	partitioner := warehouse.NewPartitioner(cfg.WarehouseDir, publisher, deps.Logger)

	svc := ingest.NewService(catalog, fetcher, versions, extractor, partitioner, publisher, cfg, deps.Logger)

	var scheduler *ingest.Scheduler
	if cfg.SchedulerEnabled {
		scheduler = ingest.NewScheduler(svc, cfg.CronSpec, deps.Logger)
	}

	return &App{
		Ingest:    svc,
		Versions:  versions,
		Scheduler: scheduler,
		API:       api.NewHandler(svc, versions, cfg, deps.Logger),
		UI:        ui.NewHandler(versions, cfg),
	}, nil
}

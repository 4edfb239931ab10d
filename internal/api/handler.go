// Package api provides HTTP handlers for the ingestion service REST API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"sgx-ingest/internal/buildinfo"
	"sgx-ingest/internal/config"
	"sgx-ingest/internal/domain"
	"sgx-ingest/internal/feed"
	"sgx-ingest/internal/middleware"
)

// Runner executes one ingestion run. Implemented by ingest.Service.
type Runner interface {
	Run(ctx context.Context, target *time.Time) (*domain.RunOutcome, error)
}

// VersionReader is the read side of the version table.
// Implemented by version.Store.
type VersionReader interface {
	ListCurrent(ctx context.Context) ([]domain.VersionRecord, error)
	History(ctx context.Context, fileName string) ([]domain.VersionRecord, error)
}

// Handler serves the trigger and inspection endpoints.
type Handler struct {
	runner   Runner
	versions VersionReader
	cfg      *config.Config
	logger   *slog.Logger
}

// NewHandler creates a Handler with its service dependencies.
func NewHandler(runner Runner, versions VersionReader, cfg *config.Config, logger *slog.Logger) *Handler {
	return &Handler{
		runner:   runner,
		versions: versions,
		cfg:      cfg,
		logger:   logger.With("component", "api"),
	}
}

// MountRoutes attaches all API routes. The run trigger is the only
// mutating endpoint and the only one behind the service token.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/healthz", h.handleHealthz)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", h.handleStatus)
		r.With(middleware.ServiceToken(h.cfg.ServiceToken)).Post("/runs", h.handleTriggerRun)
		r.Get("/files", h.handleListFiles)
		r.Get("/files/{name}/versions", h.handleFileVersions)
	})
}

func (h *Handler) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	current, err := h.versions.ListCurrent(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	env := h.cfg.Env
	if env == "" {
		env = "development"
	}
	resp := statusResponse{
		Service:     "sgx-ingest",
		Version:     buildinfo.Version,
		Environment: env,
		ObjectStore: h.cfg.ObjectStoreBackend,
		Scheduler: schedulerStatus{
			Enabled: h.cfg.SchedulerEnabled,
			Spec:    h.cfg.CronSpec,
		},
		CurrentFiles: len(current),
	}
	if h.cfg.ObjectStoreBackend != "" {
		resp.Bucket = h.cfg.Bucket
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleTriggerRun(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		// Body is optional; an empty body means "latest".
		var req runRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			h.writeError(w, domain.ErrValidation("malformed request body: %v", err))
			return
		}
		raw = req.Date
	}

	var target *time.Time
	if raw != "" {
		d, err := feed.ParseTargetDate(raw)
		if err != nil {
			h.writeError(w, err)
			return
		}
		target = &d
	}

	outcome, err := h.runner.Run(r.Context(), target)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, runToAPI(outcome))
}

func (h *Handler) handleListFiles(w http.ResponseWriter, r *http.Request) {
	records, err := h.versions.ListCurrent(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	out := make([]fileVersion, 0, len(records))
	for i := range records {
		out = append(out, versionToAPI(&records[i]))
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleFileVersions(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	records, err := h.versions.History(r.Context(), name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if len(records) == 0 {
		h.writeError(w, domain.ErrNotFound("no versions recorded for %q", name))
		return
	}

	out := make([]fileVersion, 0, len(records))
	for i := range records {
		out = append(out, versionToAPI(&records[i]))
	}
	h.writeJSON(w, http.StatusOK, out)
}

// Package ui serves the read-only ops console: a service overview and a
// browsable view of the version table.
package ui

import (
	"context"
	"net/http"

	gomponents "maragu.dev/gomponents"

	"sgx-ingest/internal/config"
	"sgx-ingest/internal/domain"
)

// VersionReader is the read side of the version table, as the console
// needs it.
type VersionReader interface {
	ListCurrent(ctx context.Context) ([]domain.VersionRecord, error)
	History(ctx context.Context, fileName string) ([]domain.VersionRecord, error)
}

type Handler struct {
	Versions VersionReader
	Cfg      *config.Config
}

func NewHandler(versions VersionReader, cfg *config.Config) *Handler {
	return &Handler{Versions: versions, Cfg: cfg}
}

func renderHTML(w http.ResponseWriter, status int, node gomponents.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = node.Render(w)
}

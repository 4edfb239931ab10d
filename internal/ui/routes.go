package ui

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sgx-ingest/internal/ui/assets"
)

// MountRoutes attaches the ops pages and their stylesheet to r. The router
// is mounted under /ui, so the asset handler strips that prefix back off.
func MountRoutes(r chi.Router, h *Handler) {
	if static, err := fs.Sub(assets.Files(), "static"); err == nil {
		r.Handle("/static/*", http.StripPrefix("/ui/static/", http.FileServer(http.FS(static))))
	}

	r.Get("/", h.Home)
	r.Get("/files", h.FilesList)
	r.Get("/files/{name}", h.FileHistory)
}

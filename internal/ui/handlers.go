package ui

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sgx-ingest/internal/domain"
)

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	current, err := h.Versions.ListCurrent(r.Context())
	if err != nil {
		h.renderServiceError(w, err)
		return
	}

	env := h.Cfg.Env
	if env == "" {
		env = "development"
	}
	renderHTML(w, http.StatusOK, overviewPage(overviewData{
		Environment:  env,
		ObjectStore:  h.Cfg.ObjectStoreBackend,
		Bucket:       h.Cfg.Bucket,
		CronSpec:     h.Cfg.CronSpec,
		Scheduled:    h.Cfg.SchedulerEnabled,
		CurrentFiles: len(current),
		WarehouseDir: h.Cfg.WarehouseDir,
	}))
}

func (h *Handler) FilesList(w http.ResponseWriter, r *http.Request) {
	records, err := h.Versions.ListCurrent(r.Context())
	if err != nil {
		h.renderServiceError(w, err)
		return
	}

	rows := make([]fileRowData, 0, len(records))
	for i := range records {
		rec := records[i]
		rows = append(rows, fileRowData{
			FileName:    rec.FileName,
			VersionDate: rec.VersionDate,
			Checksum:    rec.Checksum,
			ValidFrom:   rec.ValidFrom,
		})
	}
	renderHTML(w, http.StatusOK, filesListPage(rows))
}

func (h *Handler) FileHistory(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	records, err := h.Versions.History(r.Context(), name)
	if err != nil {
		h.renderServiceError(w, err)
		return
	}
	if len(records) == 0 {
		h.renderServiceError(w, domain.ErrNotFound("no versions recorded for %q", name))
		return
	}

	rows := make([]versionRowData, 0, len(records))
	for i := range records {
		rec := records[i]
		row := versionRowData{
			VersionDate: rec.VersionDate,
			Checksum:    rec.Checksum,
			ValidFrom:   rec.ValidFrom,
			Current:     rec.IsCurrent(),
		}
		if rec.ValidTo != nil {
			row.ValidTo = *rec.ValidTo
		}
		rows = append(rows, row)
	}
	renderHTML(w, http.StatusOK, fileHistoryPage(name, rows))
}

func (h *Handler) renderServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	title := "Unexpected Error"
	message := "An unexpected error occurred while loading this page."

	var notFound *domain.NotFoundError
	var validation *domain.ValidationError
	if errors.As(err, &notFound) {
		status = http.StatusNotFound
		title = "Not Found"
		message = err.Error()
	} else if errors.As(err, &validation) {
		status = http.StatusBadRequest
		title = "Invalid Request"
		message = err.Error()
	}

	renderHTML(w, status, errorPage(title, message))
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"sgx-ingest/internal/domain"
)

// --- response types ---

type statusResponse struct {
	Service      string          `json:"service"`
	Version      string          `json:"version"`
	Environment  string          `json:"environment"`
	ObjectStore  string          `json:"object_store,omitempty"`
	Bucket       string          `json:"bucket,omitempty"`
	Scheduler    schedulerStatus `json:"scheduler"`
	CurrentFiles int             `json:"current_files"`
}

type schedulerStatus struct {
	Enabled bool   `json:"enabled"`
	Spec    string `json:"spec"`
}

type runRequest struct {
	Date string `json:"date"`
}

type runResponse struct {
	Changed      bool              `json:"changed"`
	SelectedDate string            `json:"selected_date,omitempty"`
	Stored       []storedArtifact  `json:"stored"`
	Warehouse    []warehouseObject `json:"warehouse,omitempty"`
}

type storedArtifact struct {
	Kind       string `json:"kind"`
	FileName   string `json:"file_name"`
	StoredName string `json:"stored_name"`
	Path       string `json:"path"`
	Checksum   string `json:"checksum"`
	Published  bool   `json:"published"`
}

type warehouseObject struct {
	Table     string `json:"table"`
	Date      string `json:"date"`
	Filename  string `json:"filename"`
	Published bool   `json:"published"`
}

type fileVersion struct {
	FileName    string  `json:"file_name"`
	VersionDate string  `json:"version_date"`
	Checksum    string  `json:"checksum"`
	ValidFrom   string  `json:"valid_from"`
	ValidTo     *string `json:"valid_to"`
	Current     bool    `json:"current"`
}

// errorResponse is the uniform error body. AvailableDates is populated
// only on a failed date match so callers can see what the feed offers.
type errorResponse struct {
	Code           int      `json:"code"`
	Message        string   `json:"message"`
	AvailableDates []string `json:"available_dates,omitempty"`
}

// --- mappers ---

// runToAPI converts a run outcome to its response shape. A nil outcome is
// the no-change case and maps to {changed: false, stored: []}.
func runToAPI(outcome *domain.RunOutcome) runResponse {
	resp := runResponse{Stored: []storedArtifact{}}
	if outcome == nil {
		return resp
	}
	resp.Changed = true
	resp.SelectedDate = outcome.SelectedDate
	for _, s := range outcome.Stored {
		resp.Stored = append(resp.Stored, storedArtifact{
			Kind:       string(s.Kind),
			FileName:   s.FileName,
			StoredName: s.StoredName,
			Path:       s.Path,
			Checksum:   s.Checksum,
			Published:  s.Published,
		})
	}
	for _, obj := range outcome.Warehouse {
		resp.Warehouse = append(resp.Warehouse, warehouseObject{
			Table:     obj.Table,
			Date:      obj.Date.Format(domain.ISODate),
			Filename:  obj.Filename,
			Published: obj.Published,
		})
	}
	return resp
}

func versionToAPI(r *domain.VersionRecord) fileVersion {
	return fileVersion{
		FileName:    r.FileName,
		VersionDate: r.VersionDate,
		Checksum:    r.Checksum,
		ValidFrom:   r.ValidFrom,
		ValidTo:     r.ValidTo,
		Current:     r.IsCurrent(),
	}
}

// --- writers ---

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := httpStatusFromDomainError(err)
	resp := errorResponse{Code: status, Message: err.Error()}

	var noDate *domain.NoDateError
	if errors.As(err, &noDate) {
		resp.AvailableDates = noDate.Available
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "status", status, "error", err)
	}
	h.writeJSON(w, status, resp)
}

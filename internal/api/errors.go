package api

import (
	"errors"
	"net/http"

	"sgx-ingest/internal/domain"
)

// httpStatusFromDomainError maps the error taxonomy onto HTTP statuses.
// Anything outside the taxonomy falls through to 500.
func httpStatusFromDomainError(err error) int {
	var (
		noDate     *domain.NoDateError
		notFound   *domain.NotFoundError
		validation *domain.ValidationError
		upstream   *domain.UpstreamError
	)

	switch {
	case errors.As(err, &noDate), errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

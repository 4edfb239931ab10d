// Package repository implements the version-table persistence layer using SQLite.
package repository

import (
	"database/sql"
	"errors"
	"strings"

	"sgx-ingest/internal/domain"
)

// mapDBError lifts driver errors into the domain taxonomy.
func mapDBError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return &domain.NotFoundError{Message: "record not found"}
	case strings.Contains(err.Error(), "UNIQUE constraint failed"):
		// The partial unique index rejected a second open interval.
		return domain.ErrStore("conflicting concurrent commit: %v", err)
	default:
		return err
	}
}

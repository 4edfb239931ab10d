// Package domain defines core types, interfaces, and errors for the ingestion pipeline.
package domain

import (
	"fmt"
	"strings"
)

// UpstreamError indicates the catalog feed was unreachable or returned
// a malformed response. Aborts the whole run.
type UpstreamError struct {
	Message string
}

func (e *UpstreamError) Error() string { return e.Message }

// NoDateError indicates the requested date is not in the feed's available
// window. Aborts the whole run; Available carries the dates the feed
// currently offers, for diagnostics.
type NoDateError struct {
	Requested string
	Available []string
}

func (e *NoDateError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("no catalog item for date %s", e.Requested)
	}
	return fmt.Sprintf("no catalog item for date %s; available: %s", e.Requested, strings.Join(e.Available, ", "))
}

// FetchError indicates a single artifact download failed (non-success
// status, truncated body, or transport error). Isolated to that artifact.
type FetchError struct {
	Message string
}

func (e *FetchError) Error() string { return e.Message }

// ArchiveError indicates a container failed to open or extract.
// Isolated to that artifact; the container file is left untouched.
type ArchiveError struct {
	Message string
}

func (e *ArchiveError) Error() string { return e.Message }

// StoreError indicates a filesystem or version-table write failed.
// The store must be left exactly as it was before the attempt.
type StoreError struct {
	Message string
}

func (e *StoreError) Error() string { return e.Message }

// PublishError indicates an object-store upload failed. Logged and skipped;
// the local commit stays authoritative and the key can be re-published.
type PublishError struct {
	Message string
}

func (e *PublishError) Error() string { return e.Message }

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ErrUpstream creates an UpstreamError with a formatted message.
func ErrUpstream(format string, args ...interface{}) *UpstreamError {
	return &UpstreamError{Message: fmt.Sprintf(format, args...)}
}

// ErrNoDate creates a NoDateError for the requested date.
func ErrNoDate(requested string, available []string) *NoDateError {
	return &NoDateError{Requested: requested, Available: available}
}

// ErrFetch creates a FetchError with a formatted message.
func ErrFetch(format string, args ...interface{}) *FetchError {
	return &FetchError{Message: fmt.Sprintf(format, args...)}
}

// ErrArchive creates an ArchiveError with a formatted message.
func ErrArchive(format string, args ...interface{}) *ArchiveError {
	return &ArchiveError{Message: fmt.Sprintf(format, args...)}
}

// ErrStore creates a StoreError with a formatted message.
func ErrStore(format string, args ...interface{}) *StoreError {
	return &StoreError{Message: fmt.Sprintf(format, args...)}
}

// ErrPublish creates a PublishError with a formatted message.
func ErrPublish(format string, args ...interface{}) *PublishError {
	return &PublishError{Message: fmt.Sprintf(format, args...)}
}

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Package version implements SCD-2 versioning of ingested artifacts over
// the SQLite version table and the local durable directories.
package version

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"sgx-ingest/internal/db/repository"
	"sgx-ingest/internal/domain"
	"sgx-ingest/internal/fsx"
)

// Compile-time check: Store implements domain.VersionStore.
var _ domain.VersionStore = (*Store)(nil)

// Store commits staged artifacts under SCD-2 versioning. Content-identical
// commits are dropped before anything is written; changed content is
// relocated into its durable directory inside the same transaction that
// records the new version, so the table and the directory move together.
type Store struct {
	repo   *repository.VersionRepo
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a Store over the version repository.
func NewStore(repo *repository.VersionRepo, logger *slog.Logger) *Store {
	return &Store{
		repo:   repo,
		logger: logger.With("component", "version-store"),
		locks:  make(map[string]*sync.Mutex),
	}
}

// Commit records staged content as the current version of fileName, dated
// asOf, relocating it into destDir under its versioned name. The staged file
// is always consumed: relocated on a store, deleted otherwise. When the
// staged checksum matches the current record, the table and directories are
// left untouched.
func (s *Store) Commit(ctx context.Context, fileName string, staged domain.StagedArtifact, destDir string, asOf time.Time) (domain.CommitOutcome, error) {
	lock := s.lockFor(fileName)
	lock.Lock()
	defer lock.Unlock()

	checksum, err := Checksum(staged.Path)
	if err != nil {
		s.discard(staged.Path)
		return domain.CommitOutcome{}, domain.ErrStore("checksum %s: %v", fileName, err)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		s.discard(staged.Path)
		return domain.CommitOutcome{}, domain.ErrStore("create destination %s: %v", destDir, err)
	}
	destPath := filepath.Join(destDir, versionedName(fileName, asOf))

	res, err := s.repo.Commit(ctx, repository.CommitParams{
		FileName:    fileName,
		VersionDate: asOf.Format(domain.ISODate),
		Checksum:    checksum,
		Relocate: func() error {
			if err := fsx.Move(staged.Path, destPath); err != nil {
				return domain.ErrStore("relocate %s: %v", fileName, err)
			}
			return nil
		},
		Undo: func() {
			if err := fsx.Move(destPath, staged.Path); err != nil {
				s.logger.Error("could not undo relocation after failed commit",
					"file", fileName, "path", destPath, "error", err)
			}
		},
	})
	if err != nil {
		s.discard(staged.Path)
		return domain.CommitOutcome{}, err
	}

	if res.Status == domain.CommitUnchanged {
		s.discard(staged.Path)
		s.logger.Info("content unchanged, keeping current version",
			"file", fileName, "version_date", res.Record.VersionDate)
		return domain.CommitOutcome{Status: domain.CommitUnchanged, Record: res.Record}, nil
	}

	s.logger.Info("stored new version",
		"file", fileName,
		"version_date", res.Record.VersionDate,
		"path", destPath)
	return domain.CommitOutcome{Status: domain.CommitStored, Path: destPath, Record: res.Record}, nil
}

// Current returns the open record for fileName, or nil when none exists.
func (s *Store) Current(ctx context.Context, fileName string) (*domain.VersionRecord, error) {
	return s.repo.Current(ctx, fileName)
}

// ListCurrent returns every file's open record, ordered by file name.
func (s *Store) ListCurrent(ctx context.Context) ([]domain.VersionRecord, error) {
	return s.repo.ListCurrent(ctx)
}

// History returns all recorded versions of fileName, newest first.
func (s *Store) History(ctx context.Context, fileName string) ([]domain.VersionRecord, error) {
	return s.repo.History(ctx, fileName)
}

// lockFor serializes commits of the same file_name within this process.
// Cross-process writers are serialized by the immediate transaction and the
// partial unique index on open records.
func (s *Store) lockFor(fileName string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.locks[fileName]
	if !ok {
		m = &sync.Mutex{}
		s.locks[fileName] = m
	}
	return m
}

// discard removes a consumed staging file. A missing file is fine; a failed
// relocation may already have emptied the path.
func (s *Store) discard(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("could not remove staged file", "path", path, "error", err)
	}
}

// versionedName derives the durable name "stem_YYYY-MM-DD.ext" so every
// stored version of a file stays distinguishable on disk.
func versionedName(fileName string, asOf time.Time) string {
	base := filepath.Base(fileName)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return fmt.Sprintf("%s_%s%s", stem, asOf.Format(domain.ISODate), ext)
}

// Checksum returns the hex-encoded SHA-256 of the file at path.
func Checksum(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from our own staging
	if err != nil {
		return "", err
	}
	defer f.Close() //nolint:errcheck

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

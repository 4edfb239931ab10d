package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sgx-ingest/internal/domain"
)

// VersionRepo persists file_versions rows. Writes go through the
// single-connection write pool with immediate transactions, so the
// read-compare-close-insert sequence of a commit is serialized even across
// processes; reads go through the read pool.
type VersionRepo struct {
	writeDB *sql.DB
	readDB  *sql.DB
}

// NewVersionRepo creates a VersionRepo backed by the given pool pair.
func NewVersionRepo(writeDB, readDB *sql.DB) *VersionRepo {
	return &VersionRepo{writeDB: writeDB, readDB: readDB}
}

const versionColumns = "id, file_name, version_date, checksum, valid_from, valid_to"

// CommitParams carries one SCD-2 commit attempt.
type CommitParams struct {
	FileName    string
	VersionDate string
	Checksum    string
	// Relocate runs inside the transaction window, after the new record is
	// inserted and before the commit. If it fails, the close and insert
	// roll back and the table is left untouched.
	Relocate func() error
	// Undo reverses Relocate when the transaction itself fails to commit.
	Undo func()
}

// CommitResult reports what a commit attempt did. Record is set only for
// CommitStored.
type CommitResult struct {
	Status domain.CommitStatus
	Record *domain.VersionRecord
}

// Commit runs the full SCD-2 write path for one file_name in a single
// immediate transaction: read the current record, return CommitUnchanged if
// its checksum matches, otherwise close it, insert the new open record, run
// Relocate, and commit. Either every step lands or none does.
func (r *VersionRepo) Commit(ctx context.Context, p CommitParams) (CommitResult, error) {
	tx, err := r.writeDB.BeginTx(ctx, nil)
	if err != nil {
		return CommitResult{}, fmt.Errorf("begin commit tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	cur, err := scanVersion(tx.QueryRowContext(ctx,
		"SELECT "+versionColumns+" FROM file_versions WHERE file_name = ? AND valid_to IS NULL",
		p.FileName,
	))
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return CommitResult{}, mapDBError(err)
	}

	if cur != nil && cur.Checksum == p.Checksum {
		return CommitResult{Status: domain.CommitUnchanged, Record: cur}, nil
	}

	if cur != nil {
		if _, err := tx.ExecContext(ctx,
			"UPDATE file_versions SET valid_to = ? WHERE id = ?",
			p.VersionDate, cur.ID,
		); err != nil {
			return CommitResult{}, mapDBError(err)
		}
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO file_versions (file_name, version_date, checksum, valid_from, valid_to) VALUES (?, ?, ?, ?, NULL)",
		p.FileName, p.VersionDate, p.Checksum, p.VersionDate,
	)
	if err != nil {
		return CommitResult{}, mapDBError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return CommitResult{}, fmt.Errorf("last insert id: %w", err)
	}

	if p.Relocate != nil {
		if err := p.Relocate(); err != nil {
			return CommitResult{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		if p.Undo != nil {
			p.Undo()
		}
		return CommitResult{}, fmt.Errorf("commit version tx: %w", err)
	}

	rec := &domain.VersionRecord{
		ID:          id,
		FileName:    p.FileName,
		VersionDate: p.VersionDate,
		Checksum:    p.Checksum,
		ValidFrom:   p.VersionDate,
	}
	return CommitResult{Status: domain.CommitStored, Record: rec}, nil
}

// Current returns the open record for fileName, or nil when the file has
// no current version.
func (r *VersionRepo) Current(ctx context.Context, fileName string) (*domain.VersionRecord, error) {
	rec, err := scanVersion(r.readDB.QueryRowContext(ctx,
		"SELECT "+versionColumns+" FROM file_versions WHERE file_name = ? AND valid_to IS NULL",
		fileName,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapDBError(err)
	}
	return rec, nil
}

// ListCurrent returns every open record ordered by file_name.
func (r *VersionRepo) ListCurrent(ctx context.Context) ([]domain.VersionRecord, error) {
	rows, err := r.readDB.QueryContext(ctx,
		"SELECT "+versionColumns+" FROM file_versions WHERE valid_to IS NULL ORDER BY file_name",
	)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close() //nolint:errcheck
	return collectVersions(rows)
}

// History returns all records for fileName, newest first. An unknown
// file_name yields a NotFoundError.
func (r *VersionRepo) History(ctx context.Context, fileName string) ([]domain.VersionRecord, error) {
	rows, err := r.readDB.QueryContext(ctx,
		"SELECT "+versionColumns+" FROM file_versions WHERE file_name = ? ORDER BY valid_from DESC, id DESC",
		fileName,
	)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close() //nolint:errcheck

	recs, err := collectVersions(rows)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, domain.ErrNotFound("no versions recorded for %s", fileName)
	}
	return recs, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanVersion(row rowScanner) (*domain.VersionRecord, error) {
	var rec domain.VersionRecord
	var validTo sql.NullString
	if err := row.Scan(&rec.ID, &rec.FileName, &rec.VersionDate, &rec.Checksum, &rec.ValidFrom, &validTo); err != nil {
		return nil, err
	}
	if validTo.Valid {
		rec.ValidTo = &validTo.String
	}
	return &rec, nil
}

func collectVersions(rows *sql.Rows) ([]domain.VersionRecord, error) {
	var out []domain.VersionRecord
	for rows.Next() {
		rec, err := scanVersion(rows)
		if err != nil {
			return nil, mapDBError(err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, mapDBError(err)
	}
	return out, nil
}

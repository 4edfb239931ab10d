// Package db opens and migrates the SQLite database that backs the file
// version history.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Mode selects the pool shape for an open database handle.
type Mode string

const (
	// ModeWrite caps the pool at a single connection and begins every
	// transaction with an immediate lock, so concurrent writers queue on
	// the pool instead of failing with SQLITE_BUSY mid-transaction.
	ModeWrite Mode = "write"

	// ModeRead keeps a wider pool for concurrent readers. WAL journaling
	// lets reads proceed while the writer holds its lock.
	ModeRead Mode = "read"
)

const (
	busyTimeoutMS    = 5000
	defaultReadConns = 4
	pingTimeout      = 5 * time.Second
)

// Open opens a pool on the SQLite file at path. maxConns applies only to
// ModeRead; zero or negative selects defaultReadConns.
func Open(path string, mode Mode, maxConns int) (*sql.DB, error) {
	switch mode {
	case ModeRead, ModeWrite:
	default:
		return nil, fmt.Errorf("unknown sqlite mode %q", mode)
	}

	pool, err := sql.Open("sqlite3", dsn(path, mode))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s pool: %w", mode, err)
	}

	if mode == ModeWrite {
		pool.SetMaxOpenConns(1)
		pool.SetMaxIdleConns(1)
	} else {
		if maxConns <= 0 {
			maxConns = defaultReadConns
		}
		pool.SetMaxOpenConns(maxConns)
		pool.SetMaxIdleConns(maxConns)
	}
	pool.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping sqlite %s pool: %w", mode, err)
	}

	return pool, nil
}

// OpenPair opens the write pool and the read pool for the same database
// file. The version store commits through the single-connection write pool
// while the API and UI serve queries from the read pool.
func OpenPair(path string, readMaxConns int) (write, read *sql.DB, err error) {
	write, err = Open(path, ModeWrite, 0)
	if err != nil {
		return nil, nil, err
	}

	read, err = Open(path, ModeRead, readMaxConns)
	if err != nil {
		_ = write.Close()
		return nil, nil, err
	}

	return write, read, nil
}

// dsn appends the hardening parameters every pool uses. Writers add
// _txlock=immediate so the lock is taken at BEGIN rather than at the first
// write statement.
func dsn(path string, mode Mode) string {
	q := url.Values{
		"_journal_mode": {"WAL"},
		"_busy_timeout": {strconv.Itoa(busyTimeoutMS)},
		"_synchronous":  {"NORMAL"},
		"_foreign_keys": {"on"},
	}
	if mode == ModeWrite {
		q.Set("_txlock", "immediate")
	}
	return "file:" + path + "?" + q.Encode()
}

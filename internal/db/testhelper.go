package db

import (
	"database/sql"
	"path/filepath"
	"testing"
)

// OpenTestSQLite opens a migrated write/read pool pair on a throwaway
// database under t.TempDir() and closes both pools when the test ends.
//
// Tests that don't care about the read/write split can use writeDB for
// everything.
func OpenTestSQLite(t *testing.T) (writeDB, readDB *sql.DB) {
	t.Helper()

	writeDB, readDB, err := OpenPair(filepath.Join(t.TempDir(), "versions.db"), 4)
	if err != nil {
		t.Fatalf("open version database: %v", err)
	}
	t.Cleanup(func() {
		_ = readDB.Close()
		_ = writeDB.Close()
	})

	if err := RunMigrations(writeDB); err != nil {
		t.Fatalf("migrate version database: %v", err)
	}

	return writeDB, readDB
}

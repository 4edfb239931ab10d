package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// TableStats summarises one warehouse table.
type TableStats struct {
	Table      string `json:"table"`
	Partitions int    `json:"partitions"`
	Files      int    `json:"files"`
	Bytes      int64  `json:"bytes"`
	// Rows is the DuckDB row count across all members, or -1 when the
	// members could not be scanned as delimited data.
	Rows int64 `json:"rows"`
}

// Scanner reports on the warehouse tree. File and partition counts come
// from the filesystem; row counts come from DuckDB scanning the members in
// place, nothing is loaded into a persistent database.
type Scanner struct {
	warehouseDir string
	db           *sql.DB
}

// NewScanner opens an in-memory DuckDB handle for scanning warehouseDir.
func NewScanner(warehouseDir string) (*Scanner, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	return &Scanner{warehouseDir: warehouseDir, db: db}, nil
}

// Close releases the DuckDB handle.
func (s *Scanner) Close() error { return s.db.Close() }

// Stats summarises every table directory in the warehouse, ordered by
// table name. A missing warehouse root is an empty warehouse, not an error.
func (s *Scanner) Stats(ctx context.Context) ([]TableStats, error) {
	entries, err := os.ReadDir(s.warehouseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read warehouse dir: %w", err)
	}

	var out []TableStats
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		st, err := s.tableStats(ctx, entry.Name())
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Table < out[j].Table })
	return out, nil
}

func (s *Scanner) tableStats(ctx context.Context, table string) (TableStats, error) {
	st := TableStats{Table: table, Rows: -1}
	root := filepath.Join(s.warehouseDir, table)

	partitions := make(map[string]struct{})
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		st.Files++
		st.Bytes += info.Size()
		partitions[filepath.Dir(path)] = struct{}{}
		return nil
	})
	if err != nil {
		return st, fmt.Errorf("walk %s: %w", root, err)
	}
	st.Partitions = len(partitions)

	if st.Files > 0 {
		st.Rows = s.countRows(ctx, root)
	}
	return st, nil
}

// countRows scans the table's members in place with read_csv_auto. A scan
// failure reports -1 rather than failing the stats call; schema drift
// between days is tolerated via union_by_name.
func (s *Scanner) countRows(ctx context.Context, root string) int64 {
	glob := filepath.ToSlash(filepath.Join(root, "**", "*"))
	glob = strings.ReplaceAll(glob, "'", "''")

	var rows int64
	query := fmt.Sprintf("SELECT count(*) FROM read_csv_auto('%s', union_by_name=true)", glob)
	if err := s.db.QueryRowContext(ctx, query).Scan(&rows); err != nil {
		return -1
	}
	return rows
}

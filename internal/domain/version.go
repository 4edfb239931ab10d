package domain

import (
	"fmt"
	"path"
	"time"
)

// ISODate is the storage format for all dates in the version table.
const ISODate = "2006-01-02"

// VersionRecord is one row of the file_versions table. ValidTo == nil
// marks the current version of a file_name. Records are never deleted;
// a superseded record gets valid_to set and is otherwise never rewritten.
type VersionRecord struct {
	ID          int64
	FileName    string
	VersionDate string
	Checksum    string
	ValidFrom   string
	ValidTo     *string
}

// IsCurrent reports whether the record's validity interval is still open.
func (r *VersionRecord) IsCurrent() bool { return r.ValidTo == nil }

// CommitStatus is the result class of a version-store commit.
type CommitStatus string

const (
	// CommitUnchanged means the staged content matched the current record's
	// checksum; the staged copy was discarded and nothing was written.
	CommitUnchanged CommitStatus = "unchanged"
	// CommitStored means a new current record was created and the staged
	// content relocated into durable storage.
	CommitStored CommitStatus = "stored"
)

// CommitOutcome describes what a version-store commit did. Path is set only
// when Status is CommitStored; Record holds the new record on a store and
// the surviving current record on an unchanged commit.
type CommitOutcome struct {
	Status CommitStatus
	Path   string
	Record *VersionRecord
}

// StoredArtifact is one artifact a run actually stored (changed content).
// Published reports whether the flat copy also reached the object store.
type StoredArtifact struct {
	Kind       ArtifactKind
	FileName   string
	StoredName string
	Path       string
	Checksum   string
	Published  bool
}

// RunOutcome aggregates one ingestion run. Stored lists only artifacts
// whose content changed; Warehouse lists the container members placed into
// the partition tree. A run that found the item but stored nothing yields
// a nil outcome, not an empty one.
type RunOutcome struct {
	SelectedDate string
	Stored       []StoredArtifact
	Warehouse    []WarehouseObject
}

// WarehouseObject is one container member after partitioning. Its
// partition path is a pure function of (table, date). Published reports
// whether the member also reached the object store.
type WarehouseObject struct {
	Table     string
	Date      time.Time
	Filename  string
	Published bool
}

// PartitionPath returns the Hive-style layout path for a table and date,
// slash-separated: "<table>/year=<YYYY>/month=<MM>/day=<DD>". The local
// warehouse tree and the object-store keys both derive from it, so the two
// layouts cannot drift.
func PartitionPath(table string, date time.Time) string {
	return path.Join(
		table,
		fmt.Sprintf("year=%04d", date.Year()),
		fmt.Sprintf("month=%02d", int(date.Month())),
		fmt.Sprintf("day=%02d", date.Day()),
	)
}

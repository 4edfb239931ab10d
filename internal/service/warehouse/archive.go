// Package warehouse unpacks tick containers and lays their members out in
// the Hive-style partition tree, mirroring each placement to the object
// store.
package warehouse

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"

	"sgx-ingest/internal/domain"
)

// Compile-time check: Extractor implements domain.ContainerExtractor.
var _ domain.ContainerExtractor = (*Extractor)(nil)

// Extractor unpacks zip containers into fresh staging directories. The
// container itself is never modified or removed, so the durable copy stays
// re-extractable after a crash.
type Extractor struct {
	stagingDir string
	logger     *slog.Logger
}

// NewExtractor creates an Extractor that unpacks below stagingDir.
func NewExtractor(stagingDir string, logger *slog.Logger) *Extractor {
	return &Extractor{
		stagingDir: stagingDir,
		logger:     logger.With("component", "extractor"),
	}
}

// Extract unpacks the container into a fresh uniquely named directory under
// staging and returns that directory. Any failure, including a member that
// fails to decompress, removes the partial directory and yields an
// ArchiveError.
func (e *Extractor) Extract(containerPath string) (string, error) {
	r, err := zip.OpenReader(containerPath)
	if err != nil {
		return "", domain.ErrArchive("open %s: %v", filepath.Base(containerPath), err)
	}
	defer r.Close() //nolint:errcheck

	dir := filepath.Join(e.stagingDir, fmt.Sprintf("extract-%s", uuid.NewString()))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", domain.ErrArchive("create extraction dir: %v", err)
	}

	for _, f := range r.File {
		if err := extractMember(f, dir); err != nil {
			os.RemoveAll(dir) //nolint:errcheck,gosec
			return "", err
		}
	}

	e.logger.Info("extracted container",
		"container", filepath.Base(containerPath),
		"members", len(r.File),
		"dir", dir)
	return dir, nil
}

// extractMember writes one zip member below dir, rejecting entries whose
// name escapes it.
func extractMember(f *zip.File, dir string) error {
	dest := filepath.Join(dir, filepath.FromSlash(f.Name))
	if !strings.HasPrefix(dest, dir+string(os.PathSeparator)) {
		return domain.ErrArchive("member %q escapes extraction dir", f.Name)
	}

	if f.FileInfo().IsDir() {
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return domain.ErrArchive("create member dir %q: %v", f.Name, err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return domain.ErrArchive("create member dir for %q: %v", f.Name, err)
	}

	rc, err := f.Open()
	if err != nil {
		return domain.ErrArchive("open member %q: %v", f.Name, err)
	}
	defer rc.Close() //nolint:errcheck

	out, err := os.Create(dest) //nolint:gosec // dest is confined to dir above
	if err != nil {
		return domain.ErrArchive("create %s: %v", dest, err)
	}
	if _, err := io.Copy(out, rc); err != nil { //nolint:gosec // zip members are trusted feed data
		out.Close() //nolint:errcheck,gosec
		return domain.ErrArchive("decompress member %q: %v", f.Name, err)
	}
	if err := out.Close(); err != nil {
		return domain.ErrArchive("close %s: %v", dest, err)
	}
	return nil
}

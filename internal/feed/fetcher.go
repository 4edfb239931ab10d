package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"sgx-ingest/internal/domain"
	"sgx-ingest/internal/retry"
)

// minArtifactBytes rejects effectively empty bodies: the upstream serves a
// tiny placeholder instead of a 404 for some missing artifacts.
const minArtifactBytes = 10

// Fetcher downloads artifacts into the staging directory. Content is
// written under a temporary name and only renamed to the final staged name
// on full success, so a truncated download can never be mistaken for valid
// content.
type Fetcher struct {
	httpClient *http.Client
	linksURL   string
	stagingDir string
	limiter    *rate.Limiter
	retryCount int
	logger     *slog.Logger
}

// NewFetcher creates a Fetcher rooted at stagingDir. retryCount extra
// attempts with exponential backoff are made per artifact; fetches are one
// of the two transient failure kinds that warrant retry.
func NewFetcher(linksURL, stagingDir string, timeout time.Duration, limiter *rate.Limiter, retryCount int, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		linksURL:   linksURL,
		stagingDir: stagingDir,
		limiter:    limiter,
		retryCount: retryCount,
		logger:     logger.With("component", "fetcher"),
	}
}

// Fetch downloads {linksURL}/{key}/{filename} and returns the staged file.
func (f *Fetcher) Fetch(ctx context.Context, key, filename string) (domain.StagedArtifact, error) {
	if filename == "" || filepath.Base(filename) != filename {
		return domain.StagedArtifact{}, domain.ErrFetch("unsafe artifact name %q", filename)
	}
	if err := os.MkdirAll(f.stagingDir, 0o755); err != nil {
		return domain.StagedArtifact{}, domain.ErrFetch("create staging dir: %v", err)
	}

	url := fmt.Sprintf("%s/%s/%s", f.linksURL, key, filename)
	dest := filepath.Join(f.stagingDir, filename)

	var size int64
	err := retry.Do(ctx, f.logger, "fetch "+filename, f.retryCount, func() error {
		n, err := f.download(ctx, url, dest)
		size = n
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return domain.StagedArtifact{}, ctx.Err()
		}
		return domain.StagedArtifact{}, err
	}

	f.logger.Info("fetched artifact", "file", filename, "bytes", size)
	return domain.StagedArtifact{Path: dest, Name: filename, Size: size}, nil
}

// download performs one streamed GET attempt into dest via a temporary
// ".partial" name. On any failure the partial file is removed and dest is
// left untouched.
func (f *Fetcher) download(ctx context.Context, url, dest string) (int64, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("fetch limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, domain.ErrFetch("build request for %s: %v", url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return 0, domain.ErrFetch("download %s: %v", url, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return 0, domain.ErrFetch("download %s: HTTP %d", url, resp.StatusCode)
	}

	tmp := dest + ".partial"
	out, err := os.Create(tmp) //nolint:gosec // staged under the configured staging dir
	if err != nil {
		return 0, domain.ErrFetch("create %s: %v", tmp, err)
	}

	n, err := io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return 0, domain.ErrFetch("write %s: %v", tmp, err)
	}
	if n < minArtifactBytes {
		_ = os.Remove(tmp)
		return 0, domain.ErrFetch("download %s: body too short (%d bytes)", url, n)
	}

	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return 0, domain.ErrFetch("finalize %s: %v", dest, err)
	}
	return n, nil
}

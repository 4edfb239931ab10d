package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sgx-ingest/internal/config"
	"sgx-ingest/internal/domain"
	"sgx-ingest/internal/middleware"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	return &config.Config{
		Bucket:           "datalake",
		CronSpec:         "0 7 * * *",
		SchedulerEnabled: true,
	}
}

// newTestRouter mounts a Handler on a fresh router.
func newTestRouter(runner Runner, versions VersionReader, cfg *config.Config) *chi.Mux {
	h := NewHandler(runner, versions, cfg, discardLogger())
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func doRequest(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sampleOutcome() *domain.RunOutcome {
	return &domain.RunOutcome{
		SelectedDate: "2024-03-07",
		Stored: []domain.StoredArtifact{
			{
				Kind:       domain.KindTickData,
				FileName:   "WEBPXTICK_DT-20240307.zip",
				StoredName: "WEBPXTICK_DT-20240307_2024-03-07.zip",
				Path:       "data/raw/WEBPXTICK_DT-20240307_2024-03-07.zip",
				Checksum:   "abc123",
				Published:  true,
			},
		},
		Warehouse: []domain.WarehouseObject{
			{
				Table:     "WEBPXTICK_DT",
				Date:      time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC),
				Filename:  "ticks.csv",
				Published: true,
			},
		},
	}
}

func currentRecord(name string) domain.VersionRecord {
	return domain.VersionRecord{
		ID:          1,
		FileName:    name,
		VersionDate: "2024-03-07",
		Checksum:    "abc123",
		ValidFrom:   "2024-03-07",
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	r := newTestRouter(&mockRunner{}, &mockVersions{}, testConfig())
	w := doRequest(r, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestStatus(t *testing.T) {
	t.Parallel()

	versions := &mockVersions{
		listCurrentFn: func(context.Context) ([]domain.VersionRecord, error) {
			return []domain.VersionRecord{currentRecord("a.zip"), currentRecord("b.txt")}, nil
		},
	}
	r := newTestRouter(&mockRunner{}, versions, testConfig())
	w := doRequest(r, http.MethodGet, "/v1/status", "")

	require.Equal(t, http.StatusOK, w.Code)

	var resp statusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "sgx-ingest", resp.Service)
	assert.NotEmpty(t, resp.Version)
	assert.Equal(t, "development", resp.Environment)
	assert.True(t, resp.Scheduler.Enabled)
	assert.Equal(t, "0 7 * * *", resp.Scheduler.Spec)
	assert.Equal(t, 2, resp.CurrentFiles)

	// No object store configured: the bucket is not advertised.
	assert.NotContains(t, w.Body.String(), "bucket")
}

func TestStatus_WithObjectStore(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.ObjectStoreBackend = "s3"
	versions := &mockVersions{
		listCurrentFn: func(context.Context) ([]domain.VersionRecord, error) { return nil, nil },
	}
	r := newTestRouter(&mockRunner{}, versions, cfg)
	w := doRequest(r, http.MethodGet, "/v1/status", "")

	require.Equal(t, http.StatusOK, w.Code)

	var resp statusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "s3", resp.ObjectStore)
	assert.Equal(t, "datalake", resp.Bucket)
}

func TestTriggerRun_Latest(t *testing.T) {
	t.Parallel()

	runner := &mockRunner{
		runFn: func(_ context.Context, target *time.Time) (*domain.RunOutcome, error) {
			require.Nil(t, target, "no date given, run should target the latest item")
			return sampleOutcome(), nil
		},
	}
	r := newTestRouter(runner, &mockVersions{}, testConfig())
	w := doRequest(r, http.MethodPost, "/v1/runs", "")

	require.Equal(t, http.StatusOK, w.Code)

	var resp runResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Changed)
	assert.Equal(t, "2024-03-07", resp.SelectedDate)
	require.Len(t, resp.Stored, 1)
	assert.Equal(t, "tick_data", resp.Stored[0].Kind)
	assert.Equal(t, "WEBPXTICK_DT-20240307_2024-03-07.zip", resp.Stored[0].StoredName)
	assert.True(t, resp.Stored[0].Published)
	require.Len(t, resp.Warehouse, 1)
	assert.Equal(t, "2024-03-07", resp.Warehouse[0].Date)
	assert.True(t, resp.Warehouse[0].Published)
}

func TestTriggerRun_DateSelection(t *testing.T) {
	t.Parallel()

	want := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		path string
		body string
	}{
		{name: "iso query param", path: "/v1/runs?date=2024-03-07"},
		{name: "day month year query param", path: "/v1/runs?date=07%2F03%2F2024"},
		{name: "json body", path: "/v1/runs", body: `{"date": "07 Mar 2024"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			runner := &mockRunner{
				runFn: func(_ context.Context, target *time.Time) (*domain.RunOutcome, error) {
					require.NotNil(t, target)
					assert.True(t, target.Equal(want), "got %v", target)
					return sampleOutcome(), nil
				},
			}
			r := newTestRouter(runner, &mockVersions{}, testConfig())
			w := doRequest(r, http.MethodPost, tt.path, tt.body)

			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestTriggerRun_NoChange(t *testing.T) {
	t.Parallel()

	runner := &mockRunner{
		runFn: func(context.Context, *time.Time) (*domain.RunOutcome, error) {
			return nil, nil
		},
	}
	r := newTestRouter(runner, &mockVersions{}, testConfig())
	w := doRequest(r, http.MethodPost, "/v1/runs", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"changed": false, "stored": []}`, w.Body.String())
}

func TestTriggerRun_MalformedDate(t *testing.T) {
	t.Parallel()

	r := newTestRouter(&mockRunner{}, &mockVersions{}, testConfig())
	w := doRequest(r, http.MethodPost, "/v1/runs?date=yesterday", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unrecognized date")
}

func TestTriggerRun_MalformedBody(t *testing.T) {
	t.Parallel()

	r := newTestRouter(&mockRunner{}, &mockVersions{}, testConfig())
	w := doRequest(r, http.MethodPost, "/v1/runs", `{"date": 42`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTriggerRun_NoMatchingDate(t *testing.T) {
	t.Parallel()

	runner := &mockRunner{
		runFn: func(context.Context, *time.Time) (*domain.RunOutcome, error) {
			return nil, domain.ErrNoDate("09 Mar 2024", []string{"07 Mar 2024", "06 Mar 2024"})
		},
	}
	r := newTestRouter(runner, &mockVersions{}, testConfig())
	w := doRequest(r, http.MethodPost, "/v1/runs?date=2024-03-09", "")

	require.Equal(t, http.StatusNotFound, w.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, []string{"07 Mar 2024", "06 Mar 2024"}, resp.AvailableDates)
}

func TestTriggerRun_UpstreamUnavailable(t *testing.T) {
	t.Parallel()

	runner := &mockRunner{
		runFn: func(context.Context, *time.Time) (*domain.RunOutcome, error) {
			return nil, domain.ErrUpstream("catalog request failed: connection refused")
		},
	}
	r := newTestRouter(runner, &mockVersions{}, testConfig())
	w := doRequest(r, http.MethodPost, "/v1/runs", "")

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "catalog request failed")
}

func TestTriggerRun_ServiceToken(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.ServiceToken = "s3cret"

	var called bool
	runner := &mockRunner{
		runFn: func(context.Context, *time.Time) (*domain.RunOutcome, error) {
			called = true
			return nil, nil
		},
	}
	r := newTestRouter(runner, &mockVersions{}, cfg)

	// Missing token: rejected before the runner is reached.
	w := doRequest(r, http.MethodPost, "/v1/runs", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, called)

	// Valid token passes.
	req := httptest.NewRequest(http.MethodPost, "/v1/runs", nil)
	req.Header.Set(middleware.ServiceTokenHeader, "s3cret")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, called)
}

func TestTriggerRun_TokenNotRequiredOnReads(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.ServiceToken = "s3cret"
	versions := &mockVersions{
		listCurrentFn: func(context.Context) ([]domain.VersionRecord, error) { return nil, nil },
	}
	r := newTestRouter(&mockRunner{}, versions, cfg)

	w := doRequest(r, http.MethodGet, "/v1/files", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListFiles(t *testing.T) {
	t.Parallel()

	versions := &mockVersions{
		listCurrentFn: func(context.Context) ([]domain.VersionRecord, error) {
			return []domain.VersionRecord{
				currentRecord("WEBPXTICK_DT-20240307.zip"),
				currentRecord("TC_20240307.txt"),
			}, nil
		},
	}
	r := newTestRouter(&mockRunner{}, versions, testConfig())
	w := doRequest(r, http.MethodGet, "/v1/files", "")

	require.Equal(t, http.StatusOK, w.Code)

	var resp []fileVersion
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "WEBPXTICK_DT-20240307.zip", resp[0].FileName)
	assert.True(t, resp[0].Current)
	assert.Nil(t, resp[0].ValidTo)
}

func TestFileVersions(t *testing.T) {
	t.Parallel()

	closed := "2024-03-07"
	versions := &mockVersions{
		historyFn: func(_ context.Context, fileName string) ([]domain.VersionRecord, error) {
			require.Equal(t, "WEBPXTICK_DT-20240307.zip", fileName)
			old := currentRecord(fileName)
			old.VersionDate = "2024-03-06"
			old.ValidFrom = "2024-03-06"
			old.ValidTo = &closed
			return []domain.VersionRecord{old, currentRecord(fileName)}, nil
		},
	}
	r := newTestRouter(&mockRunner{}, versions, testConfig())
	w := doRequest(r, http.MethodGet, "/v1/files/WEBPXTICK_DT-20240307.zip/versions", "")

	require.Equal(t, http.StatusOK, w.Code)

	var resp []fileVersion
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.False(t, resp[0].Current)
	assert.Equal(t, "2024-03-07", *resp[0].ValidTo)
	assert.True(t, resp[1].Current)
}

func TestFileVersions_UnknownFile(t *testing.T) {
	t.Parallel()

	versions := &mockVersions{
		historyFn: func(context.Context, string) ([]domain.VersionRecord, error) {
			return nil, nil
		},
	}
	r := newTestRouter(&mockRunner{}, versions, testConfig())
	w := doRequest(r, http.MethodGet, "/v1/files/nope.zip/versions", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "no versions recorded")
}

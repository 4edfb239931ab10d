package feed

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"sgx-ingest/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// sampleFeed carries two well-formed items (out of order), one entry
// missing its key, and one with an unparseable date.
const sampleFeed = `{
  "items": [
    {
      "Date": "06 Mar 2024",
      "key": "5677",
      "Data File Link": "https://links.example.com/5677/WEBPXTICK_DT-20240306.zip",
      "Data File": "WEBPXTICK_DT-20240306.zip",
      "Tick Data Structure File Link": "https://links.example.com/5677/TickData_structure.dat",
      "Tick Data Structure File": "TickData_structure.dat",
      "TC Data File Link": "https://links.example.com/5677/TC_20240306.txt",
      "TC Data File": "TC_20240306.txt",
      "TC Data Structure File Link": "https://links.example.com/5677/TC_structure.dat",
      "TC Data Structure File": "TC_structure.dat"
    },
    {
      "Date": "07 Mar 2024",
      "key": "5678",
      "Data File Link": "https://links.example.com/5678/WEBPXTICK_DT-20240307.zip",
      "Data File": "WEBPXTICK_DT-20240307.zip",
      "Tick Data Structure File Link": "https://links.example.com/5678/TickData_structure.dat",
      "Tick Data Structure File": "TickData_structure.dat",
      "TC Data File Link": "https://links.example.com/5678/TC_20240307.txt",
      "TC Data File": "TC_20240307.txt"
    },
    {"Date": "05 Mar 2024"},
    {"Date": "not a date", "key": "9999"}
  ]
}`

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	return NewClient(url, 5*time.Second, rate.NewLimiter(rate.Inf, 1), discardLogger())
}

func TestClient_ListAvailable(t *testing.T) {
	var gotUA, gotApp string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotApp = r.URL.Query().Get("A")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	items, err := newTestClient(t, srv.URL).ListAvailable(context.Background())
	require.NoError(t, err)

	// Undated and keyless entries are dropped, the rest sorted newest first.
	require.Len(t, items, 2)
	assert.Equal(t, "07 Mar 2024", items[0].DisplayDate)
	assert.Equal(t, "06 Mar 2024", items[1].DisplayDate)
	assert.Equal(t, "5678", items[0].Key)

	// The newer item is missing its TC structure pair.
	assert.Len(t, items[0].Artifacts, 3)
	assert.Len(t, items[1].Artifacts, 4)

	assert.Contains(t, gotUA, "Mozilla/5.0")
	assert.Equal(t, "COW_Tickdownload_Content", gotApp)
}

func TestClient_SelectLatest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	item, err := newTestClient(t, srv.URL).Select(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "07 Mar 2024", item.DisplayDate)
}

func TestClient_SelectExactDate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	target := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)
	item, err := newTestClient(t, srv.URL).Select(context.Background(), &target)
	require.NoError(t, err)
	assert.Equal(t, "06 Mar 2024", item.DisplayDate)
	assert.Equal(t, "5677", item.Key)
}

func TestClient_SelectNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	target := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	_, err := newTestClient(t, srv.URL).Select(context.Background(), &target)
	require.Error(t, err)

	var noDate *domain.NoDateError
	require.ErrorAs(t, err, &noDate)
	assert.Equal(t, "2024-03-05", noDate.Requested)
	assert.Equal(t, []string{"07 Mar 2024", "06 Mar 2024"}, noDate.Available)
}

func TestClient_SelectEmptyFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"items": []}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Select(context.Background(), nil)
	var upstream *domain.UpstreamError
	require.ErrorAs(t, err, &upstream)
}

func TestClient_UpstreamStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).ListAvailable(context.Background())
	var upstream *domain.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Contains(t, err.Error(), "502")
}

func TestClient_UpstreamMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).ListAvailable(context.Background())
	var upstream *domain.UpstreamError
	require.ErrorAs(t, err, &upstream)
}

func TestParseTargetDate(t *testing.T) {
	want := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input string
	}{
		{"day month year", "07/03/2024"},
		{"iso", "2024-03-07"},
		{"display", "07 Mar 2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTargetDate(tt.input)
			require.NoError(t, err)
			assert.True(t, got.Equal(want), "got %s", got)
		})
	}

	_, err := ParseTargetDate("March 7th 2024")
	var v *domain.ValidationError
	require.ErrorAs(t, err, &v)
}

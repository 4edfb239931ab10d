package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sgx-ingest/internal/middleware"
)

// Client is a thin HTTP client for the ingestion service API. All paths
// passed to Do are relative to the /v1 prefix.
type Client struct {
	BaseURL    string
	Token      string // service token, sent on every request when set
	HTTPClient *http.Client
}

// NewClient creates a Client for the given host. A trailing slash on
// baseURL is stripped so path joining stays predictable.
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Do issues one API request. A non-nil body is JSON-encoded. The caller
// owns the response body.
func (c *Client) Do(method, path string, q url.Values, body interface{}) (*http.Response, error) {
	u := c.BaseURL + "/v1" + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set(middleware.ServiceTokenHeader, c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	return resp, nil
}

// APIError is a structured error response from the service.
type APIError struct {
	HTTPStatus     int
	Code           int
	Message        string
	AvailableDates []string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (HTTP %d): %s", e.HTTPStatus, e.Message)
}

// CheckError converts a non-2xx response into an *APIError, consuming the
// body. Responses in the 2xx range pass through untouched.
func CheckError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	defer resp.Body.Close() //nolint:errcheck

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	apiErr := &APIError{HTTPStatus: resp.StatusCode, Code: resp.StatusCode}

	var parsed struct {
		Code           int      `json:"code"`
		Message        string   `json:"message"`
		AvailableDates []string `json:"available_dates"`
	}
	if err := json.Unmarshal(data, &parsed); err == nil && parsed.Message != "" {
		apiErr.Code = parsed.Code
		apiErr.Message = parsed.Message
		apiErr.AvailableDates = parsed.AvailableDates
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
	}
	return apiErr
}

// ReadBody reads and closes the response body.
func ReadBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close() //nolint:errcheck
	return io.ReadAll(resp.Body)
}

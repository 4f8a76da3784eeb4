// Package predict is the HTTP client for the sketch classification service.
//
// The service accepts a multipart form with a single field, image_base64,
// holding a PNG data URL, and answers with JSON:
//
//	{"prediction": "cat", "confidence": 0.82,
//	 "top": [{"label": "cat", "confidence": 0.82}, {"label": "tree", "confidence": 0.09}]}
//
// There is no retry and no backoff: one attempt per call.
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// DefaultEndpoint is where the classification service listens locally.
const DefaultEndpoint = "http://127.0.0.1:8001/predict"

// FieldName is the multipart form field carrying the image.
const FieldName = "image_base64"

// maxBody caps how much of a response we read.
const maxBody = 1 << 20

// Config holds configuration for the prediction client.
type Config struct {
	// Endpoint is the full URL of the predict route.
	// Defaults to DefaultEndpoint if empty.
	Endpoint string

	// Timeout bounds a single round trip. Zero means no client-side timeout;
	// failures are then detected only by the transport.
	Timeout time.Duration

	// HTTPClient allows injecting a custom HTTP client (useful for testing).
	// Overrides Timeout when set.
	HTTPClient *http.Client
}

// Client posts sketches to the classification service.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient creates a client with the given configuration.
func NewClient(cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{endpoint: cfg.Endpoint, http: httpClient}
}

// Endpoint returns the configured URL.
func (c *Client) Endpoint() string { return c.endpoint }

// Predict sends one sketch and decodes the classifier's answer.
func (c *Client) Predict(ctx context.Context, dataURL string) (*Result, error) {
	body, contentType, err := encodeForm(dataURL)
	if err != nil {
		return nil, &Error{Kind: KindEncode, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &Error{Kind: KindTransport, Err: err}
	}
	// Error statuses count as unreachable even when the body is JSON.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Kind: KindStatus, StatusCode: resp.StatusCode, Body: truncate(string(raw), 200)}
	}

	var out Result
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &Error{Kind: KindDecode, Err: err, Body: truncate(string(raw), 200)}
	}
	return &out, nil
}

// encodeForm builds the multipart body with the image field.
func encodeForm(dataURL string) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField(FieldName, dataURL); err != nil {
		return nil, "", fmt.Errorf("write field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

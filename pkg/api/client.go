// Package api implements the HTTP client for an OpsML tracking server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Server routes, relative to the tracking URI.
const (
	ListCardsPath      = "/opsml/cards/list"
	ModelMetadataPath  = "/opsml/models/metadata"
	ListFilesPath      = "/opsml/files/list"
	PresignedPath      = "/opsml/files/presigned"
	MetricsPath        = "/opsml/metrics"
	CompareMetricsPath = "/opsml/metrics/compare"
)

type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient builds a client for the tracking server at baseURL. The base URL
// is supplied by the caller rather than read from the environment here, so
// one process can address several servers.
func NewClient(baseURL string, client *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
}

func (c *Client) endpoint(path string, params url.Values) string {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	return endpoint
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request for %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path, nil), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return c.client.Do(req)
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path, params), nil)
	if err != nil {
		return nil, err
	}
	return c.client.Do(req)
}

// statusError drains the body into the returned error so the server's own
// message survives into command output.
func statusError(what string, resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("%s returned status %d: %s", what, resp.StatusCode, strings.TrimSpace(string(body)))
}

func isSuccess(resp *http.Response) bool {
	return resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices
}

// ListCards lists catalog records from one registry.
func (c *Client) ListCards(ctx context.Context, request ListCardRequest) (*ListCardResponse, error) {
	resp, err := c.postJSON(ctx, ListCardsPath, request)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp) {
		return nil, statusError("card list endpoint", resp)
	}

	response := &ListCardResponse{}
	if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
		return nil, fmt.Errorf("failed to decode card list response: %w", err)
	}
	return response, nil
}

// GetModelMetadata resolves a model reference to its metadata record.
func (c *Client) GetModelMetadata(ctx context.Context, request ModelMetadataRequest) (*ModelMetadata, error) {
	resp, err := c.postJSON(ctx, ModelMetadataPath, request)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch model metadata: %w", err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp) {
		return nil, statusError("metadata endpoint", resp)
	}

	metadata := &ModelMetadata{}
	if err := json.NewDecoder(resp.Body).Decode(metadata); err != nil {
		return nil, fmt.Errorf("failed to parse model metadata: %w", err)
	}
	return metadata, nil
}

// ListFiles enumerates every remote file stored under rpath. A model
// artifact may be a directory of files (e.g. sharded weights), so callers
// must not assume a single entry.
func (c *Client) ListFiles(ctx context.Context, rpath string) ([]string, error) {
	params := url.Values{}
	params.Set("path", rpath)

	resp, err := c.get(ctx, ListFilesPath, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list files under %s: %w", rpath, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp) {
		return nil, statusError("file list endpoint", resp)
	}

	response := ListFileResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode file list response: %w", err)
	}
	return response.Files, nil
}

// PresignDownload exchanges a remote file path for a short-lived URL
// permitting one anonymous GET of that file.
func (c *Client) PresignDownload(ctx context.Context, rpath string) (*PresignedURL, error) {
	params := url.Values{}
	params.Set("path", rpath)
	params.Set("method", http.MethodGet)

	resp, err := c.get(ctx, PresignedPath, params)
	if err != nil {
		return nil, fmt.Errorf("failed to request presigned url for %s: %w", rpath, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp) {
		return nil, statusError("presign endpoint", resp)
	}

	presigned := &PresignedURL{}
	if err := json.NewDecoder(resp.Body).Decode(presigned); err != nil {
		return nil, fmt.Errorf("failed to parse presigned url for %s: %w", rpath, err)
	}
	return presigned, nil
}

// GetMetrics returns the training metrics recorded for one run.
func (c *Client) GetMetrics(ctx context.Context, runUID string) ([]Metric, error) {
	params := url.Values{}
	params.Set("run_uid", runUID)

	resp, err := c.get(ctx, MetricsPath, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch metrics for %s: %w", runUID, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp) {
		return nil, statusError("metrics endpoint", resp)
	}

	response := ListMetricResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode metrics response: %w", err)
	}
	return response.Metric, nil
}

// CompareMetrics runs a challenger/champion comparison server-side.
func (c *Client) CompareMetrics(ctx context.Context, request CompareMetricRequest) (*CompareMetricResponse, error) {
	resp, err := c.postJSON(ctx, CompareMetricsPath, request)
	if err != nil {
		return nil, fmt.Errorf("failed to compare metrics: %w", err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp) {
		return nil, statusError("metric comparison endpoint", resp)
	}

	response := &CompareMetricResponse{}
	if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
		return nil, fmt.Errorf("failed to decode metric comparison response: %w", err)
	}
	return response, nil
}

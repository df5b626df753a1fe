package arxiv

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/alen-hh/arxiv-query-proxy/types"
)

// DefaultAPIEndpoint is the public arXiv query endpoint
const DefaultAPIEndpoint = "https://export.arxiv.org/api/query"

// UpstreamError is returned when arXiv answers with a non-2xx status
type UpstreamError struct {
	StatusCode int
	Status     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("ArXiv API returned %d: %s", e.StatusCode, e.Status)
}

// Client represents an arXiv API client
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewClient creates a new arXiv API client. A zero timeout leaves the
// request bounded only by the caller's context.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
	}
}

// WithUserAgent sets the User-Agent header sent to arXiv
func (c *Client) WithUserAgent(userAgent string) *Client {
	c.userAgent = userAgent
	return c
}

// Query performs one GET against the arXiv API and returns the raw feed
func (c *Client) Query(ctx context.Context, params types.QueryParams) (string, error) {
	queryURL, err := c.buildQueryURL(params)
	if err != nil {
		return "", fmt.Errorf("failed to build query URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &UpstreamError{
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return string(body), nil
}

// buildQueryURL constructs the query URL for arXiv API
func (c *Client) buildQueryURL(params types.QueryParams) (string, error) {
	baseURL, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}

	query := baseURL.Query()
	query.Set("search_query", params.SearchQuery)
	query.Set("sortBy", params.SortBy)
	query.Set("sortOrder", params.SortOrder)
	query.Set("start", params.Start)
	query.Set("max_results", params.MaxResults)

	baseURL.RawQuery = query.Encode()
	return baseURL.String(), nil
}

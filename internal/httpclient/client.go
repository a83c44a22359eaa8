package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/go-querystring/query"
)

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api request failed: status %s, body: %s", e.Status, e.Body)
}

// Client manages making HTTP requests to the API.
type Client struct {
	baseURL    string
	apiKey     string
	userAgent  string
	httpClient *http.Client
}

// New creates a new internal HTTP client.
func New(baseURL, apiKey, userAgent string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Get makes a GET request and returns the undecoded response body.
// Decoding is left to the caller so it can tell transport failures from
// malformed payloads.
func (c *Client) Get(ctx context.Context, path string, params interface{}) ([]byte, error) {
	fullURL, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	fullURL.Path += path // baseURL has no trailing slash, path starts with /

	values := url.Values{}
	if params != nil {
		values, err = query.Values(params)
		if err != nil {
			return nil, fmt.Errorf("failed to encode query parameters: %w", err)
		}
	}
	// TMDB v3 authenticates with a query parameter rather than a header.
	if c.apiKey != "" {
		values.Set("api_key", c.apiKey)
	}
	fullURL.RawQuery = values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(respBodyBytes),
		}
	}

	return respBodyBytes, nil
}

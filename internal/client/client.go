// Package client talks to a running wrldshot instance over its status API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/five82/wrldshot/internal/api"
)

// StatusFetcher is implemented by *Client and can be faked in tests.
type StatusFetcher interface {
	FetchStatus(ctx context.Context) (*api.StatusResponse, error)
	FetchHistory(ctx context.Context, limit int) (*api.HistoryResponse, error)
}

var _ StatusFetcher = (*Client)(nil)

// Client talks to the wrldshot HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultAPIBind   = "127.0.0.1:7489"
	defaultUserAgent = "wrldshot/0.1"
	requestTimeout   = 5 * time.Second
)

// New builds a Client for the given host:port or URL.
func New(apiBind string) (*Client, error) {
	base, err := parseBaseURL(apiBind)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: requestTimeout},
		userAgent: defaultUserAgent,
	}, nil
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// FetchStatus retrieves the live session status.
func (c *Client) FetchStatus(ctx context.Context) (*api.StatusResponse, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload api.StatusResponse
	if err := c.do(ctx, http.MethodGet, &url.URL{Path: "/api/status"}, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// FetchHistory retrieves up to limit journaled renames, newest first.
func (c *Client) FetchHistory(ctx context.Context, limit int) (*api.HistoryResponse, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	values := url.Values{}
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	rel := &url.URL{Path: "/api/history", RawQuery: values.Encode()}
	var payload api.HistoryResponse
	if err := c.do(ctx, http.MethodGet, rel, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) do(ctx context.Context, method string, rel *url.URL, dest any) error {
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("api %s returned status %d", rel.String(), resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseBaseURL(apiBind string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBind)
	if trimmed == "" {
		trimmed = defaultAPIBind
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_bind %q: %w", apiBind, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client provides HTTP access to a running server's admin endpoints.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient builds a client for the server listening on bind. Wildcard hosts
// are dialled on loopback.
func NewClient(bind, token string) *Client {
	return &Client{
		baseURL: "http://" + dialAddress(bind),
		token:   strings.TrimSpace(token),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// BaseURL returns the server root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health retrieves server liveness information.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.do(ctx, http.MethodGet, "/healthz", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CacheList returns live manifest cache entries.
func (c *Client) CacheList(ctx context.Context) (*CacheListResponse, error) {
	var resp CacheListResponse
	if err := c.do(ctx, http.MethodGet, "/api/cache", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CacheClear flushes every cache entry.
func (c *Client) CacheClear(ctx context.Context) (*CacheFlushResponse, error) {
	var resp CacheFlushResponse
	if err := c.do(ctx, http.MethodDelete, "/api/cache", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CacheRemove drops one cache entry by key. A missing key is an error.
func (c *Client) CacheRemove(ctx context.Context, key string) (*CacheFlushResponse, error) {
	var resp CacheFlushResponse
	if err := c.do(ctx, http.MethodDelete, "/api/cache/"+url.PathEscape(key), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History returns up to limit recent resolution attempts.
func (c *Client) History(ctx context.Context, limit int) (*HistoryResponse, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var resp HistoryResponse
	if err := c.do(ctx, http.MethodGet, "/api/history", query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr ErrorResponse
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s (status %d)", method, path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func dialAddress(bind string) string {
	bind = strings.TrimSpace(bind)
	host, port, err := net.SplitHostPort(bind)
	if err != nil {
		return bind
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}

// IsUnavailable reports whether err indicates no server is listening.
func IsUnavailable(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"streamscout/internal/logging"
	"streamscout/internal/media"
	"streamscout/internal/services"
)

// ExternalIDs models the TMDB external_ids payload. Only the fields streamscout
// reads are decoded.
type ExternalIDs struct {
	ID     int64  `json:"id"`
	IMDbID string `json:"imdb_id"`
	TVDBID int64  `json:"tvdb_id"`
}

// Client provides access to the TMDB external ID endpoints.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRateLimit caps outbound requests per second. Zero disables limiting.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithLogger attaches a logger used for lookups that degrade to absence.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "tmdb")
	}
}

// New creates a TMDB client.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logging.NewComponentLogger(nil, "tmdb"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// ExternalIDs fetches the external identifiers for a TMDB movie or TV show.
func (c *Client) ExternalIDs(ctx context.Context, kind media.Kind, catalogID string) (*ExternalIDs, error) {
	catalogID = strings.TrimSpace(catalogID)
	if catalogID == "" {
		return nil, services.Wrap(services.ErrValidation, "tmdb", "external ids", "catalog id must not be empty", nil)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, services.Wrap(services.ErrTimeout, "tmdb", "rate limit", "wait for request slot", err)
		}
	}

	endpoint, err := url.Parse(fmt.Sprintf("%s/%s/%s/external_ids", c.baseURL, kind.CatalogPath(), url.PathEscape(catalogID)))
	if err != nil {
		return nil, fmt.Errorf("parse tmdb url: %w", err)
	}
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "tmdb", "external ids", fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, services.Wrap(services.ErrNotFound, "tmdb", "external ids", fmt.Sprintf("%s %s not found", kind.CatalogPath(), catalogID), nil)
	case resp.StatusCode != http.StatusOK:
		return nil, services.Wrap(services.ErrExternalTool, "tmdb", "external ids", fmt.Sprintf("tmdb returned %d (latency=%v)", resp.StatusCode, latency), nil)
	}

	var payload ExternalIDs
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode tmdb response: %w", err)
	}
	return &payload, nil
}

// LookupIMDbID returns the IMDb identifier for a TMDB movie or TV show.
// A record without an IMDb ID yields an ErrNotFound-marked error.
func (c *Client) LookupIMDbID(ctx context.Context, kind media.Kind, catalogID string) (string, error) {
	ids, err := c.ExternalIDs(ctx, kind, catalogID)
	if err != nil {
		return "", err
	}
	imdbID := strings.TrimSpace(ids.IMDbID)
	if imdbID == "" {
		return "", services.Wrap(services.ErrNotFound, "tmdb", "external ids", fmt.Sprintf("%s %s has no imdb id", kind.CatalogPath(), catalogID), nil)
	}
	return imdbID, nil
}

// CanonicalID resolves the IMDb identifier, degrading every failure to absence.
// Failures are logged so operators can tell a missing ID from an outage.
func (c *Client) CanonicalID(ctx context.Context, kind media.Kind, catalogID string) (string, bool) {
	imdbID, err := c.LookupIMDbID(ctx, kind, catalogID)
	if err == nil {
		return imdbID, true
	}
	logger := logging.WithContext(ctx, c.logger)
	if errors.Is(err, services.ErrNotFound) {
		logger.Info("imdb id not found",
			logging.String("kind", string(kind)),
			logging.String(logging.FieldCatalogID, catalogID),
		)
		return "", false
	}
	logging.WarnWithContext(logger, "imdb id lookup failed", "tmdb_lookup_failed",
		logging.String("kind", string(kind)),
		logging.String(logging.FieldCatalogID, catalogID),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check tmdb.api_key and network access to tmdb.base_url"),
		logging.String(logging.FieldImpact, "request answered as not found"),
	)
	return "", false
}

// Package algolia is an index.Searcher for the Algolia REST search API.
package algolia

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lazysearch/lazysearch/internal/index"
)

var (
	ErrAppIDMissing  = errors.New("algolia application id is not configured")
	ErrAPIKeyMissing = errors.New("algolia API key is not configured")
)

// Config holds client configuration for one index.
type Config struct {
	AppID     string
	APIKey    string
	IndexName string
	// Hosts overrides the default read hosts, tried in order. Entries may be
	// bare host names or full base URLs.
	Hosts   []string
	Timeout time.Duration
}

// Client queries one Algolia index.
type Client struct {
	httpClient *http.Client
	config     Config
	hosts      []string
	logger     zerolog.Logger
}

var (
	_ index.Searcher = (*Client)(nil)
	_ index.Pinger   = (*Client)(nil)
)

// NewClient creates a new client.
func NewClient(cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.AppID == "" {
		return nil, ErrAppIDMissing
	}
	if cfg.APIKey == "" {
		return nil, ErrAPIKeyMissing
	}
	if cfg.IndexName == "" {
		return nil, fmt.Errorf("algolia index name is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	hosts := make([]string, 0, 4)
	for _, h := range cfg.Hosts {
		hosts = append(hosts, baseURL(h))
	}
	if len(hosts) == 0 {
		hosts = defaultHosts(cfg.AppID)
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		config:     cfg,
		hosts:      hosts,
		logger: logger.With().
			Str("component", "algolia").
			Str("index", cfg.IndexName).
			Logger(),
	}, nil
}

// Factory adapts NewClient to index.Factory.
func Factory(timeout time.Duration, logger zerolog.Logger) index.Factory {
	return func(app index.Application, indexName string) (index.Searcher, error) {
		return NewClient(Config{
			AppID:     app.AppID,
			APIKey:    app.APIKey,
			IndexName: indexName,
			Hosts:     app.Hosts,
			Timeout:   timeout,
		}, logger)
	}
}

func defaultHosts(appID string) []string {
	return []string{
		fmt.Sprintf("https://%s-dsn.algolia.net", appID),
		fmt.Sprintf("https://%s-1.algolianet.com", appID),
		fmt.Sprintf("https://%s-2.algolianet.com", appID),
		fmt.Sprintf("https://%s-3.algolianet.com", appID),
	}
}

func baseURL(host string) string {
	host = strings.TrimRight(host, "/")
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host
	}
	return "https://" + host
}

// Name returns the index name.
func (c *Client) Name() string {
	return c.config.IndexName
}

// Search runs a query against the index.
func (c *Client) Search(ctx context.Context, req index.Request) (*index.Results, error) {
	req = req.Normalize()

	body, err := json.Marshal(queryBody{Params: req.Params()})
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	path := fmt.Sprintf("/1/indexes/%s/query", url.PathEscape(c.config.IndexName))

	var results index.Results
	if err := c.doRequest(ctx, http.MethodPost, path, body, &results); err != nil {
		return nil, err
	}
	return &results, nil
}

// Test verifies credentials and index existence by reading its settings.
func (c *Client) Test(ctx context.Context) error {
	path := fmt.Sprintf("/1/indexes/%s/settings", url.PathEscape(c.config.IndexName))
	var settings map[string]any
	return c.doRequest(ctx, http.MethodGet, path, nil, &settings)
}

// doRequest tries each host in order. Only network failures and server
// errors move on to the next host; anything else is final.
func (c *Client) doRequest(ctx context.Context, method, path string, body []byte, result interface{}) error {
	var lastErr error
	for _, host := range c.hosts {
		err := c.doHost(ctx, host, method, path, body, result)
		if err == nil {
			return nil
		}
		lastErr = err
		if ctx.Err() != nil || !index.IsRetryable(err) || errors.Is(err, index.ErrRateLimit) {
			return err
		}
		c.logger.Debug().Err(err).Str("host", host).Msg("Host failed, trying next")
	}
	return lastErr
}

func (c *Client) doHost(ctx context.Context, host, method, path string, body []byte, result interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, host+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Algolia-Application-Id", c.config.AppID)
	req.Header.Set("X-Algolia-API-Key", c.config.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return index.AsSearchError(c.config.IndexName, ctx.Err())
		}
		c.logger.Warn().Err(err).Str("host", host).Msg("HTTP request failed")
		return index.NewNetworkError(c.config.IndexName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.statusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return index.NewServiceError(c.config.IndexName, resp.StatusCode, fmt.Sprintf("failed to decode response: %v", err))
	}
	return nil
}

func (c *Client) statusError(resp *http.Response) error {
	var errResp errorResponse
	_ = json.NewDecoder(resp.Body).Decode(&errResp)

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Str("message", errResp.Message).
		Msg("Algolia API error")

	name := c.config.IndexName
	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return index.NewAuthError(name, resp.StatusCode, errResp.Message)
	case resp.StatusCode == http.StatusTooManyRequests:
		return index.NewRateLimitError(name)
	case resp.StatusCode == http.StatusNotFound:
		msg := errResp.Message
		if msg == "" {
			msg = "index does not exist"
		}
		return index.NewQueryError(name, resp.StatusCode, msg)
	case resp.StatusCode >= 500:
		return index.NewServiceError(name, resp.StatusCode, errResp.Message)
	default:
		return index.NewQueryError(name, resp.StatusCode, errResp.Message)
	}
}

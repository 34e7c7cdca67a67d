package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultUserAgent = "bankrates/1.0"

// Options parameterise the raw fetcher shared by all scrapers.
type Options struct {
	Timeout   time.Duration
	UserAgent string
}

// Client retrieves raw bytes and JSON documents from external sources.
// Every call carries the configured timeout so a hung source cannot block
// a request indefinitely.
type Client struct {
	client    *http.Client
	userAgent string
	logger    zerolog.Logger
}

// NewClient constructs a raw fetcher.
func NewClient(opts Options, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Client{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		logger:    logger.With().Str("component", "fetcher").Logger(),
	}
}

// Get retrieves the body of a URL.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}

	c.logger.Debug().Str("url", url).Int("bytes", len(body)).Msg("fetched document")
	return body, nil
}

// GetJSON retrieves a URL and decodes its JSON body into out. The raw body
// is returned alongside so callers can keep the document verbatim.
func (c *Client) GetJSON(ctx context.Context, url string, out any) ([]byte, error) {
	body, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return nil, fmt.Errorf("decode json from %s: %w", url, err)
	}
	return body, nil
}

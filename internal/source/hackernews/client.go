package hackernews

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const (
	SourceID   = "hackernews"
	SourceName = "Hacker News"
)

// Config holds Hacker News client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client fetches items from the Hacker News Firebase API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// New creates a new Hacker News client.
func New(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		logger:  logger.With("source", SourceID),
	}
}

// ID returns the source identifier.
func (c *Client) ID() string {
	return SourceID
}

// Name returns human-readable name.
func (c *Client) Name() string {
	return SourceName
}

// TopStories fetches the ranked list of top story IDs. This is the one
// fetch whose failure is reported as an error: without the list there is
// nothing for a sync run to do, and the caller records the cause.
func (c *Client) TopStories(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := c.getJSON(ctx, c.baseURL+"/topstories.json", &ids); err != nil {
		return nil, fmt.Errorf("fetch top stories: %w", err)
	}
	return ids, nil
}

// Item fetches a single item by ID. Any transport, status, or decode
// failure yields nil rather than an error: one bad remote item must not
// abort a sync run.
func (c *Client) Item(ctx context.Context, id int64) *Item {
	var item Item
	url := fmt.Sprintf("%s/item/%d.json", c.baseURL, id)
	if err := c.getJSON(ctx, url, &item); err != nil {
		c.logger.Debug("item fetch failed", "id", id, "error", err)
		return nil
	}
	// The API returns literal null for unknown IDs, which decodes into
	// the zero value.
	if item.ID == 0 {
		return nil
	}
	return &item
}

func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "HNSyncer/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

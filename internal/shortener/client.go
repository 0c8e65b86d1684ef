// Package shortener wraps the external URL shortening API used for
// verification links.
package shortener

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shred03/filestore-bot/internal/config"
)

// Client вызывает внешний API сокращения ссылок
type Client struct {
	cfg        config.ShortenerConfig
	httpClient *http.Client
}

type shortenResponse struct {
	Status       string `json:"status"`
	ShortenedURL string `json:"shortenedUrl"`
	Message      string `json:"message"`
}

// NewClient создает новый клиент сервиса сокращения ссылок
func NewClient(cfg config.ShortenerConfig) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.cfg.APIKey != ""
}

// Shorten exchanges longURL for a short one. Callers should fall back to the
// long URL on error; shortening is best-effort.
func (c *Client) Shorten(ctx context.Context, longURL, alias string) (string, error) {
	if !c.Enabled() {
		return longURL, nil
	}

	params := url.Values{}
	params.Set("api", c.cfg.APIKey)
	params.Set("url", longURL)
	if alias != "" {
		params.Set("alias", alias)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("shortener request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("shortener returned status %d", resp.StatusCode)
	}

	var payload shortenResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode shortener response: %w", err)
	}
	if payload.ShortenedURL == "" {
		return "", fmt.Errorf("shortener returned no URL: %s", payload.Message)
	}
	return payload.ShortenedURL, nil
}

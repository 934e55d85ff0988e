// Package gogdb talks to gogdb.org: searching the product catalog, locating
// monthly database backups, and downloading and unpacking backup archives
// into local dump trees.
package gogdb

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"steamgog/internal/config"
	"steamgog/internal/logging"
)

// Client issues requests against a gogdb.org instance.
type Client struct {
	baseURL    string
	http       *http.Client
	downloader *http.Client
	logger     *slog.Logger
}

// NewClient builds a client from the GOGDB configuration section. Downloads
// get their own generous timeout since backup archives run to gigabytes.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{
		baseURL: cfg.GOGDB.BaseURL,
		http: &http.Client{
			Timeout: time.Duration(cfg.GOGDB.RequestTimeout) * time.Second,
		},
		downloader: &http.Client{
			Timeout: time.Duration(cfg.GOGDB.DownloadTimeout) * time.Second,
		},
		logger: logging.WithComponent(logger, "gogdb"),
	}
}

func (c *Client) fetch(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	return resp, nil
}

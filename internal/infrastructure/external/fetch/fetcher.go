// Package fetch downloads remote URLs for re-upload.
package fetch

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/garyjia/drivehub/internal/application/port"
)

// HTTPClient interface for testability
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher opens arbitrary URLs as streams for re-upload.
// Implements port.URLFetcher.
type Fetcher struct {
	httpClient HTTPClient
	logger     *zap.Logger
}

// NewFetcher creates a fetcher. A nil client uses a plain http.Client with no
// overall timeout; the request context bounds the fetch.
func NewFetcher(client HTTPClient, logger *zap.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	return &Fetcher{
		httpClient: client,
		logger:     logger,
	}
}

// Fetch issues a GET and returns the open body. The caller must close it.
// Non-2xx responses are errors.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*port.RemoteFile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.logger.Warn("Fetch request failed",
			zap.String("url", rawURL),
			zap.Error(err))
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		f.logger.Warn("Fetch returned non-2xx status",
			zap.Int("status", resp.StatusCode),
			zap.String("url", rawURL))
		return nil, fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &port.RemoteFile{
		Body:        resp.Body,
		ContentType: contentType,
	}, nil
}

var _ port.URLFetcher = (*Fetcher)(nil)

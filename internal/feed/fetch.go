// Package feed fetches the external product feed and parses it into raw
// records. Several known document shapes are supported; the parser tries
// them in priority order and the first match wins.
package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/shopchat/catalog/pkg/config"
	apperrors "github.com/shopchat/catalog/pkg/errors"
	"github.com/shopchat/catalog/pkg/resilience"
)

// Fetcher downloads feed documents with a bounded timeout and payload size.
type Fetcher struct {
	client    *http.Client
	maxBytes  int64
	userAgent string
	logger    *slog.Logger
}

// NewFetcher creates a Fetcher from the feed configuration.
func NewFetcher(cfg config.FeedConfig) *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: cfg.FetchTimeout},
		maxBytes:  cfg.MaxBytes,
		userAgent: cfg.UserAgent,
		logger:    slog.Default().With("component", "feed-fetcher"),
	}
}

// Fetch downloads the document at url. It fails with ErrFeedUnavailable on
// transport errors and non-2xx responses, and ErrFeedOversize when the body
// exceeds the configured limit. Transient failures are retried with backoff.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := resilience.Retry(ctx, "feed-fetch", resilience.RetryConfig{MaxAttempts: 3}, func() error {
		var attemptErr error
		body, attemptErr = f.fetchOnce(ctx, url)
		return attemptErr
	})
	if err != nil {
		return nil, err
	}
	f.logger.Info("feed downloaded", "url", url, "bytes", len(body))
	return body, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", apperrors.ErrFeedUnavailable, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %d", apperrors.ErrFeedUnavailable, resp.StatusCode)
	}
	if resp.ContentLength > f.maxBytes {
		return nil, fmt.Errorf("%w: content length %d exceeds limit %d", apperrors.ErrFeedOversize, resp.ContentLength, f.maxBytes)
	}

	// Read one byte past the limit so oversize bodies without a
	// Content-Length header are still detected.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", apperrors.ErrFeedUnavailable, err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("%w: body exceeds limit %d", apperrors.ErrFeedOversize, f.maxBytes)
	}
	return body, nil
}

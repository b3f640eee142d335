// Package source fetches the outage report page over HTTP.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/couchcryptid/outage-alert-service/internal/domain"
)

const userAgent = "outage-alert-service/1.0"

// Fetcher downloads the outage page.
type Fetcher struct {
	client *resty.Client
	url    string
	logger *slog.Logger
}

var _ domain.Fetcher = (*Fetcher)(nil)

// NewFetcher creates a Fetcher for pageURL. Each attempt is bounded by
// timeout; transport errors and 5xx responses are retried up to retries
// times.
func NewFetcher(pageURL string, timeout time.Duration, retries int, logger *slog.Logger) *Fetcher {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetRetryCount(retries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
	return &Fetcher{client: client, url: pageURL, logger: logger}
}

// Fetch returns the raw page body. Every failure wraps domain.ErrFetch.
func (f *Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	resp, err := f.client.R().SetContext(ctx).Get(f.url)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrFetch, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", domain.ErrFetch, resp.StatusCode())
	}

	f.logger.Debug("outage page fetched",
		"bytes", len(resp.Body()),
		"duration", resp.Time(),
		"attempts", resp.Request.Attempt,
	)
	return resp.Body(), nil
}

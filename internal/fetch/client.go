package fetch

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"fpl-assistant/internal/metrics"
)

// Client is a thin HTTP client that classifies failures into the
// network / not-found / parse taxonomy. Both remote sources (the
// GitHub CSV dataset and the FPL JSON API) go through it.
type Client struct {
	HTTP      *http.Client
	UserAgent string
	metrics   *metrics.Registry
}

// NewClient creates a fetch client with the given request timeout.
func NewClient(timeout time.Duration, userAgent string, metricsRegistry *metrics.Registry) *Client {
	return &Client{
		HTTP:      &http.Client{Timeout: timeout},
		UserAgent: userAgent,
		metrics:   metricsRegistry,
	}
}

// Get downloads url and returns the raw body. Status 404 (and 403,
// which raw.githubusercontent.com serves for missing paths) maps to a
// not-found error; any other non-2xx status is a network error.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	c.metrics.Inc(metrics.FetchRequestsTotal)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, NetworkErr(url, err)
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.metrics.Inc(metrics.FetchErrorsTotal)
		return nil, NetworkErr(url, err)
	}
	defer resp.Body.Close()

	if notFoundStatus(resp.StatusCode) {
		return nil, NotFoundErr(url)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.Inc(metrics.FetchErrorsTotal)
		return nil, NetworkErr(url, errors.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.Inc(metrics.FetchErrorsTotal)
		return nil, NetworkErr(url, errors.Wrap(err, "read body"))
	}
	return body, nil
}

// Head issues a HEAD request and returns the Content-Length, or -1
// when the server does not report one. Used by gameweek probing to
// check file existence without downloading it.
func (c *Client) Head(ctx context.Context, url string) (int64, error) {
	c.metrics.Inc(metrics.FetchRequestsTotal)

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, NetworkErr(url, err)
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.metrics.Inc(metrics.FetchErrorsTotal)
		return 0, NetworkErr(url, err)
	}
	defer resp.Body.Close()

	if notFoundStatus(resp.StatusCode) {
		return 0, NotFoundErr(url)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.Inc(metrics.FetchErrorsTotal)
		return 0, NetworkErr(url, errors.Errorf("unexpected status %d", resp.StatusCode))
	}

	return resp.ContentLength, nil
}

// GetWithRetry runs Get under the retry policy, retrying transient
// failures only. Not-found passes straight through to the caller.
func (c *Client) GetWithRetry(ctx context.Context, url string, policy RetryPolicy) ([]byte, error) {
	var body []byte
	attempts := 0

	err := Retry(ctx, policy, IsTransient, func() error {
		attempts++
		if attempts > 1 {
			c.metrics.Inc(metrics.FetchRetriesTotal)
		}
		var err error
		body, err = c.Get(ctx, url)
		return err
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func notFoundStatus(code int) bool {
	return code == http.StatusNotFound || code == http.StatusForbidden
}

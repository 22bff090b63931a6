// Package fetch performs bounded, retrying HTTP fetches of HTML pages.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Content-policy failures. None of these are retryable.
var (
	// ErrNotHTML is returned for responses that are not text/html.
	ErrNotHTML = errors.New("content type is not text/html")
	// ErrTooLarge is returned when the body exceeds the configured size cap,
	// whether declared via Content-Length or discovered mid-stream.
	ErrTooLarge = errors.New("response body exceeds size cap")
)

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d", e.Code)
}

// Config controls Client behavior.
type Config struct {
	UserAgent    string
	Timeout      time.Duration
	MaxBodyBytes int64
	MaxRetries   int
	BackoffBase  time.Duration
	BackoffMax   time.Duration
}

// Response is a successful HTML fetch.
type Response struct {
	URL        string
	StatusCode int
	Body       []byte
}

// Client fetches HTML documents with a size cap, a content-type guard, and
// bounded retries on transport failure.
type Client struct {
	http   *http.Client
	cfg    Config
	retry  retryPolicy
	logger *zap.Logger
}

// NewClient builds a Client from cfg.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 5 << 20
	}
	return &Client{
		http:   &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		retry:  newRetryPolicy(cfg.MaxRetries, cfg.BackoffBase, cfg.BackoffMax),
		logger: logger,
	}
}

// Fetch retrieves url, retrying transport failures up to the configured
// attempt bound. Content-policy failures surface immediately.
func (c *Client) Fetch(ctx context.Context, url string) (*Response, error) {
	var lastErr error
	for attempt := 0; attempt < c.retry.maxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, c.retry.backoff(attempt-1)); err != nil {
				return nil, fmt.Errorf("backoff wait: %w", err)
			}
			c.logger.Debug("retrying fetch",
				zap.String("url", url), zap.Int("attempt", attempt))
		}

		resp, err := c.fetchOnce(ctx, url)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !c.retry.shouldRetry(ctx, err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("fetch %s: retries exhausted: %w", url, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.1")
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Debug("close response body", zap.Error(cerr))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode}
	}
	if resp.ContentLength > c.cfg.MaxBodyBytes {
		return nil, fmt.Errorf("declared length %d: %w", resp.ContentLength, ErrTooLarge)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(strings.ToLower(contentType), "text/html") {
		return nil, fmt.Errorf("content type %q: %w", contentType, ErrNotHTML)
	}

	// Servers may omit or lie about Content-Length, so the cap is enforced
	// again while streaming.
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > c.cfg.MaxBodyBytes {
		return nil, fmt.Errorf("streamed past %d bytes: %w", c.cfg.MaxBodyBytes, ErrTooLarge)
	}

	return &Response{URL: url, StatusCode: resp.StatusCode, Body: body}, nil
}

// isTransport classifies err as a transport failure (timeout, DNS failure,
// connection reset) as opposed to a content-policy rejection.
func isTransport(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return false
	}
	if errors.Is(err, ErrNotHTML) || errors.Is(err, ErrTooLarge) {
		return false
	}
	return true
}

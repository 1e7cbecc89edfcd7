// Package httpapi fetches member messages from the upstream REST API,
// with pagination, conditional requests, and retry. Not on the question
// path: only corpus refreshes call it.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/caravel-labs/rosterqa/internal/core/domain"
	"github.com/caravel-labs/rosterqa/internal/core/ports/driven"
	"github.com/caravel-labs/rosterqa/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.MessageSource = (*Client)(nil)

// Default configuration values.
const (
	DefaultPageSize = 200
	DefaultTimeout  = 10 * time.Second
	DefaultAttempts = 5

	// maxBackoff caps the exponential retry delay.
	maxBackoff = 10 * time.Second

	// requestsPerSecond is the politeness budget against the upstream.
	requestsPerSecond = 5

	userAgent = "rosterqa/0.1"
)

// Config holds configuration for the upstream messages client.
type Config struct {
	// URL is the messages endpoint (required).
	URL string

	// PageSize is the page size requested per request (default: 200).
	PageSize int

	// Timeout bounds each request (default: 10s).
	Timeout time.Duration

	// Attempts is the maximum tries per request (default: 5).
	Attempts int

	// Cache, when set, stores the fetched batch and enables If-None-Match
	// conditional requests.
	Cache driven.MessageCache
}

// Client fetches the full message corpus from the upstream API.
type Client struct {
	client   *http.Client
	url      string
	pageSize int
	attempts int
	limiter  *rate.Limiter
	cache    driven.MessageCache
}

// page is the upstream pagination envelope.
type page struct {
	Items    []domain.RawMessage `json:"items"`
	Total    int                 `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
	NextPage int                 `json:"next_page"`
	NextURL  string              `json:"next_url"`
}

// NewClient creates an upstream messages client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("httpapi: URL is required")
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("httpapi: invalid URL: %w", err)
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = DefaultAttempts
	}

	return &Client{
		client:   &http.Client{Timeout: cfg.Timeout},
		url:      cfg.URL,
		pageSize: cfg.PageSize,
		attempts: cfg.Attempts,
		limiter:  rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		cache:    cfg.Cache,
	}, nil
}

// Fetch retrieves the full ordered batch of raw messages, following
// pagination. When a cached batch carries an ETag and the upstream answers
// 304 Not Modified, the cached batch is returned without a download.
func (c *Client) Fetch(ctx context.Context) (*domain.RawBatch, error) {
	var cached *domain.RawBatch
	if c.cache != nil {
		batch, err := c.cache.Load(ctx)
		switch {
		case err == nil:
			cached = batch
			logger.Debug("Cached batch: %d messages, etag %q", len(batch.Messages), batch.ETag)
		case errors.Is(err, domain.ErrNotFound):
		default:
			logger.Warn("Cache load failed: %v", err)
		}
	}

	first, status, etag, err := c.get(ctx, c.pageURL(1), conditionalETag(cached))
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotModified {
		if cached == nil {
			return nil, fmt.Errorf("httpapi: 304 response without a cached batch")
		}
		logger.Info("Upstream not modified, reusing %d cached messages", len(cached.Messages))
		return cached, nil
	}

	messages := first.Items
	for next := c.nextRequest(first); next != ""; {
		p, _, _, err := c.get(ctx, next, "")
		if err != nil {
			return nil, err
		}
		messages = append(messages, p.Items...)
		next = c.nextRequest(p)
	}

	batch := &domain.RawBatch{
		Messages:  messages,
		ETag:      etag,
		FetchedAt: time.Now().UTC(),
	}
	logger.Info("Fetched %d messages from upstream", len(messages))

	if c.cache != nil {
		if err := c.cache.Save(ctx, batch); err != nil {
			logger.Warn("Cache save failed: %v", err)
		}
	}
	return batch, nil
}

// get performs one paginated request with retry and exponential backoff.
// Transport errors and 5xx responses are retryable; anything else fails
// immediately.
func (c *Client) get(ctx context.Context, rawURL, ifNoneMatch string) (*page, int, string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, "", err
		}

		p, status, etag, err := c.getOnce(ctx, rawURL, ifNoneMatch)
		if err == nil {
			return p, status, etag, nil
		}
		lastErr = err

		var se *statusError
		if errors.As(err, &se) && se.code < http.StatusInternalServerError {
			return nil, 0, "", err
		}
		if attempt == c.attempts {
			break
		}

		backoff := time.Duration(1<<(attempt-1)) * time.Second
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
		logger.Warn("Upstream request failed (attempt %d/%d), retrying in %s: %v",
			attempt, c.attempts, backoff, err)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, 0, "", ctx.Err()
		}
	}
	return nil, 0, "", fmt.Errorf("fetch %s: %w", rawURL, lastErr)
}

func (c *Client) getOnce(ctx context.Context, rawURL, ifNoneMatch string) (*page, int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, 0, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if ifNoneMatch != "" {
		req.Header.Set("If-None-Match", ifNoneMatch)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return nil, resp.StatusCode, "", nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, 0, "", &statusError{code: resp.StatusCode, body: string(body)}
	}

	var p page
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, 0, "", fmt.Errorf("decode page: %w", err)
	}
	return &p, resp.StatusCode, resp.Header.Get("ETag"), nil
}

// nextRequest derives the URL for the following page, or "" when the batch
// is complete. An explicit next_url wins over page-number arithmetic.
func (c *Client) nextRequest(p *page) string {
	if p == nil {
		return ""
	}
	if p.NextURL != "" {
		return p.NextURL
	}
	if p.NextPage > 0 {
		return c.pageURL(p.NextPage)
	}
	// A full page without an explicit hint implies another page exists.
	size := p.PageSize
	if size == 0 {
		size = c.pageSize
	}
	if len(p.Items) >= size && p.Page > 0 {
		return c.pageURL(p.Page + 1)
	}
	return ""
}

func (c *Client) pageURL(n int) string {
	u, err := url.Parse(c.url)
	if err != nil {
		return c.url
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(n))
	q.Set("page_size", strconv.Itoa(c.pageSize))
	u.RawQuery = q.Encode()
	return u.String()
}

func conditionalETag(cached *domain.RawBatch) string {
	if cached == nil {
		return ""
	}
	return cached.ETag
}

// statusError is a non-2xx upstream response.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.code, e.body)
}

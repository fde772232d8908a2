// Package httpclient is the outbound transport for catalog requests. It
// bounds each attempt with a timeout, paces requests with a token bucket and
// retries read-only requests on rate limiting, server errors and transient
// network failures.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// ErrNotRetryable is returned when a request with side effects is passed to Do.
var ErrNotRetryable = errors.New("httpclient: only GET and HEAD requests are supported")

// Config holds retry, pacing and timeout settings.
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Timeout     time.Duration
	// RequestsPerSecond paces outgoing requests; zero disables pacing.
	RequestsPerSecond float64
	Burst             int
}

// DefaultConfig returns defaults that stay under TMDb's published rate limit.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:       3,
		BaseDelay:         500 * time.Millisecond,
		MaxDelay:          5 * time.Second,
		Timeout:           10 * time.Second,
		RequestsPerSecond: 40,
		Burst:             20,
	}
}

// Client wraps http.Client with pacing and retry.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	config  Config
	logger  *slog.Logger
}

// New creates a Client with its own http.Client bounded by cfg.Timeout.
func New(cfg Config, logger *slog.Logger) *Client {
	return NewWithHTTPClient(cfg, &http.Client{Timeout: cfg.Timeout}, logger)
}

// NewWithHTTPClient creates a Client around an existing http.Client.
func NewWithHTTPClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	c := &Client{
		http:   httpClient,
		config: cfg,
		logger: logger,
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return c
}

// Do executes a GET or HEAD request. A non-retryable status is returned as a
// response; the caller owns its body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return nil, ErrNotRetryable
	}

	ctx := req.Context()
	var lastErr error
	var lastResp *http.Response

	for attempt := range c.config.MaxAttempts {
		if attempt > 0 {
			if err := c.waitBeforeRetry(ctx, attempt, lastResp, req.URL.Path); err != nil {
				return nil, err
			}
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limiter: %w", err)
			}
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			lastResp = nil
			continue
		}

		if !shouldRetry(resp.StatusCode) {
			return resp, nil
		}

		lastErr = fmt.Errorf("HTTP %d from %s", resp.StatusCode, req.URL.Path)
		lastResp = resp
		_ = resp.Body.Close()
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", c.config.MaxAttempts, lastErr)
}

func (c *Client) waitBeforeRetry(ctx context.Context, attempt int, lastResp *http.Response, path string) error {
	delay := c.backoff(attempt)
	if d := retryAfterDelay(lastResp); d > delay {
		delay = d
	}
	if delay > c.config.MaxDelay {
		delay = c.config.MaxDelay
	}

	c.logger.Debug("retrying request",
		slog.Int("attempt", attempt+1),
		slog.Duration("delay", delay),
		slog.String("path", path),
	)

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func retryAfterDelay(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	seconds, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// shouldRetry returns true for status codes that warrant another attempt.
func shouldRetry(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// backoff is exponential in the attempt number with up to 20% jitter.
func (c *Client) backoff(attempt int) time.Duration {
	delay := float64(c.config.BaseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(c.config.MaxDelay) {
		delay = float64(c.config.MaxDelay)
	}
	jitter := delay * 0.2 * rand.Float64() // #nosec G404
	return time.Duration(delay + jitter)
}

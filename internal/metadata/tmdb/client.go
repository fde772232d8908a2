// Package tmdb fetches raw catalog responses from the TMDb v3 API and
// decodes them into movie records.
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vadimtrunov/PopularMovies/internal/httpclient"
	"github.com/vadimtrunov/PopularMovies/internal/metrics"
)

const (
	defaultBaseURL  = "https://api.themoviedb.org/3"
	defaultLanguage = "en-US"
	defaultTimeout  = 10 * time.Second
	maxBodyBytes    = 8 << 20
)

var (
	// ErrUnavailable means no usable response body was obtained: transport
	// failure, non-success status, or an empty body.
	ErrUnavailable = errors.New("tmdb: no data")
	// ErrInvalidRequest means the request could not be turned into a URL.
	ErrInvalidRequest = errors.New("tmdb: invalid request")
	// ErrDecode means a response body was not a valid payload.
	ErrDecode = errors.New("tmdb: decode failed")
)

// Options configures a Client.
type Options struct {
	APIKey   string
	BaseURL  string
	Language string
	// Timeout bounds one fetch including retries.
	Timeout time.Duration
	// CacheTTL keeps successful response bodies in memory; zero disables.
	CacheTTL time.Duration
	HTTP     httpclient.Config
}

// Client is a read-only TMDb v3 client. It holds no state between calls
// beyond configuration and the optional response cache.
type Client struct {
	baseURL  string
	apiKey   string
	language string
	timeout  time.Duration
	http     *httpclient.Client
	cache    *responseCache
	group    singleflight.Group
	logger   *slog.Logger
}

// New creates a TMDb client.
func New(opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Language == "" {
		opts.Language = defaultLanguage
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.HTTP == (httpclient.Config{}) {
		opts.HTTP = httpclient.DefaultConfig()
	}
	return &Client{
		baseURL:  opts.BaseURL,
		apiKey:   opts.APIKey,
		language: opts.Language,
		timeout:  opts.Timeout,
		http:     httpclient.New(opts.HTTP, logger),
		cache:    newResponseCache(opts.CacheTTL),
		logger:   logger,
	}
}

// FetchList returns the raw body of one browse or search page.
func (c *Client) FetchList(ctx context.Context, req ListRequest) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	params := url.Values{"page": {strconv.Itoa(req.Page)}}
	var path string
	switch req.Mode {
	case ModeSearch:
		path = "/search/movie"
		params.Set("query", req.Query)
	default:
		path = "/movie/" + string(req.Sort)
	}

	body, err := c.get(ctx, req.endpoint(), path, params)
	if err != nil {
		return nil, fmt.Errorf("fetch %s page %d: %w", req.endpoint(), req.Page, err)
	}
	return body, nil
}

// FetchVideos returns the raw body of a movie's videos.
func (c *Client) FetchVideos(ctx context.Context, movieID int) ([]byte, error) {
	body, err := c.get(ctx, "videos", fmt.Sprintf("/movie/%d/videos", movieID), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch videos for %d: %w", movieID, err)
	}
	return body, nil
}

// FetchReviews returns the raw body of the first page of a movie's reviews.
func (c *Client) FetchReviews(ctx context.Context, movieID int) ([]byte, error) {
	body, err := c.get(ctx, "reviews", fmt.Sprintf("/movie/%d/reviews", movieID), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch reviews for %d: %w", movieID, err)
	}
	return body, nil
}

// get resolves path against the base URL, serves it from cache when
// possible, and collapses identical in-flight requests. Cancelling one caller
// never fails the others waiting on the same request.
func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values) ([]byte, error) {
	u, err := c.buildURL(path, params)
	if err != nil {
		metrics.RecordFetch(endpoint, metrics.OutcomeError, 0)
		return nil, fmt.Errorf("%w: invalid URL: %v", ErrUnavailable, err)
	}
	key := u.String()

	if body, ok := c.cache.get(key); ok {
		metrics.RecordFetch(endpoint, metrics.OutcomeCached, 0)
		return body, nil
	}

	// The shared fetch outlives any one caller; each caller stops waiting on
	// its own ctx, and fetch bounds the request with c.timeout.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		return c.fetch(shared, endpoint, u)
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		body, _ := res.Val.([]byte)
		return body, nil
	}
}

func (c *Client) fetch(ctx context.Context, endpoint string, u *url.URL) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	body, err := c.do(ctx, u)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		metrics.RecordFetch(endpoint, metrics.OutcomeError, elapsed)
		c.logger.Warn("tmdb fetch failed",
			slog.String("endpoint", endpoint),
			slog.String("path", u.Path),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	metrics.RecordFetch(endpoint, metrics.OutcomeOK, elapsed)
	c.logger.Debug("tmdb fetch ok",
		slog.String("endpoint", endpoint),
		slog.String("path", u.Path),
		slog.Int("bytes", len(body)),
	)
	c.cache.set(u.String(), body)
	return body, nil
}

func (c *Client) do(ctx context.Context, u *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: tmdb API error %d: %s", ErrUnavailable, resp.StatusCode, string(snippet))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrUnavailable)
	}
	return body, nil
}

func (c *Client) buildURL(path string, params url.Values) (*url.URL, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base URL %q has no scheme or host", c.baseURL)
	}

	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	q.Set("language", c.language)
	q.Set("api_key", c.apiKey)
	u.RawQuery = q.Encode()
	return u, nil
}

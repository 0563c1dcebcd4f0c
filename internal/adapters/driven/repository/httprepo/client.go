package httprepo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/pkgsearch/internal/core/domain"
	"github.com/custodia-labs/pkgsearch/internal/core/ports/driven"
	"github.com/custodia-labs/pkgsearch/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.RepositoryClient = (*Client)(nil)

// searchPath is the versioned search endpoint below a repository origin.
const searchPath = "/search/1"

// requestIDHeader carries the per-query request ID.
const requestIDHeader = "X-Request-ID"

// Config configures a Client.
type Config struct {
	// Concurrency bounds the number of repositories queried at once.
	Concurrency int

	// RequestsPerSecond throttles outgoing queries; 0 disables throttling.
	RequestsPerSecond float64

	// Timeout bounds connecting, waiting for response headers and each
	// read of the response body. The body as a whole is unbounded since
	// it is read only as fast as results are consumed.
	Timeout time.Duration

	// Buffer is the number of records prefetched per repository.
	Buffer int
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{
		Concurrency:       4,
		RequestsPerSecond: 10,
		Timeout:           30 * time.Second,
		Buffer:            256,
	}
}

// Client implements driven.RepositoryClient over HTTP.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *RateLimiter
}

// NewClient creates a new repository client.
// If httpClient is nil, a client bounding connection setup and response
// headers by cfg.Timeout is used.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	def := DefaultConfig()
	if cfg.Concurrency < 1 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Buffer < 1 {
		cfg.Buffer = def.Buffer
	}
	if httpClient == nil {
		httpClient = newHTTPClient(cfg.Timeout)
	}
	return &Client{
		cfg:     cfg,
		http:    httpClient,
		limiter: NewRateLimiter(cfg.RequestsPerSecond, cfg.Concurrency),
	}
}

// errIdleTimeout reports a response body that stalled for longer than
// Config.Timeout.
var errIdleTimeout = errors.New("response stalled")

func newHTTPClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}).DialContext
	transport.TLSHandshakeTimeout = timeout
	transport.ResponseHeaderTimeout = timeout
	return &http.Client{Transport: transport}
}

// Search starts a query against every repository and returns one source
// per repository, in the order given.
func (c *Client) Search(ctx context.Context, repos []domain.Repository, query driven.RemoteQuery) []driven.RecordSource {
	sources := make([]driven.RecordSource, len(repos))
	fetches := make([]*source, len(repos))
	for i, repo := range repos {
		s := newSource(ctx, repo, c.cfg.Buffer)
		sources[i] = s
		fetches[i] = s
	}

	g := new(errgroup.Group)
	g.SetLimit(c.cfg.Concurrency)
	go func() {
		for _, s := range fetches {
			g.Go(func() error {
				c.fetch(s, query)
				return nil
			})
		}
		_ = g.Wait()
		logger.Debug("Finished querying %d repositories", len(fetches))
	}()

	return sources
}

// fetch runs one repository query, feeding s until the response ends.
func (c *Client) fetch(s *source, query driven.RemoteQuery) {
	defer close(s.items)

	ctx := s.ctx
	if err := c.limiter.Wait(ctx); err != nil {
		s.fail(err)
		return
	}

	reqCtx, reqCancel := context.WithCancel(ctx)
	defer reqCancel()

	reqURL := searchURL(s.repo.Origin, query)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, reqURL, nil)
	if err != nil {
		s.fail(s.serverError(fmt.Errorf("%w: %w", domain.ErrServerFailed, err)))
		return
	}
	reqID := uuid.NewString()
	req.Header.Set(requestIDHeader, reqID)
	req.Header.Set("Accept", "application/x-ndjson")
	logger.Debug("GET %s (%s %s)", reqURL, requestIDHeader, reqID)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			s.fail(ctx.Err())
			return
		}
		s.fail(s.serverError(fmt.Errorf("%w: %w", domain.ErrServerFailed, err)))
		return
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNotImplemented:
		s.fail(s.serverError(fmt.Errorf("%w: HTTP %d", domain.ErrUnsupportedSearch, resp.StatusCode)))
		return
	case resp.StatusCode == http.StatusTooManyRequests:
		c.limiter.Backoff(retryAfter(resp.Header.Get("Retry-After")))
		s.fail(s.serverError(fmt.Errorf("%w: HTTP %d", domain.ErrServerFailed, resp.StatusCode)))
		return
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		s.fail(s.serverError(fmt.Errorf("%w: HTTP %d", domain.ErrServerFailed, resp.StatusCode)))
		return
	}

	n, err := s.decode(&idleReader{r: resp.Body, timeout: c.cfg.Timeout, cancel: reqCancel})
	if err != nil {
		if ctx.Err() != nil {
			s.fail(ctx.Err())
			return
		}
		s.fail(s.serverError(fmt.Errorf("%w: reading response: %w", domain.ErrServerFailed, err)))
		return
	}
	logger.Debug("%s returned %d records (%s)", s.repo.Origin, n, reqID)
}

// idleReader cancels the request when a single Read blocks for longer
// than timeout. Time spent between reads does not count.
type idleReader struct {
	r       io.Reader
	timeout time.Duration
	cancel  context.CancelFunc
	expired atomic.Bool
}

func (r *idleReader) Read(p []byte) (int, error) {
	timer := time.AfterFunc(r.timeout, func() {
		r.expired.Store(true)
		r.cancel()
	})
	n, err := r.r.Read(p)
	timer.Stop()
	if err != nil && r.expired.Load() {
		err = fmt.Errorf("%w after %s", errIdleTimeout, r.timeout)
	}
	return n, err
}

// searchURL builds the query URL for origin.
func searchURL(origin string, query driven.RemoteQuery) string {
	v := url.Values{}
	v.Set("q", query.Query.Text)
	v.Set("case", strconv.FormatBool(query.Query.CaseSensitive))
	v.Set("return", query.Query.ReturnType.String())
	v.Set("prune", strconv.FormatBool(query.PruneVersions))
	return origin + searchPath + "?" + v.Encode()
}

// retryAfter parses a Retry-After header in seconds, defaulting to 60s.
func retryAfter(header string) time.Duration {
	secs, err := strconv.Atoi(header)
	if err != nil || secs <= 0 {
		return time.Minute
	}
	return time.Duration(secs) * time.Second
}

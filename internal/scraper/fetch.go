package scraper

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/errors"
	"github.com/sony/gobreaker"

	"github.com/pfrederiksen/fixture-calendar/internal/logger"
)

const (
	// UserAgent mimics a desktop browser; the fixtures site rejects bot agents.
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	Timeout   = 30 * time.Second

	AcceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	AcceptJSON = "application/json, text/plain, */*"

	// DefaultRetries and DefaultRetryWait bound retries of transient failures
	DefaultRetries   = 4
	DefaultRetryWait = 500 * time.Millisecond

	// breakerThreshold consecutive failures open the breaker for the rest of the run
	breakerThreshold = 3

	maxBodyBytes = 16 << 20
)

var (
	// ErrUnauthorized marks a 401/403 answer. It is a signal to fall back, not a failure.
	ErrUnauthorized = errors.New("upstream refused credentials")
	// ErrUpstream marks transport failures, non-2xx statuses and unreadable bodies.
	ErrUpstream = errors.New("upstream failure")

	// errTransient marks failures worth retrying: transport errors, 5xx and 429
	errTransient = errors.New("transient upstream failure")
)

// Request carries per-request headers
type Request struct {
	URL     string
	Accept  string
	Referer string
	Token   string // bearer token, optional
}

// FetcherOption customizes a Fetcher
type FetcherOption func(*Fetcher)

// WithRetries sets how often a transient failure is retried. Retries stop
// early once the breaker opens.
func WithRetries(n int, wait time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if n >= 0 {
			f.retries = n
		}
		if wait >= 0 {
			f.retryWait = wait
		}
	}
}

// WithMaxBody caps the accepted response size in bytes
func WithMaxBody(n int64) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBody = n
		}
	}
}

// Fetcher performs guarded HTTP GETs. Transient failures are retried with
// exponential backoff. Every attempt passes through one circuit breaker
// shared by all requests of the fetcher.
type Fetcher struct {
	client    *http.Client
	userAgent string
	cb        *gobreaker.CircuitBreaker
	retries   int
	retryWait time.Duration
	maxBody   int64
}

// NewFetcher creates a Fetcher. Zero timeout and empty user agent use the
// defaults. Without WithRetries every request is attempted once.
func NewFetcher(timeout time.Duration, userAgent string, opts ...FetcherOption) *Fetcher {
	if timeout <= 0 {
		timeout = Timeout
	}
	if userAgent == "" {
		userAgent = UserAgent
	}

	settings := gobreaker.Settings{
		Name:        "fixtures-upstream",
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerThreshold
		},
		// Refused credentials say nothing about upstream health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrUnauthorized)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", logger.Fields{
				"name": name,
				"from": from.String(),
				"to":   to.String(),
			})
		},
	}

	f := &Fetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
		cb:        gobreaker.NewCircuitBreaker(settings),
		maxBody:   maxBodyBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Get fetches req.URL and returns the response body. Transient failures are
// retried until the retry budget is spent or the breaker opens.
func (f *Fetcher) Get(ctx context.Context, req Request) ([]byte, error) {
	var (
		body    []byte
		attempt int
	)

	op := func() error {
		attempt++
		out, err := f.cb.Execute(func() (interface{}, error) {
			return f.do(ctx, req)
		})
		switch {
		case err == nil:
			body = out.([]byte)
			return nil
		case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
			return backoff.Permanent(errors.Mark(errors.Wrapf(err, "fetching %s", req.URL), ErrUpstream))
		case !errors.Is(err, errTransient):
			return backoff.Permanent(err)
		default:
			return err
		}
	}

	notify := func(err error, wait time.Duration) {
		logger.Warn("Fetch failed, retrying", logger.Fields{
			"url":     req.URL,
			"attempt": attempt,
			"wait":    wait.String(),
			"error":   err.Error(),
		})
	}

	if err := backoff.RetryNotify(op, f.backOff(ctx), notify); err != nil {
		return nil, err
	}
	return body, nil
}

func (f *Fetcher) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.retryWait
	b.MaxInterval = 10 * f.retryWait
	b.MaxElapsedTime = f.client.Timeout
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(f.retries)), ctx)
}

func (f *Fetcher) do(ctx context.Context, r Request) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}

	req.Header.Set("User-Agent", f.userAgent)
	if r.Accept != "" {
		req.Header.Set("Accept", r.Accept)
	}
	if r.Referer != "" {
		req.Header.Set("Referer", r.Referer)
	}
	if r.Token != "" {
		req.Header.Set("Authorization", "Bearer "+r.Token)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Mark(errors.Mark(errors.Wrapf(err, "fetching %s", r.URL), ErrUpstream), errTransient)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, errors.Wrapf(ErrUnauthorized, "status %d from %s", resp.StatusCode, r.URL)
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, errors.Mark(errors.Wrapf(ErrUpstream, "unexpected status code %d from %s", resp.StatusCode, r.URL), errTransient)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, errors.Wrapf(ErrUpstream, "unexpected status code %d from %s", resp.StatusCode, r.URL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, errors.Mark(errors.Mark(errors.Wrapf(err, "reading %s", r.URL), ErrUpstream), errTransient)
	}
	if int64(len(body)) > f.maxBody {
		return nil, errors.Wrapf(ErrUpstream, "response from %s exceeds %d bytes", r.URL, f.maxBody)
	}

	logger.Debug("Fetched upstream document", logger.Fields{
		"url":      r.URL,
		"status":   resp.StatusCode,
		"bytes":    len(body),
		"duration": time.Since(start).String(),
	})

	return body, nil
}

// Source yields the raw bytes of an upstream document
type Source interface {
	Load(ctx context.Context) ([]byte, error)
	Describe() string
}

// HTTPSource loads a document over HTTP
type HTTPSource struct {
	fetcher *Fetcher
	req     Request
}

// NewHTTPSource creates a source for req, fetched through f
func NewHTTPSource(f *Fetcher, req Request) *HTTPSource {
	return &HTTPSource{fetcher: f, req: req}
}

// Load fetches the document
func (s *HTTPSource) Load(ctx context.Context) ([]byte, error) {
	return s.fetcher.Get(ctx, s.req)
}

// Describe returns the source URL
func (s *HTTPSource) Describe() string {
	return s.req.URL
}

// FileSource loads a document saved on disk
type FileSource struct {
	path string
}

// NewFileSource creates a source reading path
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Load reads the file
func (s *FileSource) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Wrap(err, "reading input file")
	}
	return data, nil
}

// Describe returns the file path
func (s *FileSource) Describe() string {
	return s.path
}

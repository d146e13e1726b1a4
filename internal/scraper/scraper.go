package scraper

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/pfrederiksen/fixture-calendar/internal/logger"
)

const (
	// DefaultURL is the league page listing KS Wasilków's group fixtures
	DefaultURL = "https://www.laczynaspilka.pl/rozgrywki?season=e9d66181-d03e-4bb3-b889-4da848f4831d&leagueGroup=43da7ba1-b751-4295-814b-24bd37fd2d45&leagueId=5cc45e5f-744b-428c-b8af-cdefca38de29&enumType=Play&group=e5bc0d4f-1bc4-40f5-92f9-e55c859b5166&isAdvanceMode=false&genderType=Male"
)

// Extractor produces the fixtures of the configured team
type Extractor interface {
	Name() string
	Extract(ctx context.Context) (*Result, error)
}

// Options selects and configures the extraction strategies
type Options struct {
	Team      string
	PageURL   string
	APIURL    string // empty disables the structured strategy
	APIToken  string
	Timeout   time.Duration
	UserAgent string
	Location  *time.Location
	// Retries of transient failures per request, RetryWait the first backoff
	Retries   int
	RetryWait time.Duration
}

// New builds the extractor for opts: the page extractor alone, or the API
// extractor falling back to the page when the API refuses the credentials.
func New(opts Options) Extractor {
	f := NewFetcher(opts.Timeout, opts.UserAgent, WithRetries(opts.Retries, opts.RetryWait))

	page := NewTextExtractor(NewHTTPSource(f, Request{
		URL:     opts.PageURL,
		Accept:  AcceptHTML,
		Referer: opts.PageURL,
	}), opts.Team)

	if opts.APIURL == "" {
		return page
	}

	api := NewAPIExtractor(NewHTTPSource(f, Request{
		URL:     opts.APIURL,
		Accept:  AcceptJSON,
		Referer: opts.PageURL,
		Token:   opts.APIToken,
	}), opts.Team, opts.Location)

	return NewFallback(api, page)
}

// Fallback tries a primary extractor and switches to a secondary one when the
// primary is refused with ErrUnauthorized. Every other error is returned.
type Fallback struct {
	primary   Extractor
	secondary Extractor
}

// NewFallback creates a Fallback. A nil secondary turns a refusal into an
// empty result.
func NewFallback(primary, secondary Extractor) *Fallback {
	return &Fallback{primary: primary, secondary: secondary}
}

// Name returns the primary strategy name
func (f *Fallback) Name() string {
	return f.primary.Name()
}

// Extract runs the primary extractor, falling back on refusal
func (f *Fallback) Extract(ctx context.Context) (*Result, error) {
	res, err := f.primary.Extract(ctx)
	if err == nil {
		return res, nil
	}
	if !errors.Is(err, ErrUnauthorized) {
		return nil, err
	}

	if f.secondary == nil {
		logger.Warn("Structured source refused credentials, no fallback configured", logger.Fields{
			"strategy": f.primary.Name(),
			"reason":   err.Error(),
		})
		return &Result{Strategy: f.primary.Name()}, nil
	}

	logger.Warn("Structured source refused credentials, falling back", logger.Fields{
		"strategy": f.primary.Name(),
		"fallback": f.secondary.Name(),
		"reason":   err.Error(),
	})
	return f.secondary.Extract(ctx)
}

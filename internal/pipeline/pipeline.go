// Package pipeline wires extraction, normalization and publishing into one
// run-to-completion invocation.
package pipeline

import (
	"context"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cockroachdb/errors"

	"github.com/pfrederiksen/fixture-calendar/internal/calendar"
	"github.com/pfrederiksen/fixture-calendar/internal/config"
	"github.com/pfrederiksen/fixture-calendar/internal/fixture"
	"github.com/pfrederiksen/fixture-calendar/internal/logger"
	"github.com/pfrederiksen/fixture-calendar/internal/metrics"
	"github.com/pfrederiksen/fixture-calendar/internal/publish"
	"github.com/pfrederiksen/fixture-calendar/internal/scraper"
	"github.com/pfrederiksen/fixture-calendar/internal/storage"
)

// debugDumpChars is how much of the upstream document is kept for diagnosis
const debugDumpChars = 5000

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithExtractor replaces the extractor chosen from the configuration
func WithExtractor(e scraper.Extractor) Option {
	return func(p *Pipeline) {
		if e != nil {
			p.extractor = e
		}
	}
}

// WithClock sets the time source used for event stamps and metrics
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// Pipeline runs one extraction and publishing cycle
type Pipeline struct {
	cfg        *config.Config
	extractor  scraper.Extractor
	normalizer *fixture.Normalizer
	state      *storage.Storage
	metrics    *metrics.Recorder
	now        func() time.Time
}

// New builds a Pipeline from a validated configuration
func New(cfg *config.Config, opts ...Option) (*Pipeline, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:        cfg,
		normalizer: fixture.NewNormalizer(cfg.Team, loc),
		metrics:    metrics.New(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.extractor == nil {
		p.extractor = NewExtractor(cfg, loc)
	}
	return p, nil
}

// NewExtractor picks the extraction strategy for cfg. A local input file is
// read as an API document when it has a .json extension and as page markup
// otherwise.
func NewExtractor(cfg *config.Config, loc *time.Location) scraper.Extractor {
	if cfg.InputFile != "" {
		src := scraper.NewFileSource(cfg.InputFile)
		if strings.EqualFold(filepath.Ext(cfg.InputFile), ".json") {
			return scraper.NewAPIExtractor(src, cfg.Team, loc)
		}
		return scraper.NewTextExtractor(src, cfg.Team)
	}

	return scraper.New(scraper.Options{
		Team:      cfg.Team,
		PageURL:   cfg.SourceURL,
		APIURL:    cfg.APIURL,
		APIToken:  cfg.APIToken,
		Timeout:   cfg.HTTPTimeout,
		UserAgent: cfg.UserAgent,
		Location:  loc,
		Retries:   cfg.HTTPRetries,
		RetryWait: cfg.HTTPRetryWait,
	})
}

// Collect extracts and normalizes the team's fixtures without writing anything
func (p *Pipeline) Collect(ctx context.Context) ([]fixture.Resolved, *scraper.Result, error) {
	res, err := p.extractor.Extract(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "extracting fixtures")
	}
	p.metrics.ObserveExtraction(res.Strategy, res.Scanned, len(res.Fixtures))

	return p.normalizer.Normalize(res.Fixtures), res, nil
}

// Run performs a full cycle and reports the outcome. On error nothing has
// been published, except when the state write fails after the calendar
// was replaced.
func (p *Pipeline) Run(ctx context.Context) (*publish.Report, error) {
	start := p.now()
	report, err := p.run(ctx)

	p.metrics.ObserveDuration(p.now().Sub(start))
	if err != nil {
		p.metrics.ObserveFailure()
	} else {
		p.metrics.ObserveOutcome(string(report.Outcome), outcomeNames(), p.now())
	}
	p.writeMetrics()

	return report, err
}

func (p *Pipeline) run(ctx context.Context) (*publish.Report, error) {
	resolved, res, err := p.Collect(ctx)
	if err != nil {
		return nil, err
	}

	if len(resolved) == 0 {
		p.dumpDocument(res.Raw)
		logger.Warn("No fixtures found, leaving calendar and state untouched", logger.Fields{
			"team":     p.cfg.Team,
			"strategy": res.Strategy,
			"scanned":  res.Scanned,
		})
		return &publish.Report{Outcome: publish.OutcomeNoFixtures}, nil
	}

	if p.state == nil {
		p.state, err = storage.New(p.cfg.StatePath)
		if err != nil {
			return nil, err
		}
	}

	alarm, err := p.cfg.AlarmClock()
	if err != nil {
		return nil, err
	}

	builder := calendar.NewBuilder(calendar.Options{
		Name:       p.cfg.CalendarTitle(),
		Duration:   p.cfg.EventDuration(),
		AlarmClock: alarm,
		Location:   p.normalizer.Location(),
		Now:        p.now,
	})

	output, err := storage.ExpandPath(p.cfg.OutputPath)
	if err != nil {
		return nil, err
	}

	return publish.New(p.state, builder, output).WithForce(p.cfg.Force).Publish(resolved)
}

// dumpDocument saves the head of the upstream document when configured
func (p *Pipeline) dumpDocument(raw []byte) {
	if p.cfg.DebugDump == "" || len(raw) == 0 {
		return
	}

	head := truncateChars(raw, debugDumpChars)
	if err := storage.WriteFile(p.cfg.DebugDump, head); err != nil {
		logger.Warn("Failed to write debug dump", logger.Fields{
			"path":  p.cfg.DebugDump,
			"error": err.Error(),
		})
		return
	}
	logger.Info("Saved upstream document head for inspection", logger.Fields{
		"path":  p.cfg.DebugDump,
		"bytes": len(head),
	})
}

func (p *Pipeline) writeMetrics() {
	if p.cfg.MetricsFile == "" {
		return
	}
	if err := p.metrics.WriteTextfile(p.cfg.MetricsFile); err != nil {
		logger.Warn("Failed to write metrics", logger.Fields{
			"path":  p.cfg.MetricsFile,
			"error": err.Error(),
		})
	}
}

// truncateChars returns at most n characters of data, never splitting a
// UTF-8 sequence.
func truncateChars(data []byte, n int) []byte {
	count := 0
	for i := 0; i < len(data); {
		if count == n {
			return data[:i]
		}
		_, size := utf8.DecodeRune(data[i:])
		i += size
		count++
	}
	return data
}

func outcomeNames() []string {
	names := make([]string, len(publish.Outcomes))
	for i, o := range publish.Outcomes {
		names[i] = string(o)
	}
	return names
}

// Package publish decides whether a fixture set changed since the last run
// and, when it did, rewrites the calendar and the persisted fingerprint.
package publish

import (
	"github.com/cockroachdb/errors"

	"github.com/pfrederiksen/fixture-calendar/internal/calendar"
	"github.com/pfrederiksen/fixture-calendar/internal/fixture"
	"github.com/pfrederiksen/fixture-calendar/internal/logger"
	"github.com/pfrederiksen/fixture-calendar/internal/storage"
)

// Outcome is the result of one publishing attempt
type Outcome string

const (
	OutcomeUpdated    Outcome = "updated"
	OutcomeNoChange   Outcome = "no_change"
	OutcomeNoFixtures Outcome = "no_fixtures_found"
)

// Outcomes lists every outcome in a stable order
var Outcomes = []Outcome{OutcomeUpdated, OutcomeNoChange, OutcomeNoFixtures}

// StateStore persists the last published fingerprint
type StateStore interface {
	LoadFingerprint() (string, error)
	SaveFingerprint(fingerprint string) error
}

// Report describes what Publish did
type Report struct {
	Outcome     Outcome `json:"outcome"`
	Fingerprint string  `json:"fingerprint,omitempty"`
	Previous    string  `json:"previous,omitempty"`
	Fixtures    int     `json:"fixtures"`
	Output      string  `json:"output,omitempty"`
}

// Publisher writes the calendar and state only when the fixture set changed
type Publisher struct {
	state   StateStore
	builder *calendar.Builder
	output  string
	force   bool
}

// New creates a Publisher writing the calendar to output
func New(state StateStore, builder *calendar.Builder, output string) *Publisher {
	return &Publisher{
		state:   state,
		builder: builder,
		output:  output,
	}
}

// WithForce makes Publish regenerate the calendar even when nothing changed
func (p *Publisher) WithForce(force bool) *Publisher {
	p.force = force
	return p
}

// Publish compares the fingerprint of fixtures with the persisted one.
//
// An empty set yields OutcomeNoFixtures and nothing is written. A matching
// fingerprint yields OutcomeNoChange and nothing is written. Otherwise the
// full calendar is written first and the fingerprint second, so a failure
// between the two steps makes the next run publish again.
func (p *Publisher) Publish(fixtures []fixture.Resolved) (*Report, error) {
	if len(fixtures) == 0 {
		logger.Warn("No fixtures found, leaving calendar and state untouched", logger.Fields{
			"output": p.output,
		})
		return &Report{Outcome: OutcomeNoFixtures}, nil
	}

	plain := make([]fixture.Fixture, len(fixtures))
	for i, r := range fixtures {
		plain[i] = r.Fixture
	}

	fp, err := fixture.Fingerprint(plain)
	if err != nil {
		return nil, errors.Wrap(err, "computing fingerprint")
	}

	prev, err := p.state.LoadFingerprint()
	if err != nil {
		return nil, err
	}

	report := &Report{
		Fingerprint: fp,
		Previous:    prev,
		Fixtures:    len(fixtures),
		Output:      p.output,
	}

	if fp == prev && !p.force {
		logger.Info("Fixtures unchanged", logger.Fields{
			"fingerprint": fp,
			"fixtures":    len(fixtures),
		})
		report.Outcome = OutcomeNoChange
		return report, nil
	}

	cal := p.builder.Calendar(fixtures)
	if err := storage.WriteFile(p.output, []byte(cal.String())); err != nil {
		return nil, errors.Wrap(err, "writing calendar")
	}
	if err := p.state.SaveFingerprint(fp); err != nil {
		return nil, err
	}

	logger.Info("Calendar updated", logger.Fields{
		"output":      p.output,
		"events":      len(cal.Events),
		"fingerprint": fp,
		"previous":    prev,
		"forced":      p.force && fp == prev,
	})
	report.Outcome = OutcomeUpdated
	return report, nil
}

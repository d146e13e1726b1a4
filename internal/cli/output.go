package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"

	"github.com/pfrederiksen/fixture-calendar/internal/fixture"
	"github.com/pfrederiksen/fixture-calendar/internal/publish"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// ListedFixture is the printable form of one resolved fixture
type ListedFixture struct {
	Date     string    `json:"date"`
	Time     string    `json:"time,omitempty"`
	Start    time.Time `json:"start"`
	AllDay   bool      `json:"all_day"`
	Home     string    `json:"home"`
	Away     string    `json:"away"`
	Opponent string    `json:"opponent"`
	Venue    string    `json:"venue"`
	Stadium  string    `json:"stadium,omitempty"`
}

// ListResult contains the fixtures printed by the list command
type ListResult struct {
	Team      string          `json:"team"`
	Strategy  string          `json:"strategy"`
	Scanned   int             `json:"scanned"`
	Fixtures  []ListedFixture `json:"fixtures"`
	Count     int             `json:"count"`
	CheckedAt time.Time       `json:"checked_at"`
}

// NewListResult converts resolved fixtures into a ListResult
func NewListResult(team, strategy string, scanned int, resolved []fixture.Resolved, now time.Time) *ListResult {
	listed := make([]ListedFixture, 0, len(resolved))
	for _, r := range resolved {
		listed = append(listed, ListedFixture{
			Date:     r.Date.String(),
			Time:     r.ClockText(),
			Start:    r.Start,
			AllDay:   r.AllDay,
			Home:     r.Home,
			Away:     r.Away,
			Opponent: r.Opponent,
			Venue:    string(r.Venue),
			Stadium:  r.Stadium,
		})
	}
	return &ListResult{
		Team:      team,
		Strategy:  strategy,
		Scanned:   scanned,
		Fixtures:  listed,
		Count:     len(listed),
		CheckedAt: now.UTC(),
	}
}

// WriteReport writes a publishing report in the specified format
func WriteReport(w io.Writer, report *publish.Report, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, report)
	case FormatText:
		return writeReportText(w, report)
	default:
		return errors.Newf("unknown format: %s", format)
	}
}

// WriteList writes listed fixtures in the specified format
func WriteList(w io.Writer, result *ListResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeListText(w, result, verbose)
	default:
		return errors.Newf("unknown format: %s", format)
	}
}

// writeJSON outputs results as indented JSON
func writeJSON(w io.Writer, v interface{}) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func writeReportText(w io.Writer, report *publish.Report) error {
	switch report.Outcome {
	case publish.OutcomeUpdated:
		fmt.Fprintf(w, "UPDATED: %d fixtures written to %s\n", report.Fixtures, report.Output)
	case publish.OutcomeNoChange:
		fmt.Fprintf(w, "NO_CHANGE: %d fixtures, calendar up to date\n", report.Fixtures)
	case publish.OutcomeNoFixtures:
		fmt.Fprintln(w, "NO_FIXTURES_FOUND: check the source page or team name")
	default:
		return errors.Newf("unknown outcome: %s", report.Outcome)
	}
	return nil
}

// writeListText outputs fixtures as human-readable text
func writeListText(w io.Writer, result *ListResult, verbose bool) error {
	if result.Count == 0 {
		fmt.Fprintf(w, "No fixtures found for %s.\n", result.Team)
		return nil
	}

	for _, f := range result.Fixtures {
		when := f.Date
		if f.Time != "" {
			when += " " + f.Time
		}
		tag := "DOM"
		if f.Venue == string(fixture.VenueAway) {
			tag = "WYJAZD"
		}
		fmt.Fprintf(w, "%-16s  %s – %s  [%s]\n", when, f.Home, f.Away, tag)
		if verbose && f.Stadium != "" {
			fmt.Fprintf(w, "                  Stadium: %s\n", f.Stadium)
		}
	}
	fmt.Fprintf(w, "\nTotal: %d fixtures for %s\n", result.Count, result.Team)
	if verbose {
		fmt.Fprintf(w, "Strategy: %s, candidates scanned: %d\n", result.Strategy, result.Scanned)
	}
	return nil
}

package scraper

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/golang-sql/civil"

	"github.com/pfrederiksen/fixture-calendar/internal/fixture"
	"github.com/pfrederiksen/fixture-calendar/internal/logger"
)

// ErrMalformed is returned when a structured document cannot be decoded
var ErrMalformed = errors.New("malformed fixture document")

// envelopeKeys name the list field of wrapped responses, in lookup order
var envelopeKeys = []string{"items", "matches", "data"}

var (
	zonedLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05Z0700", "2006-01-02 15:04:05Z07:00"}
	naiveLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02"}
)

// APIExtractor reads fixtures from a JSON list of match records
type APIExtractor struct {
	source Source
	team   string
	loc    *time.Location
}

// NewAPIExtractor creates an APIExtractor. Zoned timestamps are converted to
// loc before their date and time are taken.
func NewAPIExtractor(source Source, team string, loc *time.Location) *APIExtractor {
	if loc == nil {
		loc = time.UTC
	}
	return &APIExtractor{source: source, team: team, loc: loc}
}

// Name returns the strategy name
func (e *APIExtractor) Name() string {
	return "api"
}

// Extract loads the document and returns the team's fixtures
func (e *APIExtractor) Extract(ctx context.Context) (*Result, error) {
	raw, err := e.source.Load(ctx)
	if err != nil {
		return nil, err
	}

	res, err := ParseRecords(raw, e.team, e.loc)
	if err != nil {
		return nil, err
	}
	res.Raw = raw
	res.Strategy = e.Name()

	logger.Info("Extracted fixtures from API", logger.Fields{
		"source":   e.source.Describe(),
		"records":  res.Scanned,
		"fixtures": len(res.Fixtures),
	})
	return res, nil
}

// ParseRecords decodes a match list and keeps the records involving team.
//
// The document is either a JSON array of records or an object holding the
// array under "items", "matches" or "data". Team names are read from
// homeTeam.name/guestTeam.name, homeTeamName/guestTeamName or home/away, and
// the kickoff from date, startDate or kickoff. A kickoff at exactly midnight
// means the time is not known yet.
func ParseRecords(raw []byte, team string, loc *time.Location) (*Result, error) {
	var doc interface{}
	if err := sonic.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decoding fixture document"), ErrMalformed)
	}

	records, err := recordList(doc, 0)
	if err != nil {
		return nil, err
	}

	fixtures := make([]fixture.Fixture, 0, len(records))
	for i, item := range records {
		rec, ok := item.(map[string]interface{})
		if !ok {
			logger.Debug("Skipped non-object record", logger.Fields{"index": i})
			continue
		}

		home := firstText(rec, "homeTeam", "homeTeamName", "home")
		away := firstText(rec, "guestTeam", "guestTeamName", "away")
		if !fixture.ContainsTeam(home, away, team) {
			continue
		}

		f, err := recordFixture(rec, home, away, loc)
		if err != nil {
			logger.Debug("Dropped malformed record", logger.Fields{
				"index":  i,
				"home":   home,
				"away":   away,
				"reason": err.Error(),
			})
			continue
		}
		fixtures = append(fixtures, f)
	}

	return &Result{
		Fixtures: fixture.Dedupe(fixtures),
		Scanned:  len(records),
	}, nil
}

// recordList finds the array of records inside doc
func recordList(doc interface{}, depth int) ([]interface{}, error) {
	switch v := doc.(type) {
	case []interface{}:
		return v, nil
	case map[string]interface{}:
		if depth < 2 {
			for _, key := range envelopeKeys {
				if inner, ok := v[key]; ok {
					return recordList(inner, depth+1)
				}
			}
		}
	}
	return nil, errors.Wrap(ErrMalformed, "no record list found")
}

func recordFixture(rec map[string]interface{}, home, away string, loc *time.Location) (fixture.Fixture, error) {
	stamp := firstText(rec, "date", "startDate", "kickoff")
	if stamp == "" {
		return fixture.Fixture{}, errors.New("missing kickoff")
	}

	date, clock, err := parseKickoff(stamp, loc)
	if err != nil {
		return fixture.Fixture{}, err
	}

	f, err := fixture.New(home, away, date, clock)
	if err != nil {
		return fixture.Fixture{}, err
	}
	f.Stadium = fixture.NormalizeName(firstText(rec, "stadium"))
	f.State = fixture.NormalizeName(firstText(rec, "state"))
	f.Queue = fixture.NormalizeName(firstText(rec, "queue"))
	return f, nil
}

// parseKickoff splits a timestamp into a local date and an optional clock time
func parseKickoff(stamp string, loc *time.Location) (civil.Date, *civil.Time, error) {
	stamp = strings.TrimSpace(stamp)

	t, ok := parseTimestamp(stamp, loc)
	if !ok {
		return civil.Date{}, nil, errors.Newf("unrecognized timestamp %q", stamp)
	}

	date := civil.DateOf(t)
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return date, nil, nil
	}
	clock := civil.Time{Hour: t.Hour(), Minute: t.Minute()}
	return date, &clock, nil
}

func parseTimestamp(stamp string, loc *time.Location) (time.Time, bool) {
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, stamp); err == nil {
			return t.In(loc), true
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, stamp, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// firstText returns the first non-empty text found under keys. Objects
// contribute their "name" field and numbers are formatted without exponent.
func firstText(rec map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if s := textOf(rec[key]); s != "" {
			return s
		}
	}
	return ""
}

func textOf(v interface{}) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case map[string]interface{}:
		return textOf(val["name"])
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

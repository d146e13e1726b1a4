package fixture

import (
	"time"

	"github.com/pfrederiksen/fixture-calendar/internal/logger"
)

// Venue says where a fixture is played relative to the configured team
type Venue string

const (
	VenueHome Venue = "home"
	VenueAway Venue = "away"
)

// Tag returns the short place tag used in event titles
func (v Venue) Tag() string {
	if v == VenueHome {
		return "DOM"
	}
	return "WYJAZD"
}

// Resolved is a fixture with its time zone attached and its venue decided
type Resolved struct {
	Fixture
	// Start is the kickoff instant for timed fixtures and local midnight of
	// the match date for all-day fixtures.
	Start    time.Time
	AllDay   bool
	Venue    Venue
	Opponent string
}

// Normalizer deduplicates fixtures and resolves them for one team in one zone
type Normalizer struct {
	team string
	loc  *time.Location
}

// NewNormalizer creates a Normalizer. A nil location means UTC.
func NewNormalizer(team string, loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{
		team: NormalizeName(team),
		loc:  loc,
	}
}

// Location returns the zone fixtures are resolved in
func (n *Normalizer) Location() *time.Location {
	return n.loc
}

// Dedupe removes fixtures sharing a Key, keeping the first occurrence
func Dedupe(fixtures []Fixture) []Fixture {
	seen := make(map[Key]bool, len(fixtures))
	unique := make([]Fixture, 0, len(fixtures))
	for _, f := range fixtures {
		k := f.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		unique = append(unique, f)
	}
	return unique
}

// Normalize deduplicates and resolves fixtures, preserving first-seen order
func (n *Normalizer) Normalize(fixtures []Fixture) []Resolved {
	unique := Dedupe(fixtures)
	if dropped := len(fixtures) - len(unique); dropped > 0 {
		logger.Debug("Dropped duplicate fixtures", logger.Fields{
			"duplicates": dropped,
			"unique":     len(unique),
		})
	}

	resolved := make([]Resolved, 0, len(unique))
	for _, f := range unique {
		resolved = append(resolved, n.Resolve(f))
	}
	return resolved
}

// Resolve attaches the configured zone and classifies the venue
func (n *Normalizer) Resolve(f Fixture) Resolved {
	r := Resolved{
		Fixture: f,
		Venue:   n.Classify(f),
	}

	if f.Time != nil {
		r.Start = time.Date(f.Date.Year, f.Date.Month, f.Date.Day, f.Time.Hour, f.Time.Minute, 0, 0, n.loc)
	} else {
		r.AllDay = true
		r.Start = f.Date.In(n.loc)
	}

	if r.Venue == VenueHome {
		r.Opponent = f.Away
	} else {
		r.Opponent = f.Home
	}
	return r
}

// Classify returns VenueHome iff the home side is exactly the configured team
// (ignoring case), VenueAway otherwise.
//
// When the team name occurs inside both names (reserve-team derbies such as
// "KS Wasilków II – KS Wasilków") the exact home check still wins, so an exact
// home match is preferred over an exact away match. The ambiguity is logged.
func (n *Normalizer) Classify(f Fixture) Venue {
	if mentions(f.Home, n.team) && mentions(f.Away, n.team) {
		logger.Warn("Team name found on both sides of fixture", logger.Fields{
			"team":    n.team,
			"fixture": f.String(),
		})
	}

	if SameTeam(f.Home, n.team) {
		return VenueHome
	}
	return VenueAway
}

// IsUpcoming reports whether the fixture starts at or after now.
// All-day fixtures count as upcoming for the whole match day.
func (r Resolved) IsUpcoming(now time.Time) bool {
	if r.AllDay {
		return r.Start.AddDate(0, 0, 1).After(now)
	}
	return !r.Start.Before(now)
}

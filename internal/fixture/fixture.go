package fixture

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/golang-sql/civil"
)

// ErrInvalidFixture is returned when a fixture violates the name invariants.
var ErrInvalidFixture = errors.New("invalid fixture")

// Fixture represents one scheduled match
type Fixture struct {
	Home    string      `json:"home"`
	Away    string      `json:"away"`
	Date    civil.Date  `json:"date"`
	Time    *civil.Time `json:"time,omitempty"` // nil for all-day fixtures
	Stadium string      `json:"stadium,omitempty"`
	State   string      `json:"state,omitempty"`
	Queue   string      `json:"queue,omitempty"`
}

// Key identifies a fixture for deduplication
type Key struct {
	Home string
	Away string
	Date civil.Date
	Time string
}

// New creates a Fixture with normalized team names.
// Both names must be non-empty and must not name the same team.
func New(home, away string, date civil.Date, clock *civil.Time) (Fixture, error) {
	home = NormalizeName(home)
	away = NormalizeName(away)

	if home == "" || away == "" {
		return Fixture{}, errors.Wrapf(ErrInvalidFixture, "empty team name (home=%q, away=%q)", home, away)
	}
	if SameTeam(home, away) {
		return Fixture{}, errors.Wrapf(ErrInvalidFixture, "home and away are the same team %q", home)
	}
	if !date.IsValid() {
		return Fixture{}, errors.Wrapf(ErrInvalidFixture, "invalid date %s", date)
	}

	return Fixture{
		Home: home,
		Away: away,
		Date: date,
		Time: clock,
	}, nil
}

// Timed reports whether the fixture has an explicit kickoff time
func (f Fixture) Timed() bool {
	return f.Time != nil
}

// ClockText returns the kickoff time as HH:MM, or "" for all-day fixtures
func (f Fixture) ClockText() string {
	if f.Time == nil {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", f.Time.Hour, f.Time.Minute)
}

// Key returns the deduplication key
func (f Fixture) Key() Key {
	return Key{
		Home: f.Home,
		Away: f.Away,
		Date: f.Date,
		Time: f.ClockText(),
	}
}

// String returns a short human-readable form, e.g. "A – B 15.11.2025 15:00"
func (f Fixture) String() string {
	s := fmt.Sprintf("%s – %s %02d.%02d.%04d", f.Home, f.Away, f.Date.Day, int(f.Date.Month), f.Date.Year)
	if f.Time != nil {
		s += " " + f.ClockText()
	}
	return s
}

package cli

import (
	"sort"
	"strings"
	"time"

	"github.com/pfrederiksen/fixture-calendar/internal/fixture"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByDate     SortOrder = "date"
	SortByOpponent SortOrder = "opponent"
	SortByVenue    SortOrder = "venue"
)

// ParseSortOrder validates a sort order name
func ParseSortOrder(s string) (SortOrder, bool) {
	switch order := SortOrder(strings.ToLower(strings.TrimSpace(s))); order {
	case SortByDate, SortByOpponent, SortByVenue:
		return order, true
	default:
		return "", false
	}
}

// sortFixtures sorts resolved fixtures in place by the given order
func sortFixtures(fixtures []fixture.Resolved, order SortOrder) {
	switch order {
	case SortByDate:
		sort.SliceStable(fixtures, func(i, j int) bool {
			return compareByDate(fixtures[i], fixtures[j])
		})
	case SortByOpponent:
		sort.SliceStable(fixtures, func(i, j int) bool {
			oi, oj := strings.ToLower(fixtures[i].Opponent), strings.ToLower(fixtures[j].Opponent)
			if oi != oj {
				return oi < oj
			}
			// If opponents are equal, sort by date
			return compareByDate(fixtures[i], fixtures[j])
		})
	case SortByVenue:
		sort.SliceStable(fixtures, func(i, j int) bool {
			if fixtures[i].Venue != fixtures[j].Venue {
				// Home games first
				return fixtures[i].Venue == fixture.VenueHome
			}
			return compareByDate(fixtures[i], fixtures[j])
		})
	}
}

// compareByDate reports whether i starts before j. All-day fixtures start at
// local midnight, so they sort ahead of timed fixtures on the same day.
func compareByDate(i, j fixture.Resolved) bool {
	if !i.Start.Equal(j.Start) {
		return i.Start.Before(j.Start)
	}
	return strings.ToLower(i.Opponent) < strings.ToLower(j.Opponent)
}

// filterUpcoming keeps fixtures that have not started yet
func filterUpcoming(fixtures []fixture.Resolved, now time.Time) []fixture.Resolved {
	upcoming := make([]fixture.Resolved, 0, len(fixtures))
	for _, f := range fixtures {
		if f.IsUpcoming(now) {
			upcoming = append(upcoming, f)
		}
	}
	return upcoming
}

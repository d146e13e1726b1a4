package fixture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func warsaw(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Warsaw")
	require.NoError(t, err)
	return loc
}

func TestDedupe(t *testing.T) {
	a := mustFixture(t, "KS Wasilków", "Orzeł Białystok", date(2025, 11, 15), clock(15, 0))
	b := mustFixture(t, "Jagiellonia II", "KS Wasilków", date(2025, 11, 22), nil)
	aAllDay := mustFixture(t, "KS Wasilków", "Orzeł Białystok", date(2025, 11, 15), nil)

	got := Dedupe([]Fixture{a, b, a, aAllDay, b})

	require.Len(t, got, 3)
	assert.Equal(t, a, got[0], "first-seen order is preserved")
	assert.Equal(t, b, got[1])
	assert.Equal(t, aAllDay, got[2], "a missing time is part of the key")

	seen := make(map[Key]bool)
	for _, f := range got {
		assert.False(t, seen[f.Key()], "duplicate key %v", f.Key())
		seen[f.Key()] = true
	}
}

func TestNormalizer_Resolve(t *testing.T) {
	loc := warsaw(t)
	n := NewNormalizer("KS Wasilków", loc)

	t.Run("timed fixture gets a zoned instant", func(t *testing.T) {
		f := mustFixture(t, "KS Wasilków", "Orzeł Białystok", date(2025, 11, 15), clock(15, 0))
		r := n.Resolve(f)

		assert.False(t, r.AllDay)
		assert.True(t, r.Start.Equal(time.Date(2025, 11, 15, 14, 0, 0, 0, time.UTC)))
		assert.Equal(t, loc, r.Start.Location())
	})

	t.Run("all-day fixture is anchored to local midnight", func(t *testing.T) {
		f := mustFixture(t, "KS Wasilków", "Orzeł Białystok", date(2025, 11, 15), nil)
		r := n.Resolve(f)

		assert.True(t, r.AllDay)
		assert.Equal(t, time.Date(2025, 11, 15, 0, 0, 0, 0, loc), r.Start)
	})

	t.Run("nil location falls back to UTC", func(t *testing.T) {
		assert.Equal(t, time.UTC, NewNormalizer("x", nil).Location())
	})
}

func TestNormalizer_Classify(t *testing.T) {
	f := mustFixture(t, "KS Wasilków", "Orzeł Białystok", date(2025, 11, 15), clock(15, 0))

	tests := []struct {
		name         string
		team         string
		fixture      Fixture
		wantVenue    Venue
		wantOpponent string
		wantTag      string
	}{
		{
			name:         "team plays at home",
			team:         "KS Wasilków",
			fixture:      f,
			wantVenue:    VenueHome,
			wantOpponent: "Orzeł Białystok",
			wantTag:      "DOM",
		},
		{
			name:         "team plays away",
			team:         "Orzeł Białystok",
			fixture:      f,
			wantVenue:    VenueAway,
			wantOpponent: "KS Wasilków",
			wantTag:      "WYJAZD",
		},
		{
			name:         "home match is case-insensitive",
			team:         "ks WASILKÓW",
			fixture:      f,
			wantVenue:    VenueHome,
			wantOpponent: "Orzeł Białystok",
			wantTag:      "DOM",
		},
		{
			name:         "substring on home side is not a home match",
			team:         "Wasilków",
			fixture:      f,
			wantVenue:    VenueAway,
			wantOpponent: "KS Wasilków",
			wantTag:      "WYJAZD",
		},
		{
			name:         "reserve derby with exact away match",
			team:         "KS Wasilków",
			fixture:      mustFixture(t, "KS Wasilków II", "KS Wasilków", date(2025, 11, 15), nil),
			wantVenue:    VenueAway,
			wantOpponent: "KS Wasilków II",
			wantTag:      "WYJAZD",
		},
		{
			name:         "reserve derby with exact home match prefers home",
			team:         "KS Wasilków",
			fixture:      mustFixture(t, "KS Wasilków", "KS Wasilków II", date(2025, 11, 15), nil),
			wantVenue:    VenueHome,
			wantOpponent: "KS Wasilków II",
			wantTag:      "DOM",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNormalizer(tt.team, time.UTC)
			r := n.Resolve(tt.fixture)

			assert.Equal(t, tt.wantVenue, r.Venue)
			assert.Equal(t, tt.wantOpponent, r.Opponent)
			assert.Equal(t, tt.wantTag, r.Venue.Tag())
		})
	}
}

func TestNormalizer_HomeAwayExclusive(t *testing.T) {
	team := "KS Wasilków"
	n := NewNormalizer(team, time.UTC)

	fixtures := []Fixture{
		mustFixture(t, team, "Orzeł Białystok", date(2025, 8, 9), clock(17, 0)),
		mustFixture(t, "Orzeł Białystok", team, date(2025, 8, 16), nil),
		mustFixture(t, "Jagiellonia II", team, date(2025, 8, 23), clock(11, 0)),
		mustFixture(t, team, "Wigry Suwałki", date(2025, 8, 30), nil),
	}

	for _, r := range n.Normalize(fixtures) {
		home := SameTeam(r.Home, team)
		away := SameTeam(r.Away, team)
		require.True(t, home != away, "team must match exactly one side in %s", r.Fixture)

		assert.Equal(t, home, r.Venue == VenueHome)
		assert.Equal(t, away, r.Venue == VenueAway)
		assert.False(t, SameTeam(r.Opponent, team))
	}
}

func TestNormalizer_Normalize(t *testing.T) {
	n := NewNormalizer("KS Wasilków", time.UTC)
	a := mustFixture(t, "KS Wasilków", "Orzeł Białystok", date(2025, 11, 15), clock(15, 0))
	b := mustFixture(t, "Jagiellonia II", "KS Wasilków", date(2025, 11, 22), nil)

	got := n.Normalize([]Fixture{b, a, b})

	require.Len(t, got, 2)
	assert.Equal(t, b, got[0].Fixture)
	assert.Equal(t, a, got[1].Fixture)
	for _, r := range got {
		assert.Equal(t, r.Timed(), !r.AllDay, "timed XOR all-day")
	}
}

func TestResolved_IsUpcoming(t *testing.T) {
	n := NewNormalizer("KS Wasilków", time.UTC)
	now := time.Date(2025, 11, 15, 12, 0, 0, 0, time.UTC)

	laterToday := n.Resolve(mustFixture(t, "KS Wasilków", "Orzeł", date(2025, 11, 15), clock(15, 0)))
	earlierToday := n.Resolve(mustFixture(t, "KS Wasilków", "Orzeł", date(2025, 11, 15), clock(10, 0)))
	allDayToday := n.Resolve(mustFixture(t, "KS Wasilków", "Orzeł", date(2025, 11, 15), nil))
	allDayYesterday := n.Resolve(mustFixture(t, "KS Wasilków", "Orzeł", date(2025, 11, 14), nil))

	assert.True(t, laterToday.IsUpcoming(now))
	assert.False(t, earlierToday.IsUpcoming(now))
	assert.True(t, allDayToday.IsUpcoming(now))
	assert.False(t, allDayYesterday.IsUpcoming(now))
}

package fixture

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/golang-sql/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clock(h, m int) *civil.Time {
	return &civil.Time{Hour: h, Minute: m}
}

func date(y int, m int, d int) civil.Date {
	return civil.Date{Year: y, Month: time.Month(m), Day: d}
}

func mustFixture(t *testing.T, home, away string, d civil.Date, c *civil.Time) Fixture {
	t.Helper()
	f, err := New(home, away, d, c)
	require.NoError(t, err)
	return f
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		home     string
		away     string
		wantHome string
		wantAway string
		wantErr  bool
	}{
		{
			name:     "normalizes whitespace",
			home:     "  KS   Wasilków ",
			away:     "Orzeł\n\tBiałystok",
			wantHome: "KS Wasilków",
			wantAway: "Orzeł Białystok",
		},
		{
			name:    "empty home",
			home:    "   ",
			away:    "Orzeł Białystok",
			wantErr: true,
		},
		{
			name:    "same team on both sides",
			home:    "KS Wasilków",
			away:    "ks wasilków",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(tt.home, tt.away, date(2025, 11, 15), nil)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidFixture))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHome, f.Home)
			assert.Equal(t, tt.wantAway, f.Away)
		})
	}
}

func TestNew_InvalidDate(t *testing.T) {
	_, err := New("A Team", "B Team", civil.Date{Year: 2025, Month: 2, Day: 31}, nil)
	assert.True(t, errors.Is(err, ErrInvalidFixture))
}

func TestFixture_KeyAndClock(t *testing.T) {
	timed := mustFixture(t, "KS Wasilków", "Orzeł Białystok", date(2025, 11, 15), clock(15, 0))
	allDay := mustFixture(t, "KS Wasilków", "Orzeł Białystok", date(2025, 11, 15), nil)

	assert.True(t, timed.Timed())
	assert.False(t, allDay.Timed())
	assert.Equal(t, "15:00", timed.ClockText())
	assert.Equal(t, "", allDay.ClockText())
	assert.NotEqual(t, timed.Key(), allDay.Key())
	assert.Equal(t, "KS Wasilków – Orzeł Białystok 15.11.2025 15:00", timed.String())
	assert.Equal(t, "KS Wasilków – Orzeł Białystok 15.11.2025", allDay.String())
}

func TestNames(t *testing.T) {
	// "ó" written as o + combining acute must match the precomposed form.
	decomposed := "KS Wasilko\u0301w"

	assert.Equal(t, "KS Wasilków", NormalizeName("  KS  "+decomposed[3:]+"  "))
	assert.True(t, SameTeam(decomposed, "ks wasilków"))
	assert.True(t, ContainsTeam("KS WASILKÓW II", "Orzeł", "ks wasilków"))
	assert.True(t, ContainsTeam("Orzeł", "KS Wasilków", "Wasilków"))
	assert.False(t, ContainsTeam("Orzeł", "Jagiellonia", "Wasilków"))
	assert.False(t, ContainsTeam("Orzeł", "Jagiellonia", "  "))
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		text    string
		want    civil.Date
		wantErr bool
	}{
		{"15.11.2025", date(2025, 11, 15), false},
		{" 01.03.2026 ", date(2026, 3, 1), false},
		{"31.02.2025", civil.Date{}, true},
		{"2025-11-15", civil.Date{}, true},
		{"", civil.Date{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := ParseDate(tt.text)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseOptionalClock(t *testing.T) {
	c, err := ParseOptionalClock("15:30")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, 15, c.Hour)
	assert.Equal(t, 30, c.Minute)

	c, err = ParseOptionalClock("")
	require.NoError(t, err)
	assert.Nil(t, c)

	_, err = ParseOptionalClock("25:61")
	assert.Error(t, err)
}

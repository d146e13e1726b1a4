package fixture

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/golang-sql/civil"
)

// ParseDate parses a "dd.mm.yyyy" date such as "15.11.2025".
// Impossible dates like "31.02.2025" are rejected.
func ParseDate(text string) (civil.Date, error) {
	t, err := time.Parse("02.01.2006", strings.TrimSpace(text))
	if err != nil {
		return civil.Date{}, errors.Wrapf(err, "parsing date %q", text)
	}
	return civil.DateOf(t), nil
}

// ParseClock parses an "HH:MM" clock time such as "15:00"
func ParseClock(text string) (civil.Time, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(text))
	if err != nil {
		return civil.Time{}, errors.Wrapf(err, "parsing time %q", text)
	}
	return civil.TimeOf(t), nil
}

// ParseOptionalClock parses text as a clock time, returning nil when text is empty
func ParseOptionalClock(text string) (*civil.Time, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	c, err := ParseClock(text)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

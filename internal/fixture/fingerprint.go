package fixture

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
)

// canonicalFixture is the serialized form hashed by Fingerprint.
// Field order is fixed by the struct definition.
type canonicalFixture struct {
	Date    string `json:"date"`
	Time    string `json:"time"`
	Home    string `json:"home"`
	Away    string `json:"away"`
	Stadium string `json:"stadium,omitempty"`
	State   string `json:"state,omitempty"`
	Queue   string `json:"queue,omitempty"`
}

// Sorted returns a copy of fixtures ordered by date, time (all-day first),
// home, away and then the passthrough fields.
func Sorted(fixtures []Fixture) []Fixture {
	out := make([]Fixture, len(fixtures))
	copy(out, fixtures)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Date != b.Date {
			return a.Date.Before(b.Date)
		}
		if at, bt := a.ClockText(), b.ClockText(); at != bt {
			return at < bt
		}
		if a.Home != b.Home {
			return a.Home < b.Home
		}
		if a.Away != b.Away {
			return a.Away < b.Away
		}
		if a.Stadium != b.Stadium {
			return a.Stadium < b.Stadium
		}
		if a.State != b.State {
			return a.State < b.State
		}
		return a.Queue < b.Queue
	})

	return out
}

// Canonical returns the deterministic text form of a fixture set.
// The result does not depend on the order of the input.
func Canonical(fixtures []Fixture) ([]byte, error) {
	sorted := Sorted(fixtures)
	records := make([]canonicalFixture, 0, len(sorted))
	for _, f := range sorted {
		records = append(records, canonicalFixture{
			Date:    f.Date.String(),
			Time:    f.ClockText(),
			Home:    f.Home,
			Away:    f.Away,
			Stadium: f.Stadium,
			State:   f.State,
			Queue:   f.Queue,
		})
	}

	data, err := sonic.ConfigStd.Marshal(records)
	if err != nil {
		return nil, errors.Wrap(err, "encoding fixtures")
	}
	return data, nil
}

// Fingerprint returns the hex-encoded SHA-256 digest of the canonical form
func Fingerprint(fixtures []Fixture) (string, error) {
	data, err := Canonical(fixtures)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

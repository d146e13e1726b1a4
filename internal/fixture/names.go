package fixture

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName collapses whitespace runs to a single space, trims both ends
// and composes the text to NFC so that visually equal names compare equal.
func NormalizeName(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// fold returns the case-folded form of a normalized name
func fold(s string) string {
	return cases.Fold().String(NormalizeName(s))
}

// SameTeam reports whether two names match exactly, ignoring case
func SameTeam(a, b string) bool {
	return fold(a) == fold(b)
}

// ContainsTeam reports whether the team name occurs anywhere in the
// concatenation of the two sides. This is the permissive extraction filter.
func ContainsTeam(home, away, team string) bool {
	t := fold(team)
	if t == "" {
		return false
	}
	return strings.Contains(fold(home)+" "+fold(away), t)
}

// mentions reports whether a single side contains the team name
func mentions(side, team string) bool {
	t := fold(team)
	return t != "" && strings.Contains(fold(side), t)
}

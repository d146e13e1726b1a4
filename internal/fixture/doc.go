// Package fixture provides the fixture model, normalization and change fingerprinting.
//
// A Fixture is one scheduled match taken from an upstream source. The package
// deduplicates fixtures on their (home, away, date, time) key, attaches the
// configured time zone, classifies each fixture as a home or away match for the
// configured team, and computes a deterministic SHA-256 fingerprint over the
// fixture set so runs can detect whether anything changed.
package fixture

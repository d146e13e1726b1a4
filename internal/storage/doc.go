// Package storage persists the fingerprint of the last published fixture set
// and writes output files atomically.
//
// The state file holds a single hex digest and nothing else. A missing state
// file reads as the empty fingerprint, so the first run always publishes.
// Writes go to a temporary file in the target directory which is then renamed
// over the destination, so readers never observe a partial file.
package storage

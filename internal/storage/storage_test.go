package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFingerprint_Missing(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "nested", ".state_hash.txt"))
	require.NoError(t, err)

	fp, err := s.LoadFingerprint()
	require.NoError(t, err)
	assert.Empty(t, fp, "missing state reads as empty fingerprint")

	_, err = os.Stat(filepath.Dir(s.Path()))
	assert.NoError(t, err, "parent directory is created")
}

func TestFingerprint_RoundTrip(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), ".state_hash.txt"))
	require.NoError(t, err)

	require.NoError(t, s.SaveFingerprint("abc123"))
	fp, err := s.LoadFingerprint()
	require.NoError(t, err)
	assert.Equal(t, "abc123", fp)

	require.NoError(t, s.SaveFingerprint("def456"))
	fp, err = s.LoadFingerprint()
	require.NoError(t, err)
	assert.Equal(t, "def456", fp)
}

func TestLoadFingerprint_TrimsWhitespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".state_hash.txt")
	require.NoError(t, os.WriteFile(path, []byte("  abc123\n"), 0644))

	s, err := New(path)
	require.NoError(t, err)
	fp, err := s.LoadFingerprint()
	require.NoError(t, err)
	assert.Equal(t, "abc123", fp)
}

func TestLoadFingerprint_Unreadable(t *testing.T) {
	// A directory in place of the state file cannot be read.
	path := filepath.Join(t.TempDir(), "state")
	require.NoError(t, os.Mkdir(path, 0755))

	s, err := New(path)
	require.NoError(t, err)
	_, err = s.LoadFingerprint()
	assert.Error(t, err)
}

func TestNew_EmptyPath(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ExpandPath("~/state/hash.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "state", "hash.txt"), got)

	got, err = ExpandPath("relative/hash.txt")
	require.NoError(t, err)
	assert.Equal(t, "relative/hash.txt", got)
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "calendar.ics")

	require.NoError(t, WriteFile(path, []byte("first")))
	require.NoError(t, WriteFile(path, []byte("second")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

package storage

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	filePerm = 0644
	dirPerm  = 0755
)

// Storage reads and writes the fingerprint state file
type Storage struct {
	statePath string
}

// New creates a Storage for the state file at statePath. A leading "~/" is
// expanded and the parent directory is created if needed.
func New(statePath string) (*Storage, error) {
	path, err := ExpandPath(statePath)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, errors.New("state file path is empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return nil, errors.Wrap(err, "creating state directory")
	}

	return &Storage{
		statePath: path,
	}, nil
}

// Path returns the resolved state file path
func (s *Storage) Path() string {
	return s.statePath
}

// LoadFingerprint returns the persisted fingerprint, or "" when there is none
func (s *Storage) LoadFingerprint() (string, error) {
	data, err := os.ReadFile(s.statePath)
	if err != nil {
		if os.IsNotExist(err) {
			// No previous run
			return "", nil
		}
		return "", errors.Wrap(err, "reading state file")
	}
	return strings.TrimSpace(string(data)), nil
}

// SaveFingerprint replaces the persisted fingerprint
func (s *Storage) SaveFingerprint(fingerprint string) error {
	if err := WriteFile(s.statePath, []byte(fingerprint)); err != nil {
		return errors.Wrap(err, "writing state file")
	}
	return nil
}

// ExpandPath expands a leading "~/" to the user's home directory
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "getting home directory")
	}
	return filepath.Join(home, path[2:]), nil
}

// WriteFile atomically replaces path with data
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return errors.Wrap(err, "creating directory")
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op once renamed
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "writing temp file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "syncing temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp file")
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		return errors.Wrap(err, "setting file mode")
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.Wrapf(err, "replacing %s", path)
	}
	return nil
}

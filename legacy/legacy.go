// Package legacy reads the flat key-value storage used before sessions were
// kept in a database.
package legacy

import (
	"os"
	"path"
	"sort"

	"github.com/pkg/errors"

	"github.com/malonaz/sessionsync/internal/file"
)

// Keys of the legacy single-conversation layout.
const (
	KeyMessages     = "messages"
	KeyXMLSnapshots = "xml-snapshots"
	KeyDiagramXML   = "diagram-xml"
	KeySessionID    = "session-id"
)

// Store implements a flat key-value store, one file per key.
type Store struct {
	path string
}

// New store. The directory is not created; a missing directory is an empty store.
func New(path string) *Store {
	return &Store{path: path}
}

// Get a value. Returns (value, found, error).
func (s *Store) Get(key string) (string, bool, error) {
	bytes, err := os.ReadFile(path.Join(s.path, key))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "reading key '%s'", key)
	}
	return string(bytes), true, nil
}

// Set a value.
func (s *Store) Set(key, value string) error {
	if err := file.CreateDirectoryIfNotExist(s.path); err != nil {
		return errors.Wrap(err, "creating directory")
	}
	if err := os.WriteFile(path.Join(s.path, key), []byte(value), 0644); err != nil {
		return errors.Wrapf(err, "writing key '%s'", key)
	}
	return nil
}

// Keys lists the keys present in the store.
func (s *Store) Keys() ([]string, error) {
	entries, err := os.ReadDir(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "listing keys")
	}
	var keys []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		keys = append(keys, entry.Name())
	}
	sort.Strings(keys)
	return keys, nil
}

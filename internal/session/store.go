// Package session persists variables captured by set extractions so later
// invocations can reuse them (auth tokens being the common case).
package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/unkn0wn-root/restcmd/internal/errdef"
)

// Store is injected into the executor rather than reached for as ambient
// state, so tests can swap in doubles.
type Store interface {
	Load() (map[string]string, error)
	Save(values map[string]string) error
}

// FileStore keeps a flat string-to-string JSON object at a fixed path.
// There is no locking: concurrent invocations racing to save are
// last-writer-wins.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load returns the persisted mapping. A missing or empty file is not an
// error; the session simply starts empty.
func (s *FileStore) Load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, errdef.Wrap(errdef.CodeFilesystem, err, "read session %s", s.path)
	}
	if len(data) == 0 {
		return map[string]string{}, nil
	}

	values := make(map[string]string)
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, errdef.Wrap(errdef.CodeParse, err, "parse session %s", s.path)
	}
	return values, nil
}

// Save overwrites the whole mapping. Callers merge before saving; the
// storage layer never does partial updates. Temp file + rename keeps
// readers from ever seeing a torn write.
func (s *FileStore) Save(values map[string]string) error {
	if values == nil {
		values = map[string]string{}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "create session dir")
	}

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "encode session")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "write session tmp")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "replace session file")
	}
	return nil
}

// Clear removes the persisted session entirely. Missing files are fine.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errdef.Wrap(errdef.CodeFilesystem, err, "remove session file")
	}
	return nil
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gosimple/slug"
)

// JSONFileStore keeps each collection as a pretty-printed JSON array in
// <dir>/<slug of collection>.json. Names that slug to the same file share a
// file and a lock.
type JSONFileStore struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewJSONFileStore(dir string) (*JSONFileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory %s: %w", dir, err)
	}
	return &JSONFileStore{dir: dir, locks: make(map[string]*sync.Mutex)}, nil
}

// Path returns the backing file of c.
func (s *JSONFileStore) Path(c Collection) string {
	return filepath.Join(s.dir, slug.Make(string(c))+".json")
}

// fileName reduces c to a name that is safe inside dir. Names with nothing
// left after slugging, such as "../..", are rejected.
func fileName(c Collection) (string, error) {
	name := slug.Make(string(c))
	if name == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidCollection, string(c))
	}
	return name + ".json", nil
}

func (s *JSONFileStore) Load(ctx context.Context, c Collection) ([]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lock, err := s.lockFor(c)
	if err != nil {
		return nil, err
	}
	lock.Lock()
	defer lock.Unlock()
	return s.read(c)
}

func (s *JSONFileStore) Save(ctx context.Context, c Collection, records []json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	lock, err := s.lockFor(c)
	if err != nil {
		return err
	}
	lock.Lock()
	defer lock.Unlock()
	return s.write(c, records)
}

func (s *JSONFileStore) Update(ctx context.Context, c Collection, fn UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	lock, err := s.lockFor(c)
	if err != nil {
		return err
	}
	lock.Lock()
	defer lock.Unlock()

	records, err := s.read(c)
	if err != nil {
		return err
	}
	updated, err := fn(records)
	if err != nil {
		return err
	}
	return s.write(c, updated)
}

func (s *JSONFileStore) Close() error {
	return nil
}

func (s *JSONFileStore) lockFor(c Collection) (*sync.Mutex, error) {
	name, err := fileName(c)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[name]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[name] = lock
	}
	return lock, nil
}

// read must be called with the collection lock held.
func (s *JSONFileStore) read(c Collection) ([]json.RawMessage, error) {
	path := s.Path(c)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			empty := []json.RawMessage{}
			if err := s.write(c, empty); err != nil {
				return nil, err
			}
			return empty, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptCollection, path, err)
	}
	if records == nil {
		// a literal "null" file
		records = []json.RawMessage{}
	}
	return records, nil
}

// write replaces the file atomically. Must be called with the collection lock held.
func (s *JSONFileStore) write(c Collection, records []json.RawMessage) error {
	if records == nil {
		records = []json.RawMessage{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", c, err)
	}
	data = append(data, '\n')

	path := s.Path(c)
	tmp, err := os.CreateTemp(s.dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

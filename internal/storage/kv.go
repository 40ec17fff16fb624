package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

const (
	// DefaultFilePerm is used for the state file
	DefaultFilePerm = 0o600
	// DefaultDirPerm is used for the state file's parent directory
	DefaultDirPerm = 0o750
)

// FileStore is a durable key-value store kept as one JSON object in a file.
// Every Set rewrites the file so values survive process restarts.
type FileStore struct {
	mu     sync.RWMutex
	fs     afero.Fs
	path   string
	values map[string]string
}

// NewFileStore opens (or lazily creates) the store at path on fs. A missing
// file is an empty store; an undecodable file is an error.
func NewFileStore(fs afero.Fs, path string) (*FileStore, error) {
	if fs == nil {
		return nil, fmt.Errorf("filesystem cannot be nil")
	}
	if path == "" {
		return nil, fmt.Errorf("state file path cannot be empty")
	}

	s := &FileStore{
		fs:     fs,
		path:   path,
		values: make(map[string]string),
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("cannot read state file %s: %w", path, err)
	}

	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("cannot decode state file %s: %w", path, err)
	}
	return s, nil
}

// NewMemoryStore returns a store backed by an in-memory filesystem
func NewMemoryStore() *FileStore {
	s, _ := NewFileStore(afero.NewMemMapFs(), "/state.json")
	return s
}

// Get returns the value stored under key
func (s *FileStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key and flushes the file
func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.values[key]
	s.values[key] = value
	if err := s.flushLocked(); err != nil {
		if existed {
			s.values[key] = prev
		} else {
			delete(s.values, key)
		}
		return err
	}
	return nil
}

// Delete removes key
func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return s.flushLocked()
}

// Path returns the backing file path
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) flushLocked() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot encode state: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := s.fs.MkdirAll(dir, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create state directory %s: %w", dir, err)
		}
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, DefaultFilePerm); err != nil {
		return fmt.Errorf("cannot write state file: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("cannot replace state file: %w", err)
	}
	return nil
}

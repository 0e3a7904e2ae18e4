package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	cacheFilePermissions = 0o640
	cacheDirPermissions  = 0o750
)

// ErrCorruptCache indicates the cache file is malformed JSON.
var ErrCorruptCache = errors.New("cache file is corrupted")

// FileStorage persists a Cache as a JSON document.
type FileStorage[V any] struct {
	path string
}

// NewFileStorage creates a file-backed store at path.
func NewFileStorage[V any](path string) *FileStorage[V] {
	return &FileStorage[V]{path: path}
}

// Save writes the cache, creating parent directories as needed.
func (s *FileStorage[V]) Save(c *Cache[V]) error {
	if err := os.MkdirAll(filepath.Dir(s.path), cacheDirPermissions); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	c.mu.RLock()
	data, err := json.MarshalIndent(c, "", "  ")
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshaling cache: %w", err)
	}

	if err := os.WriteFile(s.path, data, cacheFilePermissions); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	return nil
}

// Load reads the cache. A missing file yields an empty cache. A corrupt
// file is moved aside and reported along with an empty cache.
func (s *FileStorage[V]) Load() (*Cache[V], error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return New[V](), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache file: %w", err)
	}

	c := New[V]()
	if err := json.Unmarshal(data, c); err != nil {
		corruptPath := fmt.Sprintf("%s.corrupt.%d", s.path, time.Now().UTC().UnixNano())
		if renameErr := os.Rename(s.path, corruptPath); renameErr != nil {
			return New[V](), fmt.Errorf("%w: %w (also failed to move file: %w)", ErrCorruptCache, err, renameErr)
		}
		return New[V](), fmt.Errorf("%w: %w (moved to %s)", ErrCorruptCache, err, corruptPath)
	}
	if c.Entries == nil {
		c.Entries = make(map[string]Entry[V])
	}
	return c, nil
}

// Delete removes the cache file. A missing file is not an error.
func (s *FileStorage[V]) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing cache file: %w", err)
	}
	return nil
}

// Path returns the cache file path.
func (s *FileStorage[V]) Path() string {
	return s.path
}

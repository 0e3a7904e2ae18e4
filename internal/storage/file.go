package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// File keeps every value in memory and writes them as one JSON document on
// Flush. The document is replaced atomically so a crash never leaves a
// truncated file behind.
type File struct {
	mu     sync.Mutex
	path   string
	values map[string]string
	dirty  bool
	closed bool
}

// OpenFile loads the JSON document at path. A missing file yields an empty store.
func OpenFile(path string) (*File, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	f := &File{path: path, values: make(map[string]string)}

	// #nosec G304 -- path comes from configuration
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return f, nil
	case err != nil:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return f, nil
	}
	if err := json.Unmarshal(data, &f.values); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return f, nil
}

// Get implements Store.
func (f *File) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return "", false, ErrClosed
	}
	v, ok := f.values[key]
	return v, ok, nil
}

// Set implements Store.
func (f *File) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	if f.values[key] != value {
		f.values[key] = value
		f.dirty = true
	}
	return nil
}

// Flush implements Store.
func (f *File) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	if !f.dirty {
		return nil
	}

	data, err := json.MarshalIndent(f.values, "", "  ")
	if err != nil {
		return err
	}
	if err := WriteAtomic(f.path, data, 0o600); err != nil {
		return err
	}
	f.dirty = false
	return nil
}

// Close flushes pending values and releases the store.
func (f *File) Close() error {
	if err := f.Flush(); err != nil && !errors.Is(err, ErrClosed) {
		return err
	}
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// WriteAtomic writes data to a temp file next to path, fsyncs it, then renames.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	closed := false
	defer func() {
		if !closed {
			_ = tmp.Close()
		}
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return fmt.Errorf("setting temp file permissions: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	closed = true

	if err := os.Rename(tmpPath, path); err != nil { //nolint:gosec // path is from configuration
		return fmt.Errorf("renaming temp file: %w", err)
	}

	if d, err := os.Open(dir); err == nil { //nolint:gosec // dir derives from path
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}

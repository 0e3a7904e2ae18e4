// Package storage persists the small amount of wallet metadata that survives
// between runs, such as the cached balance snapshot.
package storage

import (
	"fmt"
	"sync"

	"github.com/mrz1836/kaswallet/internal/config"
)

// Keys with a fixed meaning.
const (
	// KeyBalance holds the last computed balance in sompi as a decimal string.
	KeyBalance = "balance"
	// KeyPublicKey holds the account public key and path as JSON, so the
	// wallet can be opened without the keystore password.
	KeyPublicKey = "public_key"
)

// Store is a string key/value store with explicit flushing.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)
	// Set records a value. It may stay buffered until Flush.
	Set(key, value string) error
	// Flush makes every Set durable.
	Flush() error
	Close() error
}

// Open returns the store selected by the configuration.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.Storage.Backend {
	case config.StorageBadger:
		return OpenBadger(cfg.StoragePath())
	case config.StorageFile, "":
		return OpenFile(cfg.StoragePath())
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Storage.Backend)
	}
}

// Memory is an in-process Store used by tests and read-only tooling.
type Memory struct {
	mu      sync.RWMutex
	values  map[string]string
	flushes int
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// Get implements Store.
func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set implements Store.
func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Flush implements Store.
func (m *Memory) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushes++
	return nil
}

// Flushes reports how many times Flush was called.
func (m *Memory) Flushes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flushes
}

// Close implements Store.
func (m *Memory) Close() error { return nil }

package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// Badger stores each key as its own entry in a Badger database.
type Badger struct {
	db *badger.DB
}

// OpenBadger opens or creates a Badger database in dir.
func OpenBadger(dir string) (*Badger, error) {
	if dir == "" {
		return nil, ErrEmptyPath
	}

	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		msg := err.Error()
		if strings.Contains(msg, "Cannot acquire directory lock") ||
			strings.Contains(msg, "resource temporarily unavailable") {
			return nil, fmt.Errorf("wallet database at %s is locked by another process: %w", dir, err)
		}
		return nil, fmt.Errorf("open wallet database at %s: %w", dir, err)
	}
	return &Badger{db: db}, nil
}

// Get implements Store.
func (b *Badger) Get(key string) (string, bool, error) {
	var val []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if errors.Is(err, badger.ErrDBClosed) {
		return "", false, ErrClosed
	}
	if err != nil {
		return "", false, fmt.Errorf("badger get: %w", err)
	}
	return string(val), true, nil
}

// Set implements Store.
func (b *Badger) Set(key, value string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
	if errors.Is(err, badger.ErrDBClosed) {
		return ErrClosed
	}
	if err != nil {
		return fmt.Errorf("badger set: %w", err)
	}
	return nil
}

// Flush implements Store.
func (b *Badger) Flush() error {
	if b.db.IsClosed() {
		return ErrClosed
	}
	if b.db.Opts().InMemory {
		return nil
	}
	if err := b.db.Sync(); err != nil {
		return fmt.Errorf("badger sync: %w", err)
	}
	return nil
}

// Close implements Store.
func (b *Badger) Close() error {
	if b.db.IsClosed() {
		return nil
	}
	return b.db.Close()
}

package storage

import "errors"

var (
	// ErrUnknownBackend is returned for a storage backend name that is not supported.
	ErrUnknownBackend = errors.New("unknown storage backend")

	// ErrEmptyPath indicates an empty file path was provided.
	ErrEmptyPath = errors.New("storage path is empty")

	// ErrClosed is returned when using a store after Close.
	ErrClosed = errors.New("storage is closed")
)

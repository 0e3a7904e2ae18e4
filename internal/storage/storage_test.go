package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/kaswallet/internal/config"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()

	_, ok, err := s.Get(KeyBalance)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(KeyBalance, "1000000000"))
	require.NoError(t, s.Flush())

	v, ok, err := s.Get(KeyBalance)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1000000000", v)

	require.NoError(t, s.Set(KeyBalance, "0"))
	v, _, err = s.Get(KeyBalance)
	require.NoError(t, err)
	assert.Equal(t, "0", v)
}

func TestMemory(t *testing.T) {
	t.Parallel()
	m := NewMemory()
	exerciseStore(t, m)
	assert.Equal(t, 1, m.Flushes())
	require.NoError(t, m.Close())
}

func TestFile_PersistsAcrossOpen(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "state.json")

	f, err := OpenFile(path)
	require.NoError(t, err)
	exerciseStore(t, f)
	require.NoError(t, f.Set(KeyBalance, "42"))
	require.NoError(t, f.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened, err := OpenFile(path)
	require.NoError(t, err)
	v, ok, err := reopened.Get(KeyBalance)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "42", v)
}

func TestFile_NoTempLeftovers(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	f, err := OpenFile(filepath.Join(dir, "state.json"))
	require.NoError(t, err)
	require.NoError(t, f.Set("a", "b"))
	require.NoError(t, f.Flush())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "state.json", entries[0].Name())
}

func TestFile_CorruptDocument(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := OpenFile(path)
	require.Error(t, err)
}

func TestFile_EmptyPath(t *testing.T) {
	t.Parallel()
	_, err := OpenFile("")
	require.ErrorIs(t, err, ErrEmptyPath)
}

func TestFile_UseAfterClose(t *testing.T) {
	t.Parallel()
	f, err := OpenFile(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.ErrorIs(t, f.Set("k", "v"), ErrClosed)
	_, _, err = f.Get("k")
	require.ErrorIs(t, err, ErrClosed)
	require.NoError(t, f.Close())
}

func TestBadger(t *testing.T) {
	t.Parallel()
	b, err := OpenBadger(filepath.Join(t.TempDir(), "db"))
	require.NoError(t, err)
	exerciseStore(t, b)
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
}

func TestBadger_PersistsAcrossOpen(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "db")

	b, err := OpenBadger(dir)
	require.NoError(t, err)
	require.NoError(t, b.Set(KeyBalance, "777"))
	require.NoError(t, b.Flush())
	require.NoError(t, b.Close())

	b, err = OpenBadger(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	v, ok, err := b.Get(KeyBalance)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "777", v)
}

func TestOpen_SelectsBackend(t *testing.T) {
	t.Parallel()

	cfg := config.Defaults()
	cfg.Home = t.TempDir()

	s, err := Open(cfg)
	require.NoError(t, err)
	_, isFile := s.(*File)
	assert.True(t, isFile)
	require.NoError(t, s.Close())

	cfg.Storage.Backend = config.StorageBadger
	s, err = Open(cfg)
	require.NoError(t, err)
	_, isBadger := s.(*Badger)
	assert.True(t, isBadger)
	require.NoError(t, s.Close())

	cfg.Storage.Backend = "redis"
	_, err = Open(cfg)
	require.ErrorIs(t, err, ErrUnknownBackend)
}

package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type schedule struct {
	Address string `json:"address"`
	Fee     string `json:"fee"`
}

func TestFileStorage(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	cachePath := filepath.Join(tmpDir, "csfee.json")
	storage := NewFileStorage[schedule](cachePath)

	t.Run("save and load round-trip", func(t *testing.T) {
		c := New[schedule]()
		c.Set(Key("mainnet", "csfee"), schedule{Address: "kaspa:qabc", Fee: "0.005"})
		c.Set(Key("testnet", "csfee"), schedule{})

		require.NoError(t, storage.Save(c))
		assert.FileExists(t, storage.Path())

		loaded, err := storage.Load()
		require.NoError(t, err)
		assert.Equal(t, 2, loaded.Size())

		v, ok, age := loaded.Get("mainnet:csfee")
		require.True(t, ok)
		assert.Equal(t, "0.005", v.Fee)
		assert.Less(t, age, time.Minute)
	})

	t.Run("missing file gives empty cache", func(t *testing.T) {
		s := NewFileStorage[schedule](filepath.Join(tmpDir, "nonexistent.json"))
		c, err := s.Load()
		require.NoError(t, err)
		assert.Equal(t, 0, c.Size())
		require.NoError(t, s.Delete())
	})

	t.Run("creates parent directories", func(t *testing.T) {
		nested := filepath.Join(tmpDir, "nested", "dir", "cache.json")
		s := NewFileStorage[schedule](nested)
		c := New[schedule]()
		c.Set("k", schedule{Fee: "1"})
		require.NoError(t, s.Save(c))
		assert.Equal(t, nested, s.Path())
		_, err := os.Stat(nested)
		require.NoError(t, err)
	})

	t.Run("corrupt file moved aside", func(t *testing.T) {
		bad := filepath.Join(tmpDir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o600))

		s := NewFileStorage[schedule](bad)
		c, err := s.Load()
		require.ErrorIs(t, err, ErrCorruptCache)
		assert.Equal(t, 0, c.Size())
		assert.NoFileExists(t, bad)
	})
}

func TestCache(t *testing.T) {
	t.Parallel()

	t.Run("get returns value and age", func(t *testing.T) {
		t.Parallel()
		c := New[uint64]()
		c.Set("rate", 2)

		v, ok, age := c.Get("rate")
		assert.True(t, ok)
		assert.Equal(t, uint64(2), v)
		assert.Less(t, age, time.Second)

		_, ok, _ = c.Get("missing")
		assert.False(t, ok)
	})

	t.Run("fresh respects max age", func(t *testing.T) {
		t.Parallel()
		c := New[uint64]()
		c.Set("rate", 1)
		_, ok := c.Fresh("rate", 10*time.Minute)
		assert.True(t, ok)

		c.backdate("rate", time.Hour)
		_, ok = c.Fresh("rate", 10*time.Minute)
		assert.False(t, ok)
		v, ok := c.Fresh("rate", 2*time.Hour)
		assert.True(t, ok)
		assert.Equal(t, uint64(1), v)

		_, ok = c.Fresh("missing", time.Hour)
		assert.False(t, ok)
	})

	t.Run("delete", func(t *testing.T) {
		t.Parallel()
		c := New[string]()
		c.Set("a", "1")
		c.Set("b", "2")
		c.Delete("a")
		c.Delete("missing")
		assert.Equal(t, 1, c.Size())
	})

	t.Run("prune removes old entries", func(t *testing.T) {
		t.Parallel()
		c := New[string]()
		c.Set("new", "1")
		c.Set("old", "2")
		c.backdate("old", time.Hour)

		assert.Equal(t, 1, c.Prune(30*time.Minute))
		_, ok, _ := c.Get("new")
		assert.True(t, ok)
		_, ok, _ = c.Get("old")
		assert.False(t, ok)
	})

	t.Run("key joins parts", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "mainnet:csfee", Key("mainnet", "csfee"))
		assert.Equal(t, "solo", Key("solo"))
	})
}

// backdate moves an entry's timestamp into the past.
func (c *Cache[V]) backdate(key string, by time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.Entries[key]; ok {
		entry.UpdatedAt = entry.UpdatedAt.Add(-by)
		c.Entries[key] = entry
	}
}

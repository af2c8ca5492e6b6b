package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	dir := filepath.Join(t.TempDir(), "cache")
	c := New(dir)
	require.NoError(t, c.Init())
	return c
}

func TestCache_StoreAndRetrieve(t *testing.T) {
	c := newTestCache(t)

	entry := &Entry{
		Fingerprint: "abc123",
		Files:       map[string]string{"src/main.py": "print('hello')\n"},
		TokensIn:    100,
		TokensOut:   200,
	}
	require.NoError(t, c.Put(entry))

	got, ok := c.Get("abc123")
	require.True(t, ok)
	assert.Equal(t, entry.Fingerprint, got.Fingerprint)
	assert.Equal(t, entry.Files, got.Files)
	assert.EqualValues(t, 100, got.TokensIn)
	assert.EqualValues(t, 200, got.TokensOut)
}

func TestCache_Miss(t *testing.T) {
	c := newTestCache(t)
	_, ok := c.Get("nonexistent")
	assert.False(t, ok)
}

func TestCache_CorruptedEntryIsMiss(t *testing.T) {
	c := newTestCache(t)
	path := filepath.Join(c.dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))
	_, ok := c.Get("bad")
	assert.False(t, ok)
}

func TestCache_Clear(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.Put(&Entry{Fingerprint: "abc123", Files: map[string]string{}}))
	_, ok := c.Get("abc123")
	require.True(t, ok)

	require.NoError(t, c.Clear())
	_, ok = c.Get("abc123")
	assert.False(t, ok)
}

func TestCache_Remove(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.Put(&Entry{Fingerprint: "abc123", Files: map[string]string{}}))
	require.NoError(t, c.Remove("abc123"))
	_, ok := c.Get("abc123")
	assert.False(t, ok)
	// Removing an absent entry is not an error.
	require.NoError(t, c.Remove("abc123"))
}

// Package cache is the fingerprint-keyed, content-addressed store mapping
// a prompt's fingerprint to its generated output files and token counts.
// The cache is an optimization, never authoritative: a miss, a corrupted
// entry, and "never generated" are all the same thing to the caller.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/clintonboys/lit/internal/errs"
)

// Entry is a persisted generation result, keyed by its fingerprint.
type Entry struct {
	Fingerprint string            `json:"fingerprint"`
	Files       map[string]string `json:"files"`
	TokensIn    uint64            `json:"tokens_in"`
	TokensOut   uint64            `json:"tokens_out"`
}

// Cache is a directory of one JSON file per fingerprint.
type Cache struct {
	dir string
}

// New returns a Cache backed by dir. Call Init before first use.
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// Init ensures the cache directory exists.
func (c *Cache) Init() error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return &errs.IOError{Op: "create cache dir", Path: c.dir, Err: err}
	}
	return nil
}

func (c *Cache) path(fingerprint string) string {
	return filepath.Join(c.dir, fingerprint+".json")
}

// Get looks up a cached generation by fingerprint. A missing or corrupted
// entry is reported as (nil, false) rather than an error — both are
// ordinary cache misses.
func (c *Cache) Get(fingerprint string) (*Entry, bool) {
	data, err := os.ReadFile(c.path(fingerprint))
	if err != nil {
		return nil, false
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}
	return &entry, true
}

// Put stores (or idempotently overwrites) a generation result.
func (c *Cache) Put(entry *Entry) error {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return &errs.IOError{Op: "serialize cache entry", Path: entry.Fingerprint, Err: err}
	}
	path := c.path(entry.Fingerprint)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &errs.IOError{Op: "write cache entry", Path: path, Err: err}
	}
	return nil
}

// Remove deletes a single cache entry, if present.
func (c *Cache) Remove(fingerprint string) error {
	path := c.path(fingerprint)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := os.Remove(path); err != nil {
		return &errs.IOError{Op: "remove cache entry", Path: path, Err: err}
	}
	return nil
}

// Clear removes every cache entry and recreates the (now empty) directory.
func (c *Cache) Clear() error {
	if _, err := os.Stat(c.dir); os.IsNotExist(err) {
		return nil
	}
	if err := os.RemoveAll(c.dir); err != nil {
		return &errs.IOError{Op: "clear cache", Path: c.dir, Err: err}
	}
	return c.Init()
}

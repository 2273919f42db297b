package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// sharedScope holds entries whose key names no building.
const sharedScope = "_shared"

// FileCache stores each graph as an enveloped JSON file. Entries are grouped
// by building, then sharded by the first two hex characters of the key hash:
//
//	<dir>/<building>/<ab>/<rest-of-hash>.json
//
// Writes go through a temporary file and a rename, so a concurrent reader
// sees either the old entry or the new one.
type FileCache struct {
	dir string
	now func() time.Time
}

// NewFileCache creates a file cache rooted at dir, creating it if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if dir == "" {
		return nil, fmt.Errorf("file cache: empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir, now: time.Now}, nil
}

// Dir returns the cache root.
func (c *FileCache) Dir() string { return c.dir }

// Get returns the payload stored under key. Unreadable, stale, misfiled and
// expired entries are removed and reported as misses.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	data, err := unseal(key, raw, c.now())
	if err != nil {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return data, true, nil
}

// Set stores data under key.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	raw, err := seal(key, data, ttl, c.now())
	if err != nil {
		return err
	}
	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".entry-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Delete removes the entry under key. Deleting a missing entry is not an
// error.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Close does nothing.
func (c *FileCache) Close() error { return nil }

// Prune walks the cache and removes every entry Get would refuse to serve:
// expired, written by another format version, or filed under the wrong path.
// It returns the number of files removed.
func (c *FileCache) Prune(ctx context.Context) (int, error) {
	now := c.now()
	removed := 0
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		if c.servable(path, now) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			return err
		}
		removed++
		return nil
	})
	return removed, err
}

func (c *FileCache) servable(path string, now time.Time) bool {
	raw, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return false
	}
	if _, err := e.check(e.Key, now); err != nil {
		return false
	}
	return c.path(e.Key) == path
}

func (c *FileCache) path(key string) string {
	hash := Hash([]byte(key))
	return filepath.Join(c.dir, scopeOf(key), hash[:2], hash[2:]+".json")
}

// scopeOf extracts the building name from a key made by a building-scoped
// keyer ("building:<name>:graph:..."). The name is reduced to characters
// safe for a single path element.
func scopeOf(key string) string {
	rest, ok := strings.CutPrefix(key, buildingPrefix)
	if !ok {
		return sharedScope
	}
	name, _, ok := strings.Cut(rest, ":")
	if !ok {
		return sharedScope
	}
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
	if name == "" {
		return sharedScope
	}
	return name
}

var _ Cache = (*FileCache)(nil)

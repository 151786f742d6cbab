// Package cache is a small file-backed key-value store used to bound the
// volume of outbound artwork lookups. Each key lives in its own JSON file
// holding the write timestamp and the cached value; entries older than the
// TTL are treated as missing.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
)

const DefaultTTL = time.Hour

type entry struct {
	Timestamp int64  `json:"timestamp"`
	Data      string `json:"data"`
}

type Cache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	return &Cache{
		dir: dir,
		ttl: DefaultTTL,
		now: time.Now,
	}, nil
}

// path maps a free-form key onto a stable filename. Keys contain media
// titles so they can't be used as filenames directly.
func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, fmt.Sprintf("%x.json", xxhash.Sum64String(key)))
}

// Get returns the cached value for key if it exists and hasn't expired.
func (c *Cache) Get(key string) (string, bool) {
	raw, err := os.ReadFile(c.path(key))
	if err != nil {
		return "", false
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return "", false
	}
	if c.now().Unix()-e.Timestamp >= int64(c.ttl.Seconds()) {
		return "", false
	}
	return e.Data, true
}

// Set stores value under key. The write goes through a temp file and a
// rename so a kill mid-write can't leave a torn entry behind.
func (c *Cache) Set(key, value string) error {
	raw, err := json.Marshal(entry{
		Timestamp: c.now().Unix(),
		Data:      value,
	})
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(c.dir, "entry-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), c.path(key))
}

// Prune removes expired entry files and reports how many were dropped.
// Runs on a schedule so stale lookups don't accumulate forever.
func (c *Cache) Prune() (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, dirEntry := range entries {
		if dirEntry.IsDir() || filepath.Ext(dirEntry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(c.dir, dirEntry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var e entry
		if err := json.Unmarshal(raw, &e); err != nil {
			// unreadable entries get cleaned up too
			os.Remove(path)
			removed++
			continue
		}
		if c.now().Unix()-e.Timestamp >= int64(c.ttl.Seconds()) {
			os.Remove(path)
			removed++
		}
	}
	return removed, nil
}

// Package cache stores completed reports on disk so reopening an analysis
// does not hit the backend.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/maxradov/propacondom-app/internal/models"
)

const fileExt = ".json.zst"

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
)

// Cache is a directory of compressed report entries. A Cache with an empty
// directory is disabled: every Get misses and every write is a no-op.
type Cache struct {
	dir    string
	maxAge time.Duration
	mu     sync.Mutex
}

// Option configures a Cache.
type Option func(*Cache)

// WithMaxAge expires entries older than d. Zero keeps entries forever.
func WithMaxAge(d time.Duration) Option {
	return func(c *Cache) { c.maxAge = d }
}

// New creates a cache rooted at dir.
func New(dir string, opts ...Option) *Cache {
	c := &Cache{dir: dir}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dir is the cache directory.
func (c *Cache) Dir() string { return c.dir }

// MaxAge is the entry lifetime; zero means entries never expire.
func (c *Cache) MaxAge() time.Duration { return c.maxAge }

type entry struct {
	SavedAt time.Time             `json:"saved_at"`
	Report  *models.ReportPayload `json:"report"`
}

// Key derives the file key for an analysis on a given backend.
func Key(baseURL, analysisID string) string {
	h := sha256.New()
	_ = writeString(h, strings.TrimRight(baseURL, "/"))
	_ = writeString(h, analysisID)
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached report for key. Unreadable or expired entries are
// misses.
func (c *Cache) Get(key string) (*models.ReportPayload, bool) {
	if c.dir == "" {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	compressed, err := os.ReadFile(c.cachePath(key))
	if err != nil {
		return nil, false
	}
	data, err := decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil || e.Report == nil {
		return nil, false
	}
	if c.maxAge > 0 && time.Since(e.SavedAt) > c.maxAge {
		return nil, false
	}
	return e.Report, true
}

// Put stores a report under key.
func (c *Cache) Put(key string, report *models.ReportPayload) error {
	if c.dir == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	data, err := json.Marshal(entry{SavedAt: time.Now().UTC(), Report: report})
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	if err := os.WriteFile(c.cachePath(key), encoder.EncodeAll(data, nil), 0644); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	return nil
}

// Delete removes the entry for key, if present.
func (c *Cache) Delete(key string) error {
	if c.dir == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.Remove(c.cachePath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing cache entry: %w", err)
	}
	return nil
}

// Clear removes the cache directory after checking it only holds cache files.
func (c *Cache) Clear() error {
	if c.dir == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := os.Stat(c.dir); os.IsNotExist(err) {
		return nil
	}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("reading cache directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			return fmt.Errorf("cache directory contains subdirectories - refusing to delete for safety")
		}
		if !strings.HasSuffix(e.Name(), fileExt) {
			return fmt.Errorf("cache directory contains non-cache files - refusing to delete for safety")
		}
	}

	return os.RemoveAll(c.dir)
}

func (c *Cache) cachePath(key string) string {
	return filepath.Join(c.dir, key+fileExt)
}

func writeString(w io.Writer, s string) error {
	// Null delimiter keeps ("ab","c") and ("a","bc") apart.
	_, err := w.Write([]byte(s + "\x00"))
	return err
}

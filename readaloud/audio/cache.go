package audio

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/francktshibala/bookbridge-sync/readaloud"
)

const (
	// CacheSizeLimit is the maximum size of the disk cache (512MB).
	CacheSizeLimit = 512 * 1024 * 1024
	// CacheTTL is the time-to-live for cache entries (7 days).
	CacheTTL = 7 * 24 * time.Hour
	// cacheKeyVersion prefixes keys so the on-disk format can migrate.
	cacheKeyVersion = "v1"
)

// cacheEntry is the index record for one cached audio file.
type cacheEntry struct {
	Source    string    `json:"source"`
	File      string    `json:"file"`
	Size      int64     `json:"size"`
	Timestamp time.Time `json:"timestamp"`
}

// Cache is a disk cache for fetched chunk audio. Entries are gzip
// compressed; Size tracks the compressed bytes on disk.
type Cache struct {
	mu        sync.Mutex
	dir       string
	sizeLimit int64
	size      int64
	ttl       time.Duration
	index     map[string]*cacheEntry
	indexFile string
	closed    bool
}

// NewCache opens (or creates) a disk cache rooted at dir. A zero
// sizeLimit or ttl gets the default.
func NewCache(dir string, sizeLimit int64, ttl time.Duration) (*Cache, error) {
	if sizeLimit <= 0 {
		sizeLimit = CacheSizeLimit
	}
	if ttl <= 0 {
		ttl = CacheTTL
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	c := &Cache{
		dir:       dir,
		sizeLimit: sizeLimit,
		ttl:       ttl,
		index:     make(map[string]*cacheEntry),
		indexFile: filepath.Join(dir, "index.json"),
	}
	if err := c.loadIndex(); err != nil {
		// Missing or corrupt index means a fresh cache.
		c.index = make(map[string]*cacheEntry)
	}
	for _, e := range c.index {
		c.size += e.Size
	}
	return c, nil
}

// CacheKey returns the deterministic key for an audio source.
func CacheKey(source string) string {
	sum := sha256.Sum256([]byte(source))
	return fmt.Sprintf("%s_%s", cacheKeyVersion, hex.EncodeToString(sum[:]))
}

// Get returns the cached audio for source, or readaloud.ErrCacheMiss.
// Expired entries are treated as misses and removed.
func (c *Cache) Get(source string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, readaloud.ErrCacheClosed
	}

	key := CacheKey(source)
	e, ok := c.index[key]
	if !ok {
		return nil, readaloud.ErrCacheMiss
	}
	if time.Since(e.Timestamp) > c.ttl {
		c.removeLocked(key)
		_ = c.saveIndexLocked()
		return nil, readaloud.ErrCacheMiss
	}

	compressed, err := os.ReadFile(filepath.Join(c.dir, e.File))
	if err != nil {
		c.removeLocked(key)
		_ = c.saveIndexLocked()
		return nil, readaloud.ErrCacheMiss
	}

	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		c.removeLocked(key)
		_ = c.saveIndexLocked()
		return nil, readaloud.ErrCacheMiss
	}
	defer zr.Close() //nolint:errcheck

	data, err := io.ReadAll(zr)
	if err != nil {
		c.removeLocked(key)
		_ = c.saveIndexLocked()
		return nil, readaloud.ErrCacheMiss
	}
	return data, nil
}

// Put stores audio for source, evicting oldest entries if the size
// limit would be exceeded.
func (c *Cache) Put(source string, data []byte) error {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return fmt.Errorf("failed to compress audio: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to compress audio: %w", err)
	}
	compressed := buf.Bytes()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return readaloud.ErrCacheClosed
	}

	key := CacheKey(source)
	if old, ok := c.index[key]; ok {
		c.size -= old.Size
		_ = os.Remove(filepath.Join(c.dir, old.File))
		delete(c.index, key)
	}

	// Oldest-first eviction keeps the cache under its limit.
	for c.size+int64(len(compressed)) > c.sizeLimit && len(c.index) > 0 {
		c.removeLocked(c.oldestKeyLocked())
	}

	file := key + ".gz"
	if err := os.WriteFile(filepath.Join(c.dir, file), compressed, 0o600); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	c.index[key] = &cacheEntry{
		Source:    source,
		File:      file,
		Size:      int64(len(compressed)),
		Timestamp: time.Now(),
	}
	c.size += int64(len(compressed))
	return c.saveIndexLocked()
}

// Delete removes the entry for source if present.
func (c *Cache) Delete(source string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return readaloud.ErrCacheClosed
	}
	c.removeLocked(CacheKey(source))
	return c.saveIndexLocked()
}

// Size returns the compressed bytes currently on disk.
func (c *Cache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

// Clear removes every entry.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return readaloud.ErrCacheClosed
	}
	for key := range c.index {
		c.removeLocked(key)
	}
	return c.saveIndexLocked()
}

// Prune removes expired entries and enforces the size limit.
func (c *Cache) Prune() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return readaloud.ErrCacheClosed
	}

	now := time.Now()
	for key, e := range c.index {
		if now.Sub(e.Timestamp) > c.ttl {
			c.removeLocked(key)
		}
	}
	for c.size > c.sizeLimit && len(c.index) > 0 {
		c.removeLocked(c.oldestKeyLocked())
	}
	return c.saveIndexLocked()
}

// Close flushes the index and rejects further use.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.saveIndexLocked()
}

func (c *Cache) removeLocked(key string) {
	e, ok := c.index[key]
	if !ok {
		return
	}
	_ = os.Remove(filepath.Join(c.dir, e.File))
	delete(c.index, key)
	c.size -= e.Size
}

func (c *Cache) oldestKeyLocked() string {
	var oldestKey string
	var oldestTime time.Time
	for key, e := range c.index {
		if oldestKey == "" || e.Timestamp.Before(oldestTime) {
			oldestKey = key
			oldestTime = e.Timestamp
		}
	}
	return oldestKey
}

func (c *Cache) loadIndex() error {
	data, err := os.ReadFile(c.indexFile)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, &c.index)
}

func (c *Cache) saveIndexLocked() error {
	data, err := json.MarshalIndent(c.index, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.indexFile, data, 0o600)
}

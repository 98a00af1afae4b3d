package audio

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/francktshibala/bookbridge-sync/readaloud"
)

func TestCacheRoundTrip(t *testing.T) {
	cache, err := NewCache(t.TempDir(), 0, 0)
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}
	defer cache.Close() //nolint:errcheck

	data := []byte("not really audio but close enough for the cache")
	if err := cache.Put("https://example.com/chunk/1", data); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := cache.Get("https://example.com/chunk/1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("Get returned %d bytes that differ from the original %d", len(got), len(data))
	}
}

func TestCacheMiss(t *testing.T) {
	cache, err := NewCache(t.TempDir(), 0, 0)
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}
	defer cache.Close() //nolint:errcheck

	if _, err := cache.Get("never-stored"); !errors.Is(err, readaloud.ErrCacheMiss) {
		t.Errorf("Get on empty cache = %v, want ErrCacheMiss", err)
	}
}

func TestCacheExpiredEntryIsAMiss(t *testing.T) {
	cache, err := NewCache(t.TempDir(), 0, time.Nanosecond)
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}
	defer cache.Close() //nolint:errcheck

	if err := cache.Put("chunk", []byte("data")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	time.Sleep(time.Millisecond)

	if _, err := cache.Get("chunk"); !errors.Is(err, readaloud.ErrCacheMiss) {
		t.Errorf("Get on expired entry = %v, want ErrCacheMiss", err)
	}
	if cache.Len() != 0 {
		t.Errorf("expired entry should have been removed, len = %d", cache.Len())
	}
}

func TestCacheEvictsOldestWhenFull(t *testing.T) {
	// A one-byte limit forces every insert to displace what came before.
	cache, err := NewCache(t.TempDir(), 1, 0)
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}
	defer cache.Close() //nolint:errcheck

	if err := cache.Put("first", []byte("first chunk audio")); err != nil {
		t.Fatalf("Put first failed: %v", err)
	}
	if err := cache.Put("second", []byte("second chunk audio")); err != nil {
		t.Fatalf("Put second failed: %v", err)
	}

	if cache.Len() != 1 {
		t.Fatalf("cache len = %d, want 1", cache.Len())
	}
	if _, err := cache.Get("first"); !errors.Is(err, readaloud.ErrCacheMiss) {
		t.Errorf("evicted entry Get = %v, want ErrCacheMiss", err)
	}
	if _, err := cache.Get("second"); err != nil {
		t.Errorf("newest entry Get failed: %v", err)
	}
}

func TestCacheSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	cache, err := NewCache(dir, 0, 0)
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}
	data := []byte("persisted audio")
	if err := cache.Put("chunk", data); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := cache.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewCache(dir, 0, 0)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close() //nolint:errcheck

	got, err := reopened.Get("chunk")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("reopened cache returned different bytes")
	}
}

func TestCacheClosedRejectsUse(t *testing.T) {
	cache, err := NewCache(t.TempDir(), 0, 0)
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}
	if err := cache.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := cache.Get("chunk"); !errors.Is(err, readaloud.ErrCacheClosed) {
		t.Errorf("Get after close = %v, want ErrCacheClosed", err)
	}
	if err := cache.Put("chunk", []byte("data")); !errors.Is(err, readaloud.ErrCacheClosed) {
		t.Errorf("Put after close = %v, want ErrCacheClosed", err)
	}
	if err := cache.Close(); err != nil {
		t.Errorf("double Close = %v, want nil", err)
	}
}

func TestCacheClearRemovesEverything(t *testing.T) {
	cache, err := NewCache(t.TempDir(), 0, 0)
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}
	defer cache.Close() //nolint:errcheck

	for _, key := range []string{"a", "b", "c"} {
		if err := cache.Put(key, []byte("audio for "+key)); err != nil {
			t.Fatalf("Put %s failed: %v", key, err)
		}
	}
	if err := cache.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if cache.Len() != 0 || cache.Size() != 0 {
		t.Errorf("after Clear: len=%d size=%d, want 0/0", cache.Len(), cache.Size())
	}
}

func TestCacheKeyIsDeterministic(t *testing.T) {
	a := CacheKey("https://example.com/chunk/1")
	b := CacheKey("https://example.com/chunk/1")
	c := CacheKey("https://example.com/chunk/2")

	if a != b {
		t.Error("same source should produce the same key")
	}
	if a == c {
		t.Error("different sources should produce different keys")
	}
}

package chunkman

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/francktshibala/bookbridge-sync/readaloud"
)

// fakePool records pool calls without touching real audio.
type fakePool struct {
	mu        sync.Mutex
	loaded    map[string]bool
	evicted   []string
	preloads  []string
	failWith  map[string]error
	currentID string
}

func newFakePool() *fakePool {
	return &fakePool{
		loaded:   make(map[string]bool),
		failWith: make(map[string]error),
	}
}

func (p *fakePool) Preload(_ context.Context, id, _ string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.preloads = append(p.preloads, id)
	if err, ok := p.failWith[id]; ok {
		return id, err
	}
	p.loaded[id] = true
	return id, nil
}

func (p *fakePool) IsLoaded(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loaded[id]
}

func (p *fakePool) Readiness(id string) readaloud.Readiness {
	if p.IsLoaded(id) {
		return readaloud.ReadyToPlayThrough
	}
	return readaloud.NotRequested
}

func (p *fakePool) Evict(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.loaded, id)
	p.evicted = append(p.evicted, id)
}

func (p *fakePool) CurrentID() string { return p.currentID }

func makeChunks(n int) []readaloud.Chunk {
	chunks := make([]readaloud.Chunk, n)
	for i := range chunks {
		chunks[i] = readaloud.Chunk{
			Index:     i,
			ContentID: "book-1",
			Source:    fmt.Sprintf("https://example.com/audio/%d", i),
		}
	}
	return chunks
}

// fastLimiter never blocks in tests.
func fastLimiter() Option {
	return WithLimiter(rate.NewLimiter(rate.Inf, 1))
}

func TestPreloadWarmsCurrentPlusTwoAhead(t *testing.T) {
	pool := newFakePool()
	m := New(pool, fastLimiter())
	chunks := makeChunks(10)

	if err := m.Preload(context.Background(), chunks, 0); err != nil {
		t.Fatalf("Preload failed: %v", err)
	}

	want := []string{"book-1#0", "book-1#1", "book-1#2"}
	if len(pool.preloads) != len(want) {
		t.Fatalf("preloaded %v, want %v", pool.preloads, want)
	}
	for i, id := range want {
		if pool.preloads[i] != id {
			t.Errorf("preload %d = %q, want %q", i, pool.preloads[i], id)
		}
	}
	for i := 0; i <= 2; i++ {
		if !m.IsReady(i) {
			t.Errorf("chunk %d should be ready", i)
		}
	}
	if m.IsReady(3) {
		t.Error("chunk 3 should not have been preloaded")
	}
}

func TestPreloadWindowClampsAtEnd(t *testing.T) {
	pool := newFakePool()
	m := New(pool, fastLimiter())
	chunks := makeChunks(3)

	if err := m.Preload(context.Background(), chunks, 2); err != nil {
		t.Fatalf("Preload failed: %v", err)
	}
	if len(pool.preloads) != 1 || pool.preloads[0] != "book-1#2" {
		t.Errorf("preloaded %v, want only the final chunk", pool.preloads)
	}
}

func TestPreloadSkipsAlreadyLoaded(t *testing.T) {
	pool := newFakePool()
	m := New(pool, fastLimiter())
	chunks := makeChunks(5)

	if err := m.Preload(context.Background(), chunks, 0); err != nil {
		t.Fatalf("first Preload failed: %v", err)
	}
	before := len(pool.preloads)

	if err := m.Preload(context.Background(), chunks, 1); err != nil {
		t.Fatalf("second Preload failed: %v", err)
	}
	// Only chunk 3 is new in the window [1,3].
	if got := pool.preloads[before:]; len(got) != 1 || got[0] != "book-1#3" {
		t.Errorf("second pass preloaded %v, want [book-1#3]", got)
	}
}

func TestPreloadEvictsFarBehind(t *testing.T) {
	pool := newFakePool()
	m := New(pool, fastLimiter())
	chunks := makeChunks(10)

	for idx := 0; idx <= 5; idx++ {
		if err := m.Preload(context.Background(), chunks, idx); err != nil {
			t.Fatalf("Preload at %d failed: %v", idx, err)
		}
	}

	// At current index 5, chunks below 3 must be gone.
	for i := 0; i < 3; i++ {
		if m.IsReady(i) {
			t.Errorf("chunk %d should have been evicted", i)
		}
		if got := m.Readiness(i); got != readaloud.NotRequested {
			t.Errorf("chunk %d readiness = %v, want NotRequested", i, got)
		}
	}
	for i := 3; i <= 7; i++ {
		if !m.IsReady(i) {
			t.Errorf("chunk %d should still be ready", i)
		}
	}
}

func TestPreloadFailureDoesNotStopWindow(t *testing.T) {
	pool := newFakePool()
	pool.failWith["book-1#1"] = errors.New("source unavailable")
	m := New(pool, fastLimiter())
	chunks := makeChunks(5)

	err := m.Preload(context.Background(), chunks, 0)
	if err == nil {
		t.Fatal("Preload should report the failed chunk")
	}
	if !m.IsReady(0) || !m.IsReady(2) {
		t.Error("chunks around the failure should still load")
	}
	if m.IsReady(1) {
		t.Error("failed chunk must not be marked ready")
	}
}

func TestPreloadRejectsBadIndex(t *testing.T) {
	m := New(newFakePool(), fastLimiter())
	chunks := makeChunks(3)

	if err := m.Preload(context.Background(), chunks, -1); err == nil {
		t.Error("negative index should error")
	}
	if err := m.Preload(context.Background(), chunks, 3); err == nil {
		t.Error("out-of-range index should error")
	}
}

func TestPreloadHonorsContextCancellation(t *testing.T) {
	pool := newFakePool()
	// Zero-burst limiter blocks forever, so only cancellation can end the
	// wait.
	m := New(pool, WithLimiter(rate.NewLimiter(rate.Every(time.Hour), 1)))
	chunks := makeChunks(5)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	// First chunk consumes the burst token; the second wait blocks until
	// cancel.
	err := m.Preload(ctx, chunks, 0)
	if err == nil {
		t.Fatal("cancelled Preload should error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled in chain", err)
	}
}

func TestPreloadLeadTime(t *testing.T) {
	tests := []struct {
		name     string
		progress float64
		duration time.Duration
		want     time.Duration
	}{
		{"at threshold", 0.8, 10 * time.Second, 0},
		{"past threshold", 0.95, 10 * time.Second, 0},
		{"start of chunk", 0.0, 10 * time.Second, 8 * time.Second},
		{"halfway", 0.5, 10 * time.Second, 3 * time.Second},
		{"negative clamped", -0.3, 10 * time.Second, 8 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PreloadLeadTime(tt.progress, tt.duration); got != tt.want {
				t.Errorf("PreloadLeadTime(%v, %v) = %v, want %v", tt.progress, tt.duration, got, tt.want)
			}
		})
	}
}

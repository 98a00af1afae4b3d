// Package chunkman schedules chunk audio around the playback position:
// it keeps the next chunks preloading while the current one plays and
// releases chunks the listener has moved past.
package chunkman

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/francktshibala/bookbridge-sync/readaloud"
)

const (
	// preloadAhead is how many chunks beyond the current one are kept
	// buffering.
	preloadAhead = 2
	// evictBehind is how far behind the current chunk audio is retained
	// before eviction.
	evictBehind = 2
	// leadThreshold is the playback progress ratio at which the next
	// chunk's preload must already be running.
	leadThreshold = 0.8
)

// Pool is the slice of the audio buffer pool the manager drives.
type Pool interface {
	Preload(ctx context.Context, id, source string) (string, error)
	IsLoaded(id string) bool
	Readiness(id string) readaloud.Readiness
	Evict(id string)
	CurrentID() string
}

// Manager keeps a sliding window of chunk audio warm in the pool.
type Manager struct {
	pool    Pool
	limiter *rate.Limiter

	mu  sync.Mutex
	ids map[int]string // chunk index -> pool handle id
}

// Option configures a Manager.
type Option func(*Manager)

// WithLimiter overrides the preload request limiter.
func WithLimiter(l *rate.Limiter) Option {
	return func(m *Manager) { m.limiter = l }
}

// New creates a chunk manager over pool. Preload requests are throttled
// so a fast seek through a book does not stampede the audio source.
func New(pool Pool, opts ...Option) *Manager {
	m := &Manager{
		pool:    pool,
		limiter: rate.NewLimiter(rate.Every(200*time.Millisecond), preloadAhead+1),
		ids:     make(map[int]string),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ChunkID returns the pool handle id used for a chunk.
func ChunkID(c readaloud.Chunk) string {
	return fmt.Sprintf("%s#%d", c.ContentID, c.Index)
}

// Preload warms the window around currentIndex: the current chunk plus up
// to two ahead are preloaded, and chunks more than two behind are evicted.
// A failed chunk does not stop the rest of the window; all failures are
// joined into the returned error.
func (m *Manager) Preload(ctx context.Context, chunks []readaloud.Chunk, currentIndex int) error {
	if currentIndex < 0 || currentIndex >= len(chunks) {
		return fmt.Errorf("chunk index %d out of range [0,%d)", currentIndex, len(chunks))
	}

	m.evictBehind(currentIndex)

	var errs []error
	for i := currentIndex; i <= currentIndex+preloadAhead && i < len(chunks); i++ {
		c := chunks[i]
		id := ChunkID(c)
		if m.pool.IsLoaded(id) {
			m.track(c.Index, id)
			continue
		}
		if err := m.limiter.Wait(ctx); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := m.pool.Preload(ctx, id, c.Source); err != nil {
			log.Debug("chunk preload failed", "index", c.Index, "error", err)
			errs = append(errs, fmt.Errorf("chunk %d: %w", c.Index, err))
			continue
		}
		m.track(c.Index, id)
	}
	return errors.Join(errs...)
}

// IsReady reports whether the chunk at index is fully buffered.
func (m *Manager) IsReady(index int) bool {
	m.mu.Lock()
	id, ok := m.ids[index]
	m.mu.Unlock()
	return ok && m.pool.IsLoaded(id)
}

// Readiness returns the buffering state of the chunk at index.
func (m *Manager) Readiness(index int) readaloud.Readiness {
	m.mu.Lock()
	id, ok := m.ids[index]
	m.mu.Unlock()
	if !ok {
		return readaloud.NotRequested
	}
	return m.pool.Readiness(id)
}

// ID returns the pool handle id tracked for index, if any.
func (m *Manager) ID(index int) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.ids[index]
	return id, ok
}

// PreloadLeadTime returns how long until playback of the current chunk
// reaches the point where the next chunk's preload must be underway.
// Returns 0 when that point has already passed.
func PreloadLeadTime(progressRatio float64, chunkDuration time.Duration) time.Duration {
	if progressRatio >= leadThreshold {
		return 0
	}
	if progressRatio < 0 {
		progressRatio = 0
	}
	return time.Duration((leadThreshold - progressRatio) * float64(chunkDuration))
}

func (m *Manager) track(index int, id string) {
	m.mu.Lock()
	m.ids[index] = id
	m.mu.Unlock()
}

func (m *Manager) evictBehind(currentIndex int) {
	m.mu.Lock()
	var stale []string
	for index, id := range m.ids {
		if index < currentIndex-evictBehind {
			stale = append(stale, id)
			delete(m.ids, index)
		}
	}
	m.mu.Unlock()

	for _, id := range stale {
		m.pool.Evict(id)
	}
}

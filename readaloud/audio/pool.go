package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/francktshibala/bookbridge-sync/readaloud"
)

// Fetcher resolves an audio source (URL or path) to a decodable stream.
type Fetcher func(ctx context.Context, source string) (io.ReadCloser, error)

// PoolConfig configures a BufferPool.
type PoolConfig struct {
	// MaxSize bounds the pool; inserting beyond it evicts the oldest
	// handle in insertion order.
	MaxSize int
	// Crossfade is the transition overlap duration.
	Crossfade time.Duration
	// Curve shapes the crossfade gain ramp.
	Curve Curve
	// TickInterval is the polling cadence for transition readiness,
	// roughly one animation frame.
	TickInterval time.Duration
}

// DefaultPoolConfig returns the standard pool tuning.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxSize:      3,
		Crossfade:    300 * time.Millisecond,
		Curve:        CurveExponential,
		TickInterval: 16 * time.Millisecond,
	}
}

// pooledHandle pairs an output handle with its load state. A handle that
// is present but not loaded has a preload in flight.
type pooledHandle struct {
	id     string
	source string
	out    OutputHandle
	loaded bool
}

// PoolStats is a snapshot of pool occupancy for status reporting.
type PoolStats struct {
	Size      int
	MaxSize   int
	Loaded    int
	CurrentID string
}

// BufferPool owns a bounded set of decodable audio handles, preloads
// upcoming chunks, and crossfades between the currently playing chunk and
// the next. It is the sole owner of every handle it creates.
type BufferPool struct {
	out   OutputContext
	fetch Fetcher
	sched Scheduler
	cache *Cache // optional; nil disables caching
	cfg   PoolConfig

	mu        sync.Mutex
	handles   map[string]*pooledHandle
	order     []string
	currentID string
	rate      float64
	destroyed bool
	stopWatch func()
	onEnded   func(id string)

	closeOnce sync.Once
}

// NewBufferPool creates a pool over the given output context. fetch
// resolves chunk sources; cache may be nil.
func NewBufferPool(out OutputContext, fetch Fetcher, sched Scheduler, cfg PoolConfig, cache *Cache) *BufferPool {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultPoolConfig().MaxSize
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultPoolConfig().TickInterval
	}
	return &BufferPool{
		out:     out,
		fetch:   fetch,
		sched:   sched,
		cache:   cache,
		cfg:     cfg,
		handles: make(map[string]*pooledHandle),
		rate:    1.0,
	}
}

// OnEnded registers the chunk-ended callback, invoked with the handle id
// when a chunk finishes with no transition target.
func (p *BufferPool) OnEnded(fn func(id string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onEnded = fn
}

// Preload fetches and buffers the audio for id, suspending until enough
// data is buffered to guarantee uninterrupted playthrough or until the
// fetch fails. Failures are isolated per id: the failed handle is removed
// and other pool entries are unaffected. An empty id gets a generated one;
// the effective id is returned.
func (p *BufferPool) Preload(ctx context.Context, id, source string) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}

	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return id, readaloud.ErrPoolDestroyed
	}
	if h, ok := p.handles[id]; ok && h.loaded {
		p.mu.Unlock()
		return id, nil
	}
	if _, ok := p.handles[id]; !ok {
		p.handles[id] = &pooledHandle{id: id, source: source}
		p.order = append(p.order, id)
		p.evictOverflowLocked()
	}
	p.mu.Unlock()

	data, err := p.fetchBytes(ctx, source)
	if err == nil && len(data) == 0 {
		err = fmt.Errorf("empty audio stream from %s", source)
	}

	var out OutputHandle
	if err == nil {
		out, err = p.out.NewHandle(bytes.NewReader(data))
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	h, ok := p.handles[id]
	if !ok {
		// Evicted while loading; release whatever we created.
		if out != nil {
			_ = out.Close()
		}
		return id, fmt.Errorf("%w: %s evicted during preload", readaloud.ErrPreloadFailed, id)
	}
	if err != nil {
		p.removeLocked(id)
		return id, fmt.Errorf("%w: %s: %v", readaloud.ErrPreloadFailed, id, err)
	}

	out.SetRate(p.rate)
	h.out = out
	h.loaded = true
	log.Debug("preloaded audio chunk", "id", id, "duration", out.Duration())
	return id, nil
}

// IsLoaded reports whether id is pooled and fully buffered.
func (p *BufferPool) IsLoaded(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	h, ok := p.handles[id]
	return ok && h.loaded
}

// Readiness returns the buffering state for id.
func (p *BufferPool) Readiness(id string) readaloud.Readiness {
	p.mu.Lock()
	defer p.mu.Unlock()
	h, ok := p.handles[id]
	switch {
	case !ok:
		return readaloud.NotRequested
	case !h.loaded:
		return readaloud.Buffering
	default:
		return readaloud.ReadyToPlayThrough
	}
}

// PlayWithTransition starts playing currentID at startOffset and, when
// nextID is non-empty, watches for the crossfade point and ramps into the
// next handle. The pool never plays a handle that has not reached the
// loaded state.
func (p *BufferPool) PlayWithTransition(ctx context.Context, currentID, nextID string, startOffset time.Duration) error {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return readaloud.ErrPoolDestroyed
	}
	h, ok := p.handles[currentID]
	if !ok {
		p.mu.Unlock()
		return fmt.Errorf("%w: %s", readaloud.ErrHandleNotFound, currentID)
	}
	if !h.loaded {
		p.mu.Unlock()
		return fmt.Errorf("%w: %s", readaloud.ErrHandleNotLoaded, currentID)
	}

	p.stopWatchLocked()

	if err := h.out.Seek(startOffset); err != nil {
		p.mu.Unlock()
		return fmt.Errorf("failed to position chunk %s: %v", currentID, err)
	}
	h.out.SetRate(p.rate)
	h.out.SetVolume(1)
	h.out.Play()
	p.currentID = currentID
	p.mu.Unlock()

	p.watch(&transition{currentID: currentID, nextID: nextID})
	return nil
}

// Stop pauses every pooled handle, current or not, so no orphaned audio
// keeps playing.
func (p *BufferPool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopWatchLocked()
	for _, h := range p.handles {
		if h.loaded {
			h.out.Pause()
		}
	}
	p.currentID = ""
}

// SetPlaybackRate adjusts the playback rate for all pooled handles.
func (p *BufferPool) SetPlaybackRate(rate float64) {
	if rate <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rate = rate
	for _, h := range p.handles {
		if h.loaded {
			h.out.SetRate(rate)
		}
	}
}

// Evict removes id from the pool, releasing its decode resources.
// Evicting the currently playing handle is refused.
func (p *BufferPool) Evict(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id == p.currentID {
		return
	}
	p.removeLocked(id)
}

// CurrentID returns the id of the handle currently playing, if any.
func (p *BufferPool) CurrentID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentID
}

// Position returns the playback position of the current handle.
func (p *BufferPool) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if h, ok := p.handles[p.currentID]; ok && h.loaded {
		return h.out.Position()
	}
	return 0
}

// Stats returns a snapshot of pool occupancy.
func (p *BufferPool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	loaded := 0
	for _, h := range p.handles {
		if h.loaded {
			loaded++
		}
	}
	return PoolStats{
		Size:      len(p.handles),
		MaxSize:   p.cfg.MaxSize,
		Loaded:    loaded,
		CurrentID: p.currentID,
	}
}

// Destroy stops playback, releases every handle, and closes the shared
// output context exactly once.
func (p *BufferPool) Destroy() error {
	p.mu.Lock()
	p.stopWatchLocked()
	for _, h := range p.handles {
		if h.out != nil {
			_ = h.out.Close()
		}
	}
	p.handles = make(map[string]*pooledHandle)
	p.order = nil
	p.currentID = ""
	p.destroyed = true
	p.mu.Unlock()

	var err error
	p.closeOnce.Do(func() {
		err = p.out.Close()
	})
	return err
}

// watch drives the transition state machine from scheduler ticks.
func (p *BufferPool) watch(tr *transition) {
	p.mu.Lock()
	p.stopWatch = p.sched.Schedule(p.cfg.TickInterval, func(now time.Time) bool {
		return p.tick(tr, now)
	})
	p.mu.Unlock()
}

// tick advances the transition state machine. Returns false to stop the
// watcher.
func (p *BufferPool) tick(tr *transition, now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.destroyed || p.currentID != tr.currentID {
		return false
	}
	cur, ok := p.handles[tr.currentID]
	if !ok || !cur.loaded {
		return false
	}

	remaining := remainingTime(cur.out, p.rate)

	if tr.ramping {
		return p.rampTickLocked(tr, cur, now)
	}

	// Crossfade window reached with a loaded next handle: begin the ramp.
	if tr.nextID != "" && remaining <= p.cfg.Crossfade {
		if next, ok := p.handles[tr.nextID]; ok && next.loaded {
			if !tr.abrupt && next.out.SetVolume(0) && cur.out.SetVolume(1) {
				next.out.SetRate(p.rate)
				next.out.Play()
				tr.ramping = true
				tr.rampStart = now
				return true
			}
			// No gain stage: degrade to pause-then-play at chunk end.
			if !tr.abrupt {
				tr.abrupt = true
				log.Debug("gain unavailable, degrading to abrupt chunk switch",
					"current", tr.currentID, "next", tr.nextID)
			}
		}
	}

	if remaining > 0 {
		return true
	}

	// Current handle actually ended without a ramp.
	cur.out.Pause()
	if tr.nextID != "" {
		if next, ok := p.handles[tr.nextID]; ok && next.loaded {
			next.out.SetVolume(1)
			next.out.SetRate(p.rate)
			next.out.Play()
			p.currentID = tr.nextID
			tr.currentID = tr.nextID
			tr.nextID = ""
			tr.abrupt = false
			return true
		}
		// Next never finished preloading; keep waiting for it rather than
		// double-playing or dropping the transition.
		return true
	}

	p.currentID = ""
	if p.onEnded != nil {
		id := tr.currentID
		fn := p.onEnded
		go fn(id)
	}
	return false
}

// rampTickLocked advances an active gain ramp.
func (p *BufferPool) rampTickLocked(tr *transition, cur *pooledHandle, now time.Time) bool {
	next, ok := p.handles[tr.nextID]
	if !ok || !next.loaded {
		// Next vanished mid-ramp (eviction or failure): restore and carry
		// on with the current handle alone.
		cur.out.SetVolume(1)
		tr.ramping = false
		tr.nextID = ""
		return true
	}

	progress := float64(now.Sub(tr.rampStart)) / float64(p.cfg.Crossfade)
	if progress < 1 {
		next.out.SetVolume(p.cfg.Curve.Gain(progress))
		cur.out.SetVolume(p.cfg.Curve.Gain(1 - progress))
		return true
	}

	// Ramp complete: exactly one handle keeps playing.
	cur.out.Pause()
	cur.out.SetVolume(1)
	next.out.SetVolume(1)
	p.currentID = tr.nextID
	tr.currentID = tr.nextID
	tr.nextID = ""
	tr.ramping = false
	return true
}

// fetchBytes resolves source to raw audio bytes, consulting the disk
// cache first when one is configured.
func (p *BufferPool) fetchBytes(ctx context.Context, source string) ([]byte, error) {
	if p.cache != nil {
		if data, err := p.cache.Get(source); err == nil {
			log.Debug("audio cache hit", "source", source, "bytes", len(data))
			return data, nil
		}
	}

	rc, err := p.fetch(ctx, source)
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		if err := p.cache.Put(source, data); err != nil {
			log.Debug("audio cache write failed", "source", source, "error", err)
		}
	}
	return data, nil
}

// evictOverflowLocked enforces the FIFO pool bound. The currently playing
// handle is skipped; the next oldest goes instead.
func (p *BufferPool) evictOverflowLocked() {
	for len(p.handles) > p.cfg.MaxSize {
		evicted := false
		for _, id := range p.order {
			if id == p.currentID {
				continue
			}
			p.removeLocked(id)
			evicted = true
			break
		}
		if !evicted {
			return
		}
	}
}

func (p *BufferPool) removeLocked(id string) {
	h, ok := p.handles[id]
	if !ok {
		return
	}
	if h.out != nil {
		h.out.Pause()
		_ = h.out.Close()
	}
	delete(p.handles, id)
	for i, oid := range p.order {
		if oid == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	log.Debug("evicted audio chunk", "id", id)
}

func (p *BufferPool) stopWatchLocked() {
	if p.stopWatch != nil {
		p.stopWatch()
		p.stopWatch = nil
	}
}

func remainingTime(h OutputHandle, rate float64) time.Duration {
	rem := h.Duration() - h.Position()
	if rate > 0 && rate != 1.0 {
		rem = time.Duration(float64(rem) / rate)
	}
	if rem < 0 {
		return 0
	}
	return rem
}

// Package calibrate learns a systematic latency offset between expected
// and observed highlight timing from live playback feedback. Word-level
// and sentence-level timing are tracked as independent sample pools with
// independent base offsets, since sentence auto-scroll tolerates a
// different latency profile than word highlighting.
package calibrate

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/francktshibala/bookbridge-sync/readaloud"
)

const (
	// DefaultBaseOffset is the uncalibrated highlight latency correction.
	DefaultBaseOffset = 0.30

	// MinOffset and MaxOffset bound every calibrated offset.
	MinOffset = 0.05
	MaxOffset = 0.50

	// maxSamples bounds the in-memory ring; older samples evict FIFO.
	maxSamples = 20
	// minSamples is the threshold below which calibration refuses to fit
	// noise and returns the base offset untouched.
	minSamples = 5
	// persistEvery is the persistence cadence once minSamples is reached.
	persistEvery = 5
	// persistedSamples is how many recent samples the durable record keeps.
	persistedSamples = 10

	// staleAfter is the age past which a persisted record is discarded.
	staleAfter = 7 * 24 * time.Hour
)

// Sample is one (expected, actual) highlight timing observation, seconds.
type Sample struct {
	Expected float64 `json:"expected"`
	Actual   float64 `json:"actual"`
}

// pool is the calibration state for one kind tag.
type pool struct {
	base           float64
	samples        []Sample
	recorded       int // total samples ever recorded; drives cadence
	contentOffsets map[string]float64
}

func newPool(base float64) *pool {
	return &pool{base: base, contentOffsets: make(map[string]float64)}
}

func (p *pool) record(s Sample) {
	p.samples = append(p.samples, s)
	if len(p.samples) > maxSamples {
		p.samples = p.samples[len(p.samples)-maxSamples:]
	}
	p.recorded++
}

func (p *pool) deltas() []float64 {
	out := make([]float64, len(p.samples))
	for i, s := range p.samples {
		out[i] = s.Actual - s.Expected
	}
	return out
}

// Calibrator is an online learner for highlight latency offsets. It is the
// sole owner of persisted calibration state.
type Calibrator struct {
	mu    sync.Mutex
	pools map[readaloud.Kind]*pool
	store Store
	now   func() time.Time

	// snapshot sequencing keeps asynchronous cadence writes from clobbering
	// a newer state written by AdjustOffset or Flush.
	seq       uint64
	persistMu sync.Mutex
	persisted uint64
}

// Option configures a Calibrator.
type Option func(*Calibrator)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Calibrator) { c.now = now }
}

// WithBaseOffsets overrides the default base offsets per kind.
func WithBaseOffsets(word, sentence float64) Option {
	return func(c *Calibrator) {
		c.pools[readaloud.KindWord].base = word
		c.pools[readaloud.KindSentence].base = sentence
	}
}

// New creates a Calibrator backed by store. A nil store disables
// persistence. Any usable persisted state is loaded; corrupt or stale
// records fall back silently to defaults.
func New(store Store, opts ...Option) *Calibrator {
	c := &Calibrator{
		pools: map[readaloud.Kind]*pool{
			readaloud.KindWord:     newPool(DefaultBaseOffset),
			readaloud.KindSentence: newPool(DefaultBaseOffset),
		},
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.load()
	return c
}

// RecordSample appends one (expected, actual) observation for kind.
// Recording is append-only and order-independent with respect to playback;
// persistence happens on a cadence and never blocks the caller.
func (c *Calibrator) RecordSample(kind readaloud.Kind, expected, actual float64) {
	c.mu.Lock()
	p, ok := c.pools[kind]
	if !ok {
		c.mu.Unlock()
		log.Warn("ignoring sample for unknown calibration kind", "kind", kind)
		return
	}
	p.record(Sample{Expected: expected, Actual: actual})
	shouldPersist := p.recorded >= minSamples && p.recorded%persistEvery == 0
	snap, seq := c.snapshotLocked()
	c.mu.Unlock()

	if shouldPersist {
		go c.persist(snap, seq)
	}
}

// Offset returns the latency offset to apply for kind. A per-content
// override wins verbatim. With fewer than five samples the base offset is
// returned unmodified: insufficient data is a valid steady state, not an
// error. Otherwise the offset is the base plus the trimmed mean of sample
// deltas, clamped to [MinOffset, MaxOffset].
func (c *Calibrator) Offset(kind readaloud.Kind, contentID string) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.pools[kind]
	if !ok {
		return DefaultBaseOffset
	}
	if contentID != "" {
		if o, ok := p.contentOffsets[contentID]; ok {
			return o
		}
	}
	if len(p.samples) < minSamples {
		return p.base
	}
	return clamp(p.base+trimmedMean(p.deltas()), MinOffset, MaxOffset)
}

// Confidence reports how much the recorded samples agree, in [0,1].
// Fewer than five samples yields 0.
func (c *Calibrator) Confidence(kind readaloud.Kind) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.pools[kind]
	if !ok || len(p.samples) < minSamples {
		return 0
	}
	return clamp(1-stdDev(p.deltas())*5, 0, 1)
}

// AdjustOffset applies a manual correction to kind's base offset. A user
// correction invalidates prior statistical history, so the sample pool for
// that kind is reset and the new state persists immediately.
func (c *Calibrator) AdjustOffset(kind readaloud.Kind, delta float64) {
	c.mu.Lock()
	p, ok := c.pools[kind]
	if !ok {
		c.mu.Unlock()
		return
	}
	p.base = clamp(p.base+delta, MinOffset, MaxOffset)
	p.samples = nil
	p.recorded = 0
	snap, seq := c.snapshotLocked()
	c.mu.Unlock()

	c.persist(snap, seq)
}

// SetContentOffset pins an explicit offset for one piece of content.
// Content overrides persist immediately.
func (c *Calibrator) SetContentOffset(kind readaloud.Kind, contentID string, offset float64) {
	c.mu.Lock()
	p, ok := c.pools[kind]
	if !ok || contentID == "" {
		c.mu.Unlock()
		return
	}
	p.contentOffsets[contentID] = offset
	snap, seq := c.snapshotLocked()
	c.mu.Unlock()

	c.persist(snap, seq)
}

// ClearContentOffset removes a per-content override.
func (c *Calibrator) ClearContentOffset(kind readaloud.Kind, contentID string) {
	c.mu.Lock()
	if p, ok := c.pools[kind]; ok {
		delete(p.contentOffsets, contentID)
	}
	snap, seq := c.snapshotLocked()
	c.mu.Unlock()

	c.persist(snap, seq)
}

// ContentIDs returns every content id with an override, for either kind.
func (c *Calibrator) ContentIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[string]bool)
	var out []string
	for _, p := range c.pools {
		for id := range p.contentOffsets {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	sort.Strings(out)
	return out
}

// SampleCount returns how many samples are currently pooled for kind.
func (c *Calibrator) SampleCount(kind readaloud.Kind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.pools[kind]; ok {
		return len(p.samples)
	}
	return 0
}

// Reset discards all learned state, restores defaults, and removes the
// persisted record.
func (c *Calibrator) Reset() {
	c.mu.Lock()
	c.pools = map[readaloud.Kind]*pool{
		readaloud.KindWord:     newPool(DefaultBaseOffset),
		readaloud.KindSentence: newPool(DefaultBaseOffset),
	}
	c.mu.Unlock()

	if c.store == nil {
		return
	}
	if err := c.store.Delete(recordKey); err != nil {
		log.Debug("failed to delete calibration record", "error", err)
	}
}

// Flush persists the current state synchronously. Best-effort, used at
// shutdown.
func (c *Calibrator) Flush() {
	c.mu.Lock()
	snap, seq := c.snapshotLocked()
	c.mu.Unlock()
	c.persist(snap, seq)
}

func trimmedMean(deltas []float64) float64 {
	sorted := make([]float64, len(deltas))
	copy(sorted, deltas)
	sort.Float64s(sorted)

	trim := len(sorted) / 10
	sorted = sorted[trim : len(sorted)-trim]

	sum := 0.0
	for _, d := range sorted {
		sum += d
	}
	return sum / float64(len(sorted))
}

func stdDev(deltas []float64) float64 {
	mean := 0.0
	for _, d := range deltas {
		mean += d
	}
	mean /= float64(len(deltas))

	variance := 0.0
	for _, d := range deltas {
		variance += (d - mean) * (d - mean)
	}
	variance /= float64(len(deltas))
	return math.Sqrt(variance)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

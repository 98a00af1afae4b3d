package audio

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// MockContext implements OutputContext for tests without real audio
// hardware. Playback position advances against an injected clock, so a
// ManualScheduler can drive fully deterministic transitions.
type MockContext struct {
	mu         sync.Mutex
	ready      bool
	sampleRate int
	channels   int
	clock      func() time.Time
	handles    []*MockHandle

	// Test helpers
	HandlesCreated int
	HandlesClosed  int

	// DenyGain simulates an output path without a gain stage, forcing the
	// abrupt-switch transition fallback.
	DenyGain bool
}

// MockOption configures a MockContext.
type MockOption func(*MockContext)

// WithMockClock drives playback position from now instead of wall time.
func WithMockClock(now func() time.Time) MockOption {
	return func(c *MockContext) { c.clock = now }
}

// WithMockFormat overrides the PCM format used for duration accounting.
func WithMockFormat(sampleRate, channels int) MockOption {
	return func(c *MockContext) {
		c.sampleRate = sampleRate
		c.channels = channels
	}
}

// NewMockContext creates a ready mock output context.
func NewMockContext(opts ...MockOption) *MockContext {
	c := &MockContext{
		ready:      true,
		sampleRate: 22050,
		channels:   1,
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewHandle buffers r entirely and returns a virtual-clock handle.
func (c *MockContext) NewHandle(r io.Reader) (OutputHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ready {
		return nil, fmt.Errorf("mock output context not ready")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	h := &MockHandle{
		ctx:      c,
		duration: pcmDuration(len(data), c.sampleRate, c.channels),
		volume:   1.0,
		rate:     1.0,
		clock:    c.clock,
	}
	c.handles = append(c.handles, h)
	c.HandlesCreated++
	log.Debug("created mock audio handle", "bytes", len(data), "duration", h.duration)
	return h, nil
}

// Close closes the context and every handle it created.
func (c *MockContext) Close() error {
	c.mu.Lock()
	if !c.ready {
		c.mu.Unlock()
		return fmt.Errorf("mock output context already closed")
	}
	handles := c.handles
	c.ready = false
	c.handles = nil
	c.mu.Unlock()

	for _, h := range handles {
		_ = h.Close()
	}
	return nil
}

// IsReady returns whether handles can be created.
func (c *MockContext) IsReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// SampleRate returns the mock sample rate.
func (c *MockContext) SampleRate() int { return c.sampleRate }

// ChannelCount returns the mock channel count.
func (c *MockContext) ChannelCount() int { return c.channels }

// MockHandle is a virtual-clock OutputHandle.
type MockHandle struct {
	ctx   *MockContext
	clock func() time.Time

	mu        sync.Mutex
	playing   bool
	closed    bool
	volume    float64
	rate      float64
	duration  time.Duration
	elapsed   time.Duration // accumulated playback before the current run
	startedAt time.Time
}

// Play starts or resumes playback.
func (h *MockHandle) Play() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || h.playing {
		return
	}
	h.playing = true
	h.startedAt = h.clock()
}

// Pause pauses playback, keeping position.
func (h *MockHandle) Pause() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.playing {
		return
	}
	h.elapsed = h.positionLocked()
	h.playing = false
}

// IsPlaying reports whether the handle is playing and not yet exhausted.
func (h *MockHandle) IsPlaying() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.playing && h.positionLocked() < h.duration
}

// SetVolume sets the gain; fails when the context denies a gain stage.
func (h *MockHandle) SetVolume(v float64) bool {
	if h.ctx != nil && h.ctx.DenyGain {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	h.volume = v
	return true
}

// Volume returns the current gain.
func (h *MockHandle) Volume() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.volume
}

// Seek moves the playback position.
func (h *MockHandle) Seek(offset time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if offset < 0 {
		offset = 0
	}
	if offset > h.duration {
		offset = h.duration
	}
	h.elapsed = offset
	h.startedAt = h.clock()
	return nil
}

// Position returns the current playback position.
func (h *MockHandle) Position() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.positionLocked()
}

// Duration returns the decoded duration.
func (h *MockHandle) Duration() time.Duration {
	return h.duration
}

// SetRate adjusts the position-accounting playback rate.
func (h *MockHandle) SetRate(rate float64) {
	if rate <= 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.elapsed = h.positionLocked()
	h.startedAt = h.clock()
	h.rate = rate
}

// Close releases the handle.
func (h *MockHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	h.playing = false
	if h.ctx != nil {
		h.ctx.mu.Lock()
		h.ctx.HandlesClosed++
		h.ctx.mu.Unlock()
	}
	return nil
}

func (h *MockHandle) positionLocked() time.Duration {
	pos := h.elapsed
	if h.playing {
		pos += time.Duration(float64(h.clock().Sub(h.startedAt)) * h.rate)
	}
	if pos > h.duration {
		pos = h.duration
	}
	return pos
}

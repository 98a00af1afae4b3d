//go:build !nocgo
// +build !nocgo

package audio

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// Default output format for narration audio.
const (
	otoSampleRate = 22050
	otoChannels   = 1
)

// otoInitTimeout bounds how long we wait for the platform audio device.
const otoInitTimeout = 5 * time.Second

// OtoContext implements OutputContext on real audio hardware via oto.
type OtoContext struct {
	mu      sync.Mutex
	context *oto.Context
	ready   bool
	handles []*otoHandle
}

// NewOtoContext initializes the platform audio device.
func NewOtoContext() (*OtoContext, error) {
	options := &oto.NewContextOptions{
		SampleRate:   otoSampleRate,
		ChannelCount: otoChannels,
		Format:       oto.FormatSignedInt16LE,
	}

	context, readyChan, err := oto.NewContext(options)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio context: %w", err)
	}

	// Device initialization may require a user gesture or driver warmup on
	// some platforms; waiting here is expected, not an error.
	select {
	case <-readyChan:
	case <-time.After(otoInitTimeout):
		return nil, fmt.Errorf("audio context not ready after %s", otoInitTimeout)
	}

	log.Debug("audio output context initialized",
		"sample_rate", otoSampleRate, "channels", otoChannels)
	return &OtoContext{context: context, ready: true}, nil
}

// NewHandle buffers r entirely and returns a hardware-backed handle.
func (c *OtoContext) NewHandle(r io.Reader) (OutputHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ready {
		return nil, fmt.Errorf("audio output context is closed")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	player := c.context.NewPlayer(bytes.NewReader(data))
	h := &otoHandle{
		player:   player,
		duration: pcmDuration(len(data), otoSampleRate, otoChannels),
		volume:   1.0,
		rate:     1.0,
	}
	c.handles = append(c.handles, h)
	return h, nil
}

// Close closes every handle and then the device context, exactly once.
func (c *OtoContext) Close() error {
	c.mu.Lock()
	if !c.ready {
		c.mu.Unlock()
		return fmt.Errorf("audio output context already closed")
	}
	handles := c.handles
	c.ready = false
	c.handles = nil
	c.mu.Unlock()

	for _, h := range handles {
		_ = h.Close()
	}
	// oto contexts have no Close; suspending parks the device.
	return c.context.Suspend()
}

// IsReady returns whether handles can be created.
func (c *OtoContext) IsReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// SampleRate returns the output sample rate.
func (c *OtoContext) SampleRate() int { return otoSampleRate }

// ChannelCount returns the output channel count.
func (c *OtoContext) ChannelCount() int { return otoChannels }

// otoHandle adapts an oto player to OutputHandle. Position is tracked by
// wall clock; oto reports buffer state, not playback position.
type otoHandle struct {
	player *oto.Player

	mu        sync.Mutex
	playing   bool
	closed    bool
	volume    float64
	rate      float64
	duration  time.Duration
	elapsed   time.Duration
	startedAt time.Time
}

func (h *otoHandle) Play() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || h.playing {
		return
	}
	h.player.Play()
	h.playing = true
	h.startedAt = time.Now()
}

func (h *otoHandle) Pause() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.playing {
		return
	}
	h.player.Pause()
	h.elapsed = h.positionLocked()
	h.playing = false
}

func (h *otoHandle) IsPlaying() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.playing && h.positionLocked() < h.duration
}

func (h *otoHandle) SetVolume(v float64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	h.player.SetVolume(v)
	h.volume = v
	return true
}

func (h *otoHandle) Volume() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.volume
}

func (h *otoHandle) Seek(offset time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if offset < 0 {
		offset = 0
	}
	if offset > h.duration {
		offset = h.duration
	}
	byteOffset := int64(offset.Seconds() * float64(bytesPerSecond(otoSampleRate, otoChannels)))
	// Align to a full 16-bit frame.
	byteOffset -= byteOffset % int64(otoChannels*2)
	if _, err := h.player.Seek(byteOffset, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek audio: %w", err)
	}
	h.elapsed = offset
	h.startedAt = time.Now()
	return nil
}

func (h *otoHandle) Position() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.positionLocked()
}

func (h *otoHandle) Duration() time.Duration { return h.duration }

// SetRate only affects position accounting; oto plays at device rate.
func (h *otoHandle) SetRate(rate float64) {
	if rate <= 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.elapsed = h.positionLocked()
	h.startedAt = time.Now()
	h.rate = rate
}

func (h *otoHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	h.playing = false
	if err := h.player.Close(); err != nil {
		return fmt.Errorf("failed to close audio player: %w", err)
	}
	return nil
}

func (h *otoHandle) positionLocked() time.Duration {
	pos := h.elapsed
	if h.playing {
		pos += time.Duration(float64(time.Since(h.startedAt)) * h.rate)
	}
	if pos > h.duration {
		pos = h.duration
	}
	return pos
}

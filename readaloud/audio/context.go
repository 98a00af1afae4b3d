// Package audio owns decodable audio handles: a bounded preload pool,
// crossfade transitions between narration chunks, and the output port
// abstraction that keeps the core testable without real audio hardware.
package audio

import (
	"io"
	"time"
)

// OutputContext is the audio output port. It creates playable handles
// from decodable PCM streams. Implementations exist for real hardware
// (oto) and for tests (mock with a virtual clock).
type OutputContext interface {
	// NewHandle fully buffers r and returns a playable handle.
	NewHandle(r io.Reader) (OutputHandle, error)

	// Close releases the context and every handle created from it.
	// Closing twice is an error.
	Close() error

	// IsReady returns whether the context can create handles.
	IsReady() bool

	// SampleRate returns the output sample rate in Hz.
	SampleRate() int

	// ChannelCount returns the number of output channels.
	ChannelCount() int
}

// OutputHandle is one decodable, playable audio stream. Handles are owned
// exclusively by the BufferPool.
type OutputHandle interface {
	// Play starts or resumes playback.
	Play()

	// Pause pauses playback, keeping position.
	Pause()

	// IsPlaying returns whether the handle is currently playing.
	IsPlaying() bool

	// SetVolume sets the gain in [0,1]. Implementations without a gain
	// stage return false, which makes transitions fall back to an abrupt
	// switch.
	SetVolume(v float64) bool

	// Volume returns the current gain.
	Volume() float64

	// Seek moves the playback position.
	Seek(offset time.Duration) error

	// Position returns the current playback position.
	Position() time.Duration

	// Duration returns the total decoded duration.
	Duration() time.Duration

	// SetRate adjusts the playback rate used for position accounting.
	SetRate(rate float64)

	// Close releases the handle's decode resources.
	Close() error
}

// bytesPerSecond returns the PCM byte rate for 16-bit samples.
func bytesPerSecond(sampleRate, channels int) int {
	return sampleRate * channels * 2
}

// pcmDuration converts a 16-bit PCM byte count to a duration.
func pcmDuration(bytes, sampleRate, channels int) time.Duration {
	bps := bytesPerSecond(sampleRate, channels)
	if bps <= 0 {
		return 0
	}
	return time.Duration(float64(bytes) / float64(bps) * float64(time.Second))
}

// Package player drives read-along playback: it owns the active timing
// table for the playing chunk, answers "which word is being spoken now"
// with latency compensation applied, and feeds observed highlight timing
// back into the calibrator.
package player

import (
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/francktshibala/bookbridge-sync/readaloud"
)

// Calibrator is the slice of the latency calibrator the driver uses.
type Calibrator interface {
	Offset(kind readaloud.Kind, contentID string) float64
	RecordSample(kind readaloud.Kind, expected, actual float64)
}

// Output is the slice of the audio layer the driver controls.
type Output interface {
	SetPlaybackRate(rate float64)
}

// Driver maps audio playback time onto the current chunk's word timing
// table. One driver serves one listening session; the table swaps on
// every chunk transition.
type Driver struct {
	calibrator Calibrator
	output     Output
	speed      *SpeedController

	mu         sync.RWMutex
	tokens     []readaloud.WordToken
	contentID  string
	chunkIndex int
	onChunkEnd func(finishedIndex int)
}

// NewDriver creates a driver. calibrator and output may not be nil.
func NewDriver(calibrator Calibrator, output Output) *Driver {
	return &Driver{
		calibrator: calibrator,
		output:     output,
		speed:      NewSpeedController(),
	}
}

// SetTable installs the timing table for the chunk about to play.
func (d *Driver) SetTable(contentID string, chunkIndex int, tokens []readaloud.WordToken) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.contentID = contentID
	d.chunkIndex = chunkIndex
	d.tokens = tokens
	log.Debug("installed timing table", "content", contentID, "chunk", chunkIndex, "tokens", len(tokens))
}

// Table returns the active timing table.
func (d *Driver) Table() []readaloud.WordToken {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.tokens
}

// OnChunkEnd registers the callback fired when the playing chunk runs
// out, carrying the finished chunk's index.
func (d *Driver) OnChunkEnd(fn func(finishedIndex int)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onChunkEnd = fn
}

// ChunkEnded signals that the playing chunk finished. Wire this to the
// audio pool's ended callback.
func (d *Driver) ChunkEnded() {
	d.mu.RLock()
	fn := d.onChunkEnd
	index := d.chunkIndex
	d.mu.RUnlock()
	if fn != nil {
		fn(index)
	}
}

// CurrentWord returns the word being spoken at elapsed seconds of chunk
// playback, with the calibrated latency offset applied. The second return
// is false before the first word, after the last, or in a silence gap.
func (d *Driver) CurrentWord(elapsed float64) (readaloud.WordToken, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if len(d.tokens) == 0 {
		return readaloud.WordToken{}, false
	}

	// The reader perceives the highlight later than the audio, so the
	// lookup position leads playback by the calibrated offset.
	at := elapsed + d.calibrator.Offset(readaloud.KindWord, d.contentID)

	i := sort.Search(len(d.tokens), func(i int) bool {
		return d.tokens[i].End > at
	})
	if i >= len(d.tokens) {
		return readaloud.WordToken{}, false
	}
	tok := d.tokens[i]
	if at < tok.Start {
		return readaloud.WordToken{}, false
	}
	return tok, true
}

// NextWord returns the first word starting at or after elapsed seconds,
// without latency compensation. Used for lookahead display.
func (d *Driver) NextWord(elapsed float64) (readaloud.WordToken, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	i := sort.Search(len(d.tokens), func(i int) bool {
		return d.tokens[i].Start >= elapsed
	})
	if i >= len(d.tokens) {
		return readaloud.WordToken{}, false
	}
	return d.tokens[i], true
}

// ObserveHighlight reports one observed highlight event: when the word
// was expected to start versus when it was actually rendered. The delta
// feeds the calibrator.
func (d *Driver) ObserveHighlight(expected, actual float64) {
	d.calibrator.RecordSample(readaloud.KindWord, expected, actual)
}

// ObserveScroll reports one observed sentence-boundary auto-scroll event.
func (d *Driver) ObserveScroll(expected, actual float64) {
	d.calibrator.RecordSample(readaloud.KindSentence, expected, actual)
}

// SetSpeed snaps to the nearest discrete speed step and applies it to the
// audio output. Returns the effective speed.
func (d *Driver) SetSpeed(speed float64) (float64, error) {
	if err := d.speed.SetSpeed(speed); err != nil {
		return d.speed.Speed(), err
	}
	applied := d.speed.Speed()
	d.output.SetPlaybackRate(applied)
	return applied, nil
}

// Faster steps the speed up and applies it.
func (d *Driver) Faster() (float64, error) {
	s, err := d.speed.Faster()
	if err != nil {
		return s, err
	}
	d.output.SetPlaybackRate(s)
	return s, nil
}

// Slower steps the speed down and applies it.
func (d *Driver) Slower() (float64, error) {
	s, err := d.speed.Slower()
	if err != nil {
		return s, err
	}
	d.output.SetPlaybackRate(s)
	return s, nil
}

// Speed returns the current discrete speed.
func (d *Driver) Speed() float64 {
	return d.speed.Speed()
}

package calibrate

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/francktshibala/bookbridge-sync/readaloud"
)

// recordKey is the durable key for the one-per-installation record.
const recordKey = "calibration"

// record is the durable calibration state. Per-content maps serialize as
// ordered pairs to keep the on-disk format stable across Go map iteration.
type record struct {
	BaseOffset          float64      `json:"baseOffset"`
	SentenceBaseOffset  float64      `json:"sentenceBaseOffset"`
	Samples             []Sample     `json:"samples"`
	SentenceSamples     []Sample     `json:"sentenceSamples"`
	BookOffsets         [][2]any     `json:"bookOffsets"`
	BookSentenceOffsets [][2]any     `json:"bookSentenceOffsets"`
	Timestamp           int64        `json:"timestamp"` // epoch milliseconds
}

// snapshotLocked builds the durable record from current state and assigns
// it a sequence number. Callers hold c.mu.
func (c *Calibrator) snapshotLocked() (record, uint64) {
	c.seq++
	word := c.pools[readaloud.KindWord]
	sentence := c.pools[readaloud.KindSentence]

	return record{
		BaseOffset:          word.base,
		SentenceBaseOffset:  sentence.base,
		Samples:             tail(word.samples, persistedSamples),
		SentenceSamples:     tail(sentence.samples, persistedSamples),
		BookOffsets:         pairs(word.contentOffsets),
		BookSentenceOffsets: pairs(sentence.contentOffsets),
		Timestamp:           c.now().UnixMilli(),
	}, c.seq
}

// persist writes the record through the store. Snapshots older than the
// last written one are dropped. Failures are logged and swallowed:
// persistence never gates playback.
func (c *Calibrator) persist(r record, seq uint64) {
	if c.store == nil {
		return
	}
	c.persistMu.Lock()
	defer c.persistMu.Unlock()
	if seq <= c.persisted {
		return
	}

	data, err := json.Marshal(r)
	if err != nil {
		log.Debug("failed to encode calibration record", "error", err)
		return
	}
	if err := c.store.Set(recordKey, data); err != nil {
		log.Debug("failed to persist calibration record", "error", err)
		return
	}
	c.persisted = seq
}

// load restores state from the store. Missing, corrupt, or stale records
// leave the defaults in place without surfacing an error.
func (c *Calibrator) load() {
	if c.store == nil {
		return
	}
	data, err := c.store.Get(recordKey)
	if err != nil {
		if !errors.Is(err, readaloud.ErrCacheMiss) {
			log.Debug("failed to load calibration record", "error", err)
		}
		return
	}

	r, err := decodeRecord(data)
	if err != nil {
		log.Debug("discarding unusable calibration record", "error", err)
		return
	}

	age := c.now().Sub(time.UnixMilli(r.Timestamp))
	if age > staleAfter {
		log.Debug("discarding stale calibration record", "age", age)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	word := c.pools[readaloud.KindWord]
	sentence := c.pools[readaloud.KindSentence]
	word.base = clamp(r.BaseOffset, MinOffset, MaxOffset)
	sentence.base = clamp(r.SentenceBaseOffset, MinOffset, MaxOffset)
	word.samples = r.Samples
	word.recorded = len(r.Samples)
	sentence.samples = r.SentenceSamples
	sentence.recorded = len(r.SentenceSamples)
	word.contentOffsets = unpairs(r.BookOffsets)
	sentence.contentOffsets = unpairs(r.BookSentenceOffsets)

	log.Debug("calibration record loaded",
		"wordSamples", len(word.samples),
		"sentenceSamples", len(sentence.samples),
		"bookOffsets", len(word.contentOffsets))
}

func decodeRecord(data []byte) (record, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("%w: %v", readaloud.ErrCorruptRecord, err)
	}
	if r.Timestamp <= 0 {
		return r, readaloud.ErrCorruptRecord
	}
	return r, nil
}

func tail(samples []Sample, n int) []Sample {
	if len(samples) <= n {
		out := make([]Sample, len(samples))
		copy(out, samples)
		return out
	}
	out := make([]Sample, n)
	copy(out, samples[len(samples)-n:])
	return out
}

func pairs(m map[string]float64) [][2]any {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([][2]any, 0, len(m))
	for _, k := range keys {
		out = append(out, [2]any{k, m[k]})
	}
	return out
}

func unpairs(p [][2]any) map[string]float64 {
	out := make(map[string]float64, len(p))
	for _, pair := range p {
		id, ok := pair[0].(string)
		if !ok {
			continue
		}
		offset, ok := pair[1].(float64)
		if !ok {
			continue
		}
		out[id] = offset
	}
	return out
}

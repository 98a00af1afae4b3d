// Package align reconciles ground-truth word timestamps from a
// speech-recognition pass with the original source text, producing a
// corrected timing sequence whose word strings match the original even
// when the recognizer substituted, merged, or split words.
package align

import (
	"strings"

	"github.com/charmbracelet/log"

	"github.com/francktshibala/bookbridge-sync/readaloud"
)

// Confidence levels by how the timing for a word was obtained.
const (
	confExact     = 1.0 // exact normalized match
	confSubstring = 0.8 // substring containment either direction
	confSkip      = 0.5 // original consumed without a matching recognizer word
	confTrailing  = 0.3 // originals left after the recognizer ran dry
)

// trailingWordSec is the synthesized duration for a word with no ground
// truth left to borrow timing from.
const trailingWordSec = 0.5

// Match returns one timestamp per word of originalText, carrying the
// best-available timing from groundTruth. Output words always come from
// the original text, never from the recognizer's transcription. Output is
// never shorter or longer than the original word count, and Start values
// are non-decreasing. Pointer exhaustion on either side is handled by
// timestamp synthesis, never by an error.
func Match(groundTruth []readaloud.WordTimestamp, originalText string) []readaloud.WordTimestamp {
	original := strings.Fields(originalText)
	if len(original) == 0 {
		return nil
	}

	// Fast path: counts agree, map index for index.
	if len(groundTruth) == len(original) {
		out := make([]readaloud.WordTimestamp, len(original))
		for i, gt := range groundTruth {
			out[i] = readaloud.WordTimestamp{
				Word:       original[i],
				Start:      gt.Start,
				End:        gt.End,
				Confidence: confExact,
			}
		}
		return out
	}

	log.Debug("aligning with count mismatch",
		"groundTruth", len(groundTruth), "original", len(original))

	out := make([]readaloud.WordTimestamp, 0, len(original))
	prevEnd := 0.0
	gi := 0

	for oi := 0; oi < len(original); {
		// Recognizer exhausted: synthesize trailing timings.
		if gi >= len(groundTruth) {
			out = append(out, readaloud.WordTimestamp{
				Word:       original[oi],
				Start:      prevEnd,
				End:        prevEnd + trailingWordSec,
				Confidence: confTrailing,
			})
			prevEnd += trailingWordSec
			oi++
			continue
		}

		gw := normalizeWord(groundTruth[gi].Word)
		ow := normalizeWord(original[oi])

		switch {
		case gw == "" && ow != "":
			// Recognizer emitted pure noise; skip it.
			gi++

		case gw == ow && gw != "":
			out = append(out, readaloud.WordTimestamp{
				Word:       original[oi],
				Start:      groundTruth[gi].Start,
				End:        groundTruth[gi].End,
				Confidence: confExact,
			})
			prevEnd = groundTruth[gi].End
			gi++
			oi++

		case gw != "" && ow != "" && (strings.Contains(gw, ow) || strings.Contains(ow, gw)):
			out = append(out, readaloud.WordTimestamp{
				Word:       original[oi],
				Start:      groundTruth[gi].Start,
				End:        groundTruth[gi].End,
				Confidence: confSubstring,
			})
			prevEnd = groundTruth[gi].End
			gi++
			oi++

		case len(gw) < len(ow):
			// Assume the shorter token was over- or under-segmented and
			// advance its pointer without consuming the other side. This is
			// a greedy heuristic; it can misalign on runs of short filler
			// words, which callers see as reduced confidence.
			gi++

		default:
			// Original side is the shorter (or equally unmatched) one:
			// consume it with a synthesized timestamp bridging the gap to
			// the next available ground truth.
			end := prevEnd + trailingWordSec
			if gi < len(groundTruth) {
				end = groundTruth[gi].Start
			}
			if end < prevEnd {
				end = prevEnd
			}
			out = append(out, readaloud.WordTimestamp{
				Word:       original[oi],
				Start:      prevEnd,
				End:        end,
				Confidence: confSkip,
			})
			prevEnd = end
			oi++
		}
	}

	// Ordering invariant: Start values never regress.
	for i := 1; i < len(out); i++ {
		if out[i].Start < out[i-1].Start {
			out[i].Start = out[i-1].Start
		}
		if out[i].End < out[i].Start {
			out[i].End = out[i].Start
		}
	}

	return out
}

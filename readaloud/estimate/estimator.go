// Package estimate assigns per-word start/end offsets to narration text
// when no ground-truth timing exists, using a speech-rate heuristic scaled
// to a known total narration duration.
package estimate

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/charmbracelet/log"

	"github.com/francktshibala/bookbridge-sync/readaloud"
)

const (
	// interWordGapSec is the silent gap inserted between consecutive words,
	// pre-scale. No gap is inserted directly before punctuation.
	interWordGapSec = 0.050
	// otherPunctPauseSec is the pause for punctuation outside the sentence-end
	// and light-pause classes.
	otherPunctPauseSec = 0.100
)

type spanClass int

const (
	spanWord spanClass = iota
	spanPunct
	spanSilence // paragraph pauses and inter-word gaps; advances time, emits nothing
)

type span struct {
	class    spanClass
	text     string
	unscaled float64 // seconds before time scaling
}

// Estimate produces a monotonic per-word timing table for text narrated
// over totalDuration seconds. The final token's End equals totalDuration
// exactly. Empty or unspeakable text yields an empty table, never an error.
func Estimate(text string, totalDuration float64, s Settings) []readaloud.WordToken {
	if strings.TrimSpace(text) == "" || totalDuration <= 0 {
		return nil
	}

	spans := tokenize(normalizeMarkdown(text), s)

	// Trailing silence would leave the last token short of totalDuration.
	for len(spans) > 0 && spans[len(spans)-1].class == spanSilence {
		spans = spans[:len(spans)-1]
	}

	var totalUnscaled float64
	tokens := 0
	for _, sp := range spans {
		totalUnscaled += sp.unscaled
		if sp.class != spanSilence {
			tokens++
		}
	}
	if tokens == 0 || totalUnscaled <= 0 {
		return nil
	}

	scale := totalDuration / totalUnscaled
	log.Debug("estimated timing scale",
		"tokens", tokens, "unscaled", totalUnscaled, "duration", totalDuration, "scale", scale)

	out := make([]readaloud.WordToken, 0, tokens)
	running := 0.0
	for _, sp := range spans {
		d := sp.unscaled * scale
		if sp.class == spanSilence {
			running += d
			continue
		}
		out = append(out, readaloud.WordToken{
			ID:            fmt.Sprintf("w%d", len(out)),
			Text:          sp.text,
			Start:         running,
			End:           running + d,
			IsPunctuation: sp.class == spanPunct,
			OriginalIndex: len(out),
		})
		running += d
	}

	// The scale factor guarantees this up to float rounding; pin it exactly.
	out[len(out)-1].End = totalDuration
	return out
}

// tokenize splits narration text into word, punctuation, and silence spans
// with unscaled durations attached.
func tokenize(text string, s Settings) []span {
	var spans []span

	paragraphs := splitParagraphs(text)
	for pi, para := range paragraphs {
		if pi > 0 {
			spans = append(spans, span{
				class:    spanSilence,
				unscaled: s.ParagraphBreakPauseMs / 1000,
			})
		}
		spans = appendParagraph(spans, para, s)
	}
	return spans
}

func appendParagraph(spans []span, para string, s Settings) []span {
	flushWord := func(word string) {
		if word == "" {
			return
		}
		// Inter-word gap, except at the very start and after silence.
		if n := len(spans); n > 0 && spans[n-1].class != spanSilence {
			spans = append(spans, span{class: spanSilence, unscaled: interWordGapSec})
		}
		spans = append(spans, span{
			class:    spanWord,
			text:     word,
			unscaled: wordDuration(word, s),
		})
	}

	var word strings.Builder
	inPunctRun := false
	for _, r := range para {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '’' || r == '-':
			word.WriteRune(r)
			inPunctRun = false
		case unicode.IsSpace(r):
			flushWord(word.String())
			word.Reset()
			inPunctRun = false
		default:
			flushWord(word.String())
			word.Reset()
			// Merge runs like "?!" into the pause of the leading symbol.
			if n := len(spans); inPunctRun && n > 0 && spans[n-1].class == spanPunct {
				spans[n-1].text += string(r)
				continue
			}
			spans = append(spans, span{
				class:    spanPunct,
				text:     string(r),
				unscaled: punctuationPause(r, s),
			})
			inPunctRun = true
		}
	}
	flushWord(word.String())
	return spans
}

// wordDuration returns the unscaled speaking time for one word: the base
// per-word time at the configured rate, adjusted for word length, with a
// syllable-count correction that eases the multiplier for words of more
// than three syllables (long polysyllabic words are spoken at a more even
// pace than their character count suggests).
func wordDuration(word string, s Settings) float64 {
	base := 60.0 / s.BaseWordsPerMinute

	mult := 1.0
	n := len([]rune(word))
	switch {
	case n <= 2:
		mult = s.ShortWordSpeedMultiplier
	case n >= 8:
		mult = s.LongWordSpeedMultiplier
	}

	if syll := countSyllables(word); syll > 3 {
		ease := 0.06 * float64(syll-3)
		if ease > 0.30 {
			ease = 0.30
		}
		mult *= 1 - ease
	}

	return base * mult
}

func punctuationPause(r rune, s Settings) float64 {
	switch r {
	case '.', '!', '?':
		return s.SentenceEndPauseMs / 1000
	case ',', ';', ':':
		return s.PunctuationPauseMs / 1000
	default:
		return otherPunctPauseSec
	}
}

// splitParagraphs splits on blank lines, dropping empty segments.
func splitParagraphs(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

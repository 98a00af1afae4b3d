package align

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// diacritic removal: decompose, drop combining marks, recompose. Keeps
// recognizer output like "café" comparable with plain-ASCII source text.
var stripMarks = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// normalizeWord lowercases a word and strips everything that is not a
// letter or digit, so recognizer transcriptions and source text compare on
// spoken content alone.
func normalizeWord(word string) string {
	lower := strings.ToLower(word)
	if stripped, _, err := transform.String(stripMarks, lower); err == nil {
		lower = stripped
	}

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

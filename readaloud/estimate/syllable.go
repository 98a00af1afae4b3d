package estimate

import "strings"

// countSyllables approximates the syllable count of an English word by
// counting vowel-cluster transitions, with a correction for a silent
// trailing 'e'. It always returns at least 1 for non-empty input.
func countSyllables(word string) int {
	w := strings.ToLower(word)
	if w == "" {
		return 0
	}

	count := 0
	prevVowel := false
	for _, r := range w {
		v := isVowel(r)
		if v && !prevVowel {
			count++
		}
		prevVowel = v
	}

	// A trailing 'e' is usually silent ("make", "phrase") unless it is the
	// only vowel cluster ("the", "me").
	if strings.HasSuffix(w, "e") && !strings.HasSuffix(w, "le") && count > 1 {
		count--
	}

	if count < 1 {
		count = 1
	}
	return count
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return true
	}
	return false
}

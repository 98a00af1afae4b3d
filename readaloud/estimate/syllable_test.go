package estimate

import "testing"

func TestCountSyllables(t *testing.T) {
	tests := []struct {
		word string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"the", 1},
		{"make", 1},
		{"hello", 2},
		{"reading", 2},
		{"beautiful", 3},
		{"syllable", 3},
		{"calibration", 4},
		{"rhythm", 1},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			if got := countSyllables(tt.word); got != tt.want {
				t.Errorf("countSyllables(%q) = %d, want %d", tt.word, got, tt.want)
			}
		})
	}
}

func TestCountSyllablesSilentE(t *testing.T) {
	// "phrase" has two vowel clusters but the trailing e is silent.
	if got := countSyllables("phrase"); got != 1 {
		t.Errorf("countSyllables(phrase) = %d, want 1", got)
	}
	// "table" keeps its final syllable ("-le" words are not silent).
	if got := countSyllables("table"); got != 2 {
		t.Errorf("countSyllables(table) = %d, want 2", got)
	}
}

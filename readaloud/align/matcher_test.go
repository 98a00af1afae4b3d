package align

import (
	"strings"
	"testing"

	"github.com/francktshibala/bookbridge-sync/readaloud"
)

func ts(word string, start, end float64) readaloud.WordTimestamp {
	return readaloud.WordTimestamp{Word: word, Start: start, End: end}
}

func TestMatchEmptyOriginal(t *testing.T) {
	out := Match([]readaloud.WordTimestamp{ts("hello", 0, 0.5)}, "   ")
	if len(out) != 0 {
		t.Errorf("expected empty output, got %d entries", len(out))
	}
}

func TestMatchFastPath(t *testing.T) {
	gt := []readaloud.WordTimestamp{
		ts("helo", 0, 0.4),
		ts("werld", 0.5, 1.0),
		ts("agin", 1.1, 1.5),
	}
	out := Match(gt, "Hello world again")

	if len(out) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(out))
	}
	want := []string{"Hello", "world", "again"}
	for i, entry := range out {
		if entry.Word != want[i] {
			t.Errorf("out[%d].Word = %q, want %q", i, entry.Word, want[i])
		}
		if entry.Confidence != 1.0 {
			t.Errorf("out[%d].Confidence = %v, want 1.0", i, entry.Confidence)
		}
		if entry.Start != gt[i].Start || entry.End != gt[i].End {
			t.Errorf("out[%d] timing = [%v,%v], want [%v,%v]",
				i, entry.Start, entry.End, gt[i].Start, gt[i].End)
		}
	}
}

func TestMatchRecognizerTyposKeepTimestamps(t *testing.T) {
	// The contract scenario: equal counts, misrecognized words. The output
	// must carry the original spelling with the recognizer's timestamps at
	// confidence 0.8 or better.
	gt := []readaloud.WordTimestamp{
		ts("helo", 0, 0.4),
		ts("wrld", 0.5, 1.0),
	}
	out := Match(gt, "Hello world")

	if len(out) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(out))
	}
	if out[0].Word != "Hello" || out[1].Word != "world" {
		t.Errorf("words = %q %q", out[0].Word, out[1].Word)
	}
	for i, entry := range out {
		if entry.Confidence < 0.8 {
			t.Errorf("out[%d].Confidence = %v, want >= 0.8", i, entry.Confidence)
		}
		if entry.Start != gt[i].Start || entry.End != gt[i].End {
			t.Errorf("out[%d] timing = [%v,%v], want [%v,%v]",
				i, entry.Start, entry.End, gt[i].Start, gt[i].End)
		}
	}
}

func TestMatchSubstringContainment(t *testing.T) {
	// Count mismatch forces the general path; recognizer truncated the
	// first word and dropped the last one entirely.
	gt := []readaloud.WordTimestamp{
		ts("hell", 0, 0.4),
		ts("world", 0.5, 1.0),
	}
	out := Match(gt, "Hello world again")

	if len(out) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(out))
	}
	if out[0].Word != "Hello" || out[1].Word != "world" || out[2].Word != "again" {
		t.Errorf("words = %q %q %q", out[0].Word, out[1].Word, out[2].Word)
	}
	// "hell" is contained in "hello": substring confidence, timing kept.
	if out[0].Confidence != 0.8 {
		t.Errorf("out[0].Confidence = %v, want 0.8", out[0].Confidence)
	}
	if out[0].Start != 0 || out[0].End != 0.4 {
		t.Errorf("out[0] timing = [%v,%v], want [0,0.4]", out[0].Start, out[0].End)
	}
	if out[1].Confidence != 1.0 {
		t.Errorf("out[1].Confidence = %v, want 1.0", out[1].Confidence)
	}
}

func TestMatchOutputLengthAlwaysMatchesOriginal(t *testing.T) {
	tests := []struct {
		name     string
		gt       []readaloud.WordTimestamp
		original string
	}{
		{"no ground truth", nil, "one two three"},
		{"extra ground truth", []readaloud.WordTimestamp{
			ts("one", 0, 0.2), ts("uh", 0.2, 0.3), ts("two", 0.3, 0.5), ts("um", 0.5, 0.6),
		}, "one two"},
		{"missing ground truth", []readaloud.WordTimestamp{
			ts("one", 0, 0.2),
		}, "one two three four"},
		{"total garbage", []readaloud.WordTimestamp{
			ts("xyzzy", 0, 0.2), ts("plugh", 0.3, 0.6),
		}, "completely different words"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Match(tt.gt, tt.original)
			wordCount := len(strings.Fields(tt.original))
			if len(out) != wordCount {
				t.Fatalf("output length %d, want %d", len(out), wordCount)
			}
			for i, entry := range out {
				if entry.Start > entry.End {
					t.Errorf("out[%d]: Start %v > End %v", i, entry.Start, entry.End)
				}
				if i > 0 && entry.Start < out[i-1].Start {
					t.Errorf("out[%d]: Start %v before previous %v", i, entry.Start, out[i-1].Start)
				}
			}
		})
	}
}

func TestMatchTrailingOriginalsSynthesized(t *testing.T) {
	gt := []readaloud.WordTimestamp{
		ts("one", 0, 0.2),
		ts("two", 0.3, 0.5),
	}
	out := Match(gt, "one two three four")
	if len(out) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(out))
	}

	// Trailing words: start at previous end, half-second spans, low trust.
	if out[2].Start != 0.5 || out[2].End != 1.0 {
		t.Errorf("out[2] timing = [%v,%v], want [0.5,1.0]", out[2].Start, out[2].End)
	}
	if out[3].Start != 1.0 || out[3].End != 1.5 {
		t.Errorf("out[3] timing = [%v,%v], want [1.0,1.5]", out[3].Start, out[3].End)
	}
	if out[2].Confidence != 0.3 || out[3].Confidence != 0.3 {
		t.Errorf("trailing confidences = %v, %v, want 0.3", out[2].Confidence, out[3].Confidence)
	}
}

func TestMatchSkippedOriginalBridgesToNextGroundTruth(t *testing.T) {
	// Recognizer missed the middle word entirely. There are 4 ground truth
	// entries for 3 originals plus one noise token, forcing the general path.
	gt := []readaloud.WordTimestamp{
		ts("alpha", 0, 0.4),
		ts("hm", 0.4, 0.45),
		ts("zz", 0.5, 0.9),
		ts("gamma", 1.0, 1.4),
	}
	out := Match(gt, "alpha be gamma")
	if len(out) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(out))
	}
	if out[0].Word != "alpha" || out[0].Confidence != 1.0 {
		t.Errorf("out[0] = %+v", out[0])
	}
	// "be" never matches; it is shorter than the unmatched ground truth, so
	// it gets a synthesized bridge with skip-level confidence.
	if out[1].Word != "be" || out[1].Confidence != 0.5 {
		t.Errorf("out[1] = %+v, want skipped 'be' at confidence 0.5", out[1])
	}
	if out[1].Start != 0.4 {
		t.Errorf("out[1].Start = %v, want previous end 0.4", out[1].Start)
	}
	if out[2].Word != "gamma" || out[2].Confidence != 1.0 {
		t.Errorf("out[2] = %+v", out[2])
	}
}

func TestMatchContractionHandling(t *testing.T) {
	// Recognizer split a contraction; counts disagree.
	gt := []readaloud.WordTimestamp{
		ts("do", 0, 0.2),
		ts("not", 0.2, 0.4),
		ts("stop", 0.5, 0.9),
	}
	out := Match(gt, "don't stop")
	if len(out) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(out))
	}
	if out[0].Word != "don't" {
		t.Errorf("out[0].Word = %q, want don't", out[0].Word)
	}
	if out[1].Word != "stop" || out[1].Confidence != 1.0 {
		t.Errorf("out[1] = %+v", out[1])
	}
}

func TestNormalizeWord(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello!", "hello"},
		{"don't", "dont"},
		{"CAFÉ", "cafe"},
		{"—", ""},
		{"well-known", "wellknown"},
		{"42nd", "42nd"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := normalizeWord(tt.in); got != tt.want {
				t.Errorf("normalizeWord(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

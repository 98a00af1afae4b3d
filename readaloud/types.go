// Package readaloud defines the shared types for the audio-text
// synchronization engine: word-level timing tables, recognizer timestamps,
// and chunk readiness signals consumed by the playback driver.
package readaloud

// WordToken is one entry in a per-chunk timing table. Times are seconds
// relative to chunk start. Tokens are immutable once produced and ordered
// by Start; small overlaps between neighbours are tolerated, but
// Start <= End always holds.
type WordToken struct {
	ID            string  `json:"id"`
	Text          string  `json:"text"`
	Start         float64 `json:"startTime"`
	End           float64 `json:"endTime"`
	IsPunctuation bool    `json:"isPunctuation"`
	OriginalIndex int     `json:"originalIndex"`
}

// Duration returns the token's span in seconds.
func (t WordToken) Duration() float64 {
	return t.End - t.Start
}

// WordTimestamp is a word-level timing record, either as produced by a
// speech-recognition pass (ground truth) or as corrected by the alignment
// matcher. Confidence is in [0,1].
type WordTimestamp struct {
	Word       string  `json:"word"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Readiness is the three-state buffering signal for a chunk's audio.
type Readiness int

const (
	// NotRequested means no preload has been issued for the chunk.
	NotRequested Readiness = iota
	// Buffering means a preload is in flight but playthrough is not yet
	// guaranteed.
	Buffering
	// ReadyToPlayThrough means enough audio is buffered to play the chunk
	// without stalling.
	ReadyToPlayThrough
)

// String returns the string representation of the readiness state.
func (r Readiness) String() string {
	switch r {
	case NotRequested:
		return "not-requested"
	case Buffering:
		return "buffering"
	case ReadyToPlayThrough:
		return "ready"
	default:
		return "unknown"
	}
}

// Chunk is a bounded unit of narration (paragraph or page) with its own
// audio source and text.
type Chunk struct {
	Index     int
	ContentID string
	Source    string // audio source URL or path
	Text      string
	Readiness Readiness
}

// Provider identifies a class of text-to-speech provider. It is used only
// to pick better default speech-rate settings for the timing estimator;
// the estimation algorithm itself never changes per provider.
type Provider string

const (
	// ProviderWebSpeech is a browser-built-in style voice.
	ProviderWebSpeech Provider = "web-speech"
	// ProviderCloudTTS is a standard cloud text-to-speech voice.
	ProviderCloudTTS Provider = "cloud-tts"
	// ProviderPremiumVoice is a higher-fidelity neural voice.
	ProviderPremiumVoice Provider = "premium-voice"
)

// Kind distinguishes the two calibration pools. Word highlighting and
// sentence-boundary auto-scroll tolerate different latency profiles, so
// they are calibrated independently.
type Kind string

const (
	// KindWord calibrates word-level highlight timing.
	KindWord Kind = "word"
	// KindSentence calibrates sentence-level auto-scroll timing.
	KindSentence Kind = "sentence"
)

package estimate

import (
	"github.com/francktshibala/bookbridge-sync/readaloud"
)

// Settings controls the speech-rate heuristic used by Estimate.
type Settings struct {
	BaseWordsPerMinute       float64 // nominal narration rate
	PunctuationPauseMs       float64 // pause after , ; :
	SentenceEndPauseMs       float64 // pause after . ! ?
	ParagraphBreakPauseMs    float64 // silent pause at blank lines
	ShortWordSpeedMultiplier float64 // words of 2 characters or fewer
	LongWordSpeedMultiplier  float64 // words of 8 characters or more
}

// DefaultSettings returns the baseline heuristic tuning.
func DefaultSettings() Settings {
	return Settings{
		BaseWordsPerMinute:       150,
		PunctuationPauseMs:       200,
		SentenceEndPauseMs:       400,
		ParagraphBreakPauseMs:    700,
		ShortWordSpeedMultiplier: 0.7,
		LongWordSpeedMultiplier:  1.3,
	}
}

// Per-provider nominal narration rates at 1.0x user speed. Providers pace
// themselves differently; only the base rate differs, never the algorithm.
var providerRates = map[readaloud.Provider]float64{
	readaloud.ProviderWebSpeech:    175,
	readaloud.ProviderCloudTTS:     155,
	readaloud.ProviderPremiumVoice: 145,
}

// SettingsFor returns Settings tuned for a provider class and a user speed
// multiplier. Unknown providers fall back to the default base rate.
func SettingsFor(provider readaloud.Provider, speed float64) Settings {
	s := DefaultSettings()
	if rate, ok := providerRates[provider]; ok {
		s.BaseWordsPerMinute = rate
	}
	if speed > 0 {
		s.BaseWordsPerMinute *= speed
	}
	return s
}

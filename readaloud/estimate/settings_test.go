package estimate

import (
	"testing"

	"github.com/francktshibala/bookbridge-sync/readaloud"
)

func TestSettingsForProviders(t *testing.T) {
	tests := []struct {
		name     string
		provider readaloud.Provider
		wantWPM  float64
	}{
		{"web speech", readaloud.ProviderWebSpeech, 175},
		{"cloud tts", readaloud.ProviderCloudTTS, 155},
		{"premium voice", readaloud.ProviderPremiumVoice, 145},
		{"unknown falls back", readaloud.Provider("mystery"), DefaultSettings().BaseWordsPerMinute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := SettingsFor(tt.provider, 1.0)
			if s.BaseWordsPerMinute != tt.wantWPM {
				t.Errorf("BaseWordsPerMinute = %v, want %v", s.BaseWordsPerMinute, tt.wantWPM)
			}
		})
	}
}

func TestSettingsForSpeedMultiplier(t *testing.T) {
	normal := SettingsFor(readaloud.ProviderCloudTTS, 1.0)
	double := SettingsFor(readaloud.ProviderCloudTTS, 2.0)

	if double.BaseWordsPerMinute != normal.BaseWordsPerMinute*2 {
		t.Errorf("2x speed should double the rate: %v vs %v",
			double.BaseWordsPerMinute, normal.BaseWordsPerMinute)
	}

	// Speed tuning only adjusts the base rate, never the pause structure.
	if double.SentenceEndPauseMs != normal.SentenceEndPauseMs {
		t.Error("speed must not alter pause settings")
	}
}

func TestSettingsForZeroSpeedIgnored(t *testing.T) {
	s := SettingsFor(readaloud.ProviderCloudTTS, 0)
	if s.BaseWordsPerMinute != 155 {
		t.Errorf("zero speed should be ignored, got %v", s.BaseWordsPerMinute)
	}
}

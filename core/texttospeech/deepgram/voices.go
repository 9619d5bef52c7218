package deepgram

import "github.com/koscakluka/ema-voice/core/texttospeech"

type deepgramVoice string

const defaultVoice deepgramVoice = "aura-asteria-en"

var voices = []texttospeech.Voice{
	{ID: "aura-asteria-en", Name: "Asteria", Locale: "en-US", Default: true},
	{ID: "aura-luna-en", Name: "Luna", Locale: "en-US"},
	{ID: "aura-stella-en", Name: "Stella", Locale: "en-US"},
	{ID: "aura-athena-en", Name: "Athena", Locale: "en-GB", Default: true},
	{ID: "aura-hera-en", Name: "Hera", Locale: "en-US"},
	{ID: "aura-orion-en", Name: "Orion", Locale: "en-US"},
	{ID: "aura-arcas-en", Name: "Arcas", Locale: "en-US"},
	{ID: "aura-perseus-en", Name: "Perseus", Locale: "en-US"},
	{ID: "aura-angus-en", Name: "Angus", Locale: "en-IE", Default: true},
	{ID: "aura-orpheus-en", Name: "Orpheus", Locale: "en-US"},
	{ID: "aura-helios-en", Name: "Helios", Locale: "en-GB"},
	{ID: "aura-zeus-en", Name: "Zeus", Locale: "en-US"},
}

// GetAvailableVoices returns the Aura voice catalogue.
func GetAvailableVoices() []texttospeech.Voice {
	return append([]texttospeech.Voice(nil), voices...)
}

func isKnownVoice(id string) bool {
	for _, voice := range voices {
		if voice.ID == id {
			return true
		}
	}
	return false
}

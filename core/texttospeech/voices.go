package texttospeech

import "strings"

const DefaultLocale = "en-IN"

// Voice describes a synthesis voice offered by a speech client.
type Voice struct {
	ID      string
	Name    string
	Locale  string
	Default bool
}

func (v Voice) IsZero() bool { return v.ID == "" }

// SelectVoice picks a voice deterministically. Preference order:
//
//  1. the voice whose ID equals preferredID
//  2. a voice with exactly locale, the Default one first
//  3. a voice sharing the language of locale, the Default one first
//  4. the first voice in the catalogue
//
// Ties keep catalogue order. The second result is false only for an empty
// catalogue.
func SelectVoice(preferredID *string, locale string, voices []Voice) (Voice, bool) {
	if len(voices) == 0 {
		return Voice{}, false
	}

	if preferredID != nil && *preferredID != "" {
		for _, voice := range voices {
			if voice.ID == *preferredID {
				return voice, true
			}
		}
	}

	if voice, ok := pickDefaultFirst(voices, func(v Voice) bool {
		return strings.EqualFold(v.Locale, locale)
	}); ok {
		return voice, true
	}

	if language := languageOf(locale); language != "" {
		if voice, ok := pickDefaultFirst(voices, func(v Voice) bool {
			return strings.EqualFold(languageOf(v.Locale), language)
		}); ok {
			return voice, true
		}
	}

	return voices[0], true
}

// FindVoice looks a voice up by ID or, failing that, by case-insensitive
// name.
func FindVoice(query string, voices []Voice) (Voice, bool) {
	query = strings.TrimSpace(query)
	for _, voice := range voices {
		if voice.ID == query {
			return voice, true
		}
	}
	for _, voice := range voices {
		if strings.EqualFold(voice.Name, query) {
			return voice, true
		}
	}
	return Voice{}, false
}

func pickDefaultFirst(voices []Voice, matches func(Voice) bool) (Voice, bool) {
	var first *Voice
	for i, voice := range voices {
		if !matches(voice) {
			continue
		}
		if voice.Default {
			return voice, true
		}
		if first == nil {
			first = &voices[i]
		}
	}

	if first == nil {
		return Voice{}, false
	}
	return *first, true
}

func languageOf(locale string) string {
	language, _, _ := strings.Cut(strings.ReplaceAll(locale, "_", "-"), "-")
	return language
}

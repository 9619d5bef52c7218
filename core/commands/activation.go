package commands

import (
	"slices"
	"strings"
)

const DefaultActivationPhrase = "start"

type ActivationMode string

const (
	// ActivationSubstring matches the phrase anywhere in the utterance.
	ActivationSubstring ActivationMode = "substring"
	// ActivationExact requires the phrase as a whole word sequence.
	ActivationExact ActivationMode = "exact"
)

// Activation decides whether a dormant assistant should wake up.
type Activation struct {
	Phrase string
	Mode   ActivationMode
}

func NewActivation(phrase string, mode ActivationMode) Activation {
	if phrase = normalizePhrase(phrase); phrase == "" {
		phrase = DefaultActivationPhrase
	}
	if mode != ActivationExact {
		mode = ActivationSubstring
	}
	return Activation{Phrase: phrase, Mode: mode}
}

func DefaultActivation() Activation {
	return NewActivation(DefaultActivationPhrase, ActivationSubstring)
}

func (a Activation) Matches(u Utterance) bool {
	phrase := a.Phrase
	if phrase == "" {
		phrase = DefaultActivationPhrase
	}

	if a.Mode != ActivationExact {
		return strings.Contains(u.Text(), phrase)
	}

	words := tokens(u.Text())
	want := tokens(phrase)
	if len(want) == 0 {
		return false
	}
	for i := 0; i+len(want) <= len(words); i++ {
		if slices.Equal(words[i:i+len(want)], want) {
			return true
		}
	}
	return false
}

func tokens(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '\'')
	})
}

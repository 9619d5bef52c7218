package settings

import (
	"errors"
	"fmt"

	"github.com/jinzhu/copier"
)

const (
	MinRate  = 0.5
	MaxRate  = 2.0
	MinPitch = 0.0
	MaxPitch = 2.0

	DefaultRate  = 1.0
	DefaultPitch = 1.0
)

var ErrOutOfRange = errors.New("value out of range")

// Settings is the persisted user configuration.
type Settings struct {
	Rate              float64 `yaml:"rate" json:"rate" jsonschema:"minimum=0.5,maximum=2,default=1,description=Speech rate multiplier"`
	Pitch             float64 `yaml:"pitch" json:"pitch" jsonschema:"minimum=0,maximum=2,default=1,description=Speech pitch multiplier"`
	VisualizerEnabled bool    `yaml:"visualizerEnabled" json:"visualizerEnabled" jsonschema:"default=true,description=Show the microphone level meter"`
	VoiceID           *string `yaml:"voiceId" json:"voiceId" jsonschema:"description=Preferred synthesis voice; null selects one by locale"`
}

// VoicePreference is the part of the settings the speech path reads.
type VoicePreference struct {
	Rate    float64
	Pitch   float64
	VoiceID *string
}

func Defaults() Settings {
	return Settings{
		Rate:              DefaultRate,
		Pitch:             DefaultPitch,
		VisualizerEnabled: true,
	}
}

func DefaultVoicePreference() VoicePreference {
	return Defaults().VoicePreference()
}

func (s Settings) Validate() error {
	if err := ValidateRate(s.Rate); err != nil {
		return err
	}
	return ValidatePitch(s.Pitch)
}

func ValidateRate(rate float64) error {
	if !(rate >= MinRate && rate <= MaxRate) {
		return fmt.Errorf("rate %.2f not in [%.1f, %.1f]: %w", rate, MinRate, MaxRate, ErrOutOfRange)
	}
	return nil
}

func ValidatePitch(pitch float64) error {
	if !(pitch >= MinPitch && pitch <= MaxPitch) {
		return fmt.Errorf("pitch %.2f not in [%.1f, %.1f]: %w", pitch, MinPitch, MaxPitch, ErrOutOfRange)
	}
	return nil
}

func (s Settings) VoicePreference() VoicePreference {
	var preference VoicePreference
	_ = copyFields(&preference, &s)
	return preference
}

// WithVoicePreference returns a copy of s with the voice fields replaced.
func (s Settings) WithVoicePreference(preference VoicePreference) Settings {
	updated := s
	_ = copyFields(&updated, &preference)
	if preference.VoiceID == nil {
		updated.VoiceID = nil
	}
	return updated
}

// copyFields deep copies the fields to and from share by name.
func copyFields(to, from any) error {
	if err := copier.CopyWithOption(to, from, copier.Option{DeepCopy: true}); err != nil {
		logger.Error("failed to copy settings fields", "to", fmt.Sprintf("%T", to), "from", fmt.Sprintf("%T", from), "error", err)
		return fmt.Errorf("failed to copy settings fields: %w", err)
	}
	return nil
}

package orchestration

import (
	"context"
	"fmt"

	"github.com/koscakluka/ema-voice/core/texttospeech"
)

type speech struct {
	client    TextToSpeech
	catalogue VoiceCatalogue
}

func (s *speech) set(client TextToSpeech) {
	if s == nil {
		return
	}

	s.client = client
	s.catalogue = nil
	if catalogue, ok := client.(VoiceCatalogue); ok {
		s.catalogue = catalogue
	}
}

func (s *speech) isConfigured() bool {
	return s != nil && s.client != nil
}

func (s *speech) Voices() []texttospeech.Voice {
	if s == nil || s.catalogue == nil {
		return nil
	}
	return s.catalogue.Voices()
}

func (s *speech) Speak(ctx context.Context, u texttospeech.Utterance, opts ...texttospeech.SpeakOption) error {
	if !s.isConfigured() {
		options := texttospeech.NewSpeakOptions(opts...)
		options.StartCallback()
		options.EndCallback()
		return nil
	}

	if err := s.client.Speak(ctx, u, opts...); err != nil {
		return fmt.Errorf("failed to speak chunk: %w", err)
	}
	return nil
}

func (s *speech) Cancel() error {
	if !s.isConfigured() {
		return nil
	}

	if err := s.client.Cancel(); err != nil {
		return fmt.Errorf("failed to cancel speech: %w", err)
	}
	return nil
}

func (s *speech) Close(ctx context.Context) error {
	if !s.isConfigured() {
		return nil
	}
	if err := closeClient(ctx, s.client); err != nil {
		return fmt.Errorf("failed to close text-to-speech client: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"

	orchestration "github.com/koscakluka/ema-voice/core"
	"github.com/koscakluka/ema-voice/core/audio/miniaudio"
	"github.com/koscakluka/ema-voice/core/audio/portaudio"
	"github.com/koscakluka/ema-voice/core/commands"
	"github.com/koscakluka/ema-voice/core/conversations"
	"github.com/koscakluka/ema-voice/core/llms"
	"github.com/koscakluka/ema-voice/core/llms/gemini"
	"github.com/koscakluka/ema-voice/core/llms/groq"
	"github.com/koscakluka/ema-voice/core/settings"
	sttdeepgram "github.com/koscakluka/ema-voice/core/speechtotext/deepgram"
	ttsdeepgram "github.com/koscakluka/ema-voice/core/texttospeech/deepgram"
)

// assembly holds everything built from the configuration that needs
// closing when the program exits.
type assembly struct {
	options []orchestration.OrchestratorOption
	closers []func() error
}

func (a *assembly) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

func assemble(ctx context.Context, cfg config) (*assembly, error) {
	a := &assembly{}

	settingsPath := cfg.SettingsPath
	if settingsPath == "" {
		path, err := settings.DefaultPath()
		if err != nil {
			return nil, err
		}
		settingsPath = path
	}

	activationMode := commands.ActivationSubstring
	if cfg.ActivationExact {
		activationMode = commands.ActivationExact
	}

	a.options = append(a.options,
		orchestration.WithSettingsStore(settings.NewFileStore(settingsPath)),
		orchestration.WithActivation(commands.NewActivation(cfg.ActivationPhrase, activationMode)),
		orchestration.WithConversationOptions(conversations.WithMaxTurns(cfg.MaxTurns)),
		orchestration.WithActivationGreeting(cfg.Greeting),
		orchestration.WithLocale(cfg.Locale),
	)

	if err := a.addBackend(ctx, cfg); err != nil {
		return nil, err
	}
	if err := a.addAudio(cfg); err != nil {
		_ = a.close()
		return nil, err
	}
	return a, nil
}

func (a *assembly) addBackend(ctx context.Context, cfg config) error {
	switch cfg.Backend {
	case "gemini":
		opts := []gemini.ClientOption{}
		if cfg.Model != "" {
			opts = append(opts, gemini.WithModel(cfg.Model))
		}
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, opts...)
		if err != nil {
			return fmt.Errorf("failed to create gemini client: %w", err)
		}
		a.addLLM(client, cfg.Stream)
		a.options = append(a.options, orchestration.WithImageGenerator(client))

	case "groq":
		opts := []groq.ClientOption{}
		if cfg.Model != "" {
			opts = append(opts, groq.WithModel(cfg.Model))
		}
		if cfg.GroqURL != "" {
			opts = append(opts, groq.WithURL(cfg.GroqURL))
		}
		a.addLLM(groq.NewClient(cfg.GroqAPIKey, opts...), cfg.Stream)
	}

	a.options = append(a.options, orchestration.WithPromptOptions(llms.WithInstructions(conversations.DefaultPersona)))
	return nil
}

type llmClient interface {
	orchestration.LLMWithStream
	orchestration.LLMWithGeneralPrompt
}

func (a *assembly) addLLM(client llmClient, stream bool) {
	if stream {
		a.options = append(a.options, orchestration.WithStreamingLLM(client))
	} else {
		a.options = append(a.options, orchestration.WithLLM(client))
	}
}

func (a *assembly) addAudio(cfg config) error {
	var output ttsdeepgram.AudioOutput

	switch cfg.Audio {
	case "miniaudio":
		client, err := miniaudio.NewClient()
		if err != nil {
			return fmt.Errorf("failed to open audio devices: %w", err)
		}
		a.closers = append(a.closers, func() error { client.Close(); return nil })
		a.options = append(a.options,
			orchestration.WithAudioInput(client),
			orchestration.WithTonePlayer(client),
		)
		output = client

	case "portaudio":
		client, err := portaudio.NewClient(portaudio.DefaultFramesPerBuffer)
		if err != nil {
			return fmt.Errorf("failed to open audio input: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		a.options = append(a.options, orchestration.WithAudioInput(client))
	}

	if !cfg.Voice {
		return nil
	}

	a.options = append(a.options, orchestration.WithSpeechToTextClient(
		sttdeepgram.NewTranscriptionClient(sttdeepgram.WithAPIKey(cfg.DeepgramAPIKey)),
	))

	ttsOptions := []ttsdeepgram.ClientOption{ttsdeepgram.WithAPIKey(cfg.DeepgramAPIKey)}
	if output != nil {
		ttsOptions = append(ttsOptions, ttsdeepgram.WithAudioOutput(output))
	}
	speech, err := ttsdeepgram.NewTextToSpeechClient("", ttsOptions...)
	if err != nil {
		return fmt.Errorf("failed to create speech client: %w", err)
	}
	a.options = append(a.options, orchestration.WithTextToSpeechClient(speech))
	return nil
}

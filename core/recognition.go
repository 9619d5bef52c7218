package orchestration

import (
	"context"
	"errors"
	"fmt"

	"github.com/koscakluka/ema-voice/core/audio"
	"github.com/koscakluka/ema-voice/core/speechtotext"
)

type recognition struct {
	// client stores the configured speech-to-text implementation.
	client SpeechToText
}

func (r *recognition) set(client SpeechToText) {
	if r != nil {
		r.client = client
	}
}

func (r *recognition) isConfigured() bool {
	return r != nil && r.client != nil
}

// Start begins a recognition session whose callbacks post to the loop. An
// already running session is not an error.
func (r *recognition) Start(ctx context.Context, post func(loopEvent) bool, encodingInfo audio.EncodingInfo) error {
	if !r.isConfigured() {
		return speechtotext.ErrUnsupported
	}

	err := r.client.Transcribe(ctx,
		speechtotext.WithStartedCallback(func() { post(recognitionStarted{}) }),
		speechtotext.WithEndedCallback(func() { post(recognitionEnded{}) }),
		speechtotext.WithResultCallback(func(transcript string, isFinal bool) {
			if isFinal {
				post(transcriptReceived{text: transcript})
			} else {
				post(interimReceived{text: transcript})
			}
		}),
		speechtotext.WithErrorCallback(func(kind speechtotext.ErrorKind, err error) {
			post(recognitionFailed{kind: kind, err: err})
		}),
		speechtotext.WithSpeechStartedCallback(func() { post(userSpeechChanged{speaking: true}) }),
		speechtotext.WithSpeechEndedCallback(func() { post(userSpeechChanged{speaking: false}) }),
		speechtotext.WithEncodingInfo(encodingInfo),
	)
	if errors.Is(err, speechtotext.ErrAlreadyStarted) {
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to start transcribing: %w", err)
	}
	return nil
}

func (r *recognition) SendAudio(audio []byte) error {
	if !r.isConfigured() {
		return nil
	}
	return r.client.SendAudio(audio)
}

func (r *recognition) Close(ctx context.Context) error {
	if !r.isConfigured() {
		return nil
	}
	if err := closeClient(ctx, r.client); err != nil {
		return fmt.Errorf("failed to close speech-to-text client: %w", err)
	}
	return nil
}

// closeClient closes clients that expose any of the usual Close shapes.
func closeClient(ctx context.Context, client any) error {
	switch c := client.(type) {
	case interface{ Close(context.Context) error }:
		return c.Close(ctx)
	case interface{ Close(context.Context) }:
		c.Close(ctx)
	case interface{ Close() error }:
		return c.Close()
	case interface{ Close() }:
		c.Close()
	}
	return nil
}

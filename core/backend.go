package orchestration

import (
	"context"
	"errors"
	"fmt"

	"github.com/koscakluka/ema-voice/core/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var errNoBackend = errors.New("no completion backend configured")

// backend prefers a streaming client and falls back to a general one.
type backend struct {
	streaming LLMWithStream
	general   LLMWithGeneralPrompt

	promptOptions []llms.PromptOption
}

func (b *backend) setStreaming(client LLMWithStream) {
	b.streaming = client
	if general, ok := client.(LLMWithGeneralPrompt); ok && b.general == nil {
		b.general = general
	}
}

func (b *backend) setGeneral(client LLMWithGeneralPrompt) {
	b.general = client
}

func (b *backend) isConfigured() bool {
	return b != nil && (b.streaming != nil || b.general != nil)
}

// Respond sends the turns and returns the final text. onPartial receives
// the cumulative text as it arrives.
func (b *backend) Respond(ctx context.Context, turns []llms.Turn, onPartial func(string)) (string, error) {
	ctx, span := tracer.Start(ctx, "respond to utterance")
	defer span.End()
	span.SetAttributes(
		attribute.Int("conversation.turns", len(turns)),
		attribute.Bool("response.streaming", b.streaming != nil),
	)

	if !b.isConfigured() {
		span.RecordError(errNoBackend)
		span.SetStatus(codes.Error, errNoBackend.Error())
		return "", errNoBackend
	}

	accumulator := llms.NewAccumulator(onPartial)

	var text string
	var err error
	if b.streaming != nil {
		text, err = accumulator.Consume(ctx, b.streaming.PromptWithStream(ctx, turns, b.promptOptions...))
	} else {
		text, err = accumulator.ConsumeText(b.general.Prompt(ctx, turns, b.promptOptions...))
	}
	if err != nil {
		recordedErr := fmt.Errorf("failed to get response: %w", err)
		span.RecordError(recordedErr)
		span.SetStatus(codes.Error, recordedErr.Error())
		return "", recordedErr
	}

	span.SetAttributes(attribute.Int("response.length", len(text)))
	return text, nil
}

package orchestration

import (
	"context"
	"errors"
	"fmt"

	"github.com/koscakluka/ema-voice/core/commands"
	"github.com/koscakluka/ema-voice/core/events"
	"github.com/koscakluka/ema-voice/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	imageProgressFormat = "Generating an image of: *%s*..."
	imageAnnouncement   = "Generating your image, one moment."
	imageReadyMessage   = "Here is the image you requested."
	imageFailedMessage  = "Sorry, I couldn't generate the image."
)

var (
	errNoImageGenerator = errors.New("no image generator configured")
	errNoImages         = errors.New("no images returned")
)

func (o *Orchestrator) execute(action commands.Action) {
	switch action.Kind {
	case commands.ActionDeactivate:
		o.deactivate()
		return
	case commands.ActionInterrupt:
		o.interrupt()
		return
	case commands.ActionConverse:
		o.converse(action.Text)
		return
	case commands.ActionGenerateImage:
		o.generateImage(action.Text)
		return
	case commands.ActionSetVoice:
		o.setVoice(action.Text)
		return

	case commands.ActionOpenSettings:
		o.setMode(commands.ModeSettings)
	case commands.ActionCloseSettings:
		o.setMode(commands.ModeDefault)
	case commands.ActionSetRate:
		preference := o.VoicePreference()
		preference.Rate = action.Value
		o.applyPreference(preference)
	case commands.ActionSetPitch:
		preference := o.VoicePreference()
		preference.Pitch = action.Value
		o.applyPreference(preference)
	case commands.ActionSetVisualizer:
		o.settings.VisualizerEnabled = action.Enabled
		o.saveSettings()
		o.microphone.SetLevelsEnabled(action.Enabled && o.state.IsActive() && o.microphoneErr == nil)
		o.emit(events.NewWidgetVisualizerToggled(action.Enabled))
	case commands.ActionClearHistory:
		o.conversation.Reset()
	case commands.ActionTimer:
		o.emit(events.NewWidgetTimerSet(action.Duration))
	case commands.ActionStopwatch:
		o.emit(events.NewWidgetStopwatchChanged(string(action.Stopwatch)))
	}

	reply := commands.Respond(action, o.env)
	if reply.Color != nil {
		o.emit(events.NewWidgetBackgroundChanged(reply.Color.Name, reply.Color.Hex))
	}
	o.respond(reply.Text, false)
}

func (o *Orchestrator) setVoice(query string) {
	voice, ok := texttospeech.FindVoice(query, o.speech.Voices())
	if !ok {
		o.respond(fmt.Sprintf("I couldn't find a voice named %s.", query), false)
		return
	}

	preference := o.VoicePreference()
	preference.VoiceID = &voice.ID
	o.applyPreference(preference)
	o.respond(fmt.Sprintf("Voice set to %s.", voice.Name), false)
}

// converse sends the utterance to the completion backend. The reply comes
// back to the loop as a responseResolved event.
func (o *Orchestrator) converse(text string) {
	o.conversation.AppendUser(text)
	if !o.backend.isConfigured() {
		o.reportError(errNoBackend)
		o.respond(o.errorMessage, false)
		return
	}

	req, ctx := o.beginRequest()
	o.emit(events.NewAssistantResponseThinking())

	turns := o.conversation.Turns()
	worker := panicSafeNamedWorker("completion", func(ctx context.Context) error {
		text, err := o.backend.Respond(ctx, turns, func(partial string) {
			o.queue.Push(responsePartial{request: req, text: partial})
		})
		o.queue.Push(responseResolved{request: req, text: text, err: err})
		return nil
	})
	go func() {
		if err := worker(ctx); err != nil {
			o.queue.Push(responseResolved{request: req, err: err})
		}
	}()
}

func (o *Orchestrator) generateImage(prompt string) {
	if o.images == nil {
		o.reportError(errNoImageGenerator)
		o.respond(imageFailedMessage, false)
		return
	}

	req, ctx := o.beginRequest()
	o.emit(events.NewAssistantResponseUpdated(fmt.Sprintf(imageProgressFormat, prompt)))
	o.announce(imageAnnouncement)

	worker := panicSafeNamedWorker("image", func(ctx context.Context) error {
		ctx, span := tracer.Start(ctx, "generate image")
		defer span.End()
		span.SetAttributes(attribute.Int("image.prompt.length", len(prompt)))

		images, err := o.images.GenerateImages(ctx, prompt, 1)
		if err == nil && len(images) == 0 {
			err = errNoImages
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		o.queue.Push(imagesResolved{request: req, prompt: prompt, images: images, err: err})
		return nil
	})
	go func() {
		if err := worker(ctx); err != nil {
			o.queue.Push(imagesResolved{request: req, prompt: prompt, err: err})
		}
	}()
}

// beginRequest supersedes any pending request and moves to processing.
func (o *Orchestrator) beginRequest() (request, context.Context) {
	o.cancelPendingRequest()
	o.cancelPlayback()

	o.requestSeq++
	req := request{session: o.session, seq: o.requestSeq}
	ctx, cancel := context.WithCancel(o.baseContext)
	o.cancelRequest = cancel

	o.settleGeneration++
	o.setState(StateProcessing)
	return req, ctx
}

// cancelPendingRequest makes any in-flight response stale.
func (o *Orchestrator) cancelPendingRequest() {
	o.requestSeq++
	if o.cancelRequest != nil {
		o.cancelRequest()
		o.cancelRequest = nil
	}
}

// isCurrent reports whether a response still belongs to the request the
// loop is waiting for.
func (o *Orchestrator) isCurrent(req request) bool {
	return o.state == StateProcessing && req.session == o.session && req.seq == o.requestSeq
}

func (o *Orchestrator) finishRequest() {
	if o.cancelRequest != nil {
		o.cancelRequest()
		o.cancelRequest = nil
	}
}

func (o *Orchestrator) handleResponse(e responseResolved) {
	if !o.isCurrent(e.request) {
		logger.Debug("discarding stale response", "session", e.session, "seq", e.seq)
		return
	}
	o.finishRequest()

	if e.err != nil {
		o.reportError(e.err)
		o.respond(o.errorMessage, false)
		return
	}

	o.conversation.AppendAssistant(e.text)
	o.respond(e.text, true)
}

func (o *Orchestrator) handleImages(e imagesResolved) {
	if !o.isCurrent(e.request) {
		logger.Debug("discarding stale images", "session", e.session, "seq", e.seq)
		return
	}
	o.finishRequest()

	if e.err != nil {
		o.reportError(fmt.Errorf("failed to generate image: %w", e.err))
		o.respond(imageFailedMessage, false)
		return
	}

	o.emit(events.NewAssistantResponseImages(e.prompt, e.images))
	o.respond(imageReadyMessage, false)
}

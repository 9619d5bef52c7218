package orchestration

import (
	"github.com/koscakluka/ema-voice/core/events"
)

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

func newCallbackEventEmitter(opts OrchestrateOptions) eventEmitter {
	return func(event events.Event) {
		switch typedEvent := event.(type) {
		case events.AssistantStateChanged:
			if opts.onStateChanged != nil {
				opts.onStateChanged(parseState(typedEvent.From), parseState(typedEvent.To))
			}
		case events.UserTranscriptFinal:
			if opts.onTranscription != nil {
				opts.onTranscription(typedEvent.Transcript)
			}
		case events.UserTranscriptInterimUpdated:
			if opts.onInterimTranscription != nil {
				opts.onInterimTranscription(typedEvent.Transcript)
			}
		case events.UserSpeechStarted:
			if opts.onSpeakingStateChanged != nil {
				opts.onSpeakingStateChanged(true)
			}
		case events.UserSpeechEnded:
			if opts.onSpeakingStateChanged != nil {
				opts.onSpeakingStateChanged(false)
			}
		case events.UserAudioLevel:
			if opts.onInputLevel != nil {
				opts.onInputLevel(typedEvent.Level)
			}
		case events.AssistantResponseThinking:
			if opts.onThinking != nil {
				opts.onThinking()
			}
		case events.AssistantResponseUpdated:
			if opts.onPartialResponse != nil {
				opts.onPartialResponse(typedEvent.Text)
			}
		case events.AssistantResponseFinal:
			if opts.onResponse != nil {
				opts.onResponse(typedEvent.Text, typedEvent.Markdown)
			}
		case events.AssistantResponseImages:
			if opts.onImages != nil {
				opts.onImages(typedEvent.Prompt, typedEvent.Images)
			}
		case events.AssistantSpeechChunkStarted:
			if opts.onSpokenChunk != nil {
				opts.onSpokenChunk(typedEvent.Chunk)
			}
		case events.WidgetBackgroundChanged:
			if opts.onBackground != nil {
				opts.onBackground(typedEvent.Name, typedEvent.Hex)
			}
		case events.WidgetTimerSet:
			if opts.onTimer != nil {
				opts.onTimer(typedEvent.Duration)
			}
		case events.WidgetStopwatchChanged:
			if opts.onStopwatch != nil {
				opts.onStopwatch(typedEvent.Command)
			}
		case events.WidgetToneEmitted:
			if opts.onTone != nil {
				opts.onTone(typedEvent.Tone)
			}
		case events.WidgetSettingsModeChanged:
			if opts.onSettingsMode != nil {
				opts.onSettingsMode(typedEvent.Open)
			}
		case events.WidgetVisualizerToggled:
			if opts.onVisualizer != nil {
				opts.onVisualizer(typedEvent.Enabled)
			}
		case events.OrchestratorError:
			if opts.onError != nil {
				opts.onError(typedEvent.Err)
			}
		}

		if opts.onEvent != nil {
			opts.onEvent(event)
		}
	}
}

func parseState(name string) State {
	for _, state := range []State{StateDormant, StateListening, StateSpeaking, StateProcessing} {
		if state.String() == name {
			return state
		}
	}
	return StateDormant
}

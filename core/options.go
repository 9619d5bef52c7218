package orchestration

import (
	"context"
	"time"

	"github.com/koscakluka/ema-voice/core/audio"
	"github.com/koscakluka/ema-voice/core/commands"
	"github.com/koscakluka/ema-voice/core/conversations"
	"github.com/koscakluka/ema-voice/core/events"
	"github.com/koscakluka/ema-voice/core/llms"
	"github.com/koscakluka/ema-voice/core/settings"
	"github.com/koscakluka/ema-voice/core/speechtotext"
	"github.com/koscakluka/ema-voice/core/texttospeech"
)

const (
	DefaultSettleDelay  = 200 * time.Millisecond
	DefaultErrorMessage = "Sorry, I encountered an error. Please try again."
)

type OrchestratorOption func(*Orchestrator)

// SpeechToText is a continuous transcript source. Transcribe starts one
// recognition session and returns; the session reports its lifecycle
// through the transcription option callbacks. Starting a running session
// returns speechtotext.ErrAlreadyStarted.
type SpeechToText interface {
	Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error
	SendAudio(audio []byte) error
}

func WithSpeechToTextClient(client SpeechToText) OrchestratorOption {
	return func(o *Orchestrator) { o.recognition.set(client) }
}

// TextToSpeech speaks one utterance at a time. Speak returns once the
// utterance is accepted; completion is reported through the callbacks.
type TextToSpeech interface {
	Speak(ctx context.Context, u texttospeech.Utterance, opts ...texttospeech.SpeakOption) error
	Cancel() error
}

// VoiceCatalogue is implemented by speech clients that can list voices.
type VoiceCatalogue interface {
	Voices() []texttospeech.Voice
}

func WithTextToSpeechClient(client TextToSpeech) OrchestratorOption {
	return func(o *Orchestrator) { o.speech.set(client) }
}

type LLMWithStream interface {
	PromptWithStream(ctx context.Context, turns []llms.Turn, opts ...llms.PromptOption) llms.Stream
}

type LLMWithGeneralPrompt interface {
	Prompt(ctx context.Context, turns []llms.Turn, opts ...llms.PromptOption) (string, error)
}

func WithStreamingLLM(client LLMWithStream) OrchestratorOption {
	return func(o *Orchestrator) { o.backend.setStreaming(client) }
}

func WithLLM(client LLMWithGeneralPrompt) OrchestratorOption {
	return func(o *Orchestrator) { o.backend.setGeneral(client) }
}

// WithPromptOptions adds options to every backend request.
func WithPromptOptions(opts ...llms.PromptOption) OrchestratorOption {
	return func(o *Orchestrator) { o.backend.promptOptions = append(o.backend.promptOptions, opts...) }
}

type ImageGenerator interface {
	GenerateImages(ctx context.Context, prompt string, count int) ([]llms.Image, error)
}

func WithImageGenerator(generator ImageGenerator) OrchestratorOption {
	return func(o *Orchestrator) { o.images = generator }
}

// AudioInput captures microphone audio. Stream starts delivering frames to
// onAudio and returns.
type AudioInput interface {
	EncodingInfo() audio.EncodingInfo
	Stream(ctx context.Context, onAudio func(audio []byte)) error
}

func WithAudioInput(client AudioInput) OrchestratorOption {
	return func(o *Orchestrator) { o.microphone.set(client) }
}

type TonePlayer interface {
	PlayTone(tone audio.Tone) error
}

func WithTonePlayer(player TonePlayer) OrchestratorOption {
	return func(o *Orchestrator) { o.tones = player }
}

// WithSettingsStore loads settings when orchestration starts and saves them
// on every change.
func WithSettingsStore(store settings.Store) OrchestratorOption {
	return func(o *Orchestrator) {
		if store != nil {
			o.settingsStore = store
		}
	}
}

func WithClassifier(classifier *commands.Classifier) OrchestratorOption {
	return func(o *Orchestrator) {
		if classifier != nil {
			o.classifier = classifier
		}
	}
}

func WithActivation(activation commands.Activation) OrchestratorOption {
	return func(o *Orchestrator) { o.activation = commands.NewActivation(activation.Phrase, activation.Mode) }
}

func WithConversationOptions(opts ...conversations.Option) OrchestratorOption {
	return func(o *Orchestrator) { o.conversation = conversations.New(opts...) }
}

// WithCommandEnv replaces the clock and random source used by local replies.
func WithCommandEnv(env commands.Env) OrchestratorOption {
	return func(o *Orchestrator) { o.env = env }
}

// WithSettleDelay sets how long recognition stays gated after playback ends.
func WithSettleDelay(delay time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if delay >= 0 {
			o.settleDelay = delay
		}
	}
}

// WithActivationGreeting sets text spoken right after activation. Empty
// means no greeting.
func WithActivationGreeting(greeting string) OrchestratorOption {
	return func(o *Orchestrator) { o.greeting = greeting }
}

// WithErrorMessage replaces the text spoken when the backend fails.
func WithErrorMessage(message string) OrchestratorOption {
	return func(o *Orchestrator) {
		if message != "" {
			o.errorMessage = message
		}
	}
}

// WithLocale sets the locale used to pick a voice when no voice is
// preferred.
func WithLocale(locale string) OrchestratorOption {
	return func(o *Orchestrator) {
		if locale != "" {
			o.locale = locale
		}
	}
}

type OrchestrateOptions struct {
	onStateChanged         func(from, to State)
	onTranscription        func(transcript string)
	onInterimTranscription func(transcript string)
	onSpeakingStateChanged func(isSpeaking bool)
	onThinking             func()
	onPartialResponse      func(text string)
	onResponse             func(text string, markdown bool)
	onImages               func(prompt string, images []llms.Image)
	onSpokenChunk          func(chunk string)
	onBackground           func(name, hex string)
	onTimer                func(duration time.Duration)
	onStopwatch            func(command string)
	onTone                 func(name string)
	onSettingsMode         func(open bool)
	onVisualizer           func(enabled bool)
	onInputLevel           func(level float64)
	onError                func(err error)
	onEvent                func(event events.Event)
}

type OrchestrateOption func(*OrchestrateOptions)

func WithStateChangedCallback(callback func(from, to State)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onStateChanged = callback }
}

// WithTranscriptionCallback registers a callback for final transcripts,
// including text sent through [Orchestrator.SendTranscript].
func WithTranscriptionCallback(callback func(transcript string)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onTranscription = callback }
}

func WithInterimTranscriptionCallback(callback func(transcript string)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onInterimTranscription = callback }
}

// WithSpeakingStateChangedCallback registers a callback for user speech
// activity reported by the recognition engine.
func WithSpeakingStateChangedCallback(callback func(isSpeaking bool)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onSpeakingStateChanged = callback }
}

// WithThinkingCallback is called when a backend request starts, before any
// response text is known.
func WithThinkingCallback(callback func()) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onThinking = callback }
}

// WithPartialResponseCallback receives the cumulative response text while it
// is streamed, and progress text for image requests.
func WithPartialResponseCallback(callback func(text string)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onPartialResponse = callback }
}

// WithResponseCallback receives every complete response. Markdown is set
// for backend responses.
func WithResponseCallback(callback func(text string, markdown bool)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onResponse = callback }
}

func WithImagesCallback(callback func(prompt string, images []llms.Image)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onImages = callback }
}

func WithSpokenChunkCallback(callback func(chunk string)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onSpokenChunk = callback }
}

func WithBackgroundCallback(callback func(name, hex string)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onBackground = callback }
}

func WithTimerCallback(callback func(duration time.Duration)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onTimer = callback }
}

func WithStopwatchCallback(callback func(command string)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onStopwatch = callback }
}

func WithToneCallback(callback func(name string)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onTone = callback }
}

func WithSettingsModeCallback(callback func(open bool)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onSettingsMode = callback }
}

func WithVisualizerCallback(callback func(enabled bool)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onVisualizer = callback }
}

// WithInputLevelCallback receives the microphone level while the assistant
// is active and the visualizer is enabled. It is called from the audio
// capture goroutine.
func WithInputLevelCallback(callback func(level float64)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onInputLevel = callback }
}

func WithErrorCallback(callback func(err error)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onError = callback }
}

// WithEventCallback receives every emitted event, after the typed
// callbacks.
func WithEventCallback(callback func(event events.Event)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onEvent = callback }
}

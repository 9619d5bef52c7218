package orchestration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/koscakluka/ema-voice/core/audio"
	"github.com/koscakluka/ema-voice/core/commands"
	"github.com/koscakluka/ema-voice/core/conversations"
	"github.com/koscakluka/ema-voice/core/events"
	"github.com/koscakluka/ema-voice/core/llms"
	"github.com/koscakluka/ema-voice/core/settings"
	"github.com/koscakluka/ema-voice/core/speechtotext"
	"github.com/koscakluka/ema-voice/core/texttospeech"
	"github.com/koscakluka/ema-voice/internal/utils"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const recognitionRetryDelay = time.Second

var ErrClosed = errors.New("orchestrator closed")

// Orchestrator drives the assistant: it activates on the wake phrase,
// routes transcripts to local commands or the completion backend and
// speaks the replies. All state transitions happen on a single loop
// goroutine fed by an event queue; client callbacks only post events.
type Orchestrator struct {
	classifier   *commands.Classifier
	activation   commands.Activation
	conversation *conversations.Context
	env          commands.Env

	locale       string
	settleDelay  time.Duration
	greeting     string
	errorMessage string

	recognition   recognition
	speech        speech
	backend       backend
	microphone    microphone
	images        ImageGenerator
	tones         TonePlayer
	settingsStore settings.Store

	queue       *eventQueue
	emit        eventEmitter
	baseContext context.Context
	cancel      context.CancelFunc
	startOnce   sync.Once
	closeOnce   sync.Once
	started     atomic.Bool
	closed      atomic.Bool
	done        chan struct{}

	stateValue   atomic.Int32
	preferenceMu sync.RWMutex
	preference   settings.VoicePreference

	// Everything below is owned by the loop goroutine.

	state      State
	suppressed bool
	mode       commands.Mode
	settings   settings.Settings

	// session identifies the current activation; requests from an earlier
	// one are stale.
	session       string
	requestSeq    uint64
	cancelRequest context.CancelFunc

	playback         playback
	settleGeneration uint64

	unsupportedReported bool
	microphoneErr       error
	microphoneReported  bool
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		classifier:    commands.NewClassifier(),
		activation:    commands.DefaultActivation(),
		conversation:  conversations.New(),
		env:           commands.DefaultEnv(),
		locale:        texttospeech.DefaultLocale,
		settleDelay:   DefaultSettleDelay,
		errorMessage:  DefaultErrorMessage,
		settingsStore: &settings.MemoryStore{},
		queue:         newEventQueue(),
		emit:          noopEventEmitter,
		baseContext:   context.Background(),
		done:          make(chan struct{}),
	}

	for _, opt := range opts {
		opt(o)
	}

	loaded, err := o.settingsStore.Load()
	if err != nil {
		logger.Warn("failed to load settings, using defaults", "error", err)
		loaded = settings.Defaults()
	}
	o.settings = loaded
	o.preference = loaded.VoicePreference()

	return o
}

// Orchestrate starts the loop, the microphone and speech recognition and
// returns. Orchestration stops when ctx is done or Close is called.
func (o *Orchestrator) Orchestrate(ctx context.Context, opts ...OrchestrateOption) {
	if o.closed.Load() {
		logger.Warn("orchestrator already closed, skipping Orchestrate")
		return
	}

	started := false
	o.startOnce.Do(func() {
		started = true

		options := OrchestrateOptions{}
		for _, opt := range opts {
			opt(&options)
		}
		o.emit = newCallbackEventEmitter(options)
		o.baseContext, o.cancel = context.WithCancel(ctx)
		o.started.Store(true)

		go o.run()
		go func() {
			<-o.baseContext.Done()
			o.Close()
		}()
	})
	if !started {
		logger.Warn("Orchestrate called more than once, ignoring")
	}
}

// Close stops orchestration and closes every client that can be closed.
// It must not be called from an orchestration callback.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		o.closed.Store(true)
		// Prevents a later Orchestrate and waits for a concurrent one.
		o.startOnce.Do(func() {})

		if o.cancel != nil {
			o.cancel()
		}
		o.queue.Close()
		if o.started.Load() {
			<-o.done
		}

		ctx := context.Background()
		span := trace.SpanFromContext(o.baseContext)
		for _, closer := range []func(context.Context) error{
			o.microphone.Close,
			o.recognition.Close,
			o.speech.Close,
		} {
			if err := closer(ctx); err != nil {
				span.RecordError(err)
				logger.Warn("failed to close client", "error", err)
			}
		}
	})
}

// State reports the current assistant state. It is safe to call from any
// goroutine.
func (o *Orchestrator) State() State { return State(o.stateValue.Load()) }

// SendTranscript handles text as if it was a final recognition result.
func (o *Orchestrator) SendTranscript(text string) {
	if !o.queue.Push(transcriptReceived{text: text, typed: true}) {
		logger.Debug("orchestrator closed, dropping transcript")
	}
}

// Interrupt stops speech or a pending backend request and returns to
// listening, the same as saying the interrupt phrase.
func (o *Orchestrator) Interrupt() {
	o.queue.Push(interruptRequested{})
}

// UpdateVoicePreference validates and persists a new voice preference. It
// applies from the next spoken chunk.
func (o *Orchestrator) UpdateVoicePreference(preference settings.VoicePreference) error {
	if err := settings.ValidateRate(preference.Rate); err != nil {
		return err
	}
	if err := settings.ValidatePitch(preference.Pitch); err != nil {
		return err
	}
	if !o.queue.Push(preferenceUpdated{preference: copyPreference(preference)}) {
		return ErrClosed
	}
	return nil
}

func (o *Orchestrator) VoicePreference() settings.VoicePreference {
	o.preferenceMu.RLock()
	defer o.preferenceMu.RUnlock()
	return copyPreference(o.preference)
}

// Conversation returns a copy of the turns sent with the next backend
// request.
func (o *Orchestrator) Conversation() []llms.Turn {
	return o.conversation.Turns()
}

func (o *Orchestrator) run() {
	defer close(o.done)

	o.startInput()
	for {
		event, ok := o.queue.Next(o.baseContext)
		if !ok {
			o.shutdown()
			return
		}
		o.handle(event)
	}
}

func (o *Orchestrator) handle(event loopEvent) {
	switch e := event.(type) {
	case transcriptReceived:
		o.handleTranscript(e.text, e.typed)
	case interimReceived:
		o.emit(events.NewUserTranscriptInterimUpdated(e.text))
	case userSpeechChanged:
		if e.speaking {
			o.emit(events.NewUserSpeechStarted())
		} else {
			o.emit(events.NewUserSpeechEnded())
		}
	case recognitionStarted:
		logger.Debug("speech recognition started")
	case recognitionEnded:
		logger.Debug("speech recognition ended", "suppressed", o.suppressed)
		if !o.suppressed {
			o.startRecognition()
		}
	case recognitionFailed:
		o.handleRecognitionFailure(e.kind, e.err)
	case recognitionRetry:
		if !o.suppressed {
			o.startRecognition()
		}
	case chunkStarted:
		if e.generation == o.playback.generation {
			o.emit(events.NewAssistantSpeechChunkStarted(e.chunk))
		}
	case chunkFinished:
		o.handleChunkFinished(e)
	case settleElapsed:
		o.handleSettleElapsed(e.generation)
	case responsePartial:
		if o.isCurrent(e.request) {
			o.emit(events.NewAssistantResponseUpdated(e.text))
		}
	case responseResolved:
		o.handleResponse(e)
	case imagesResolved:
		o.handleImages(e)
	case interruptRequested:
		o.interrupt()
	case preferenceUpdated:
		o.applyPreference(e.preference)
	case audioCaptureFailed:
		o.microphoneErr = e.err
		o.microphone.SetLevelsEnabled(false)
		o.reportError(fmt.Errorf("microphone unavailable: %w", e.err))
	default:
		logger.Warn("unhandled loop event", "event", fmt.Sprintf("%T", event))
	}
}

func (o *Orchestrator) startInput() {
	o.microphone.Start(o.baseContext, o.forwardAudio, func(err error) {
		o.queue.Push(audioCaptureFailed{err: err})
	})
	o.startRecognition()
}

// forwardAudio runs on the capture goroutine. Audio is always forwarded so
// the interrupt phrase can be heard during playback.
func (o *Orchestrator) forwardAudio(frame []byte) {
	if err := o.recognition.SendAudio(frame); err != nil {
		logger.Debug("failed to forward audio", "error", err)
	}
	if o.microphone.LevelsEnabled() {
		o.emit(events.NewUserAudioLevel(audio.Level(frame, o.microphone.EncodingInfo())))
	}
}

// startRecognition is idempotent; a running session is left alone.
func (o *Orchestrator) startRecognition() {
	if !o.recognition.isConfigured() {
		o.reportUnsupported()
		return
	}

	err := o.recognition.Start(o.baseContext, o.queue.Push, o.microphone.EncodingInfo())
	if errors.Is(err, speechtotext.ErrUnsupported) {
		o.reportUnsupported()
		return
	} else if err != nil {
		logger.Warn("failed to start speech recognition, retrying", "error", err, "delay", recognitionRetryDelay)
		time.AfterFunc(recognitionRetryDelay, func() { o.queue.Push(recognitionRetry{}) })
	}
}

func (o *Orchestrator) handleRecognitionFailure(kind speechtotext.ErrorKind, err error) {
	if kind.IsTransient() {
		logger.Debug("transient speech recognition error", "kind", kind, "error", err)
		return
	}
	if kind == speechtotext.ErrorKindNotAllowed {
		o.reportUnsupported()
		return
	}
	o.reportError(fmt.Errorf("speech recognition failed (%s): %w", kind, err))
}

func (o *Orchestrator) reportUnsupported() {
	if o.unsupportedReported {
		return
	}
	o.unsupportedReported = true
	logger.Error("speech recognition unavailable, only typed input will be handled")
	o.emit(events.NewOrchestratorError(speechtotext.ErrUnsupported))
}

func (o *Orchestrator) reportError(err error) {
	span := trace.SpanFromContext(o.baseContext)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	logger.Warn("orchestration error", "error", err)
	o.emit(events.NewOrchestratorError(err))
}

func (o *Orchestrator) shutdown() {
	o.cancelPendingRequest()
	if o.playback.active {
		o.playback.active = false
		o.playback.generation++
		if o.playback.cancel != nil {
			o.playback.cancel()
		}
		if err := o.speech.Cancel(); err != nil {
			logger.Warn("failed to cancel speech on shutdown", "error", err)
		}
	}
}

func (o *Orchestrator) applyPreference(preference settings.VoicePreference) {
	o.preferenceMu.Lock()
	o.preference = copyPreference(preference)
	o.preferenceMu.Unlock()

	o.settings = o.settings.WithVoicePreference(preference)
	o.saveSettings()
}

func (o *Orchestrator) saveSettings() {
	if err := o.settingsStore.Save(o.settings); err != nil {
		o.reportError(fmt.Errorf("failed to save settings: %w", err))
	}
}

func copyPreference(preference settings.VoicePreference) settings.VoicePreference {
	if preference.VoiceID != nil {
		preference.VoiceID = utils.Ptr(*preference.VoiceID)
	}
	return preference
}

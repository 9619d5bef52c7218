package orchestration

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/koscakluka/ema-voice/core/events"
	"github.com/koscakluka/ema-voice/core/llms"
	"github.com/koscakluka/ema-voice/core/speechtotext"
	"github.com/koscakluka/ema-voice/core/texttospeech"
)

const waitTimeout = 2 * time.Second

type speechToTextStub struct {
	mu      sync.Mutex
	options speechtotext.TranscriptionOptions
	running bool
	starts  int

	// onTranscribe runs on every successful start, before it returns.
	onTranscribe func()
}

func (s *speechToTextStub) Transcribe(_ context.Context, opts ...speechtotext.TranscriptionOption) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return speechtotext.ErrAlreadyStarted
	}
	s.running = true
	s.starts++
	s.options = speechtotext.NewTranscriptionOptions(opts...)
	options := s.options
	hook := s.onTranscribe
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	if options.StartedCallback != nil {
		options.StartedCallback()
	}
	return nil
}

func (s *speechToTextStub) SendAudio([]byte) error { return nil }

func (s *speechToTextStub) current(t *testing.T) speechtotext.TranscriptionOptions {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		running, options := s.running, s.options
		s.mu.Unlock()
		if running {
			return options
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for recognition to start")
	return speechtotext.TranscriptionOptions{}
}

func (s *speechToTextStub) say(t *testing.T, transcript string) {
	t.Helper()
	s.current(t).ResultCallback(transcript, true)
}

func (s *speechToTextStub) fail(t *testing.T, kind speechtotext.ErrorKind) {
	t.Helper()
	options := s.current(t)
	options.ErrorCallback(kind, errors.New(string(kind)))
	s.end(t)
}

func (s *speechToTextStub) end(t *testing.T) {
	t.Helper()
	options := s.current(t)
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	options.EndedCallback()
}

func (s *speechToTextStub) startCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts
}

type textToSpeechStub struct {
	mu      sync.Mutex
	spoken  []texttospeech.Utterance
	cancels int
	voices  []texttospeech.Voice

	// hold keeps utterances playing until Cancel.
	hold bool
	// failures makes synthesis of the keyed text fail through both the
	// error callback and the returned error.
	failures map[string]error
}

func (s *textToSpeechStub) Speak(_ context.Context, u texttospeech.Utterance, opts ...texttospeech.SpeakOption) error {
	options := texttospeech.NewSpeakOptions(opts...)

	s.mu.Lock()
	s.spoken = append(s.spoken, u)
	hold := s.hold
	failure := s.failures[u.Text]
	s.mu.Unlock()

	if failure != nil {
		go options.ErrorCallback(failure)
		return failure
	}

	options.StartCallback()
	if !hold {
		go options.EndCallback()
	}
	return nil
}

func (s *textToSpeechStub) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancels++
	return nil
}

func (s *textToSpeechStub) Voices() []texttospeech.Voice { return s.voices }

func (s *textToSpeechStub) utterances() []texttospeech.Utterance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.spoken)
}

func (s *textToSpeechStub) cancelCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancels
}

type promptLLMStub struct {
	mu    sync.Mutex
	calls int

	respond func(ctx context.Context, turns []llms.Turn) (string, error)
}

func (s *promptLLMStub) Prompt(ctx context.Context, turns []llms.Turn, _ ...llms.PromptOption) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.respond == nil {
		return "", errors.New("no response configured")
	}
	return s.respond(ctx, turns)
}

func (s *promptLLMStub) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type streamStep struct {
	content string
	err     error
}

type streamLLMStub struct{ steps []streamStep }

func (s streamLLMStub) PromptWithStream(context.Context, []llms.Turn, ...llms.PromptOption) llms.Stream {
	return stepStream(s.steps)
}

type stepStream []streamStep

func (s stepStream) Chunks(context.Context) func(func(llms.StreamChunk, error) bool) {
	return func(yield func(llms.StreamChunk, error) bool) {
		for _, step := range s {
			if step.err != nil {
				if !yield(nil, step.err) {
					return
				}
				continue
			}
			if !yield(llms.ContentChunk{Text: step.content}, nil) {
				return
			}
		}
	}
}

type imageGeneratorStub struct {
	mu      sync.Mutex
	prompts []string
	err     error

	// release, when set, holds generation until it is closed.
	release chan struct{}
}

func (s *imageGeneratorStub) GenerateImages(ctx context.Context, prompt string, count int) ([]llms.Image, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	images := make([]llms.Image, count)
	return images, nil
}

// eventRecorder collects emitted events. Waits consume events in order, so
// a wait never matches an event an earlier wait already passed.
type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
	cursor int
}

func (r *eventRecorder) record(event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) all() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

func (r *eventRecorder) waitFor(t *testing.T, description string, match func(events.Event) bool) events.Event {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for time.Now().Before(deadline) {
		r.mu.Lock()
		for r.cursor < len(r.events) {
			event := r.events[r.cursor]
			r.cursor++
			if match(event) {
				r.mu.Unlock()
				return event
			}
		}
		r.mu.Unlock()
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", description)
	return nil
}

func (r *eventRecorder) waitForResponse(t *testing.T) events.AssistantResponseFinal {
	t.Helper()
	event := r.waitFor(t, "final response", func(e events.Event) bool {
		_, ok := e.(events.AssistantResponseFinal)
		return ok
	})
	return event.(events.AssistantResponseFinal)
}

func (r *eventRecorder) waitForUnsuppressed(t *testing.T) {
	t.Helper()
	r.waitFor(t, "suppression to lift", func(e events.Event) bool {
		changed, ok := e.(events.AssistantSuppressionChanged)
		return ok && !changed.Suppressed
	})
}

type harness struct {
	o      *Orchestrator
	stt    *speechToTextStub
	tts    *textToSpeechStub
	events *eventRecorder
}

func newHarness(t *testing.T, opts ...OrchestratorOption) *harness {
	t.Helper()
	h := &harness{
		stt:    &speechToTextStub{},
		tts:    &textToSpeechStub{},
		events: &eventRecorder{},
	}
	return h.start(t, opts...)
}

func (h *harness) start(t *testing.T, opts ...OrchestratorOption) *harness {
	t.Helper()
	defaults := []OrchestratorOption{
		WithSettleDelay(10 * time.Millisecond),
	}
	if h.stt != nil {
		defaults = append(defaults, WithSpeechToTextClient(h.stt))
	}
	if h.tts != nil {
		defaults = append(defaults, WithTextToSpeechClient(h.tts))
	}
	h.o = NewOrchestrator(append(defaults, opts...)...)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		h.o.Close()
	})
	h.o.Orchestrate(ctx, WithEventCallback(h.events.record))
	return h
}

// activate wakes the assistant and waits until it listens.
func (h *harness) activate(t *testing.T) {
	t.Helper()
	h.o.SendTranscript("start")
	waitForState(t, h.o, StateListening)
}

func waitForState(t *testing.T, o *Orchestrator, want State) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for time.Now().Before(deadline) {
		if o.State() == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for state %s, still %s", want, o.State())
}

package orchestration

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/koscakluka/ema-voice/core/commands"
	"github.com/koscakluka/ema-voice/core/events"
	"github.com/koscakluka/ema-voice/core/llms"
	"github.com/koscakluka/ema-voice/core/settings"
	"github.com/koscakluka/ema-voice/core/speechtotext"
	"github.com/koscakluka/ema-voice/core/texttospeech"
)

func fixedEnv() commands.Env {
	return commands.Env{
		Now:  func() time.Time { return time.Date(2024, 3, 9, 15, 4, 0, 0, time.UTC) },
		Rand: rand.New(rand.NewPCG(1, 2)),
	}
}

func TestCloseBeforeOrchestrateMarksClosed(t *testing.T) {
	o := NewOrchestrator()
	o.Close()

	if !o.closed.Load() {
		t.Fatalf("expected orchestrator to be closed")
	}

	o.Orchestrate(context.Background())
	if o.started.Load() {
		t.Fatalf("expected orchestrator to stay closed")
	}
	if err := o.UpdateVoicePreference(settings.DefaultVoicePreference()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestActivationPhraseWakesAssistant(t *testing.T) {
	h := newHarness(t)

	if h.o.State() != StateDormant {
		t.Fatalf("expected to start dormant, got %s", h.o.State())
	}

	h.stt.say(t, "Start")
	waitForState(t, h.o, StateListening)

	tone := h.events.waitFor(t, "activation tone", func(e events.Event) bool {
		_, ok := e.(events.WidgetToneEmitted)
		return ok
	}).(events.WidgetToneEmitted)
	if tone.Tone != "activation" {
		t.Fatalf("expected activation tone, got %q", tone.Tone)
	}

	turns := h.o.Conversation()
	if len(turns) != 2 || turns[0].Role != llms.TurnRoleUser || turns[1].Role != llms.TurnRoleAssistant {
		t.Fatalf("expected context reset to the preamble, got %+v", turns)
	}
}

func TestDormantIgnoresEverythingButActivation(t *testing.T) {
	llm := &promptLLMStub{respond: func(context.Context, []llms.Turn) (string, error) { return "hi", nil }}
	h := newHarness(t, WithLLM(llm))

	h.stt.say(t, "what time is it")
	h.stt.say(t, "tell me a joke")
	h.events.waitFor(t, "second transcript", func(e events.Event) bool {
		final, ok := e.(events.UserTranscriptFinal)
		return ok && final.Transcript == "tell me a joke"
	})

	// Transcripts are handled in order, so once activation is done the
	// earlier ones have been ignored.
	h.activate(t)
	for _, event := range h.events.all() {
		if _, ok := event.(events.AssistantResponseFinal); ok {
			t.Fatalf("expected no response while dormant, got %+v", event)
		}
	}
	if llm.callCount() != 0 {
		t.Fatalf("expected no backend call while dormant")
	}
}

func TestTimeQueryIsAnsweredLocally(t *testing.T) {
	llm := &promptLLMStub{}
	h := newHarness(t, WithLLM(llm), WithCommandEnv(fixedEnv()))
	h.activate(t)

	h.stt.say(t, "what time is it")
	response := h.events.waitForResponse(t)
	if response.Text != "It's 3:04 PM." || response.Markdown {
		t.Fatalf("unexpected response %+v", response)
	}
	h.events.waitForUnsuppressed(t)

	transitions := []string{}
	for _, event := range h.events.all() {
		if changed, ok := event.(events.AssistantStateChanged); ok {
			transitions = append(transitions, changed.From+"->"+changed.To)
		}
	}
	want := []string{"dormant->listening", "listening->speaking", "speaking->listening"}
	if strings.Join(transitions, ",") != strings.Join(want, ",") {
		t.Fatalf("expected transitions %v, got %v", want, transitions)
	}
	if llm.callCount() != 0 {
		t.Fatalf("expected no backend call, got %d", llm.callCount())
	}
}

func TestTimerIsConfirmedWithoutBackend(t *testing.T) {
	llm := &promptLLMStub{}
	h := newHarness(t, WithLLM(llm))
	h.activate(t)

	h.o.SendTranscript("set a timer for 5 minutes")
	timer := h.events.waitFor(t, "timer widget", func(e events.Event) bool {
		_, ok := e.(events.WidgetTimerSet)
		return ok
	}).(events.WidgetTimerSet)
	if timer.Duration != 300*time.Second {
		t.Fatalf("expected 300s timer, got %v", timer.Duration)
	}

	if response := h.events.waitForResponse(t); response.Text != "Timer set for 5 minutes." {
		t.Fatalf("unexpected confirmation %q", response.Text)
	}
	if llm.callCount() != 0 {
		t.Fatalf("expected no backend call")
	}
}

func TestImagePromptIsSentToGenerator(t *testing.T) {
	generator := &imageGeneratorStub{}
	h := newHarness(t, WithImageGenerator(generator))
	h.activate(t)

	h.o.SendTranscript("generate an image of a cat")
	progress := h.events.waitFor(t, "image progress", func(e events.Event) bool {
		_, ok := e.(events.AssistantResponseUpdated)
		return ok
	}).(events.AssistantResponseUpdated)
	if progress.Text != "Generating an image of: *a cat*..." {
		t.Fatalf("unexpected progress text %q", progress.Text)
	}

	images := h.events.waitFor(t, "images", func(e events.Event) bool {
		_, ok := e.(events.AssistantResponseImages)
		return ok
	}).(events.AssistantResponseImages)
	if images.Prompt != "a cat" || len(images.Images) != 1 {
		t.Fatalf("unexpected images event %+v", images)
	}
	if response := h.events.waitForResponse(t); response.Text != imageReadyMessage {
		t.Fatalf("unexpected response %q", response.Text)
	}
}

func TestImageRequestIsAnnouncedWhileProcessing(t *testing.T) {
	generator := &imageGeneratorStub{release: make(chan struct{})}
	h := newHarness(t, WithImageGenerator(generator))
	h.activate(t)

	h.o.SendTranscript("generate an image of a cat")
	h.events.waitFor(t, "announcement", func(e events.Event) bool {
		ended, ok := e.(events.AssistantSpeechChunkEnded)
		return ok && ended.Chunk == imageAnnouncement
	})
	if state := h.o.State(); state != StateProcessing {
		t.Fatalf("expected the request to stay pending after the announcement, got %s", state)
	}

	close(generator.release)
	if response := h.events.waitForResponse(t); response.Text != imageReadyMessage {
		t.Fatalf("unexpected response %q", response.Text)
	}
	h.events.waitForUnsuppressed(t)

	var spoken []string
	for _, u := range h.tts.utterances() {
		spoken = append(spoken, u.Text)
	}
	if strings.Join(spoken, "|") != "Ready.|"+imageAnnouncement+"|"+imageReadyMessage {
		t.Fatalf("unexpected utterances %q", spoken)
	}
}

func TestImageFailureIsSpoken(t *testing.T) {
	h := newHarness(t, WithImageGenerator(&imageGeneratorStub{err: errors.New("quota")}))
	h.activate(t)

	h.o.SendTranscript("draw a picture of a boat")
	if response := h.events.waitForResponse(t); response.Text != imageFailedMessage {
		t.Fatalf("unexpected response %q", response.Text)
	}
}

func TestStreamFailureKeepsPartialText(t *testing.T) {
	h := newHarness(t, WithStreamingLLM(streamLLMStub{steps: []streamStep{
		{content: "Hel"},
		{err: errors.New("connection reset")},
	}}))
	h.activate(t)

	h.o.SendTranscript("say hello")
	response := h.events.waitForResponse(t)
	if response.Text != "Hel" || !response.Markdown {
		t.Fatalf("expected partial text as final markdown response, got %+v", response)
	}

	turns := h.o.Conversation()
	if last := turns[len(turns)-1]; last.Role != llms.TurnRoleAssistant || last.Content != "Hel" {
		t.Fatalf("expected assistant turn with partial text, got %+v", last)
	}
}

func TestStreamFailureWithoutTextUsesErrorMessage(t *testing.T) {
	h := newHarness(t, WithStreamingLLM(streamLLMStub{steps: []streamStep{
		{err: errors.New("connection reset")},
	}}))
	h.activate(t)

	h.o.SendTranscript("say hello")
	h.events.waitFor(t, "orchestrator error", func(e events.Event) bool {
		_, ok := e.(events.OrchestratorError)
		return ok
	})
	if response := h.events.waitForResponse(t); response.Text != DefaultErrorMessage {
		t.Fatalf("expected error message, got %q", response.Text)
	}
}

func TestInterruptCancelsSpeechImmediately(t *testing.T) {
	llm := &promptLLMStub{respond: func(context.Context, []llms.Turn) (string, error) {
		return "One. Two. Three.", nil
	}}
	// The settle timer never fires, so only the interrupt can lift
	// suppression.
	h := newHarness(t, WithLLM(llm), WithSettleDelay(time.Hour))
	h.tts.hold = true
	h.activate(t)

	h.o.SendTranscript("count to three")
	waitForState(t, h.o, StateSpeaking)
	spokenBefore := len(h.tts.utterances())

	h.stt.say(t, "interrupt")
	waitForState(t, h.o, StateListening)
	h.events.waitFor(t, "speech cancellation", func(e events.Event) bool {
		_, ok := e.(events.AssistantSpeechCancelled)
		return ok
	})

	if h.tts.cancelCount() == 0 {
		t.Fatalf("expected synthesis to be cancelled")
	}
	if got := len(h.tts.utterances()); got != spokenBefore {
		t.Fatalf("expected no further chunks after interrupt, got %d more", got-spokenBefore)
	}
	h.events.waitForUnsuppressed(t)
}

func TestInterruptCancelsPendingRequest(t *testing.T) {
	release := make(chan struct{})
	llm := &promptLLMStub{respond: func(ctx context.Context, _ []llms.Turn) (string, error) {
		select {
		case <-release:
			return "too late", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}}
	h := newHarness(t, WithLLM(llm))
	h.activate(t)

	h.o.SendTranscript("tell me a story")
	waitForState(t, h.o, StateProcessing)
	h.o.Interrupt()
	waitForState(t, h.o, StateListening)
	close(release)

	h.o.SendTranscript("what time is it")
	if response := h.events.waitForResponse(t); strings.Contains(response.Text, "too late") {
		t.Fatalf("expected cancelled request to be discarded")
	}
}

func TestTranscriptsAreSuppressedWhileProcessing(t *testing.T) {
	release := make(chan struct{})
	llm := &promptLLMStub{respond: func(context.Context, []llms.Turn) (string, error) {
		<-release
		return "Backend answer.", nil
	}}
	h := newHarness(t, WithLLM(llm), WithCommandEnv(fixedEnv()))
	h.activate(t)

	h.o.SendTranscript("tell me something")
	waitForState(t, h.o, StateProcessing)
	h.stt.say(t, "what time is it")
	h.events.waitFor(t, "suppressed transcript", func(e events.Event) bool {
		final, ok := e.(events.UserTranscriptFinal)
		return ok && final.Transcript == "what time is it"
	})
	close(release)

	if response := h.events.waitForResponse(t); response.Text != "Backend answer." {
		t.Fatalf("expected only the backend answer, got %q", response.Text)
	}
	h.events.waitForUnsuppressed(t)
	for _, event := range h.events.all() {
		if response, ok := event.(events.AssistantResponseFinal); ok && strings.HasPrefix(response.Text, "It's") {
			t.Fatalf("expected time query to be dropped while processing")
		}
	}
}

func TestStaleResponseAfterDeactivationIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	llm := &promptLLMStub{respond: func(context.Context, []llms.Turn) (string, error) {
		<-release
		return "Stale answer.", nil
	}}
	h := newHarness(t, WithLLM(llm))
	h.activate(t)

	h.o.SendTranscript("tell me something")
	waitForState(t, h.o, StateProcessing)
	h.o.SendTranscript("stop listening")
	waitForState(t, h.o, StateDormant)
	close(release)
	time.Sleep(50 * time.Millisecond)

	h.activate(t)
	for _, event := range h.events.all() {
		if response, ok := event.(events.AssistantResponseFinal); ok && response.Text == "Stale answer." {
			t.Fatalf("expected stale response to be discarded")
		}
	}
	if turns := h.o.Conversation(); len(turns) != 2 {
		t.Fatalf("expected a fresh context, got %+v", turns)
	}
}

func TestDeactivationClearsContext(t *testing.T) {
	llm := &promptLLMStub{respond: func(context.Context, []llms.Turn) (string, error) { return "Sure.", nil }}
	h := newHarness(t, WithLLM(llm))
	h.activate(t)

	h.o.SendTranscript("remember the number seven")
	h.events.waitForResponse(t)
	h.events.waitForUnsuppressed(t)

	h.stt.say(t, "Stop listening.")
	waitForState(t, h.o, StateDormant)
	if response := h.events.waitForResponse(t); response.Text != `Say "start" to activate` {
		t.Fatalf("unexpected deactivation response %q", response.Text)
	}
	if turns := h.o.Conversation(); len(turns) != 0 {
		t.Fatalf("expected empty context after deactivation, got %+v", turns)
	}
}

func TestConversationIncludesHistory(t *testing.T) {
	var mu sync.Mutex
	var lastTurns []llms.Turn
	llm := &promptLLMStub{respond: func(_ context.Context, turns []llms.Turn) (string, error) {
		mu.Lock()
		lastTurns = turns
		mu.Unlock()
		return fmt.Sprintf("Answer %d.", len(turns)), nil
	}}
	h := newHarness(t, WithLLM(llm))
	h.activate(t)

	h.o.SendTranscript("first question")
	h.events.waitForResponse(t)
	h.events.waitForUnsuppressed(t)
	h.o.SendTranscript("second question")
	h.events.waitForResponse(t)

	mu.Lock()
	defer mu.Unlock()
	if len(lastTurns) != 5 {
		t.Fatalf("expected preamble, first exchange and new question, got %+v", lastTurns)
	}
	if lastTurns[2].Content != "first question" || lastTurns[3].Content != "Answer 3." || lastTurns[4].Content != "second question" {
		t.Fatalf("unexpected turns %+v", lastTurns)
	}
}

func TestPrimingUtteranceIsSilentAndOnlyOnce(t *testing.T) {
	h := newHarness(t, WithCommandEnv(fixedEnv()))
	h.activate(t)

	h.o.SendTranscript("flip a coin")
	h.events.waitForResponse(t)
	h.events.waitForUnsuppressed(t)
	h.o.SendTranscript("roll a dice")
	h.events.waitForResponse(t)
	h.events.waitForUnsuppressed(t)

	utterances := h.tts.utterances()
	if len(utterances) != 3 {
		t.Fatalf("expected priming plus two replies, got %+v", utterances)
	}
	if utterances[0].Volume != 0 {
		t.Fatalf("expected the first utterance to be silent, got %+v", utterances[0])
	}
	for _, u := range utterances[1:] {
		if u.Volume == 0 {
			t.Fatalf("expected only one silent utterance, got %+v", utterances)
		}
	}
}

func TestChunkSynthesisFailureDoesNotStopPlayback(t *testing.T) {
	llm := &promptLLMStub{respond: func(context.Context, []llms.Turn) (string, error) {
		return "One. Two. Three.", nil
	}}
	h := &harness{
		stt:    &speechToTextStub{},
		tts:    &textToSpeechStub{failures: map[string]error{"One.": errors.New("synthesis failed")}},
		events: &eventRecorder{},
	}
	h.start(t, WithLLM(llm))
	h.activate(t)

	h.o.SendTranscript("count to three")
	h.events.waitForResponse(t)
	failed := h.events.waitFor(t, "failed chunk", func(e events.Event) bool {
		ended, ok := e.(events.AssistantSpeechChunkEnded)
		return ok && ended.Err != nil
	}).(events.AssistantSpeechChunkEnded)
	if failed.Chunk != "One." {
		t.Fatalf("expected the first chunk to fail, got %q", failed.Chunk)
	}
	h.events.waitForUnsuppressed(t)
	waitForState(t, h.o, StateListening)

	var spoken []string
	for _, u := range h.tts.utterances() {
		spoken = append(spoken, u.Text)
	}
	if strings.Join(spoken, "|") != "Ready.|One.|Two.|Three." {
		t.Fatalf("expected every chunk after the failure to be spoken, got %q", spoken)
	}
}

func TestRecognitionIsNeverStartedWhileSpeaking(t *testing.T) {
	var mu sync.Mutex
	var statesAtStart []State
	stt := &speechToTextStub{}
	h := &harness{stt: stt, tts: &textToSpeechStub{}, events: &eventRecorder{}}
	stt.onTranscribe = func() {
		mu.Lock()
		statesAtStart = append(statesAtStart, h.o.State())
		mu.Unlock()
	}
	h.start(t, WithCommandEnv(fixedEnv()))
	h.tts.hold = true
	h.activate(t)

	h.o.SendTranscript("what time is it")
	waitForState(t, h.o, StateSpeaking)
	h.stt.end(t)
	time.Sleep(30 * time.Millisecond)
	if got := stt.startCount(); got != 1 {
		t.Fatalf("expected no restart while speaking, got %d starts", got)
	}

	h.o.Interrupt()
	waitForState(t, h.o, StateListening)
	deadline := time.Now().Add(waitTimeout)
	for stt.startCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(statesAtStart) < 2 {
		t.Fatalf("expected recognition to restart after interrupt, got %v", statesAtStart)
	}
	for _, state := range statesAtStart {
		if state == StateSpeaking || state == StateProcessing {
			t.Fatalf("recognition started while %s", state)
		}
	}
}

func TestTransientRecognitionErrorsRestartSilently(t *testing.T) {
	h := newHarness(t)

	h.stt.fail(t, speechtotext.ErrorKindNoSpeech)
	deadline := time.Now().Add(waitTimeout)
	for h.stt.startCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	if got := h.stt.startCount(); got != 2 {
		t.Fatalf("expected recognition to restart once, got %d starts", got)
	}

	h.activate(t)
	for _, event := range h.events.all() {
		if _, ok := event.(events.OrchestratorError); ok {
			t.Fatalf("expected transient error to be swallowed, got %+v", event)
		}
	}
}

func TestUnsupportedRecognitionIsReportedOnce(t *testing.T) {
	h := &harness{tts: &textToSpeechStub{}, events: &eventRecorder{}}
	h.start(t)

	h.activate(t)
	h.o.SendTranscript("stop listening")
	waitForState(t, h.o, StateDormant)
	h.activate(t)

	reported := 0
	for _, event := range h.events.all() {
		if failure, ok := event.(events.OrchestratorError); ok {
			if !errors.Is(failure.Err, speechtotext.ErrUnsupported) {
				t.Fatalf("unexpected error %v", failure.Err)
			}
			reported++
		}
	}
	if reported != 1 {
		t.Fatalf("expected unsupported engine to be reported once, got %d", reported)
	}
}

func TestSettingsModeUpdatesVoicePreference(t *testing.T) {
	store := &settings.MemoryStore{}
	h := newHarness(t, WithSettingsStore(store))
	h.activate(t)

	h.o.SendTranscript("set speed to 1.5")
	h.events.waitForResponse(t)
	h.events.waitForUnsuppressed(t)
	if got := h.o.VoicePreference().Rate; got != settings.DefaultRate {
		t.Fatalf("expected settings commands to need settings mode, rate is %v", got)
	}

	h.o.SendTranscript("open settings")
	h.events.waitFor(t, "settings mode", func(e events.Event) bool {
		changed, ok := e.(events.WidgetSettingsModeChanged)
		return ok && changed.Open
	})
	h.events.waitForUnsuppressed(t)

	h.o.SendTranscript("set speed to 1.5")
	if response := h.events.waitForResponse(t); response.Text != "Speed set to 1.5." {
		t.Fatalf("unexpected confirmation %q", response.Text)
	}
	h.events.waitForUnsuppressed(t)

	if got := h.o.VoicePreference().Rate; got != 1.5 {
		t.Fatalf("expected rate 1.5, got %v", got)
	}
	saved, err := store.Load()
	if err != nil || saved.Rate != 1.5 {
		t.Fatalf("expected rate to be persisted, got %+v (%v)", saved, err)
	}

	utterances := h.tts.utterances()
	if last := utterances[len(utterances)-1]; last.Rate != 1.5 {
		t.Fatalf("expected new rate on the next chunk, got %+v", last)
	}
}

func TestSetVoiceUsesCatalogue(t *testing.T) {
	h := newHarness(t)
	h.tts.voices = []texttospeech.Voice{
		{ID: "aura-asteria-en", Name: "Asteria", Locale: "en-US"},
		{ID: "aura-orion-en", Name: "Orion", Locale: "en-US"},
	}
	h.activate(t)

	h.o.SendTranscript("open settings")
	h.events.waitForResponse(t)
	h.events.waitForUnsuppressed(t)

	h.o.SendTranscript("set voice to nobody")
	if response := h.events.waitForResponse(t); response.Text != "I couldn't find a voice named nobody." {
		t.Fatalf("unexpected response %q", response.Text)
	}
	h.events.waitForUnsuppressed(t)

	h.o.SendTranscript("set voice to orion")
	h.events.waitForResponse(t)
	h.events.waitForUnsuppressed(t)
	if id := h.o.VoicePreference().VoiceID; id == nil || *id != "aura-orion-en" {
		t.Fatalf("expected orion to be preferred, got %v", id)
	}
}

func TestUpdateVoicePreferenceRejectsOutOfRange(t *testing.T) {
	h := newHarness(t)

	err := h.o.UpdateVoicePreference(settings.VoicePreference{Rate: 3, Pitch: 1})
	if !errors.Is(err, settings.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if err := h.o.UpdateVoicePreference(settings.VoicePreference{Rate: 1, Pitch: math.NaN()}); !errors.Is(err, settings.ErrOutOfRange) {
		t.Fatalf("expected NaN pitch to be rejected, got %v", err)
	}

	if err := h.o.UpdateVoicePreference(settings.VoicePreference{Rate: 0.75, Pitch: 1.25}); err != nil {
		t.Fatalf("expected valid preference to be accepted, got %v", err)
	}
	deadline := time.Now().Add(waitTimeout)
	for h.o.VoicePreference().Rate != 0.75 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	if got := h.o.VoicePreference(); got.Rate != 0.75 || got.Pitch != 1.25 {
		t.Fatalf("expected preference to be applied, got %+v", got)
	}
}

func TestActivationGreetingIsSpoken(t *testing.T) {
	h := newHarness(t, WithActivationGreeting("Hello, sir."))
	h.activate(t)

	if response := h.events.waitForResponse(t); response.Text != "Hello, sir." {
		t.Fatalf("unexpected greeting %q", response.Text)
	}
}

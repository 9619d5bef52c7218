package orchestration

import (
	"context"
	"sync"
	"time"

	"github.com/koscakluka/ema-voice/core/events"
	"github.com/koscakluka/ema-voice/core/texttospeech"
)

// primingText is synthesized silently once before the first audible
// utterance so the speech engine is warm.
const primingText = "Ready."

type queuedChunk struct {
	text   string
	volume float64
}

func (c queuedChunk) audible() bool { return c.volume > 0 }

// playback is the chunk queue of the response being spoken. Callbacks
// carry the generation they were started with; a new response or a
// cancellation bumps it so late callbacks are ignored.
type playback struct {
	generation uint64
	active     bool
	primed     bool
	// announcing plays while a request is pending and leaves the state alone.
	announcing bool

	queue   []queuedChunk
	current queuedChunk

	ctx    context.Context
	cancel context.CancelFunc
}

// respond shows text as the final response and speaks it chunk by chunk.
func (o *Orchestrator) respond(text string, markdown bool) {
	o.cancelPlayback()
	o.emit(events.NewAssistantResponseFinal(text, markdown))

	chunks := texttospeech.SpeakableChunks(text)
	if len(chunks) == 0 {
		o.finishPlayback()
		return
	}

	o.startPlayback(chunks, false)
	o.settleGeneration++
	o.setState(StateSpeaking)
	o.speakNext()
}

// announce speaks text while a request is pending. The request's result
// cuts it short.
func (o *Orchestrator) announce(text string) {
	chunks := texttospeech.SpeakableChunks(text)
	if len(chunks) == 0 || o.state != StateProcessing {
		return
	}

	o.startPlayback(chunks, true)
	o.speakNext()
}

func (o *Orchestrator) startPlayback(chunks []string, announcing bool) {
	o.playback.generation++
	o.playback.queue = make([]queuedChunk, 0, len(chunks)+1)
	if !o.playback.primed {
		o.playback.primed = true
		o.playback.queue = append(o.playback.queue, queuedChunk{text: primingText, volume: 0})
	}
	for _, chunk := range chunks {
		o.playback.queue = append(o.playback.queue, queuedChunk{text: chunk, volume: texttospeech.DefaultVolume})
	}
	o.playback.ctx, o.playback.cancel = context.WithCancel(o.baseContext)
	o.playback.active = true
	o.playback.announcing = announcing
}

func (o *Orchestrator) speakNext() {
	if len(o.playback.queue) == 0 {
		o.finishPlayback()
		return
	}

	next := o.playback.queue[0]
	o.playback.queue = o.playback.queue[1:]
	o.playback.current = next

	generation := o.playback.generation
	ctx := o.playback.ctx
	utterance := o.utterance(next)

	// A client may report a failure through the callback and the return
	// value; the chunk finishes once.
	var finished sync.Once
	finish := func(err error) {
		finished.Do(func() {
			o.queue.Push(chunkFinished{generation: generation, chunk: next.text, err: err})
		})
	}

	go func() {
		err := o.speech.Speak(ctx, utterance,
			texttospeech.WithStartCallback(func() {
				if next.audible() {
					o.queue.Push(chunkStarted{generation: generation, chunk: next.text})
				}
			}),
			texttospeech.WithEndCallback(func() { finish(nil) }),
			texttospeech.WithErrorCallback(finish),
		)
		if err != nil {
			finish(err)
		}
	}()
}

// utterance applies the voice preference current at the time the chunk is
// started.
func (o *Orchestrator) utterance(chunk queuedChunk) texttospeech.Utterance {
	preference := o.VoicePreference()

	u := texttospeech.NewUtterance(chunk.text)
	u.Rate = preference.Rate
	u.Pitch = preference.Pitch
	u.Volume = chunk.volume
	if voice, ok := texttospeech.SelectVoice(preference.VoiceID, o.locale, o.speech.Voices()); ok {
		u.Voice = voice
	}
	return u
}

func (o *Orchestrator) handleChunkFinished(e chunkFinished) {
	if !o.playback.active || e.generation != o.playback.generation {
		return
	}

	if e.err != nil {
		logger.Warn("failed to speak chunk, skipping", "chunk", e.chunk, "error", e.err)
	}
	if o.playback.current.audible() {
		o.emit(events.NewAssistantSpeechChunkEnded(e.chunk, e.err))
	}
	o.speakNext()
}

// finishPlayback returns to listening but keeps results gated until the
// settle delay passes, so the tail of the assistant's own voice is not
// transcribed as a command.
func (o *Orchestrator) finishPlayback() {
	announcing := o.playback.announcing
	o.playback.active = false
	o.playback.announcing = false
	o.playback.queue = nil
	if o.playback.cancel != nil {
		o.playback.cancel()
		o.playback.cancel = nil
	}
	if announcing {
		return
	}

	if o.state.suppresses() {
		o.setState(StateListening)
	}
	o.scheduleSettle()
}

func (o *Orchestrator) scheduleSettle() {
	o.settleGeneration++
	generation := o.settleGeneration
	time.AfterFunc(o.settleDelay, func() {
		o.queue.Push(settleElapsed{generation: generation})
	})
}

func (o *Orchestrator) handleSettleElapsed(generation uint64) {
	if generation != o.settleGeneration || o.state.suppresses() {
		return
	}
	o.setSuppressed(false)
	o.startRecognition()
}

// cancelPlayback stops the response being spoken and drops its queue.
func (o *Orchestrator) cancelPlayback() bool {
	if !o.playback.active {
		return false
	}

	o.playback.active = false
	o.playback.announcing = false
	o.playback.generation++
	o.playback.queue = nil
	if o.playback.cancel != nil {
		o.playback.cancel()
		o.playback.cancel = nil
	}
	if err := o.speech.Cancel(); err != nil {
		logger.Warn("failed to cancel speech", "error", err)
	}
	o.emit(events.NewAssistantSpeechCancelled())
	return true
}

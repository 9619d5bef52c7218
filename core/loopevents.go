package orchestration

import (
	"github.com/koscakluka/ema-voice/core/llms"
	"github.com/koscakluka/ema-voice/core/settings"
	"github.com/koscakluka/ema-voice/core/speechtotext"
)

// loopEvent is anything the orchestrator loop reacts to. Handlers for each
// type live next to the state they change.
type loopEvent interface{ isLoopEvent() }

type transcriptReceived struct {
	text  string
	typed bool
}

type interimReceived struct{ text string }

type userSpeechChanged struct{ speaking bool }

type recognitionStarted struct{}

type recognitionEnded struct{}

type recognitionFailed struct {
	kind speechtotext.ErrorKind
	err  error
}

type recognitionRetry struct{}

type chunkStarted struct {
	generation uint64
	chunk      string
}

type chunkFinished struct {
	generation uint64
	chunk      string
	err        error
}

type settleElapsed struct{ generation uint64 }

// request identifies one backend call within one activation session.
type request struct {
	session string
	seq     uint64
}

type responsePartial struct {
	request
	text string
}

type responseResolved struct {
	request
	text string
	err  error
}

type imagesResolved struct {
	request
	prompt string
	images []llms.Image
	err    error
}

type interruptRequested struct{}

type preferenceUpdated struct{ preference settings.VoicePreference }

type audioCaptureFailed struct{ err error }

func (transcriptReceived) isLoopEvent() {}
func (interimReceived) isLoopEvent()    {}
func (userSpeechChanged) isLoopEvent()  {}
func (recognitionStarted) isLoopEvent() {}
func (recognitionEnded) isLoopEvent()   {}
func (recognitionFailed) isLoopEvent()  {}
func (recognitionRetry) isLoopEvent()   {}
func (chunkStarted) isLoopEvent()       {}
func (chunkFinished) isLoopEvent()      {}
func (settleElapsed) isLoopEvent()      {}
func (responsePartial) isLoopEvent()    {}
func (responseResolved) isLoopEvent()   {}
func (imagesResolved) isLoopEvent()     {}
func (interruptRequested) isLoopEvent() {}
func (preferenceUpdated) isLoopEvent()  {}
func (audioCaptureFailed) isLoopEvent() {}

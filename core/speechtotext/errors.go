package speechtotext

import "errors"

var (
	// ErrUnsupported means no recognition capability is available.
	ErrUnsupported = errors.New("speech recognition not supported")
	// ErrAlreadyStarted is returned when a session is started twice. Callers
	// that only want a session running can ignore it.
	ErrAlreadyStarted = errors.New("speech recognition already started")
)

type ErrorKind string

const (
	ErrorKindNoSpeech     ErrorKind = "no-speech"
	ErrorKindAudioCapture ErrorKind = "audio-capture"
	ErrorKindAborted      ErrorKind = "aborted"
	ErrorKindNetwork      ErrorKind = "network"
	ErrorKindNotAllowed   ErrorKind = "not-allowed"
	ErrorKindOther        ErrorKind = "other"
)

// IsTransient reports whether the error only ends the current session and
// recognition should simply be restarted.
func (k ErrorKind) IsTransient() bool {
	switch k {
	case ErrorKindNoSpeech, ErrorKindAudioCapture, ErrorKindAborted:
		return true
	}
	return false
}

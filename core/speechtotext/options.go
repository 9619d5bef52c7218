package speechtotext

import "github.com/koscakluka/ema-voice/core/audio"

type TranscriptionOptions struct {
	// StartedCallback is called once the recognition session is running.
	StartedCallback func()
	// EndedCallback is called when the recognition session stops, for any
	// reason. The session has to be started again to get more results.
	EndedCallback func()
	// ResultCallback receives interim (isFinal false) and final transcripts.
	ResultCallback func(transcript string, isFinal bool)
	// ErrorCallback receives recognition failures. A failure is normally
	// followed by EndedCallback.
	ErrorCallback func(kind ErrorKind, err error)

	SpeechStartedCallback func()
	SpeechEndedCallback   func()

	EncodingInfo audio.EncodingInfo
}

type TranscriptionOption func(*TranscriptionOptions)

func NewTranscriptionOptions(opts ...TranscriptionOption) TranscriptionOptions {
	options := TranscriptionOptions{EncodingInfo: audio.GetDefaultEncodingInfo()}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

func WithStartedCallback(callback func()) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.StartedCallback = callback
	}
}

func WithEndedCallback(callback func()) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.EndedCallback = callback
	}
}

func WithResultCallback(callback func(transcript string, isFinal bool)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.ResultCallback = callback
	}
}

func WithErrorCallback(callback func(kind ErrorKind, err error)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.ErrorCallback = callback
	}
}

func WithSpeechStartedCallback(callback func()) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.SpeechStartedCallback = callback
	}
}

func WithSpeechEndedCallback(callback func()) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.SpeechEndedCallback = callback
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		if !encodingInfo.IsZero() {
			o.EncodingInfo = encodingInfo
		}
	}
}

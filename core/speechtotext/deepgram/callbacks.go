package deepgram

import "github.com/koscakluka/ema-voice/core/speechtotext"

type callbackConfig struct {
	startedCallback     func()
	endedCallback       func()
	resultCallback      func(transcript string, isFinal bool)
	errorCallback       func(kind speechtotext.ErrorKind, err error)
	startSpeechCallback func()
	endSpeechCallback   func()
}

type websocketConfig struct {
	shouldDetectSpeechStart            bool
	shouldEnhanceSpeechEndingDetection bool
	shouldRequestInterimResults        bool
}

// newCallbackConfig fills unset callbacks with no-ops and derives which
// optional Deepgram features the session needs.
func newCallbackConfig(options speechtotext.TranscriptionOptions) (callbackConfig, websocketConfig) {
	callbacks := callbackConfig{
		startedCallback:     func() {},
		endedCallback:       func() {},
		resultCallback:      func(string, bool) {},
		errorCallback:       func(speechtotext.ErrorKind, error) {},
		startSpeechCallback: func() {},
		endSpeechCallback:   func() {},
	}

	if options.StartedCallback != nil {
		callbacks.startedCallback = options.StartedCallback
	}
	if options.EndedCallback != nil {
		callbacks.endedCallback = options.EndedCallback
	}
	if options.ResultCallback != nil {
		callbacks.resultCallback = options.ResultCallback
	}
	if options.ErrorCallback != nil {
		callbacks.errorCallback = options.ErrorCallback
	}
	if options.SpeechStartedCallback != nil {
		callbacks.startSpeechCallback = options.SpeechStartedCallback
	}
	if options.SpeechEndedCallback != nil {
		callbacks.endSpeechCallback = options.SpeechEndedCallback
	}

	return callbacks, websocketConfig{
		shouldDetectSpeechStart:            options.SpeechStartedCallback != nil,
		shouldEnhanceSpeechEndingDetection: options.ResultCallback != nil || options.SpeechEndedCallback != nil,
		shouldRequestInterimResults:        options.ResultCallback != nil,
	}
}

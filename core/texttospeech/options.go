package texttospeech

import "github.com/koscakluka/ema-voice/core/audio"

const (
	DefaultRate   = 1.0
	DefaultPitch  = 1.0
	DefaultVolume = 1.0
)

// Utterance is one unit of synthesis handed to a speech client.
type Utterance struct {
	Text  string
	Voice Voice
	Rate  float64
	Pitch float64
	// Volume is in [0, 1]. Zero still runs the full synthesis path but
	// produces no audible output.
	Volume float64
}

func NewUtterance(text string) Utterance {
	return Utterance{
		Text:   text,
		Rate:   DefaultRate,
		Pitch:  DefaultPitch,
		Volume: DefaultVolume,
	}
}

type SpeakOptions struct {
	// StartCallback is called once audio for the utterance starts.
	StartCallback func()
	// EndCallback is called once the utterance has finished playing.
	EndCallback func()
	// ErrorCallback is called instead of EndCallback when synthesis fails.
	// It is not called for cancelled utterances.
	ErrorCallback func(error)

	EncodingInfo audio.EncodingInfo
}

type SpeakOption func(*SpeakOptions)

func NewSpeakOptions(opts ...SpeakOption) SpeakOptions {
	options := SpeakOptions{
		StartCallback: func() {},
		EndCallback:   func() {},
		ErrorCallback: func(error) {},
		EncodingInfo:  audio.GetDefaultEncodingInfo(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

func WithStartCallback(callback func()) SpeakOption {
	return func(o *SpeakOptions) {
		if callback != nil {
			o.StartCallback = callback
		}
	}
}

func WithEndCallback(callback func()) SpeakOption {
	return func(o *SpeakOptions) {
		if callback != nil {
			o.EndCallback = callback
		}
	}
}

func WithErrorCallback(callback func(error)) SpeakOption {
	return func(o *SpeakOptions) {
		if callback != nil {
			o.ErrorCallback = callback
		}
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) SpeakOption {
	return func(o *SpeakOptions) {
		if encodingInfo.IsZero() {
			return
		}

		o.EncodingInfo = encodingInfo
	}
}

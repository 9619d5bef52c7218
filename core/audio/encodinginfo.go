package audio

import "time"

const (
	DefaultSampleRate = 16000
	DefaultFormat     = EncodingLinear16
)

func GetDefaultEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: DefaultSampleRate, Format: DefaultFormat}
}

type EncodingInfo struct {
	SampleRate int
	Format     encodingFormat
}

func (e EncodingInfo) IsZero() bool {
	return e.SampleRate == 0 || e.Format.Name() == ""
}

func (e EncodingInfo) SilenceValue() byte {
	switch e.Format {
	case EncodingALaw:
		return 0x55
	case EncodingMulaw:
		return 0xFF
	case EncodingLinear16:
		return 0
	}

	return 0
}

// Duration reports how long byteCount bytes of audio play for.
func (e EncodingInfo) Duration(byteCount int) time.Duration {
	size := e.Format.ByteSize()
	if e.SampleRate <= 0 || size <= 0 {
		return 0
	}

	samples := byteCount / size
	return time.Duration(samples) * time.Second / time.Duration(e.SampleRate)
}

// ByteCount is the inverse of Duration, rounded down to a whole sample.
func (e EncodingInfo) ByteCount(d time.Duration) int {
	size := e.Format.ByteSize()
	if e.SampleRate <= 0 || size <= 0 || d <= 0 {
		return 0
	}

	return int(int64(d)*int64(e.SampleRate)/int64(time.Second)) * size
}

type encodingFormat string

func (e encodingFormat) Name() string {
	return string(e)
}

func (e encodingFormat) ByteSize() int {
	switch e {
	case EncodingMulaw, EncodingALaw:
		return 1
	case EncodingLinear16:
		return 2
	}
	return -1
}

const (
	EncodingMulaw    encodingFormat = "mulaw"
	EncodingALaw     encodingFormat = "alaw"
	EncodingLinear16 encodingFormat = "linear16"
)

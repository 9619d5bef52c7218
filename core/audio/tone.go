package audio

import (
	"encoding/binary"
	"math"
	"time"
)

// Tone is a short sine cue played on activation changes.
type Tone struct {
	Name      string
	Frequency float64
	Duration  time.Duration
	Volume    float64
}

var (
	ActivationTone   = Tone{Name: "activation", Frequency: 880, Duration: 150 * time.Millisecond, Volume: 0.3}
	DeactivationTone = Tone{Name: "deactivation", Frequency: 440, Duration: 150 * time.Millisecond, Volume: 0.3}
)

const toneFade = 10 * time.Millisecond

// PCM renders the tone as linear16 samples at the sample rate of info.
// The first and last few milliseconds are faded to avoid clicks.
func (t Tone) PCM(info EncodingInfo) []byte {
	if info.SampleRate <= 0 || t.Duration <= 0 {
		return nil
	}

	sampleCount := int(int64(t.Duration) * int64(info.SampleRate) / int64(time.Second))
	fadeCount := int(int64(toneFade) * int64(info.SampleRate) / int64(time.Second))
	fadeCount = min(fadeCount, sampleCount/2)

	volume := max(min(t.Volume, 1), 0)
	pcm := make([]byte, sampleCount*2)
	for i := range sampleCount {
		envelope := 1.0
		if fadeCount > 0 {
			if i < fadeCount {
				envelope = float64(i) / float64(fadeCount)
			} else if remaining := sampleCount - i - 1; remaining < fadeCount {
				envelope = float64(remaining) / float64(fadeCount)
			}
		}

		phase := 2 * math.Pi * t.Frequency * float64(i) / float64(info.SampleRate)
		sample := math.Sin(phase) * volume * envelope * math.MaxInt16
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(sample)))
	}

	return pcm
}

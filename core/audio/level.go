package audio

import (
	"encoding/binary"
	"math"
)

// Level returns the RMS amplitude of a linear16 frame normalized to [0, 1].
// Frames in other encodings report 0.
func Level(frame []byte, info EncodingInfo) float64 {
	if info.Format != EncodingLinear16 || len(frame) < 2 {
		return 0
	}

	samples := len(frame) / 2
	var sum float64
	for i := range samples {
		sample := float64(int16(binary.LittleEndian.Uint16(frame[i*2:])))
		sum += sample * sample
	}

	level := math.Sqrt(sum/float64(samples)) / math.MaxInt16
	return min(level, 1)
}

// Scale multiplies every linear16 sample by volume, clamping to the int16
// range. Volume 1 returns the frame untouched, other encodings are silenced
// only when volume is 0.
func Scale(frame []byte, info EncodingInfo, volume float64) []byte {
	if volume == 1 {
		return frame
	}

	scaled := make([]byte, len(frame))
	if volume <= 0 {
		silence := info.SilenceValue()
		for i := range scaled {
			scaled[i] = silence
		}
		return scaled
	}

	if info.Format != EncodingLinear16 {
		copy(scaled, frame)
		return scaled
	}

	for i := 0; i+1 < len(frame); i += 2 {
		sample := float64(int16(binary.LittleEndian.Uint16(frame[i:]))) * volume
		sample = max(min(sample, math.MaxInt16), math.MinInt16)
		binary.LittleEndian.PutUint16(scaled[i:], uint16(int16(sample)))
	}
	return scaled
}

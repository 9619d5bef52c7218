package audio

import (
	"encoding/binary"
	"testing"
	"time"
)

func linear16(samples ...int16) []byte {
	frame := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(frame[i*2:], uint16(sample))
	}
	return frame
}

func TestLevelOfSilenceIsZero(t *testing.T) {
	if got := Level(linear16(0, 0, 0, 0), GetDefaultEncodingInfo()); got != 0 {
		t.Fatalf("expected silent frame level 0, got %f", got)
	}
}

func TestLevelOfFullScaleFrameIsOne(t *testing.T) {
	got := Level(linear16(32767, -32767, 32767, -32767), GetDefaultEncodingInfo())
	if got < 0.999 || got > 1 {
		t.Fatalf("expected full-scale level close to 1, got %f", got)
	}
}

func TestLevelIgnoresNonLinearEncodings(t *testing.T) {
	info := EncodingInfo{SampleRate: 8000, Format: EncodingMulaw}
	if got := Level([]byte{1, 2, 3, 4}, info); got != 0 {
		t.Fatalf("expected mulaw level 0, got %f", got)
	}
}

func TestScaleZeroVolumeSilencesFrame(t *testing.T) {
	scaled := Scale(linear16(1000, -1000), GetDefaultEncodingInfo(), 0)
	for i, b := range scaled {
		if b != 0 {
			t.Fatalf("expected silent byte at %d, got %d", i, b)
		}
	}
}

func TestScaleHalvesSamples(t *testing.T) {
	scaled := Scale(linear16(1000, -1000), GetDefaultEncodingInfo(), 0.5)
	first := int16(binary.LittleEndian.Uint16(scaled[0:]))
	second := int16(binary.LittleEndian.Uint16(scaled[2:]))
	if first != 500 || second != -500 {
		t.Fatalf("expected samples [500 -500], got [%d %d]", first, second)
	}
}

func TestDurationAndByteCountAgree(t *testing.T) {
	info := GetDefaultEncodingInfo()
	bytes := info.ByteCount(250 * time.Millisecond)
	if bytes != 8000 {
		t.Fatalf("expected 8000 bytes for 250ms of 16kHz linear16, got %d", bytes)
	}
	if got := info.Duration(bytes); got != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %s", got)
	}
}

func TestTonePCMLengthMatchesDuration(t *testing.T) {
	info := GetDefaultEncodingInfo()
	pcm := ActivationTone.PCM(info)
	if got, want := len(pcm), info.ByteCount(ActivationTone.Duration); got != want {
		t.Fatalf("expected %d bytes, got %d", want, got)
	}
	if first := int16(binary.LittleEndian.Uint16(pcm[0:])); first != 0 {
		t.Fatalf("expected faded-in first sample 0, got %d", first)
	}
	if Level(pcm, info) == 0 {
		t.Fatalf("expected audible tone")
	}
}

package orchestration

import (
	"context"
	"sync/atomic"

	"github.com/koscakluka/ema-voice/core/audio"
)

// microphone is the input tap shared by recognition and the level meter.
// It is started once and held until Close.
type microphone struct {
	// client stores the configured input used for streaming audio.
	client AudioInput

	// capturing reports whether Stream succeeded and has not failed since.
	capturing atomic.Bool
	// levelsEnabled gates level reporting for the visualizer.
	levelsEnabled atomic.Bool
}

func (m *microphone) set(client AudioInput) {
	if m != nil {
		m.client = client
	}
}

func (m *microphone) isConfigured() bool { return m != nil && m.client != nil }

func (m *microphone) EncodingInfo() audio.EncodingInfo {
	if !m.isConfigured() {
		return audio.GetDefaultEncodingInfo()
	}

	return m.client.EncodingInfo()
}

// Start acquires the tap in the background. onFailure is called if the
// input cannot be opened.
func (m *microphone) Start(ctx context.Context, onAudio func([]byte), onFailure func(error)) {
	if !m.isConfigured() {
		return
	}

	if !m.capturing.CompareAndSwap(false, true) {
		return
	}

	go func() {
		if err := m.client.Stream(ctx, onAudio); err != nil {
			m.capturing.Store(false)
			onFailure(err)
		}
	}()
}

func (m *microphone) IsCapturing() bool { return m != nil && m.capturing.Load() }

func (m *microphone) SetLevelsEnabled(enabled bool) {
	if m != nil {
		m.levelsEnabled.Store(enabled)
	}
}

func (m *microphone) LevelsEnabled() bool { return m != nil && m.levelsEnabled.Load() }

func (m *microphone) Close(ctx context.Context) error {
	if !m.isConfigured() {
		return nil
	}

	m.capturing.Store(false)
	return closeClient(ctx, m.client)
}

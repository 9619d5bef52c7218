package miniaudio

import (
	"context"
	"fmt"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-voice/core/audio"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

var logger = otelslog.NewLogger("github.com/koscakluka/ema-voice/core/audio/miniaudio")

// Client captures the microphone and plays synthesized speech and tones
// through the default devices. Both run mono linear16 at
// audio.DefaultSampleRate.
type Client struct {
	// audioContext is kept only so it can be released on Close.
	audioContext *malgo.AllocatedContext

	recorder recorder
	player   player
}

func NewClient() (*Client, error) {
	audioContext, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		logger.Debug("malgo", "message", message)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	client := &Client{audioContext: audioContext}
	if err := client.player.init(audioContext); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize playback: %w", err)
	}
	if err := client.player.start(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to start playback: %w", err)
	}
	if err := client.recorder.init(audioContext); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize capture: %w", err)
	}

	return client, nil
}

func (c *Client) EncodingInfo() audio.EncodingInfo { return audio.GetDefaultEncodingInfo() }

// Stream starts capturing and returns. Capture stops when ctx is done.
func (c *Client) Stream(ctx context.Context, onAudio func(audio []byte)) error {
	if err := c.recorder.start(onAudio); err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		if err := c.recorder.stop(); err != nil {
			logger.Warn("failed to stop capture", "error", err)
		}
	}()
	return nil
}

func (c *Client) SendAudio(audio []byte) error { return c.player.enqueue(audio) }

// Mark calls callback once everything sent before it has been played.
func (c *Client) Mark(mark string, callback func(string)) error {
	c.player.mark(mark, callback)
	return nil
}

func (c *Client) ClearBuffer() { c.player.clear() }

func (c *Client) PlayTone(tone audio.Tone) error {
	return c.player.enqueue(tone.PCM(c.EncodingInfo()))
}

func (c *Client) Close() {
	c.recorder.uninit()
	c.player.uninit()
	if c.audioContext != nil {
		_ = c.audioContext.Uninit()
		c.audioContext.Free()
		c.audioContext = nil
	}
}

func deviceConfig(deviceType malgo.DeviceType) malgo.DeviceConfig {
	config := malgo.DefaultDeviceConfig(deviceType)
	config.SampleRate = uint32(audio.DefaultSampleRate)
	config.Alsa.NoMMap = 1
	switch deviceType {
	case malgo.Capture:
		config.Capture.Format = malgo.FormatS16
		config.Capture.Channels = 1
		config.PerformanceProfile = malgo.LowLatency
		config.PeriodSizeInFrames = 480
		config.Periods = 3
	case malgo.Playback:
		config.Playback.Format = malgo.FormatS16
		config.Playback.Channels = 1
		config.PeriodSizeInFrames = uint32(audio.DefaultSampleRate / 10) // ~100ms
		config.Periods = 4
	}
	return config
}

func bytesPerFrame() int { return malgo.SampleSizeInBytes(malgo.FormatS16) }

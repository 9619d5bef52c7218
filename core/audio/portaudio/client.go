package portaudio

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/koscakluka/ema-voice/core/audio"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const DefaultFramesPerBuffer = 480

var logger = otelslog.NewLogger("github.com/koscakluka/ema-voice/core/audio/portaudio")

// Client captures the default input device. It is an alternative to the
// miniaudio client on hosts where only PortAudio is available, and has no
// playback.
type Client struct {
	mu      sync.Mutex
	stream  *portaudio.Stream
	samples []int16
	running bool
}

func NewClient(framesPerBuffer int) (*Client, error) {
	if framesPerBuffer <= 0 {
		framesPerBuffer = DefaultFramesPerBuffer
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	samples := make([]int16, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(1, 0, audio.DefaultSampleRate, framesPerBuffer, samples)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to open input stream: %w", err)
	}

	return &Client{stream: stream, samples: samples}, nil
}

func (c *Client) EncodingInfo() audio.EncodingInfo { return audio.GetDefaultEncodingInfo() }

// Stream starts reading the input in the background and returns. Reading
// stops when ctx is done.
func (c *Client) Stream(ctx context.Context, onAudio func(audio []byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return nil
	}
	if err := c.stream.Start(); err != nil {
		return fmt.Errorf("failed to start input stream: %w", err)
	}
	c.running = true

	go c.read(ctx, onAudio)
	return nil
}

func (c *Client) read(ctx context.Context, onAudio func(audio []byte)) {
	defer func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.running = false
		if err := c.stream.Stop(); err != nil {
			logger.Warn("failed to stop input stream", "error", err)
		}
	}()

	for ctx.Err() == nil {
		if err := c.stream.Read(); err != nil {
			if err == portaudio.InputOverflowed {
				continue
			}
			logger.Warn("failed to read input stream", "error", err)
			return
		}

		frame := make([]byte, len(c.samples)*2)
		for i, sample := range c.samples {
			binary.LittleEndian.PutUint16(frame[i*2:], uint16(sample))
		}
		onAudio(frame)
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.stream.Close()
	if terminateErr := portaudio.Terminate(); err == nil {
		err = terminateErr
	}
	return err
}

package miniaudio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

var errNotInitialized = errors.New("device not initialized")

type recorder struct {
	mu      sync.Mutex
	device  *malgo.Device
	onAudio func(audio []byte)
}

func (r *recorder) init(audioContext *malgo.AllocatedContext) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	frameSize := bytesPerFrame()
	device, err := malgo.InitDevice(audioContext.Context, deviceConfig(malgo.Capture), malgo.DeviceCallbacks{
		Data: func(_, input []byte, frameCount uint32) {
			n := int(frameCount) * frameSize
			if n == 0 || len(input) < n {
				return
			}

			r.mu.Lock()
			onAudio := r.onAudio
			r.mu.Unlock()
			if onAudio != nil {
				frame := make([]byte, n)
				copy(frame, input[:n])
				onAudio(frame)
			}
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize capture device: %w", err)
	}

	r.device = device
	return nil
}

func (r *recorder) start(onAudio func(audio []byte)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.device == nil {
		return errNotInitialized
	}

	r.onAudio = onAudio
	if r.device.IsStarted() {
		return nil
	}
	if err := r.device.Start(); err != nil {
		r.onAudio = nil
		return fmt.Errorf("failed to start capture device: %w", err)
	}
	return nil
}

func (r *recorder) stop() error {
	r.mu.Lock()
	device := r.device
	r.onAudio = nil
	r.mu.Unlock()

	if device == nil || !device.IsStarted() {
		return nil
	}
	if err := device.Stop(); err != nil {
		return fmt.Errorf("failed to stop capture device: %w", err)
	}
	return nil
}

func (r *recorder) uninit() {
	r.mu.Lock()
	device := r.device
	r.device = nil
	r.onAudio = nil
	r.mu.Unlock()

	if device != nil {
		device.Uninit()
	}
}

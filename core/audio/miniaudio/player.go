package miniaudio

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

type playbackMark struct {
	name string
	// position is the number of buffered bytes that play before the mark.
	position int
	callback func(string)
}

type player struct {
	deviceMu sync.Mutex
	device   *malgo.Device

	mu      sync.Mutex
	pending []byte
	marks   []playbackMark
}

func (p *player) init(audioContext *malgo.AllocatedContext) error {
	p.deviceMu.Lock()
	defer p.deviceMu.Unlock()

	device, err := malgo.InitDevice(audioContext.Context, deviceConfig(malgo.Playback), malgo.DeviceCallbacks{
		Data: p.fill(bytesPerFrame()),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	p.device = device
	return nil
}

func (p *player) start() error {
	p.deviceMu.Lock()
	defer p.deviceMu.Unlock()
	if p.device == nil {
		return errNotInitialized
	}
	if err := p.device.Start(); err != nil {
		return fmt.Errorf("failed to start playback device: %w", err)
	}
	return nil
}

func (p *player) enqueue(audio []byte) error {
	p.deviceMu.Lock()
	started := p.device != nil && p.device.IsStarted()
	p.deviceMu.Unlock()
	if !started {
		return fmt.Errorf("playback device not started")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, audio...)
	return nil
}

func (p *player) mark(name string, callback func(string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.marks = append(p.marks, playbackMark{name: name, position: len(p.pending), callback: callback})
}

// clear drops buffered audio. Pending marks are dropped without being
// called.
func (p *player) clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = nil
	p.marks = nil
}

func (p *player) fill(frameSize int) malgo.DataProc {
	return func(output, _ []byte, frameCount uint32) {
		need := min(int(frameCount)*frameSize, len(output))

		p.mu.Lock()
		n := copy(output[:need], p.pending)
		p.pending = p.pending[n:]
		passed := p.advanceMarks(n)
		p.mu.Unlock()

		clear(output[n:need])
		if len(passed) > 0 {
			go func() {
				for _, mark := range passed {
					mark.callback(mark.name)
				}
			}()
		}
	}
}

// advanceMarks moves marks by played bytes and returns those reached. When
// the buffer runs dry every remaining mark is reached.
func (p *player) advanceMarks(played int) []playbackMark {
	reached := 0
	for i := range p.marks {
		p.marks[i].position -= played
		if p.marks[i].position <= 0 || len(p.pending) == 0 {
			reached = i + 1
		}
	}

	passed := p.marks[:reached]
	p.marks = p.marks[reached:]
	return passed
}

func (p *player) uninit() {
	p.deviceMu.Lock()
	device := p.device
	p.device = nil
	p.deviceMu.Unlock()

	if device != nil {
		device.Uninit()
	}
	p.clear()
}

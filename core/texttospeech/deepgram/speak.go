package deepgram

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-voice/core/audio"
	"github.com/koscakluka/ema-voice/core/texttospeech"
)

type utteranceRequest struct {
	id      string
	ws      *websocket.Conn
	options texttospeech.SpeakOptions
	volume  float64
	output  AudioOutput

	mu        sync.Mutex
	started   bool
	cancelled bool
	finished  bool
	closed    bool
}

func (r *utteranceRequest) processIncomingMessages(onDone func()) {
	defer onDone()

	for {
		msgType, msg, err := r.ws.ReadMessage()
		if err != nil {
			if r.isCancelled() || r.isFinished() {
				return
			}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				logger.Warn("deepgram speak websocket read failed", "error", err)
			}
			r.fail(fmt.Errorf("speech synthesis interrupted: %w", err))
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			r.onAudio(msg)
		case websocket.TextMessage:
			var parsedMsg struct {
				Type        string `json:"type"`
				Description string `json:"description"`
			}
			if err := json.Unmarshal(msg, &parsedMsg); err != nil {
				logger.Debug("failed to unmarshal deepgram message", "error", err)
				continue
			}

			switch parsedMsg.Type {
			case "Flushed":
				r.onFlushed()
			case "Error", "Warning":
				logger.Warn("deepgram speak message", "type", parsedMsg.Type, "description", parsedMsg.Description)
				if parsedMsg.Type == "Error" {
					r.fail(errors.New(parsedMsg.Description))
					return
				}
			}
		}
	}
}

func (r *utteranceRequest) onAudio(chunk []byte) {
	if len(chunk) == 0 || r.isCancelled() {
		return
	}

	r.mu.Lock()
	first := !r.started
	r.started = true
	r.mu.Unlock()
	if first {
		r.options.StartCallback()
	}

	if r.output == nil {
		return
	}
	if err := r.output.SendAudio(audio.Scale(chunk, r.options.EncodingInfo, r.volume)); err != nil {
		logger.Warn("failed to play synthesized audio", "error", err)
	}
}

func (r *utteranceRequest) onFlushed() {
	if r.output == nil {
		r.finish()
		return
	}

	if err := r.output.Mark(r.id, func(string) { r.finish() }); err != nil {
		logger.Warn("failed to mark end of utterance", "error", err)
		r.finish()
	}
}

func (r *utteranceRequest) finish() {
	r.mu.Lock()
	if r.finished || r.cancelled {
		r.mu.Unlock()
		return
	}
	r.finished = true
	started := r.started
	r.mu.Unlock()

	if !started {
		r.options.StartCallback()
	}
	r.options.EndCallback()
	r.close()
}

func (r *utteranceRequest) fail(err error) {
	r.mu.Lock()
	if r.finished || r.cancelled {
		r.mu.Unlock()
		return
	}
	r.finished = true
	r.mu.Unlock()

	r.options.ErrorCallback(err)
	r.close()
}

func (r *utteranceRequest) cancel() {
	r.mu.Lock()
	if r.finished || r.cancelled {
		r.mu.Unlock()
		return
	}
	r.cancelled = true
	r.mu.Unlock()

	_ = r.sendWebsocketMessage(clearMsg)
	r.close()
}

func (r *utteranceRequest) close() {
	if err := r.sendWebsocketMessage(closeMsg); err != nil {
		logger.Debug("failed to send close message", "error", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	_ = r.ws.Close()
}

func (r *utteranceRequest) isCancelled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelled
}

func (r *utteranceRequest) isFinished() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finished
}

type websocketMessage struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

var (
	sendTextMsg = func(text string) websocketMessage { return websocketMessage{Type: "Speak", Text: text} }
	flushMsg    = websocketMessage{Type: "Flush"}
	clearMsg    = websocketMessage{Type: "Clear"}
	closeMsg    = websocketMessage{Type: "Close"}
)

func (r *utteranceRequest) sendWebsocketMessage(msg websocketMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return fmt.Errorf("websocket connection closed")
	}

	if err := r.ws.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write to websocket: %w", err)
	}
	return nil
}

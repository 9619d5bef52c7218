package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-voice/core/audio"
	"github.com/koscakluka/ema-voice/core/speechtotext"
	"github.com/koscakluka/ema-voice/internal/utils"
)

// Transcribe opens a recognition session. It returns
// [speechtotext.ErrAlreadyStarted] if one is already open.
func (s *TranscriptionClient) Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error {
	if !s.running.CompareAndSwap(false, true) {
		return speechtotext.ErrAlreadyStarted
	}

	options := speechtotext.NewTranscriptionOptions(opts...)
	callbacks, wsConfig := newCallbackConfig(options)

	encoding, err := convertEncoding(options.EncodingInfo)
	if err != nil {
		s.running.Store(false)
		return fmt.Errorf("invalid encoding: %w", err)
	}

	conn, err := s.connectWebsocket(ctx, connectionOptions{
		sampleRate:      encoding.SampleRate,
		encoding:        encoding.Format.Name(),
		websocketConfig: wsConfig,
	})
	if err != nil {
		s.running.Store(false)
		return fmt.Errorf("failed to open websocket: %w", err)
	}

	s.connMu.Lock()
	s.conn = conn
	s.lastMsgTs = time.Now()
	s.connMu.Unlock()

	callbacks.startedCallback()
	go s.readAndProcessMessages(ctx, conn, callbacks, options.EncodingInfo)

	return nil
}

type connectionOptions struct {
	sampleRate int
	encoding   string

	websocketConfig
}

func (s *TranscriptionClient) connectWebsocket(ctx context.Context, options connectionOptions) (*websocket.Conn, error) {
	apiKey := s.apiKey
	if apiKey == "" {
		var ok bool
		if apiKey, ok = os.LookupEnv("DEEPGRAM_API_KEY"); !ok {
			return nil, fmt.Errorf("deepgram api key not found")
		}
	}

	listenUrl, err := url.Parse(s.listenURL)
	if err != nil {
		return nil, fmt.Errorf("invalid listen url: %w", err)
	}
	queryParams := listenUrl.Query()
	queryParams.Set("encoding", options.encoding)
	queryParams.Set("sample_rate", strconv.Itoa(options.sampleRate))
	queryParams.Set("channels", "1")
	queryParams.Set("model", s.model)
	queryParams.Set("language", s.language)
	queryParams.Set("smart_format", "true")
	if options.shouldEnhanceSpeechEndingDetection {
		queryParams.Set("utterance_end_ms", "1000")
		queryParams.Set("interim_results", "true")
	} else if options.shouldRequestInterimResults {
		queryParams.Set("interim_results", "true")
	}
	queryParams.Set("endpointing", "300")
	if options.shouldDetectSpeechStart || options.shouldEnhanceSpeechEndingDetection {
		queryParams.Set("vad_events", "true")
	}

	listenUrl.RawQuery = queryParams.Encode()
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, listenUrl.String(),
		http.Header{"Authorization": {"Token " + apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}

func (s *TranscriptionClient) sendKeepAlive() {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return
	}
	if err := s.conn.WriteJSON(
		struct {
			Type string `json:"type"`
		}{
			Type: "KeepAlive",
		}); err != nil {
		logger.Warn("failed to write keep-alive to deepgram", "error", err)
	}
}

func (s *TranscriptionClient) SendAudio(audio []byte) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return ErrNotConnected
	}

	s.lastMsgTs = time.Now()
	if err := s.conn.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		return fmt.Errorf("failed to write to deepgram client: %w", err)
	}
	return nil
}

func (s *TranscriptionClient) sendSilence(audio []byte) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return ErrNotConnected
	}
	if err := s.conn.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		return fmt.Errorf("failed to write to deepgram client: %w", err)
	}
	return nil
}

func (s *TranscriptionClient) sinceLastMessage() time.Duration {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	return time.Since(s.lastMsgTs)
}

// StopStream asks Deepgram to finish the session. Pending results are still
// delivered before the session ends.
func (s *TranscriptionClient) StopStream() error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn != nil {
		if err := s.conn.WriteJSON(struct {
			Type string `json:"type"`
		}{Type: string(api.TypeCloseStreamResponse)}); err != nil {
			return fmt.Errorf("failed to close deepgram stream through websocket: %w", err)
		}
	}
	return nil
}

// Close ends the session immediately.
func (s *TranscriptionClient) Close(context.Context) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return nil
	}

	err := s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if closeErr := s.conn.Close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}
	return err
}

func (s *TranscriptionClient) readAndProcessMessages(ctx context.Context, conn *websocket.Conn, callbacks callbackConfig, encodingInfo audio.EncodingInfo) {
	silenceCtx, silenceCancel := context.WithCancel(ctx)
	defer silenceCancel()

	go s.generateSilence(silenceCtx, encodingInfo)
	go func() {
		<-silenceCtx.Done()
		if ctx.Err() != nil {
			_ = conn.Close()
		}
	}()

	defer func() {
		s.connMu.Lock()
		if s.conn == conn {
			s.conn = nil
		}
		s.connMu.Unlock()
		_ = conn.Close()

		s.accumulatedTranscript = ""
		s.unendedSegment = false
		s.running.Store(false)
		callbacks.endedCallback()
	}()

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			switch {
			case ctx.Err() != nil:
				callbacks.errorCallback(speechtotext.ErrorKindAborted, ctx.Err())
			case websocket.IsCloseError(err, websocket.CloseNormalClosure):
			default:
				logger.Warn("failed to read deepgram websocket message", "error", err)
				callbacks.errorCallback(speechtotext.ErrorKindNetwork, err)
			}
			return
		}
		if msgType != websocket.BinaryMessage {
			s.processMessage(msg, callbacks)
		}
	}
}

func (s *TranscriptionClient) processMessage(msg []byte, callbacks callbackConfig) {
	var parsedMsg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		logger.Warn("failed to unmarshal deepgram message", "error", err)
		return
	}

	switch api.TypeResponse(parsedMsg.Type) {
	case api.TypeMessageResponse:
		var msgResp api.MessageResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			logger.Warn("failed to unmarshal deepgram results", "error", err)
			return
		}

		transcript := ""
		if len(msgResp.Channel.Alternatives) > 0 {
			transcript = strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript)
		}

		if msgResp.IsFinal {
			if len(transcript) > 0 {
				s.accumulatedTranscript += " " + transcript
				s.unendedSegment = true
			}
			if msgResp.SpeechFinal {
				s.onSpeechEnded(callbacks)
			}
			return
		}

		if len(transcript) > 0 {
			callbacks.resultCallback(strings.TrimSpace(s.accumulatedTranscript+" "+transcript), false)
		}

	case api.TypeUtteranceEndResponse:
		if s.unendedSegment {
			s.onSpeechEnded(callbacks)
		}

	case api.TypeSpeechStartedResponse:
		s.unendedSegment = true
		callbacks.startSpeechCallback()
	}
}

func (s *TranscriptionClient) onSpeechEnded(callbacks callbackConfig) {
	s.unendedSegment = false
	fullTranscript := strings.TrimSpace(s.accumulatedTranscript)
	s.accumulatedTranscript = ""
	if len(fullTranscript) > 0 {
		callbacks.resultCallback(fullTranscript, true)
	}
	callbacks.endSpeechCallback()
}

func (s *TranscriptionClient) generateSilence(ctx context.Context, encoding audio.EncodingInfo) {
	type silenceGeneratorState string
	const (
		silenceGeneratorStateWaiting   silenceGeneratorState = "waiting"
		silenceGeneratorStateSilence   silenceGeneratorState = "silence"
		silenceGeneratorStateKeepAlive silenceGeneratorState = "keepAlive"
	)

	const duration = 50 * time.Millisecond
	ticker := time.NewTicker(duration)
	defer ticker.Stop()

	chunk := make([]byte, encoding.ByteCount(duration))
	for i := range chunk {
		chunk[i] = encoding.SilenceValue()
	}

	var state = silenceGeneratorStateWaiting
	var firstSilenceTime *time.Time
	var lastKeepAliveTime *time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			idle := s.sinceLastMessage()
			switch state {
			case silenceGeneratorStateWaiting:
				if idle > duration {
					state = silenceGeneratorStateSilence
					firstSilenceTime = utils.Ptr(time.Now())
				}

			case silenceGeneratorStateSilence:
				if idle < duration {
					state = silenceGeneratorStateWaiting
					firstSilenceTime = nil
					continue
				}
				if time.Since(*firstSilenceTime) >= time.Second {
					state = silenceGeneratorStateKeepAlive
					lastKeepAliveTime = utils.Ptr(time.Now())
					firstSilenceTime = nil
					continue
				}

				if err := s.sendSilence(chunk); err != nil && !errors.Is(err, ErrNotConnected) {
					logger.Debug("sending silence audio failed", "error", err)
				}

			case silenceGeneratorStateKeepAlive:
				if idle < duration {
					state = silenceGeneratorStateWaiting
					continue
				}

				if time.Since(*lastKeepAliveTime) >= 5*time.Second {
					lastKeepAliveTime = utils.Ptr(time.Now())
					s.sendKeepAlive()
				}
			}
		}
	}
}

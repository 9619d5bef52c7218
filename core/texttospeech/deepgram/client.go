package deepgram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-voice/core/audio"
	"github.com/koscakluka/ema-voice/core/texttospeech"
)

const defaultSpeakURL = "wss://api.deepgram.com/v1/speak"

// AudioOutput plays synthesized audio. Mark callbacks fire once the audio
// sent before the mark has been played.
type AudioOutput interface {
	EncodingInfo() audio.EncodingInfo
	SendAudio(audio []byte) error
	Mark(mark string, callback func(string)) error
	ClearBuffer()
}

// TextToSpeechClient speaks utterances with Deepgram Aura voices. Only one
// utterance is in flight at a time; speaking a new one cancels the previous.
type TextToSpeechClient struct {
	apiKey   string
	speakURL string
	voice    deepgramVoice
	output   AudioOutput

	mu     sync.Mutex
	active *utteranceRequest
	nextID atomic.Uint64
}

type ClientOption func(*TextToSpeechClient)

// WithAPIKey sets the key explicitly, otherwise DEEPGRAM_API_KEY is used.
func WithAPIKey(apiKey string) ClientOption {
	return func(c *TextToSpeechClient) { c.apiKey = apiKey }
}

func WithSpeakURL(speakURL string) ClientOption {
	return func(c *TextToSpeechClient) { c.speakURL = speakURL }
}

// WithAudioOutput plays the audio through output. Without an output the
// utterance ends as soon as synthesis is flushed.
func WithAudioOutput(output AudioOutput) ClientOption {
	return func(c *TextToSpeechClient) { c.output = output }
}

func NewTextToSpeechClient(voice string, opts ...ClientOption) (*TextToSpeechClient, error) {
	client := &TextToSpeechClient{voice: defaultVoice, speakURL: defaultSpeakURL}

	if voice != "" {
		if !isKnownVoice(voice) {
			return nil, fmt.Errorf("invalid voice %q", voice)
		}
		client.voice = deepgramVoice(voice)
	}

	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

func (c *TextToSpeechClient) Voices() []texttospeech.Voice { return GetAvailableVoices() }

func (c *TextToSpeechClient) SetVoice(voice string) error {
	if !isKnownVoice(voice) {
		return fmt.Errorf("invalid voice %q", voice)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.voice = deepgramVoice(voice)
	return nil
}

// Speak starts synthesizing u and returns once the request is sent.
// Completion is reported through the speak option callbacks.
func (c *TextToSpeechClient) Speak(ctx context.Context, u texttospeech.Utterance, opts ...texttospeech.SpeakOption) error {
	options := texttospeech.NewSpeakOptions(opts...)
	if c.output != nil {
		options.EncodingInfo = c.output.EncodingInfo()
	}

	c.mu.Lock()
	voice := c.voice
	c.mu.Unlock()
	if u.Voice.ID != "" && isKnownVoice(u.Voice.ID) {
		voice = deepgramVoice(u.Voice.ID)
	}

	conn, err := c.connectWebsocket(ctx, voice, options.EncodingInfo)
	if err != nil {
		return fmt.Errorf("failed to open websocket: %w", err)
	}

	req := &utteranceRequest{
		id:      strconv.FormatUint(c.nextID.Add(1), 10),
		ws:      conn,
		options: options,
		volume:  u.Volume,
		output:  c.output,
	}

	c.mu.Lock()
	previous := c.active
	c.active = req
	c.mu.Unlock()
	if previous != nil {
		previous.cancel()
	}
	if err := ctx.Err(); err != nil {
		c.release(req)
		req.cancel()
		return err
	}

	if err := req.sendWebsocketMessage(sendTextMsg(u.Text)); err != nil {
		req.close()
		return fmt.Errorf("failed to send text: %w", err)
	}
	if err := req.sendWebsocketMessage(flushMsg); err != nil {
		req.close()
		return fmt.Errorf("failed to flush text: %w", err)
	}

	go req.processIncomingMessages(func() { c.release(req) })
	return nil
}

// Cancel stops the utterance in flight and drops any audio not yet played.
func (c *TextToSpeechClient) Cancel() error {
	c.mu.Lock()
	req := c.active
	c.active = nil
	c.mu.Unlock()

	if req != nil {
		req.cancel()
	}
	if c.output != nil {
		c.output.ClearBuffer()
	}
	return nil
}

func (c *TextToSpeechClient) Close(context.Context) error {
	return c.Cancel()
}

func (c *TextToSpeechClient) release(req *utteranceRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == req {
		c.active = nil
	}
}

func (c *TextToSpeechClient) connectWebsocket(ctx context.Context, voice deepgramVoice, encodingInfo audio.EncodingInfo) (*websocket.Conn, error) {
	apiKey := c.apiKey
	if apiKey == "" {
		var ok bool
		if apiKey, ok = os.LookupEnv("DEEPGRAM_API_KEY"); !ok {
			return nil, fmt.Errorf("deepgram api key not found")
		}
	}

	speakURL, err := url.Parse(c.speakURL)
	if err != nil {
		return nil, fmt.Errorf("invalid speak url: %w", err)
	}

	urlValues := speakURL.Query()
	urlValues.Set("encoding", encodingInfo.Format.Name())
	urlValues.Set("sample_rate", strconv.Itoa(encodingInfo.SampleRate))
	urlValues.Set("model", string(voice))
	urlValues.Set("container", "none")
	speakURL.RawQuery = urlValues.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, speakURL.String(),
		http.Header{"Authorization": {"token " + apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}

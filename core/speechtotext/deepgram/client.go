package deepgram

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultListenURL = "wss://api.deepgram.com/v1/listen"
	defaultModel     = "nova-3"
	defaultLanguage  = "en-US"
)

var ErrNotConnected = errors.New("deepgram connection not open")

// TranscriptionClient streams audio to Deepgram and reports transcripts.
// One recognition session runs at a time.
type TranscriptionClient struct {
	apiKey    string
	model     string
	language  string
	listenURL string

	conn      *websocket.Conn
	connMu    sync.Mutex
	lastMsgTs time.Time

	running atomic.Bool

	// accessed only from the read loop
	accumulatedTranscript string
	unendedSegment        bool
}

type ClientOption func(*TranscriptionClient)

// WithAPIKey sets the key explicitly, otherwise DEEPGRAM_API_KEY is used.
func WithAPIKey(apiKey string) ClientOption {
	return func(c *TranscriptionClient) { c.apiKey = apiKey }
}

func WithModel(model string) ClientOption {
	return func(c *TranscriptionClient) { c.model = model }
}

func WithLanguage(language string) ClientOption {
	return func(c *TranscriptionClient) { c.language = language }
}

func WithListenURL(listenURL string) ClientOption {
	return func(c *TranscriptionClient) { c.listenURL = listenURL }
}

func NewTranscriptionClient(opts ...ClientOption) *TranscriptionClient {
	client := &TranscriptionClient{
		model:     defaultModel,
		language:  defaultLanguage,
		listenURL: defaultListenURL,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// IsRunning reports whether a recognition session is open.
func (s *TranscriptionClient) IsRunning() bool { return s.running.Load() }

package groq

import (
	"context"
	"net/http"

	"github.com/koscakluka/ema-voice/core/llms"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultURL   = "https://api.groq.com/openai/v1/chat/completions"
	DefaultModel = "llama-3.3-70b-versatile"

	endMessage  = "[DONE]"
	chunkPrefix = "data:"
)

// Client talks to the Groq OpenAI-compatible chat completions endpoint.
type Client struct {
	apiKey       string
	model        string
	url          string
	instructions string
	httpClient   *http.Client
}

type ClientOption func(*Client)

func WithModel(model string) ClientOption {
	return func(c *Client) { c.model = model }
}

// WithURL points the client at another OpenAI-compatible endpoint.
func WithURL(url string) ClientOption {
	return func(c *Client) { c.url = url }
}

// WithInstructions sets the system prompt used when a request does not
// provide its own.
func WithInstructions(instructions string) ClientOption {
	return func(c *Client) { c.instructions = instructions }
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

func NewClient(apiKey string, opts ...ClientOption) *Client {
	client := &Client{
		apiKey: apiKey,
		model:  DefaultModel,
		url:    defaultURL,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

func (c *Client) PromptWithStream(_ context.Context, turns []llms.Turn, opts ...llms.PromptOption) llms.Stream {
	options := llms.NewPromptOptions(append([]llms.PromptOption{llms.WithInstructions(c.instructions)}, opts...)...)

	return &Stream{
		client:      c,
		messages:    toMessages(options.Instructions, turns),
		temperature: options.Temperature,
	}
}

// Prompt returns the complete response, built from the same stream.
func (c *Client) Prompt(ctx context.Context, turns []llms.Turn, opts ...llms.PromptOption) (string, error) {
	return llms.NewAccumulator(nil).Consume(ctx, c.PromptWithStream(ctx, turns, opts...))
}

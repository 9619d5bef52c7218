package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/koscakluka/ema-voice/core/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"
)

const (
	DefaultModel      = "gemini-2.5-flash"
	DefaultImageModel = "imagen-4.0-generate-001"
)

// Client wraps the Gemini API for text completion and image generation.
type Client struct {
	models *genai.Models

	model        string
	imageModel   string
	instructions string
}

type ClientOption func(*Client)

func WithModel(model string) ClientOption {
	return func(c *Client) { c.model = model }
}

func WithImageModel(model string) ClientOption {
	return func(c *Client) { c.imageModel = model }
}

// WithInstructions sets the system instruction used when a request does not
// provide its own.
func WithInstructions(instructions string) ClientOption {
	return func(c *Client) { c.instructions = instructions }
}

func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key not provided")
	}

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	client := &Client{
		models:     genaiClient.Models,
		model:      DefaultModel,
		imageModel: DefaultImageModel,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

func (c *Client) options(opts []llms.PromptOption) llms.PromptOptions {
	return llms.NewPromptOptions(append([]llms.PromptOption{llms.WithInstructions(c.instructions)}, opts...)...)
}

// Prompt sends the whole conversation and waits for the complete response.
func (c *Client) Prompt(ctx context.Context, turns []llms.Turn, opts ...llms.PromptOption) (string, error) {
	ctx, span := tracer.Start(ctx, "prompt gemini")
	defer span.End()
	span.SetAttributes(attribute.String("request.model", c.model))
	span.SetAttributes(attribute.Int("request.turns", len(turns)))

	resp, err := c.models.GenerateContent(ctx, c.model, toContents(turns), toConfig(c.options(opts)))
	if err != nil {
		err = fmt.Errorf("failed to generate content: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		span.SetStatus(codes.Error, llms.ErrEmptyResponse.Error())
		return "", llms.ErrEmptyResponse
	}

	return text, nil
}

func (c *Client) PromptWithStream(_ context.Context, turns []llms.Turn, opts ...llms.PromptOption) llms.Stream {
	return &Stream{
		models:   c.models,
		model:    c.model,
		contents: toContents(turns),
		config:   toConfig(c.options(opts)),
	}
}

type Stream struct {
	models   *genai.Models
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (s *Stream) Chunks(ctx context.Context) func(func(llms.StreamChunk, error) bool) {
	return func(yield func(llms.StreamChunk, error) bool) {
		ctx, span := tracer.Start(ctx, "prompt gemini stream")
		defer span.End()
		span.SetAttributes(attribute.String("request.model", s.model))

		received := 0
		for resp, err := range s.models.GenerateContentStream(ctx, s.model, s.contents, s.config) {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				yield(nil, fmt.Errorf("gemini stream failed: %w", err))
				return
			}

			if resp == nil || len(resp.Candidates) == 0 {
				logger.Debug("skipping gemini stream response without candidates")
				if !yield(nil, fmt.Errorf("%w: response without candidates", llms.ErrMalformedChunk)) {
					return
				}
				continue
			}

			var finishReason *string
			if reason := resp.Candidates[0].FinishReason; reason != "" {
				value := string(reason)
				finishReason = &value
			}

			received++
			if !yield(llms.ContentChunk{Text: resp.Text(), Finish: finishReason}, nil) {
				return
			}
		}
		span.SetAttributes(attribute.Int("response.chunks", received))
	}
}

package groq

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/koscakluka/ema-voice/core/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Stream struct {
	client *Client

	messages    []message
	temperature *float64
}

func (s *Stream) Chunks(ctx context.Context) func(func(llms.StreamChunk, error) bool) {
	requestToFirstTokenTime := time.Time{}
	setRequestToFirstTokenTime := func(span trace.Span) {
		if requestToFirstTokenTime.IsZero() {
			return
		}
		span.SetAttributes(attribute.Float64("response.request_to_first_token_time", time.Since(requestToFirstTokenTime).Seconds()))
		span.AddEvent("received first chunk")
		requestToFirstTokenTime = time.Time{}
	}

	return func(yield func(llms.StreamChunk, error) bool) {
		ctx, span := tracer.Start(ctx, "prompt llm stream")
		defer span.End()
		span.SetAttributes(attribute.String("request.model", s.client.model))
		span.SetAttributes(attribute.Int("request.messages", len(s.messages)))

		fail := func(err error) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			yield(nil, err)
		}

		reqBody := requestBody{
			Model:       s.client.model,
			Messages:    s.messages,
			Stream:      true,
			Temperature: s.temperature,
		}

		requestBodyBytes, err := json.Marshal(reqBody)
		if err != nil {
			fail(fmt.Errorf("error marshalling JSON: %w", err))
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.client.url, bytes.NewBuffer(requestBodyBytes))
		if err != nil {
			fail(fmt.Errorf("error creating HTTP request: %w", err))
			return
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+s.client.apiKey)

		span.SetAttributes(attribute.String("request.url", req.URL.String()))
		requestToFirstTokenTime = time.Now()
		span.AddEvent("request started")
		resp, err := s.client.httpClient.Do(req)
		if err != nil {
			fail(fmt.Errorf("error sending request: %w", err))
			return
		}
		defer resp.Body.Close()

		span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
		if resp.StatusCode != http.StatusOK {
			if errorBody, err := io.ReadAll(resp.Body); err != nil {
				span.RecordError(fmt.Errorf("error reading error body: %w", err))
			} else {
				span.SetAttributes(attribute.String("response.error", string(errorBody)))
			}

			fail(fmt.Errorf("non-OK HTTP status: %s", resp.Status))
			return
		}

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, chunkPrefix) {
				// comments, event names and keep-alive blank lines
				continue
			}

			chunk := strings.TrimSpace(strings.TrimPrefix(line, chunkPrefix))
			setRequestToFirstTokenTime(span)

			if len(chunk) == 0 {
				continue
			}

			if chunk == endMessage {
				break
			}

			var responseBody streamingResponseBody
			if err := json.Unmarshal([]byte(chunk), &responseBody); err != nil {
				err = fmt.Errorf("%w: %w", llms.ErrMalformedChunk, err)
				span.RecordError(err)
				logger.Debug("skipping malformed stream chunk", "error", err)
				if !yield(nil, err) {
					return
				}
				continue
			}

			if len(responseBody.Choices) > 0 {
				choice := responseBody.Choices[0]
				if choice.Delta.Content != "" || choice.FinishReason != nil {
					if !yield(StreamContentChunk{
						finishReason: choice.FinishReason,
						content:      choice.Delta.Content,
					}, nil) {
						return
					}
				}
			}

			usage := responseBody.Usage
			if usage == nil && responseBody.XGroq != nil {
				usage = responseBody.XGroq.Usage
			}
			if usage != nil {
				span.SetAttributes(attribute.Int("usage.input", usage.PromptTokens))
				span.SetAttributes(attribute.Int("usage.output", usage.CompletionTokens))
				span.SetAttributes(attribute.Int("usage.total", usage.TotalTokens))
				span.SetAttributes(attribute.Float64("usage.queue_time", usage.QueueTime))
				span.SetAttributes(attribute.Float64("usage.total_time", usage.TotalTime))

				if !yield(StreamUsageChunk{usage: llms.Usage{
					InputTokens:  usage.PromptTokens,
					OutputTokens: usage.CompletionTokens,
					TotalTokens:  usage.TotalTokens,
					QueueTime:    usage.QueueTime,
					TotalTime:    usage.TotalTime,
				}}, nil) {
					return
				}
			}
		}

		if err := scanner.Err(); err != nil {
			fail(fmt.Errorf("error reading streamed response: %w", err))
			return
		}
	}
}

type StreamContentChunk struct {
	finishReason *string
	content      string
}

func (s StreamContentChunk) FinishReason() *string {
	return s.finishReason
}

func (s StreamContentChunk) Content() string {
	return s.content
}

type StreamUsageChunk struct {
	finishReason *string
	usage        llms.Usage
}

func (s StreamUsageChunk) FinishReason() *string {
	return s.finishReason
}

func (s StreamUsageChunk) Usage() llms.Usage {
	return s.usage
}

package groq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/koscakluka/ema-voice/core/llms"
)

func newSSEServer(t *testing.T, lines []string, onRequest func(requestBody)) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("expected bearer auth header, got %q", got)
		}

		var body requestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if onRequest != nil {
			onRequest(body)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		for _, line := range lines {
			fmt.Fprintf(w, "%s\n\n", line)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestStreamYieldsContentAndSkipsMalformedRecords(t *testing.T) {
	server := newSSEServer(t, []string{
		`data: {"choices":[{"delta":{"content":"Hel"}}]}`,
		`: keep-alive`,
		`data: {"choices":[{"delta":{"content":`,
		`data: {"choices":[{"delta":{"content":"lo."},"finish_reason":"stop"}]}`,
		`data: [DONE]`,
	}, nil)

	client := NewClient("test-key", WithURL(server.URL), WithHTTPClient(server.Client()))
	stream := client.PromptWithStream(context.Background(), []llms.Turn{llms.UserTurn("hi")})

	contents := []string{}
	malformed := 0
	for chunk, err := range stream.Chunks(context.Background()) {
		if err != nil {
			if !errorsIsMalformed(err) {
				t.Fatalf("unexpected stream error: %v", err)
			}
			malformed++
			continue
		}
		if contentChunk, ok := chunk.(llms.StreamContentChunk); ok {
			contents = append(contents, contentChunk.Content())
		}
	}

	if malformed != 1 {
		t.Fatalf("expected one malformed record, got %d", malformed)
	}
	if len(contents) != 2 || contents[0] != "Hel" || contents[1] != "lo." {
		t.Fatalf("expected contents [Hel lo.], got %v", contents)
	}
}

func TestPromptAccumulatesStream(t *testing.T) {
	var received requestBody
	server := newSSEServer(t, []string{
		`data: {"choices":[{"delta":{"content":"Yes, "}}]}`,
		`data: {"choices":[{"delta":{"content":"sir."}}]}`,
		`data: [DONE]`,
	}, func(body requestBody) { received = body })

	client := NewClient("test-key",
		WithURL(server.URL),
		WithHTTPClient(server.Client()),
		WithModel("test-model"),
		WithInstructions("Be brief."),
	)

	text, err := client.Prompt(context.Background(), []llms.Turn{
		llms.UserTurn("persona"),
		llms.AssistantTurn("ack"),
		llms.UserTurn("hello"),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if text != "Yes, sir." {
		t.Fatalf("expected %q, got %q", "Yes, sir.", text)
	}

	if received.Model != "test-model" || !received.Stream {
		t.Fatalf("expected streaming request for test-model, got %+v", received)
	}
	if len(received.Messages) != 4 {
		t.Fatalf("expected system plus three messages, got %d", len(received.Messages))
	}
	if received.Messages[0].Role != messageRoleSystem || received.Messages[2].Role != messageRoleAssistant {
		t.Fatalf("unexpected roles: %+v", received.Messages)
	}
}

func TestStreamReportsNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient("test-key", WithURL(server.URL), WithHTTPClient(server.Client()))
	_, err := client.Prompt(context.Background(), []llms.Turn{llms.UserTurn("hi")})
	if err == nil {
		t.Fatalf("expected error for non-OK status")
	}
}

func errorsIsMalformed(err error) bool {
	return errors.Is(err, llms.ErrMalformedChunk)
}

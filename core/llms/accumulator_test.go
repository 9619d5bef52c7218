package llms

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type streamStep struct {
	content string
	err     error
}

type streamStub struct {
	steps []streamStep
}

func (s streamStub) Chunks(context.Context) func(func(StreamChunk, error) bool) {
	return func(yield func(StreamChunk, error) bool) {
		for _, step := range s.steps {
			if step.err != nil {
				if !yield(nil, step.err) {
					return
				}
				continue
			}
			if !yield(ContentChunk{Text: step.content}, nil) {
				return
			}
		}
	}
}

func TestAccumulatorConsumeReportsCumulativePartials(t *testing.T) {
	partials := []string{}
	accumulator := NewAccumulator(func(text string) { partials = append(partials, text) })

	text, err := accumulator.Consume(context.Background(), streamStub{steps: []streamStep{
		{content: "Hello"}, {content: ", "}, {content: "world."},
	}})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if text != "Hello, world." {
		t.Fatalf("expected final text %q, got %q", "Hello, world.", text)
	}

	expected := []string{"Hello", "Hello, ", "Hello, world."}
	if len(partials) != len(expected) {
		t.Fatalf("expected %d partials, got %d (%v)", len(expected), len(partials), partials)
	}
	for i := range expected {
		if partials[i] != expected[i] {
			t.Fatalf("expected partial %d to be %q, got %q", i, expected[i], partials[i])
		}
	}
}

func TestAccumulatorSkipsMalformedChunks(t *testing.T) {
	accumulator := NewAccumulator(nil)

	text, err := accumulator.Consume(context.Background(), streamStub{steps: []streamStep{
		{content: "Hel"},
		{err: fmt.Errorf("%w: unexpected end of JSON input", ErrMalformedChunk)},
		{content: "lo"},
	}})
	if err != nil {
		t.Fatalf("expected malformed chunk to be skipped, got %v", err)
	}
	if text != "Hello" {
		t.Fatalf("expected %q, got %q", "Hello", text)
	}
}

func TestAccumulatorKeepsPartialTextOnMidStreamFailure(t *testing.T) {
	accumulator := NewAccumulator(nil)

	text, err := accumulator.Consume(context.Background(), streamStub{steps: []streamStep{
		{content: "Hel"},
		{err: errors.New("connection reset")},
		{content: "lo"},
	}})
	if err != nil {
		t.Fatalf("expected partial text to be used, got error %v", err)
	}
	if text != "Hel" {
		t.Fatalf("expected %q, got %q", "Hel", text)
	}
}

func TestAccumulatorReturnsErrorWhenFailureHasNoText(t *testing.T) {
	failure := errors.New("connection refused")
	accumulator := NewAccumulator(nil)

	_, err := accumulator.Consume(context.Background(), streamStub{steps: []streamStep{{err: failure}}})
	if !errors.Is(err, failure) {
		t.Fatalf("expected wrapped failure, got %v", err)
	}
}

func TestAccumulatorEmptyStreamIsAnError(t *testing.T) {
	accumulator := NewAccumulator(nil)

	_, err := accumulator.Consume(context.Background(), streamStub{})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestAccumulatorConsumeText(t *testing.T) {
	partials := 0
	accumulator := NewAccumulator(func(string) { partials++ })

	text, err := accumulator.ConsumeText("It is noon.", nil)
	if err != nil || text != "It is noon." {
		t.Fatalf("expected text %q without error, got %q, %v", "It is noon.", text, err)
	}
	if partials != 1 {
		t.Fatalf("expected one partial, got %d", partials)
	}

	_, err = NewAccumulator(nil).ConsumeText("", errors.New("quota exceeded"))
	if err == nil {
		t.Fatalf("expected error for failed complete response")
	}
}

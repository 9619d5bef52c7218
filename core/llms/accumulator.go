package llms

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Accumulator collects streamed response fragments into the final response
// text, reporting the cumulative text after every fragment.
type Accumulator struct {
	onPartial func(text string)

	text strings.Builder
}

func NewAccumulator(onPartial func(text string)) *Accumulator {
	if onPartial == nil {
		onPartial = func(string) {}
	}
	return &Accumulator{onPartial: onPartial}
}

// Consume reads the stream to the end and returns the final text.
//
// Malformed fragments are skipped. If the stream fails after some text was
// received, the received text is returned as final and the failure is
// dropped; with no text the failure is returned.
func (a *Accumulator) Consume(ctx context.Context, stream Stream) (string, error) {
	if stream == nil {
		return "", ErrEmptyResponse
	}

	var streamErr error
	for chunk, err := range stream.Chunks(ctx) {
		if err != nil {
			if errors.Is(err, ErrMalformedChunk) {
				continue
			}
			streamErr = err
			break
		}

		if contentChunk, ok := chunk.(StreamContentChunk); ok {
			a.append(contentChunk.Content())
		}
	}

	if streamErr == nil {
		streamErr = ctx.Err()
	}

	return a.result(streamErr)
}

// ConsumeText handles backends that return the whole response at once.
func (a *Accumulator) ConsumeText(text string, err error) (string, error) {
	if err == nil {
		a.append(text)
	}
	return a.result(err)
}

// Text returns what has been accumulated so far.
func (a *Accumulator) Text() string { return a.text.String() }

func (a *Accumulator) append(fragment string) {
	if fragment == "" {
		return
	}
	a.text.WriteString(fragment)
	a.onPartial(a.text.String())
}

func (a *Accumulator) result(err error) (string, error) {
	text := a.text.String()
	if strings.TrimSpace(text) != "" {
		return text, nil
	}

	if err != nil {
		return "", fmt.Errorf("response stream failed: %w", err)
	}
	return "", ErrEmptyResponse
}

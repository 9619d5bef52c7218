package llms

import "context"

type Stream interface {
	Chunks(context.Context) func(func(StreamChunk, error) bool)
}

type StreamChunk interface {
	FinishReason() *string
}

type StreamContentChunk interface {
	StreamChunk
	Content() string
}

type StreamUsageChunk interface {
	StreamChunk
	Usage() Usage
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int

	// QueueTime represents the time it took to queue the request.
	//
	// Note: This might be just an approximation.
	QueueTime float64
	// TotalTime represents the total time it took to complete the request.
	//
	// Note: This might be just an approximation.
	TotalTime float64
}

// ContentChunk is a plain text fragment, used by adapters that have no
// backend specific chunk type.
type ContentChunk struct {
	Text   string
	Finish *string
}

func (c ContentChunk) FinishReason() *string { return c.Finish }
func (c ContentChunk) Content() string       { return c.Text }

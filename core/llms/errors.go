package llms

import "errors"

var (
	// ErrMalformedChunk marks a stream fragment that could not be parsed.
	// Consumers skip such fragments and keep reading.
	ErrMalformedChunk = errors.New("malformed stream chunk")
	ErrEmptyResponse  = errors.New("empty response")
)

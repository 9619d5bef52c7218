package conversations

import (
	"slices"
	"sync"

	"github.com/koscakluka/ema-voice/core/llms"
)

const (
	DefaultMaxTurns = 10

	DefaultPersona         = "You are DAR, a voice assistant inspired by JARVIS. Keep responses concise. Use markdown for formatting like lists or bold text when appropriate."
	DefaultAcknowledgement = "Yes, sir."

	preambleLength = 2
)

// Context is the bounded conversation log sent to the completion backend.
//
// It starts with a preamble pair (persona instruction and its
// acknowledgement) that is never evicted. The total number of turns,
// preamble included, never exceeds the configured maximum after an append.
type Context struct {
	mu sync.RWMutex

	preamble [preambleLength]llms.Turn
	turns    []llms.Turn
	maxTurns int
}

type Option func(*Context)

// WithMaxTurns sets the cap on turns kept, preamble included. Values smaller
// than the preamble are raised to it.
func WithMaxTurns(maxTurns int) Option {
	return func(c *Context) { c.maxTurns = max(maxTurns, preambleLength) }
}

func WithPreamble(persona, acknowledgement string) Option {
	return func(c *Context) {
		c.preamble = [preambleLength]llms.Turn{
			llms.UserTurn(persona),
			llms.AssistantTurn(acknowledgement),
		}
	}
}

// New returns a context already reset to its preamble.
func New(opts ...Option) *Context {
	c := &Context{maxTurns: DefaultMaxTurns}
	WithPreamble(DefaultPersona, DefaultAcknowledgement)(c)
	for _, opt := range opts {
		opt(c)
	}
	c.Reset()
	return c
}

func (c *Context) AppendUser(content string) {
	c.append(llms.UserTurn(content))
}

func (c *Context) AppendAssistant(content string) {
	c.append(llms.AssistantTurn(content))
}

func (c *Context) append(turn llms.Turn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.turns = append(c.turns, turn)
	c.evictOverflow()
}

// Reset replaces the log with exactly the preamble pair.
func (c *Context) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.turns = append(make([]llms.Turn, 0, c.maxTurns), c.preamble[:]...)
}

// Clear empties the log, preamble included.
func (c *Context) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.turns = nil
}

func (c *Context) EvictOverflow() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.evictOverflow()
}

// evictOverflow drops the oldest turns that follow the preamble until the
// log fits. A log that does not start with the preamble (after Clear) is
// trimmed from the front.
func (c *Context) evictOverflow() {
	overflow := len(c.turns) - c.maxTurns
	if overflow <= 0 {
		return
	}

	keep := 0
	if c.hasPreamble() {
		keep = preambleLength
	}
	c.turns = slices.Delete(c.turns, keep, keep+overflow)
}

func (c *Context) hasPreamble() bool {
	return len(c.turns) >= preambleLength &&
		c.turns[0] == c.preamble[0] &&
		c.turns[1] == c.preamble[1]
}

// Turns returns a copy of the log, oldest first.
func (c *Context) Turns() []llms.Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.Clone(c.turns)
}

func (c *Context) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.turns)
}

func (c *Context) MaxTurns() int { return c.maxTurns }

// Values iterates over a snapshot of the turns, oldest first.
func (c *Context) Values(yield func(llms.Turn) bool) {
	for _, turn := range c.Turns() {
		if !yield(turn) {
			return
		}
	}
}

// RValues iterates over a snapshot of the turns, newest first.
func (c *Context) RValues(yield func(llms.Turn) bool) {
	turns := c.Turns()
	for i := len(turns) - 1; i >= 0; i-- {
		if !yield(turns[i]) {
			return
		}
	}
}

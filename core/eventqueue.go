package orchestration

import (
	"context"
	"sync"
)

// eventQueue is the unbounded mailbox of the orchestrator loop. Producers
// never block.
type eventQueue struct {
	mu           sync.Mutex
	items        []loopEvent
	closed       bool
	updateSignal chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{updateSignal: make(chan struct{}, 1)}
}

// Push appends an event. It reports false once the queue is closed.
func (q *eventQueue) Push(event loopEvent) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, event)
	q.mu.Unlock()
	q.signalUpdate()
	return true
}

// Next blocks until an event is available, the queue is closed or ctx is
// done.
func (q *eventQueue) Next(ctx context.Context) (loopEvent, bool) {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return nil, false
		}
		if len(q.items) > 0 {
			event := q.items[0]
			q.items[0] = nil
			q.items = q.items[1:]
			q.mu.Unlock()
			return event, true
		}
		q.mu.Unlock()

		select {
		case <-q.updateSignal:
		case <-ctx.Done():
			return nil, false
		}
	}
}

func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *eventQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.items = nil
	q.mu.Unlock()
	q.signalUpdate()
}

func (q *eventQueue) signalUpdate() {
	select {
	case q.updateSignal <- struct{}{}:
	default:
	}
}

package queue

import (
	"context"
	"sync"
)

// MemoryQueue keeps events in process. Subscribers receive every event
// published after they subscribed; a slow subscriber drops events instead
// of blocking publishers.
type MemoryQueue struct {
	mu     sync.Mutex
	subs   []chan *DocumentEvent
	closed bool
	size   int
}

var _ DocumentQueue = (*MemoryQueue)(nil)

func NewMemoryQueue(buffer int) *MemoryQueue {
	return &MemoryQueue{size: buffer}
}

func (q *MemoryQueue) Subscribe() <-chan *DocumentEvent {
	q.mu.Lock()
	defer q.mu.Unlock()

	ch := make(chan *DocumentEvent, q.size)
	if q.closed {
		close(ch)
		return ch
	}
	q.subs = append(q.subs, ch)
	return ch
}

func (q *MemoryQueue) Publish(ctx context.Context, event *DocumentEvent) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	for _, ch := range q.subs {
		select {
		case ch <- event:
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	return nil
}

func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	for _, ch := range q.subs {
		close(ch)
	}
	q.subs = nil
	return nil
}

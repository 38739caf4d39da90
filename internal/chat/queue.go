package chat

import (
	"context"
	"errors"

	"github.com/ledzpl/tchat/internal/protocol"
)

// DefaultQueueCapacity bounds how many undelivered messages the broadcast
// queue may hold.
const DefaultQueueCapacity = 100

// ErrQueueFull is returned by Enqueue when the queue is at capacity. The
// message is dropped; producers log and continue.
var ErrQueueFull = errors.New("broadcast queue full")

// Queue is the bounded FIFO handoff between connection handlers (producers)
// and the single broadcast worker (consumer). A buffered channel carries the
// capacity and ordering invariants, so there is no manual wait/signal
// bookkeeping.
type Queue struct {
	messages chan protocol.Message
}

// NewQueue constructs a queue with the given capacity. Non-positive
// capacities fall back to DefaultQueueCapacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{
		messages: make(chan protocol.Message, capacity),
	}
}

// Enqueue appends a message without blocking. When the queue is full the
// message is dropped and ErrQueueFull returned; there is no backpressure and
// no retry.
func (q *Queue) Enqueue(m protocol.Message) error {
	select {
	case q.messages <- m:
		return nil
	default:
		return ErrQueueFull
	}
}

// Dequeue removes and returns the oldest message, blocking until one is
// available or ctx is cancelled. Cancellation returns ctx.Err().
func (q *Queue) Dequeue(ctx context.Context) (protocol.Message, error) {
	select {
	case m := <-q.messages:
		return m, nil
	case <-ctx.Done():
		return protocol.Message{}, ctx.Err()
	}
}

// Len returns the number of queued messages.
func (q *Queue) Len() int {
	return len(q.messages)
}

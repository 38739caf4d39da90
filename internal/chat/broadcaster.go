package chat

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ledzpl/tchat/internal/protocol"
)

// Broadcaster is the single consumer of the broadcast queue. It encodes each
// dequeued message once and fans the frame out to every registered client.
type Broadcaster struct {
	registry *Registry
	queue    *Queue
	logger   zerolog.Logger
}

// NewBroadcaster wires a broadcaster to the registry and queue it serves.
func NewBroadcaster(registry *Registry, queue *Queue, logger zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		registry: registry,
		queue:    queue,
		logger:   logger,
	}
}

// Run drains the queue until ctx is cancelled. It must be the only consumer;
// a second Run would interleave dequeues and break FIFO delivery.
func (b *Broadcaster) Run(ctx context.Context) {
	b.logger.Debug().Msg("broadcast worker started")

	for {
		msg, err := b.queue.Dequeue(ctx)
		if err != nil {
			b.logger.Debug().Msg("broadcast worker stopped")
			return
		}
		b.fanOut(msg)
	}
}

// fanOut delivers one message to every registered client. Delivery under the
// registry lock is a non-blocking channel send; the blocking socket write
// happens in each client's own writeLoop, off the lock. A slow recipient
// loses its copy of the frame and never stalls the others.
func (b *Broadcaster) fanOut(msg protocol.Message) {
	frame := protocol.Encode(msg)

	b.registry.ForEach(func(c *Client) {
		if !c.tryDeliver(frame) {
			b.logger.Warn().
				Str("user", c.Username).
				Str("kind", string(msg.Kind)).
				Msg("recipient backlog full, frame dropped")
		}
	})
}

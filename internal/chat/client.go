package chat

import (
	"bufio"
	"net"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// outboundBuffer is the per-client frame backlog. A client that falls further
// behind than this starts losing frames rather than stalling the broadcaster.
const outboundBuffer = 16

// Client represents one authenticated connection in the registry.
type Client struct {
	ID       string
	Username string

	conn net.Conn
	send chan string
}

func newClient(conn net.Conn, username string) *Client {
	return &Client{
		ID:       uuid.NewString(),
		Username: username,
		conn:     conn,
		send:     make(chan string, outboundBuffer),
	}
}

// Send returns the outbound frame channel for the client.
func (c *Client) Send() <-chan string {
	return c.send
}

// tryDeliver places an encoded frame onto the outbound channel without
// blocking. It reports false when the frame was dropped because the channel
// is full.
func (c *Client) tryDeliver(frame string) bool {
	select {
	case c.send <- frame:
		return true
	default:
		// Drop when the receiver is too slow; keeps fan-out responsive.
		return false
	}
}

// writeLoop drains the outbound channel into the socket. It runs in its own
// goroutine so blocking writes never happen under the registry lock, and
// exits when the channel is closed or a write fails.
func (c *Client) writeLoop(logger zerolog.Logger) {
	writer := bufio.NewWriter(c.conn)
	for frame := range c.send {
		if _, err := writer.WriteString(frame); err != nil {
			logger.Debug().Err(err).Str("user", c.Username).Msg("write failed")
			return
		}
		if err := writer.Flush(); err != nil {
			logger.Debug().Err(err).Str("user", c.Username).Msg("flush failed")
			return
		}
	}
}

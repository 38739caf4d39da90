package chat

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ledzpl/tchat/internal/protocol"
)

func startBroadcaster(t *testing.T, reg *Registry, q *Queue) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go NewBroadcaster(reg, q, zerolog.Nop()).Run(ctx)
}

func expectFrame(t *testing.T, c *Client, want string) {
	t.Helper()

	select {
	case frame := <-c.Send():
		require.Equal(t, want, frame)
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for frame %q for %s", want, c.Username)
	}
}

func TestBroadcasterFansOutToEveryClient(t *testing.T) {
	reg := NewRegistry(10)
	q := NewQueue(10)

	alice := newClient(nil, "alice")
	bob := newClient(nil, "bob")
	require.NoError(t, reg.Add(alice))
	require.NoError(t, reg.Add(bob))

	startBroadcaster(t, reg, q)

	require.NoError(t, q.Enqueue(protocol.Message{Kind: protocol.KindMsg, Sender: "alice", Content: "Hello everyone!"}))

	// Chat frames reach every registered client, the sender included.
	expectFrame(t, alice, "MSG:alice:Hello everyone!\n")
	expectFrame(t, bob, "MSG:alice:Hello everyone!\n")
}

func TestBroadcasterEncodesByKind(t *testing.T) {
	reg := NewRegistry(10)
	q := NewQueue(10)

	alice := newClient(nil, "alice")
	require.NoError(t, reg.Add(alice))

	startBroadcaster(t, reg, q)

	require.NoError(t, q.Enqueue(protocol.Message{Kind: protocol.KindNotify, Content: "bob joined the chat"}))
	expectFrame(t, alice, "NOTIFY:bob joined the chat\n")

	require.NoError(t, q.Enqueue(protocol.Message{Kind: protocol.KindMsg, Sender: "bob", Content: "hi"}))
	expectFrame(t, alice, "MSG:bob:hi\n")
}

func TestBroadcasterSlowClientDoesNotStallOthers(t *testing.T) {
	reg := NewRegistry(10)
	q := NewQueue(10)

	slow := newClient(nil, "slow")
	fast := newClient(nil, "fast")
	require.NoError(t, reg.Add(slow))
	require.NoError(t, reg.Add(fast))

	// Fill the slow client's backlog so the next delivery must drop.
	for i := 0; i < outboundBuffer; i++ {
		require.True(t, slow.tryDeliver("NOTIFY:padding\n"))
	}
	require.False(t, slow.tryDeliver("NOTIFY:overflow\n"))

	startBroadcaster(t, reg, q)

	require.NoError(t, q.Enqueue(protocol.Message{Kind: protocol.KindMsg, Sender: "fast", Content: "still flowing"}))
	expectFrame(t, fast, "MSG:fast:still flowing\n")

	// The slow client's backlog is untouched padding; the new frame was dropped.
	require.Len(t, slow.send, outboundBuffer)
	expectFrame(t, slow, "NOTIFY:padding\n")
}

func TestBroadcasterStopsOnCancel(t *testing.T) {
	reg := NewRegistry(10)
	q := NewQueue(10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewBroadcaster(reg, q, zerolog.Nop()).Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcaster did not stop on cancellation")
	}
}

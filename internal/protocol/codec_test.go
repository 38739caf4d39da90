package protocol

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		msg  Message
	}{
		{"auth", Message{Kind: KindAuth, Sender: "alice"}},
		{"msg", Message{Kind: KindMsg, Sender: "alice", Content: "Hello everyone!"}},
		{"msg with colons", Message{Kind: KindMsg, Sender: "bob", Content: "ratio is 3:2:1, roughly"}},
		{"notify", Message{Kind: KindNotify, Content: "alice joined the chat"}},
		{"error", Message{Kind: KindError, Content: "Server is full"}},
		{"disconnect", Message{Kind: KindDisconnect, Sender: "alice"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			frame := Encode(tc.msg)
			require.True(t, strings.HasSuffix(frame, "\n"))
			require.Equal(t, 1, strings.Count(frame, "\n"), "exactly one newline")

			decoded, err := Decode(frame)
			require.NoError(t, err)
			require.Equal(t, tc.msg, decoded)
		})
	}
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	for _, line := range []string{"BOGUS:x", "", "auth:alice", "MSGX:a:b"} {
		_, err := Decode(line)
		require.ErrorIs(t, err, ErrUnknownKind, "line %q", line)
	}
}

func TestDecodeRejectsMalformedFrames(t *testing.T) {
	cases := []string{
		"AUTH",
		"AUTH:",
		"DISCONNECT",
		"DISCONNECT:",
		"MSG",
		"MSG:alice",
		"MSG:alice:",
		"MSG::hello",
		"NOTIFY",
		"NOTIFY:",
		"ERROR:",
	}
	for _, line := range cases {
		_, err := Decode(line)
		require.ErrorIs(t, err, ErrMalformedFrame, "line %q", line)
	}
}

func TestDecodeIgnoresTrailingAuthFields(t *testing.T) {
	msg, err := Decode("AUTH:alice:whatever:else\n")
	require.NoError(t, err)
	require.Equal(t, Message{Kind: KindAuth, Sender: "alice"}, msg)
}

func TestDecodeKeepsMsgContentVerbatim(t *testing.T) {
	msg, err := Decode("MSG:alice:see http://example.com:8080/x\n")
	require.NoError(t, err)
	require.Equal(t, "see http://example.com:8080/x", msg.Content)
}

func TestDecodeClampsOversizedFields(t *testing.T) {
	longName := strings.Repeat("u", 40)
	longText := strings.Repeat("x", 300)

	msg, err := Decode("MSG:" + longName + ":" + longText)
	require.NoError(t, err)
	require.Len(t, msg.Sender, MaxUsernameLen)
	require.Len(t, msg.Content, MaxContentLen)

	msg, err = Decode("NOTIFY:" + longText)
	require.NoError(t, err)
	require.Len(t, msg.Content, MaxContentLen)
}

func TestDecodeStripsCRLF(t *testing.T) {
	msg, err := Decode("AUTH:alice\r\n")
	require.NoError(t, err)
	require.Equal(t, "alice", msg.Sender)
}

func TestEncodeClampsFields(t *testing.T) {
	frame := Encode(Message{
		Kind:    KindMsg,
		Sender:  strings.Repeat("u", 40),
		Content: strings.Repeat("x", 300),
	})

	decoded, err := Decode(frame)
	require.NoError(t, err)
	require.Equal(t, strings.Repeat("u", MaxUsernameLen), decoded.Sender)
	require.Equal(t, strings.Repeat("x", MaxContentLen), decoded.Content)
	require.LessOrEqual(t, len(frame), MaxFrameLen)
}

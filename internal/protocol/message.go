// Package protocol implements the newline-terminated, colon-delimited text
// frame format shared by the tchat server and client.
//
// Frame grammar (every frame ends with a single '\n'):
//
//	AUTH:<username>
//	MSG:<username>:<content>        content may itself contain ':'
//	NOTIFY:<text>
//	ERROR:<text>
//	DISCONNECT:<username>
package protocol

// Kind identifies one of the five frame kinds on the wire.
type Kind string

const (
	KindAuth       Kind = "AUTH"
	KindMsg        Kind = "MSG"
	KindNotify     Kind = "NOTIFY"
	KindError      Kind = "ERROR"
	KindDisconnect Kind = "DISCONNECT"
)

// Wire capacities. A frame that would exceed them is clamped, never rejected.
const (
	MaxUsernameLen = 31
	MaxContentLen  = 255
	MaxFrameLen    = 1024
)

// Server response lines sent outside the regular frame grammar.
const (
	RespAuthOK         = "AUTH_OK"
	RespAuthTaken      = "AUTH_FAILED:Username already taken"
	RespAuthInvalid    = "AUTH_FAILED:Invalid username"
	RespServerFull     = "ERROR:Server is full"
	RespBadAuthFormat  = "ERROR:Invalid authentication format"
	RespContentTooLong = "ERROR:Message too long"
	RespDisconnectAck  = "DISCONNECT_ACK"
)

// Message is one decoded frame. Messages are passed by value across component
// boundaries; once decoded they are never mutated.
type Message struct {
	Kind    Kind
	Sender  string
	Content string
}

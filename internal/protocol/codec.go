package protocol

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownKind reports a frame whose leading field is not one of the
	// five protocol kinds.
	ErrUnknownKind = errors.New("unknown frame kind")

	// ErrMalformedFrame reports a frame of a known kind that is missing a
	// required field.
	ErrMalformedFrame = errors.New("malformed frame")
)

// Encode renders a message as a wire frame terminated by exactly one newline.
// Fields longer than their wire capacity are clamped; callers are expected to
// validate before encoding so clamping is normally unreachable.
func Encode(m Message) string {
	var frame string
	switch m.Kind {
	case KindAuth, KindDisconnect:
		frame = string(m.Kind) + ":" + clamp(m.Sender, MaxUsernameLen)
	case KindMsg:
		frame = string(KindMsg) + ":" + clamp(m.Sender, MaxUsernameLen) + ":" + clamp(m.Content, MaxContentLen)
	case KindNotify, KindError:
		frame = string(m.Kind) + ":" + clamp(m.Content, MaxContentLen)
	default:
		frame = string(m.Kind)
	}
	if len(frame) > MaxFrameLen-1 {
		frame = frame[:MaxFrameLen-1]
	}
	return frame + "\n"
}

// Decode parses one raw line into a Message. The trailing newline (and an
// optional carriage return) is stripped if present. Oversized fields are
// clamped to their wire capacity rather than rejected.
func Decode(line string) (Message, error) {
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")

	kind, rest, found := strings.Cut(line, ":")

	switch Kind(kind) {
	case KindAuth, KindDisconnect:
		if !found {
			return Message{}, fmt.Errorf("%w: %s without username", ErrMalformedFrame, kind)
		}
		// Anything after a further colon is ignored, only the username field counts.
		sender, _, _ := strings.Cut(rest, ":")
		if sender == "" {
			return Message{}, fmt.Errorf("%w: %s with empty username", ErrMalformedFrame, kind)
		}
		return Message{Kind: Kind(kind), Sender: clamp(sender, MaxUsernameLen)}, nil

	case KindMsg:
		if !found {
			return Message{}, fmt.Errorf("%w: MSG without fields", ErrMalformedFrame)
		}
		sender, content, hasContent := strings.Cut(rest, ":")
		if sender == "" {
			return Message{}, fmt.Errorf("%w: MSG with empty sender", ErrMalformedFrame)
		}
		if !hasContent || content == "" {
			return Message{}, fmt.Errorf("%w: MSG with empty content", ErrMalformedFrame)
		}
		return Message{
			Kind:    KindMsg,
			Sender:  clamp(sender, MaxUsernameLen),
			Content: clamp(content, MaxContentLen),
		}, nil

	case KindNotify, KindError:
		if !found || rest == "" {
			return Message{}, fmt.Errorf("%w: %s with empty text", ErrMalformedFrame, kind)
		}
		return Message{Kind: Kind(kind), Content: clamp(rest, MaxContentLen)}, nil

	default:
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func clamp(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

// Command tchat-client is a line-mode client for the tchat wire protocol:
// it authenticates, relays stdin lines as chat messages, and prints every
// broadcast frame it receives.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ledzpl/tchat/internal/protocol"
)

const disconnectGrace = 2 * time.Second

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "Chat server address")
	user := flag.String("user", "", "Username to authenticate with")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if !protocol.ValidateUsername(*user) {
		logger.Fatal().Str("user", *user).Msg("username must be 1-31 characters of [A-Za-z0-9_]")
	}

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		logger.Fatal().Err(err).Str("addr", *addr).Msg("connect failed")
	}
	defer conn.Close()

	reader := bufio.NewReader(conn)
	if err := authenticate(conn, reader, *user); err != nil {
		logger.Fatal().Err(err).Msg("authentication failed")
	}
	fmt.Printf("connected to %s as %s (type /quit to leave)\n", *addr, *user)

	done := make(chan struct{})
	go receive(reader, done)

	runInput(conn, *user, logger)

	// Give the server a moment to acknowledge the disconnect.
	select {
	case <-done:
	case <-time.After(disconnectGrace):
	}
}

func authenticate(conn net.Conn, reader *bufio.Reader, user string) error {
	frame := protocol.Encode(protocol.Message{Kind: protocol.KindAuth, Sender: user})
	if _, err := io.WriteString(conn, frame); err != nil {
		return fmt.Errorf("send auth: %w", err)
	}

	line, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read auth response: %w", err)
	}

	if resp := strings.TrimSpace(line); resp != protocol.RespAuthOK {
		return fmt.Errorf("server rejected auth: %s", resp)
	}
	return nil
}

// receive prints inbound frames until the server closes the connection.
func receive(reader *bufio.Reader, done chan<- struct{}) {
	defer close(done)

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}

		if strings.TrimSpace(line) == protocol.RespDisconnectAck {
			return
		}

		msg, err := protocol.Decode(line)
		if err != nil {
			continue
		}

		switch msg.Kind {
		case protocol.KindMsg:
			fmt.Printf("[%s] %s\n", msg.Sender, msg.Content)
		case protocol.KindNotify:
			fmt.Printf("* %s\n", msg.Content)
		case protocol.KindError:
			fmt.Fprintf(os.Stderr, "server error: %s\n", msg.Content)
		}
	}
}

// runInput relays stdin lines as chat frames until EOF or /quit, then sends
// the disconnect frame.
func runInput(conn net.Conn, user string, logger zerolog.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "/quit" {
			break
		}
		if !protocol.ValidateContent(text) {
			logger.Warn().Int("len", len(text)).Msg("message too long, not sent")
			continue
		}

		frame := protocol.Encode(protocol.Message{Kind: protocol.KindMsg, Sender: user, Content: text})
		if _, err := io.WriteString(conn, frame); err != nil {
			logger.Error().Err(err).Msg("send failed")
			return
		}
	}

	frame := protocol.Encode(protocol.Message{Kind: protocol.KindDisconnect, Sender: user})
	if _, err := io.WriteString(conn, frame); err != nil {
		logger.Debug().Err(err).Msg("disconnect frame not sent")
	}
}

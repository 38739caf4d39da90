package chat

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ledzpl/tchat/internal/protocol"
)

// lingerTimeout bounds how long a closing session waits for its writer to
// flush the remaining outbound frames.
const lingerTimeout = 5 * time.Second

var errAuthRejected = errors.New("authentication rejected")

// HandleSession drives one accepted connection through its lifecycle:
// authenticate, then read frames until the peer disconnects, asks to leave,
// or the server shuts the socket. It returns only after the connection is
// fully cleaned up.
func HandleSession(conn net.Conn, registry *Registry, queue *Queue, logger zerolog.Logger) {
	newSession(conn, registry, queue, logger).run()
}

type session struct {
	registry *Registry
	queue    *Queue

	conn    net.Conn
	scanner *bufio.Scanner
	logger  zerolog.Logger

	client *Client

	workers sync.WaitGroup
	cleanup sync.Once
}

func newSession(conn net.Conn, registry *Registry, queue *Queue, logger zerolog.Logger) *session {
	scanner := bufio.NewScanner(conn)
	// A line that exceeds the frame capacity cannot be resynced; the scanner
	// reports it as bufio.ErrTooLong and the session ends the connection.
	scanner.Buffer(make([]byte, 0, 256), protocol.MaxFrameLen)

	return &session{
		registry: registry,
		queue:    queue,
		conn:     conn,
		scanner:  scanner,
		logger:   logger.With().Str("remote", conn.RemoteAddr().String()).Logger(),
	}
}

func (s *session) run() {
	defer s.cleanupSession()

	if err := s.authenticate(); err != nil {
		if !errors.Is(err, errAuthRejected) {
			s.logger.Debug().Err(err).Msg("authentication aborted")
		}
		return
	}

	s.readLoop()
}

// readFrame blocks until the next newline-terminated frame arrives. A closed
// peer surfaces as io.EOF, an over-length line as bufio.ErrTooLong.
func (s *session) readFrame() (string, error) {
	if s.scanner.Scan() {
		return s.scanner.Text(), nil
	}
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// authenticate performs the blocking first-frame exchange. Any failure is
// terminal for the connection; the textual response has already been sent
// when an error comes back.
func (s *session) authenticate() error {
	line, err := s.readFrame()
	if err != nil {
		return fmt.Errorf("read auth frame: %w", err)
	}

	msg, err := protocol.Decode(line)
	if err != nil || msg.Kind != protocol.KindAuth {
		s.reject(protocol.RespBadAuthFormat)
		return errAuthRejected
	}

	if !protocol.ValidateUsername(msg.Sender) {
		s.reject(protocol.RespAuthInvalid)
		return errAuthRejected
	}

	client := newClient(s.conn, msg.Sender)
	if err := s.registry.Add(client); err != nil {
		switch {
		case errors.Is(err, ErrUsernameTaken):
			s.reject(protocol.RespAuthTaken)
		case errors.Is(err, ErrServerFull):
			s.reject(protocol.RespServerFull)
		}
		return errAuthRejected
	}
	s.client = client
	s.logger = s.logger.With().Str("user", client.Username).Str("conn_id", client.ID).Logger()

	if err := s.writeLine(protocol.RespAuthOK); err != nil {
		return fmt.Errorf("send auth ok: %w", err)
	}

	s.startWriter()
	s.notify(client.Username + " joined the chat")
	s.logger.Info().Msg("authenticated")
	return nil
}

// reject sends a terminal response directly on the socket; the per-client
// writer is never started on these paths.
func (s *session) reject(resp string) {
	_ = s.writeLine(resp)
	s.logger.Info().Str("response", resp).Msg("connection rejected")
}

func (s *session) startWriter() {
	s.workers.Add(1)
	go func() {
		defer s.workers.Done()
		s.client.writeLoop(s.logger)
	}()
}

// readLoop is the active state: one blocking frame read per iteration. Parse
// failures are logged and skipped; only a read error or an explicit
// DISCONNECT leaves the loop.
func (s *session) readLoop() {
	for {
		line, err := s.readFrame()
		if err != nil {
			if errors.Is(err, bufio.ErrTooLong) {
				s.client.tryDeliver(protocol.RespContentTooLong + "\n")
				s.logger.Warn().Msg("frame exceeds capacity, closing")
			} else if !errors.Is(err, io.EOF) {
				s.logger.Debug().Err(err).Msg("read failed")
			}
			return
		}

		msg, err := protocol.Decode(line)
		if err != nil {
			s.logger.Warn().Err(err).Msg("dropping unparseable frame")
			continue
		}

		switch msg.Kind {
		case protocol.KindMsg:
			s.handleChat(msg)
		case protocol.KindDisconnect:
			s.client.tryDeliver(protocol.RespDisconnectAck + "\n")
			s.logger.Info().Msg("disconnect requested")
			return
		default:
			s.logger.Debug().Str("kind", string(msg.Kind)).Msg("ignoring unexpected frame")
		}
	}
}

func (s *session) handleChat(msg protocol.Message) {
	// Never trust the client-supplied sender field.
	msg.Sender = s.client.Username

	if err := s.queue.Enqueue(msg); err != nil {
		s.logger.Warn().Err(err).Msg("chat message dropped")
	}
}

// cleanupSession runs exactly once per connection regardless of which path
// triggered it: broadcast the leave notification, unregister, let the writer
// drain, and close the socket.
func (s *session) cleanupSession() {
	s.cleanup.Do(func() {
		if s.client != nil {
			// Remove before announcing so the departing client can never be
			// a recipient of its own leave notification.
			s.registry.Remove(s.client.ID)
			s.notify(s.client.Username + " left the chat")
			close(s.client.send)

			_ = s.conn.SetWriteDeadline(time.Now().Add(lingerTimeout))
			s.workers.Wait()
		}
		_ = s.conn.Close()
		s.logger.Info().Msg("session closed")
	})
}

// notify enqueues a synthesized join/leave notification. These bypass the
// username/content validators on purpose: they are server text, not client
// input.
func (s *session) notify(text string) {
	err := s.queue.Enqueue(protocol.Message{Kind: protocol.KindNotify, Content: text})
	if err != nil {
		s.logger.Warn().Err(err).Msg("notification dropped")
	}
}

func (s *session) writeLine(line string) error {
	_, err := io.WriteString(s.conn, line+"\n")
	return err
}

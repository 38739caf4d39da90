// Package tcpserver provides a TCP accept loop with context-driven shutdown.
// Cancellation closes the listener and every tracked live connection, so
// handlers blocked in reads observe the shutdown as a read error.
package tcpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/rs/zerolog"
)

// ConnHandler handles one accepted connection. It runs in its own goroutine
// and must return only when it is done with the connection.
type ConnHandler func(conn net.Conn)

// Server wraps the TCP listener lifecycle.
type Server struct {
	Addr string

	logger zerolog.Logger

	mu    sync.Mutex
	bound net.Addr
	conns map[net.Conn]struct{}
}

// New creates a Server listening address and logger.
func New(addr string, logger zerolog.Logger) *Server {
	return &Server{
		Addr:   addr,
		logger: logger,
		conns:  make(map[net.Conn]struct{}),
	}
}

// ListenAndServe accepts connections until ctx is cancelled or an
// unrecoverable error occurs. A bind or listen failure is returned
// immediately. On cancellation it stops accepting, closes every live
// connection, and waits for all handlers to return.
func (s *Server) ListenAndServe(ctx context.Context, handler ConnHandler) error {
	if handler == nil {
		return errors.New("tcpserver: connection handler required")
	}

	listener, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("tcpserver: listen %q: %w", s.Addr, err)
	}
	defer listener.Close()

	s.mu.Lock()
	s.bound = listener.Addr()
	s.mu.Unlock()

	shutdown := make(chan struct{})
	defer close(shutdown)

	go func() {
		select {
		case <-ctx.Done():
			if err := listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
				s.logger.Warn().Err(err).Msg("listener close error")
			}
			s.closeAll()
		case <-shutdown:
		}
	}()

	s.logger.Info().Stringer("addr", listener.Addr()).Msg("listening")

	var handlers sync.WaitGroup
	defer handlers.Wait()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			s.logger.Warn().Err(err).Msg("accept error")
			continue
		}

		s.track(conn)
		s.logger.Info().Stringer("remote", conn.RemoteAddr()).Msg("connection accepted")

		handlers.Add(1)
		go func() {
			defer handlers.Done()
			defer s.untrack(conn)
			handler(conn)
		}()
	}
}

// BoundAddr returns the address the listener is bound to, or nil before
// ListenAndServe has bound it. Useful when listening on port 0.
func (s *Server) BoundAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bound
}

func (s *Server) track(conn net.Conn) {
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

// closeAll force-closes every live connection. Blocked handler reads fail and
// each handler runs its own cleanup path.
func (s *Server) closeAll() {
	s.mu.Lock()
	conns := make([]net.Conn, 0, len(s.conns))
	for conn := range s.conns {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.logger.Debug().Err(err).Msg("connection close error")
		}
	}

	if len(conns) > 0 {
		s.logger.Info().Int("count", len(conns)).Msg("closed live connections")
	}
}

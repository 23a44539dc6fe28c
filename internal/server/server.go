// Package server is the TCP transport: one goroutine per connection, one
// command per line, one response per command.
package server

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"time"

	"tradeledger/internal/ledgererr"
	"tradeledger/internal/pkg/response"
	"tradeledger/internal/session"

	"github.com/rs/zerolog/log"
)

// MaxLineBytes bounds a request line, terminator included.
const MaxLineBytes = 4096

var errLineTooLong = errors.New("line too long")

// Handler processes request lines for a session.
type Handler interface {
	Handle(ctx context.Context, sess *session.Session, line string) *response.Line
	Disconnect(ctx context.Context, sess *session.Session)
}

type Server struct {
	Handler     Handler
	IdleTimeout time.Duration
	state       *ServerState
}

func New(h Handler, idleTimeout time.Duration) *Server {
	return &Server{Handler: h, IdleTimeout: idleTimeout, state: newState()}
}

// State exposes the run-loop state.
func (s *Server) State() *ServerState {
	return s.state
}

// Done is closed once shutdown has been requested.
func (s *Server) Done() <-chan struct{} {
	return s.state.done
}

// Shutdown stops accepting connections and drains the live ones. Safe to call
// more than once and from a connection worker.
func (s *Server) Shutdown() {
	s.state.shutdown()
}

// ListenAndServe listens on addr and serves until ctx is cancelled or
// Shutdown is called.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln. It returns after every connection worker
// has finished.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if !s.state.start(ln) {
		return nil
	}
	log.Info().Str("addr", ln.Addr().String()).Msg("ledger server listening")

	go func() {
		select {
		case <-ctx.Done():
			s.Shutdown()
		case <-s.state.done:
		}
	}()

	// Commands run to completion even while the server drains.
	base := context.WithoutCancel(ctx)
	var acceptErr error
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.state.isClosing() {
				break
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				log.Warn().Err(err).Msg("accept failed, retrying")
				time.Sleep(10 * time.Millisecond)
				continue
			}
			acceptErr = err
			s.Shutdown()
			break
		}
		if !s.state.track(conn) {
			_ = conn.Close()
			continue
		}
		go s.serveConn(base, conn)
	}

	s.state.wg.Wait()
	log.Info().Msg("ledger server stopped")
	return acceptErr
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	sess := session.New(conn.RemoteAddr().String())
	logger := log.With().Str("session_id", sess.ID).Str("remote", sess.RemoteAddr).Logger()
	logger.Info().Msg("connection accepted")

	defer func() {
		s.Handler.Disconnect(ctx, sess)
		_ = conn.Close()
		s.state.untrack(conn)
		logger.Info().Msg("connection closed")
	}()

	r := bufio.NewReaderSize(conn, MaxLineBytes)
	for s.state.idle(conn, s.IdleTimeout) {
		line, err := readLine(r)
		s.state.busy(conn)

		var resp *response.Line
		switch {
		case errors.Is(err, errLineTooLong):
			resp = response.Fail(ledgererr.ErrFormat)
		case err != nil:
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) && !isTimeout(err) {
				logger.Warn().Err(err).Msg("read failed")
			}
			return
		default:
			resp = s.Handler.Handle(ctx, sess, line)
		}

		if _, err := io.WriteString(conn, resp.Render()); err != nil {
			logger.Warn().Err(err).Msg("write failed")
			return
		}
		if resp.Close {
			return
		}
	}
}

// readLine returns the next line without its terminator. An over-long line
// is consumed entirely and reported as errLineTooLong.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadSlice('\n')
	if errors.Is(err, bufio.ErrBufferFull) {
		for errors.Is(err, bufio.ErrBufferFull) {
			_, err = r.ReadSlice('\n')
		}
		if err != nil {
			return "", err
		}
		return "", errLineTooLong
	}
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		return "", err
	}
	return strings.TrimRight(string(line), "\r\n"), nil
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

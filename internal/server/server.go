// Package server implements the newline-delimited JSON command
// transport over TCP.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/warden/internal/config"
	"github.com/prn-tf/warden/internal/domain"
	"github.com/prn-tf/warden/internal/service"
)

// Server accepts TCP connections and feeds each line-framed request
// through the dispatcher. One goroutine per connection.
type Server struct {
	cfg        config.ServerConfig
	dispatcher *service.Dispatcher
	logger     zerolog.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
	closed   bool
}

// New creates a TCP command server.
func New(cfg config.ServerConfig, dispatcher *service.Dispatcher, logger zerolog.Logger) *Server {
	return &Server{
		cfg:        cfg,
		dispatcher: dispatcher,
		logger:     logger.With().Str("component", "server").Logger(),
		conns:      make(map[net.Conn]struct{}),
	}
}

// Start binds the listen address and begins accepting connections in a
// background goroutine.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("server listening")

	s.wg.Add(1)
	go s.acceptLoop(ln)
	return nil
}

// Addr returns the bound listen address. Valid only after Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes the listener and all live connections, then waits for
// connection goroutines to drain or the context to expire.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	ln := s.listener
	for c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()

	if ln != nil {
		ln.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Info().Msg("server stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) acceptLoop(ln net.Listener) {
	defer s.wg.Done()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Error().Err(err).Msg("accept failed")
			continue
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	remoteAddr := remoteIP(conn)
	logger := s.logger.With().Str("remote_addr", remoteAddr).Logger()
	logger.Debug().Msg("connection opened")

	scanner := bufio.NewScanner(conn)
	if s.cfg.MaxLineBytes > 0 {
		scanner.Buffer(make([]byte, 0, 4096), s.cfg.MaxLineBytes)
	}
	encoder := json.NewEncoder(conn)

	for {
		if s.cfg.ReadTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		}
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
				logger.Debug().Err(err).Msg("connection read ended")
			}
			return
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			logger.Warn().Err(err).Msg("dropping undecodable frame")
			res := domain.Result{
				Message: "Invalid command. Please enter new command.",
				Status:  domain.StatusUnsuccessful,
				Kind:    domain.KindInvalid,
			}
			if err := s.writeResponse(conn, encoder, responseFrom(res)); err != nil {
				return
			}
			continue
		}

		res := s.dispatcher.Execute(context.Background(), req.Message, req.Tier, remoteAddr)
		if err := s.writeResponse(conn, encoder, responseFrom(res)); err != nil {
			logger.Debug().Err(err).Msg("connection write ended")
			return
		}
	}
}

func (s *Server) writeResponse(conn net.Conn, encoder *json.Encoder, resp Response) error {
	if s.cfg.WriteTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	return encoder.Encode(resp)
}

// remoteIP strips the port from the peer address.
func remoteIP(conn net.Conn) string {
	addr := conn.RemoteAddr().String()
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

package server

import (
	"chat-relay/domain"
	"chat-relay/services"
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/samber/lo"
)

// ChatServer accepts control connections and runs one ConnectionHandler per peer.
type ChatServer struct {
	log          *slog.Logger
	service      services.IChatService
	parser       *domain.CommandParser
	writeTimeout time.Duration

	listener net.Listener
	mu       sync.Mutex
	handlers map[*ConnectionHandler]struct{}
	wg       sync.WaitGroup
	closing  bool

	shutdownOnce sync.Once
	stopped      chan struct{}
}

func NewChatServer(
	log *slog.Logger,
	service services.IChatService,
	parser *domain.CommandParser,
	writeTimeout time.Duration,
) *ChatServer {
	return &ChatServer{
		log:          log,
		service:      service,
		parser:       parser,
		writeTimeout: writeTimeout,
		handlers:     make(map[*ConnectionHandler]struct{}),
		stopped:      make(chan struct{}),
	}
}

// Listen binds the control endpoint.
func (s *ChatServer) Listen(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	s.listener = listener
	return nil
}

func (s *ChatServer) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve runs the accept loop until ctx is cancelled, then shuts the server down.
func (s *ChatServer) Serve(ctx context.Context) error {
	if s.listener == nil {
		return fmt.Errorf("chat server: Listen must be called before Serve")
	}
	s.log.Info("Chat server listening", "address", s.listener.Addr().String())

	stop := context.AfterFunc(ctx, s.Shutdown)
	defer stop()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.isClosing() {
				<-s.stopped
				return nil
			}
			s.log.Warn("Accept failed", "error", err)
			continue
		}
		s.handle(conn)
	}
}

func (s *ChatServer) handle(conn net.Conn) {
	handler := NewConnectionHandler(s.log, conn, s.service, s.parser, s.writeTimeout)

	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		handler.Close()
		return
	}
	s.handlers[handler] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.handlers, handler)
			s.mu.Unlock()
		}()
		s.log.Debug("Control connection accepted")
		if err := handler.Serve(); err != nil {
			s.log.Debug("Control connection ended", "name", handler.Name(), "error", err)
		}
	}()
}

// Shutdown stops accepting, closes every control connection and waits for the handlers.
// Every caller returns only once the server is fully stopped.
func (s *ChatServer) Shutdown() {
	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		s.closing = true
		handlers := lo.Keys(s.handlers)
		s.mu.Unlock()

		if s.listener != nil {
			if err := s.listener.Close(); err != nil {
				s.log.Debug("Error while closing chat listener", "error", err)
			}
		}
		for _, handler := range handlers {
			handler.Close()
		}
		s.wg.Wait()
		s.log.Info("Chat server stopped", "closed_connections", len(handlers))
		close(s.stopped)
	})
	<-s.stopped
}

func (s *ChatServer) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

// Sessions returns the number of open control connections.
func (s *ChatServer) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers)
}

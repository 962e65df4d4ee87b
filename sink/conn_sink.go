package sink

import (
	"chat-relay/errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// ConnSink writes newline-terminated lines to one control connection.
// Router goroutines of several senders may write concurrently; the mutex keeps
// every line whole on the wire.
// A failed write closes the connection: the peer may hold half a line, and the
// owning handler's read loop ends so the participant is unregistered.
type ConnSink struct {
	mu           sync.Mutex
	conn         net.Conn
	writeTimeout time.Duration
	broken       error
}

func NewConnSink(conn net.Conn, writeTimeout time.Duration) *ConnSink {
	return &ConnSink{
		conn:         conn,
		writeTimeout: writeTimeout,
	}
}

func (s *ConnSink) Send(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.broken != nil {
		return s.broken
	}
	if s.writeTimeout > 0 {
		if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
			return s.fail(err)
		}
	}
	if _, err := io.WriteString(s.conn, line+"\n"); err != nil {
		return s.fail(err)
	}
	return nil
}

func (s *ConnSink) fail(err error) error {
	s.broken = fmt.Errorf("%w: %v", errors.ErrConnectionLost, err)
	_ = s.conn.Close()
	return s.broken
}

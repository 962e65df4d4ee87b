package client

import (
	"bufio"
	"bytes"
	"chat-relay/domain"
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type sessionFixture struct {
	session *Session
	server  net.Conn
	lines   *bufio.Reader
	out     *syncBuffer
}

func newSessionFixture(t *testing.T) sessionFixture {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	clientSide, serverSide := net.Pipe()
	t.Cleanup(func() {
		_ = clientSide.Close()
		_ = serverSide.Close()
	})
	out := &syncBuffer{}
	session := NewSession(log, clientSide, NewConsole(out, false), NewTransferAgent(log, testAgentConfig(t.TempDir()))).
		WithProgressBars(false)
	return sessionFixture{session: session, server: serverSide, lines: bufio.NewReader(serverSide), out: out}
}

// expectLine reads what the session wrote on the control connection.
func (f sessionFixture) expectLine(t *testing.T) string {
	t.Helper()
	require.NoError(t, f.server.SetReadDeadline(time.Now().Add(time.Second)))
	line, err := f.lines.ReadString('\n')
	require.NoError(t, err)
	return strings.TrimRight(line, "\n")
}

func TestSession_Plain_Lines_Are_Forwarded(t *testing.T) {
	req := require.New(t)
	f := newSessionFixture(t)

	go func() { _ = f.session.HandleInput("hello everyone") }()

	req.Equal("hello everyone", f.expectLine(t))
}

func TestSession_SendFile_Issues_Request(t *testing.T) {
	req := require.New(t)
	f := newSessionFixture(t)
	path := filepath.Join(t.TempDir(), "summer photos.zip")
	req.NoError(os.WriteFile(path, []byte("0123456789"), 0o644))

	// When the user offers a file
	go func() { _ = f.session.HandleInput("/sendfile bob " + path) }()

	// Then the request carries a single-token name and the real size
	req.Equal("SENDFILE_REQUEST bob summer_photos.zip 10", f.expectLine(t))
	pending, ok := f.session.claim("bob")
	req.True(ok)
	req.Equal(domain.RoleSend, pending.role)
	req.Equal(path, pending.path)
}

func TestSession_SendFile_Missing_File(t *testing.T) {
	req := require.New(t)
	f := newSessionFixture(t)

	err := f.session.HandleInput("/sendfile bob /does/not/exist.bin")

	req.NoError(err)
	req.Contains(f.out.String(), "cannot send /does/not/exist.bin")
	_, ok := f.session.claim("bob")
	req.False(ok)
}

func TestSession_Accept_Requires_Known_Offer(t *testing.T) {
	req := require.New(t)
	f := newSessionFixture(t)

	err := f.session.HandleInput("/accept alice")

	req.NoError(err)
	req.Contains(f.out.String(), "no file offer from alice")
}

func TestSession_Incoming_Offer_Then_Accept(t *testing.T) {
	req := require.New(t)
	f := newSessionFixture(t)

	// Given alice's offer reached us
	f.session.handleServerLine(context.Background(), "INCOMING_FILE @alice report.pdf 1024")
	req.Contains(f.out.String(), "alice wants to send you report.pdf (1024 bytes)")

	// When the user accepts it
	go func() { _ = f.session.HandleInput("/accept alice") }()

	// Then the accept is sent and the rendezvous with alice is a receive
	req.Equal("SENDFILE_ACCEPT alice", f.expectLine(t))
	pending, ok := f.session.claim("alice")
	req.True(ok)
	req.Equal(domain.RoleRecv, pending.role)
	req.Equal("report.pdf", pending.filename)
	req.Equal(int64(1024), pending.size)
}

func TestSession_Unexpected_TransferReady(t *testing.T) {
	f := newSessionFixture(t)

	f.session.handleServerLine(context.Background(), "TRANSFER_READY 127.0.0.1 4000 @mallory")
	f.session.Wait()

	require.Contains(t, f.out.String(), "unexpected transfer channel for mallory")
}

func TestSession_Text_Lines_Are_Printed(t *testing.T) {
	f := newSessionFixture(t)

	f.session.handleServerLine(context.Background(), "[09:05] alice: hi")

	require.Equal(t, "[09:05] alice: hi\n", f.out.String())
}

func TestSession_Run_Ends_When_Server_Closes(t *testing.T) {
	req := require.New(t)
	f := newSessionFixture(t)
	input, _ := io.Pipe()

	done := make(chan error, 1)
	go func() { done <- f.session.Run(context.Background(), input) }()

	// When the server sends a line then hangs up
	_, err := f.server.Write([]byte("Welcome to the chat! Please enter your username:\n"))
	req.NoError(err)
	req.NoError(f.server.Close())

	select {
	case err := <-done:
		req.NoError(err)
	case <-time.After(2 * time.Second):
		req.Fail("Session did not stop")
	}
	req.Contains(f.out.String(), "Welcome to the chat!")
	req.Contains(f.out.String(), "Disconnected from server.")
}

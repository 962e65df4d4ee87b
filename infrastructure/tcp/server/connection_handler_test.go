package server

import (
	"bufio"
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/runtime"
	"chat-relay/services"
	"fmt"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type handlerFixture struct {
	handler *ConnectionHandler
	service *mocks.MockIChatService
	client  net.Conn
	reader  *bufio.Reader
	done    chan error
}

func newHandlerFixture(t *testing.T) handlerFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	service := mocks.NewMockIChatService(ctrl)
	serverSide, client := net.Pipe()
	t.Cleanup(func() { _ = client.Close() })

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	handler := NewConnectionHandler(log, serverSide, service, domain.NewCommandParser("quit"), time.Second)
	return handlerFixture{
		handler: handler,
		service: service,
		client:  client,
		reader:  bufio.NewReader(client),
		done:    make(chan error, 1),
	}
}

func (f handlerFixture) start() {
	go func() { f.done <- f.handler.Serve() }()
}

func (f handlerFixture) readLine(t *testing.T) string {
	t.Helper()
	_ = f.client.SetReadDeadline(time.Now().Add(time.Second))
	line, err := f.reader.ReadString('\n')
	require.NoError(t, err)
	return line[:len(line)-1]
}

func (f handlerFixture) write(t *testing.T, line string) {
	t.Helper()
	_ = f.client.SetWriteDeadline(time.Now().Add(time.Second))
	_, err := fmt.Fprintf(f.client, "%s\n", line)
	require.NoError(t, err)
}

func (f handlerFixture) wait(t *testing.T) error {
	t.Helper()
	select {
	case err := <-f.done:
		return err
	case <-time.After(2 * time.Second):
		require.Fail(t, "Handler did not stop")
		return nil
	}
}

func (f handlerFixture) join(t *testing.T, name string) {
	t.Helper()
	f.service.EXPECT().Join(name, gomock.Any()).Return(nil).Times(1)
	f.service.EXPECT().AnnounceJoin(name).Times(1)
	f.start()
	require.Equal(t, domain.WelcomeNotice(), f.readLine(t))
	f.write(t, name)
	require.Equal(t, domain.JoinedNotice("quit"), f.readLine(t))
}

func TestConnectionHandler_Welcome_And_Join(t *testing.T) {
	req := require.New(t)
	f := newHandlerFixture(t)

	// Given alice completes the welcome flow
	f.join(t, "alice")
	req.Equal(Active, f.handler.State())
	req.Equal("alice", f.handler.Name())

	// When she types the quit keyword in another case
	f.service.EXPECT().Leave("alice", gomock.Any()).Times(1)
	f.write(t, "QUIT")

	// Then the handler leaves once and closes the socket
	req.NoError(f.wait(t))
	req.Equal(Closed, f.handler.State())
	_, err := f.reader.ReadString('\n')
	req.ErrorIs(err, io.EOF)
}

func TestConnectionHandler_Name_Taken_Reprompts(t *testing.T) {
	req := require.New(t)
	f := newHandlerFixture(t)

	// Given alice is already taken in strict mode
	gomock.InOrder(
		f.service.EXPECT().Join("alice", gomock.Any()).
			Return(fmt.Errorf("%w: %q", errors.ErrNameTaken, "alice")),
		f.service.EXPECT().Join("alice2", gomock.Any()).Return(nil),
	)
	f.service.EXPECT().AnnounceJoin("alice2").Times(1)
	f.start()
	req.Equal(domain.WelcomeNotice(), f.readLine(t))

	// When the connection asks for alice
	f.write(t, "alice")

	// Then it is told to choose another and stays unnamed
	req.Equal(domain.NameUnavailableNotice("alice"), f.readLine(t))
	req.Equal(AwaitingName, f.handler.State())

	f.write(t, "alice2")
	req.Equal(domain.JoinedNotice("quit"), f.readLine(t))

	f.service.EXPECT().Leave("alice2", gomock.Any()).Times(1)
	_ = f.client.Close()
	req.NoError(f.wait(t))
}

func TestConnectionHandler_Blank_Name(t *testing.T) {
	tests := []struct {
		name        string
		uniqueNames bool
		accepted    bool
	}{
		{"accepted verbatim by default", false, true},
		{"refused when names must be unique", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			ctrl := gomock.NewController(t)
			coordinator := mocks.NewMockICoordinator(ctrl)
			coordinator.EXPECT().Forget(gomock.Any()).AnyTimes()
			log := logs.GetLoggerFromLevel(slog.LevelDebug)
			registry := runtime.NewRegistry()
			service := services.NewChatService(log, registry, runtime.NewRouter(registry, log), coordinator, tt.uniqueNames)

			serverSide, client := net.Pipe()
			defer client.Close()
			handler := NewConnectionHandler(log, serverSide, service, domain.NewCommandParser("quit"), time.Second)
			f := handlerFixture{handler: handler, client: client, reader: bufio.NewReader(client), done: make(chan error, 1)}
			f.start()
			req.Equal(domain.WelcomeNotice(), f.readLine(t))

			// When the first line is blank
			f.write(t, "   ")

			// Then the name is taken as typed, or refused in strict mode
			if tt.accepted {
				req.Equal(domain.JoinedNotice("quit"), f.readLine(t))
				req.Contains(f.readLine(t), domain.JoinAnnouncement("   "))
				_, ok := registry.Lookup("   ")
				req.True(ok)
				req.Equal(Active, handler.State())
			} else {
				req.Equal(domain.NameUnavailableNotice("   "), f.readLine(t))
				req.Zero(registry.Len())
				req.Equal(AwaitingName, handler.State())
			}

			_ = client.Close()
			<-f.done
			req.Zero(registry.Len())
		})
	}
}

func TestConnectionHandler_Close_During_Join_Unregisters(t *testing.T) {
	req := require.New(t)
	f := newHandlerFixture(t)

	// Given the server shuts the connection down while alice is being registered
	f.service.EXPECT().Join("alice", gomock.Any()).
		DoAndReturn(func(string, contract.LineSink) error {
			f.handler.Close()
			return nil
		})
	f.service.EXPECT().Leave("alice", gomock.Any()).Times(1)
	f.service.EXPECT().AnnounceJoin(gomock.Any()).Times(0)
	f.start()
	req.Equal(domain.WelcomeNotice(), f.readLine(t))

	// When the name arrives
	f.write(t, "alice")

	// Then the fresh registration is undone and the handler stays closed
	f.wait(t)
	req.Equal(Closed, f.handler.State())
}

func TestConnectionHandler_Failed_Write_Unregisters(t *testing.T) {
	req := require.New(t)
	f := newHandlerFixture(t)
	f.join(t, "alice")
	f.service.EXPECT().Leave("alice", gomock.Any()).Times(1)

	// When a line to alice cannot be written because she stopped reading
	err := f.handler.sink.Send("[09:05] bob: are you there?")
	req.ErrorIs(err, errors.ErrConnectionLost)

	// Then her connection ends and she is no longer addressable
	req.ErrorIs(f.wait(t), errors.ErrConnectionLost)
	req.Equal(Closed, f.handler.State())
}

func TestConnectionHandler_Dispatches_Commands(t *testing.T) {
	req := require.New(t)
	f := newHandlerFixture(t)
	f.join(t, "alice")

	// Given every command variant is expected in issue order
	gomock.InOrder(
		f.service.EXPECT().Broadcast("alice", "hello everyone").Return(1),
		f.service.EXPECT().Private("alice", "bob", "just you").Return(nil),
		f.service.EXPECT().RequestTransfer("alice", "bob", "report.pdf", int64(1024)).Return(nil),
		f.service.EXPECT().AcceptTransfer("alice", "carol").
			Return(fmt.Errorf("%w: carol", errors.ErrNoPendingOffer)),
		f.service.EXPECT().Leave("alice", gomock.Any()),
	)

	// When alice sends them
	f.write(t, "hello everyone")
	f.write(t, "")
	f.write(t, "@bob just you")
	f.write(t, "SENDFILE_REQUEST bob report.pdf 1024")
	f.write(t, "SENDFILE_ACCEPT carol")
	f.write(t, "SENDFILE_REQUEST bob")

	// Then the malformed one comes back as a usage notice and the connection survives
	req.Equal(domain.UsageNotice(domain.UsageSendRequest), f.readLine(t))
	f.write(t, "quit")
	req.NoError(f.wait(t))
}

func TestConnectionHandler_EOF_Before_Name_Does_Not_Leave(t *testing.T) {
	req := require.New(t)
	f := newHandlerFixture(t)
	f.service.EXPECT().Leave(gomock.Any(), gomock.Any()).Times(0)
	f.start()
	req.Equal(domain.WelcomeNotice(), f.readLine(t))

	// When the peer hangs up without a name
	_ = f.client.Close()

	// Then nothing is unregistered
	req.NoError(f.wait(t))
	req.Equal(Closed, f.handler.State())
}

func TestConnectionHandler_Close_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	f := newHandlerFixture(t)
	f.join(t, "alice")

	f.service.EXPECT().Leave("alice", gomock.Any()).Times(1)

	// When the server and the read loop both close the connection
	f.handler.Close()
	f.handler.Close()

	req.NoError(f.wait(t))
	req.Equal(Closed, f.handler.State())
}

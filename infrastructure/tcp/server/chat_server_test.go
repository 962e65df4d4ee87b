package server

import (
	"bufio"
	"chat-relay/domain"
	"chat-relay/mocks"
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestChatServer_Serve_And_Shutdown(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	service := mocks.NewMockIChatService(ctrl)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	server := NewChatServer(log, service, domain.NewCommandParser(""), time.Second)
	req.NoError(server.Listen("127.0.0.1:0"))

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- server.Serve(ctx) }()

	// Given a participant joined
	service.EXPECT().Join("alice", gomock.Any()).Return(nil)
	service.EXPECT().AnnounceJoin("alice")
	conn, err := net.DialTimeout("tcp", server.Addr().String(), time.Second)
	req.NoError(err)
	defer conn.Close()
	reader := bufio.NewReader(conn)

	line, err := reader.ReadString('\n')
	req.NoError(err)
	req.Equal(domain.WelcomeNotice()+"\n", line)
	_, err = conn.Write([]byte("alice\n"))
	req.NoError(err)
	line, err = reader.ReadString('\n')
	req.NoError(err)
	req.Equal(domain.JoinedNotice("quit")+"\n", line)
	req.Equal(1, server.Sessions())

	// When the server shuts down
	service.EXPECT().Leave("alice", gomock.Any()).Times(1)
	cancel()

	// Then the participant is disconnected and Serve returns
	select {
	case err := <-served:
		req.NoError(err)
	case <-time.After(2 * time.Second):
		req.Fail("Serve did not return")
	}
	_, err = reader.ReadString('\n')
	req.ErrorIs(err, io.EOF)
	req.Zero(server.Sessions())

	// And a later Shutdown returns immediately
	server.Shutdown()
}

func TestChatServer_Serve_Requires_Listen(t *testing.T) {
	req := require.New(t)
	server := NewChatServer(slog.Default(), nil, domain.NewCommandParser(""), time.Second)

	req.Error(server.Serve(context.Background()))
	req.Nil(server.Addr())
}

package runtime

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/runtime/workers"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type coordinatorFixture struct {
	registry    *Registry
	coordinator *Coordinator
	alice       *Sink
	bob         *Sink
}

func newCoordinatorFixture(t *testing.T) coordinatorFixture {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := NewRegistry()
	router := NewRouter(registry, log).WithClock(fixedClock)
	cfg := CoordinatorConfig{
		ListenHost: "127.0.0.1",
		Relay: workers.RelayConfig{
			AcceptTimeout:    2 * time.Second,
			IOTimeout:        2 * time.Second,
			ProgressInterval: time.Second,
			ChunkSize:        4096,
			RoleTags:         true,
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	coordinator := NewCoordinator(ctx, log, registry, router, NewOfferBook(time.Minute), NewAddressResolver(""), cfg)

	alice, bob := &Sink{}, &Sink{}
	registry.Add("alice", alice)
	registry.Add("bob", bob)
	return coordinatorFixture{registry: registry, coordinator: coordinator, alice: alice, bob: bob}
}

func TestCoordinator_RequestTransfer_Notifies_Recipient(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)

	// When alice offers bob a file
	err := f.coordinator.RequestTransfer("alice", "bob", "report.pdf", 1024)

	// Then bob is told about it and alice hears nothing
	req.NoError(err)
	req.Equal([]string{"INCOMING_FILE @alice report.pdf 1024"}, f.bob.Lines())
	req.Empty(f.alice.Lines())
}

func TestCoordinator_RequestTransfer_Unknown_Recipient(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)

	err := f.coordinator.RequestTransfer("alice", "dave", "report.pdf", 1024)

	req.ErrorIs(err, errors.ErrNotFound)
	req.Equal([]string{"Server: user 'dave' not found or offline."}, f.alice.Lines())
	req.Empty(f.bob.Lines())
	req.Zero(f.coordinator.offers.Count())
}

func TestCoordinator_RequestTransfer_To_Self(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)

	err := f.coordinator.RequestTransfer("alice", "alice", "report.pdf", 1024)

	req.ErrorIs(err, errors.ErrSelfTransfer)
	req.Equal([]string{"Server: you cannot send a file to yourself."}, f.alice.Lines())
}

func TestCoordinator_PrepareTransfer_Without_Offer(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)

	// When bob accepts an offer that was never made
	_, err := f.coordinator.PrepareTransfer("alice", "bob")

	// Then bob is told and no relay starts
	req.ErrorIs(err, errors.ErrNotFound)
	req.ErrorIs(err, errors.ErrNoPendingOffer)
	req.Equal([]string{"Server: no pending file offer from 'alice'."}, f.bob.Lines())
	req.Zero(f.coordinator.Active())
}

func TestCoordinator_PrepareTransfer_Listen_Failure(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)
	f.coordinator.WithListen(func(network, address string) (net.Listener, error) {
		return nil, fmt.Errorf("no ports left")
	})
	req.NoError(f.coordinator.RequestTransfer("alice", "bob", "a.txt", 3))

	_, err := f.coordinator.PrepareTransfer("alice", "bob")

	req.ErrorIs(err, errors.ErrResource)
	req.Contains(f.alice.Lines(), "Server: could not open a transfer channel.")
	req.Contains(f.bob.Lines(), "Server: could not open a transfer channel.")
}

func TestCoordinator_Forget_Drops_Offers(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)
	req.NoError(f.coordinator.RequestTransfer("alice", "bob", "a.txt", 3))

	// When alice disconnects before bob accepts
	f.coordinator.Forget("alice")

	// Then the accept finds nothing
	_, err := f.coordinator.PrepareTransfer("alice", "bob")
	req.ErrorIs(err, errors.ErrNoPendingOffer)
}

func TestCoordinator_Full_Rendezvous(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)
	payload := []byte("the quarterly report, in full")

	// Given alice offered and bob accepted
	req.NoError(f.coordinator.RequestTransfer("alice", "bob", "report.pdf", int64(len(payload))))
	rendezvous, err := f.coordinator.PrepareTransfer("alice", "bob")
	req.NoError(err)

	// Then both receive TRANSFER_READY naming each other with the same endpoint
	aliceReady := domain.ParseServerLine(f.alice.Lines()[0]).(domain.TransferReadyEvent)
	bobReady := domain.ParseServerLine(f.bob.Lines()[1]).(domain.TransferReadyEvent)
	req.Equal("bob", aliceReady.Peer)
	req.Equal("alice", bobReady.Peer)
	req.Equal(aliceReady.Address, bobReady.Address)
	req.Equal(aliceReady.Port, bobReady.Port)
	req.Equal(rendezvous.Port, aliceReady.Port)
	req.Equal(1, f.coordinator.Active())

	// When both peers dial in and alice streams the file
	endpoint := net.JoinHostPort(aliceReady.Address, fmt.Sprint(aliceReady.Port))
	recipient, err := net.DialTimeout("tcp", endpoint, time.Second)
	req.NoError(err)
	defer recipient.Close()
	_, err = recipient.Write([]byte(domain.RoleRecv.Tag()))
	req.NoError(err)

	source, err := net.DialTimeout("tcp", endpoint, time.Second)
	req.NoError(err)
	defer source.Close()
	_, err = source.Write(append([]byte(domain.RoleSend.Tag()), payload...))
	req.NoError(err)
	req.NoError(source.(*net.TCPConn).CloseWrite())

	// Then bob receives the exact bytes and the relay is gone
	received, err := io.ReadAll(recipient)
	req.NoError(err)
	req.Equal(payload, received)

	f.coordinator.Wait()
	req.Zero(f.coordinator.Active())
}

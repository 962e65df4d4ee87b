package runtime

import (
	"chat-relay/errors"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2026, 3, 14, 9, 5, 0, 0, time.Local)
}

func newTestRouter() (*Registry, *Router) {
	registry := NewRegistry()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	return registry, NewRouter(registry, log).WithClock(fixedClock)
}

func TestRouter_Broadcast_Skips_Sender(t *testing.T) {
	req := require.New(t)
	registry, router := newTestRouter()
	alice, bob, carol := &Sink{}, &Sink{}, &Sink{}
	registry.Add("alice", alice)
	registry.Add("bob", bob)
	registry.Add("carol", carol)

	// When alice says hello
	delivered := router.Broadcast("alice", "hello")

	// Then everyone else receives it, alice does not
	req.Equal(2, delivered)
	req.Equal([]string{"[09:05] alice: hello"}, bob.Lines())
	req.Equal([]string{"[09:05] alice: hello"}, carol.Lines())
	req.Empty(alice.Lines())
}

func TestRouter_Broadcast_Survives_Broken_Sink(t *testing.T) {
	req := require.New(t)
	registry, router := newTestRouter()
	broken, bob := &Sink{fail: true}, &Sink{}
	registry.Add("carol", broken)
	registry.Add("bob", bob)

	delivered := router.Broadcast("alice", "hi")

	req.Equal(1, delivered)
	req.Len(bob.Lines(), 1)
}

func TestRouter_Broadcast_Preserves_Sender_Order(t *testing.T) {
	req := require.New(t)
	registry, router := newTestRouter()
	bob := &Sink{}
	registry.Add("alice", &Sink{})
	registry.Add("bob", bob)

	for _, text := range []string{"one", "two", "three"} {
		router.Broadcast("alice", text)
	}

	req.Equal([]string{
		"[09:05] alice: one",
		"[09:05] alice: two",
		"[09:05] alice: three",
	}, bob.Lines())
}

func TestRouter_PrivateMessage_Only_Recipient(t *testing.T) {
	req := require.New(t)
	registry, router := newTestRouter()
	alice, bob, carol := &Sink{}, &Sink{}, &Sink{}
	registry.Add("alice", alice)
	registry.Add("bob", bob)
	registry.Add("carol", carol)

	// When alice whispers to bob
	err := router.PrivateMessage("alice", "bob", "secret plan")

	// Then only bob receives it
	req.NoError(err)
	req.Equal([]string{"[09:05] (private) alice: secret plan"}, bob.Lines())
	req.Empty(carol.Lines())
	req.Empty(alice.Lines())
}

func TestRouter_PrivateMessage_Unknown_Recipient(t *testing.T) {
	req := require.New(t)
	registry, router := newTestRouter()
	alice, bob := &Sink{}, &Sink{}
	registry.Add("alice", alice)
	registry.Add("bob", bob)

	// When alice writes to someone absent
	err := router.PrivateMessage("alice", "dave", "x")

	// Then alice receives exactly one not-found notice and nobody else hears anything
	req.ErrorIs(err, errors.ErrNotFound)
	req.Equal([]string{"Server: user 'dave' not found or offline."}, alice.Lines())
	req.Empty(bob.Lines())
}

func TestRouter_Announce_Reaches_Everyone(t *testing.T) {
	req := require.New(t)
	registry, router := newTestRouter()
	alice, bob := &Sink{}, &Sink{}
	registry.Add("alice", alice)
	registry.Add("bob", bob)

	delivered := router.Announce("bob joined the chat")

	req.Equal(2, delivered)
	req.Equal([]string{"[09:05] Server: bob joined the chat"}, alice.Lines())
	req.Equal([]string{"[09:05] Server: bob joined the chat"}, bob.Lines())
}

func TestRouter_Notify_Unknown(t *testing.T) {
	req := require.New(t)
	_, router := newTestRouter()

	req.ErrorIs(router.Notify("ghost", "hello"), errors.ErrNotFound)
}

package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/observability"
	"chat-relay/runtime/workers"
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ListenFunc opens the ephemeral endpoint of a rendezvous.
type ListenFunc func(network, address string) (net.Listener, error)

type CoordinatorConfig struct {
	// ListenHost is the interface rendezvous listeners bind to; empty means all.
	ListenHost string
	Relay      workers.RelayConfig
}

// Coordinator tracks pending file offers and launches one relay per accepted offer.
// Relays run on their own goroutines, tied to the server context only: closing a
// control connection never cancels a transfer in flight.
type Coordinator struct {
	log        *slog.Logger
	registry   *Registry
	router     *Router
	offers     *OfferBook
	resolver   *AddressResolver
	listen     ListenFunc
	cfg        CoordinatorConfig
	journal    contract.ITransferJournal
	monitoring *observability.MonitoringManager
	clock      func() time.Time

	ctx    context.Context
	wg     sync.WaitGroup
	mu     sync.Mutex
	active map[uuid.UUID]*workers.RelayWorker
}

func NewCoordinator(
	ctx context.Context,
	log *slog.Logger,
	registry *Registry,
	router *Router,
	offers *OfferBook,
	resolver *AddressResolver,
	cfg CoordinatorConfig,
) *Coordinator {
	return &Coordinator{
		log:      log,
		registry: registry,
		router:   router,
		offers:   offers,
		resolver: resolver,
		listen:   net.Listen,
		cfg:      cfg,
		clock:    time.Now,
		ctx:      ctx,
		active:   make(map[uuid.UUID]*workers.RelayWorker),
	}
}

func (c *Coordinator) WithJournal(journal contract.ITransferJournal) *Coordinator {
	c.journal = journal
	return c
}

func (c *Coordinator) WithMonitoring(monitoring *observability.MonitoringManager) *Coordinator {
	c.monitoring = monitoring
	return c
}

func (c *Coordinator) WithListen(listen ListenFunc) *Coordinator {
	c.listen = listen
	return c
}

// RequestTransfer records the offer and tells the recipient about it.
// Nothing is allocated until the recipient accepts.
func (c *Coordinator) RequestTransfer(sender, recipient, filename string, size int64) error {
	if sender == recipient {
		c.notify(sender, domain.SelfTransferNotice())
		return fmt.Errorf("%w: %s", errors.ErrSelfTransfer, sender)
	}
	if _, ok := c.registry.Lookup(recipient); !ok {
		c.notify(sender, domain.NotFoundNotice(recipient))
		return fmt.Errorf("%w: %s", errors.ErrNotFound, recipient)
	}

	c.offers.Put(domain.PendingOffer{
		Sender:    sender,
		Recipient: recipient,
		Filename:  filename,
		Size:      size,
		OfferedAt: c.clock(),
	})
	if err := c.router.Notify(recipient, domain.IncomingFileLine(sender, filename, size)); err != nil {
		c.offers.Take(recipient, sender)
		c.notify(sender, domain.NotFoundNotice(recipient))
		return err
	}
	c.log.Info("File offered", "sender", sender, "recipient", recipient, "filename", filename, "bytes", size)
	return nil
}

// PrepareTransfer consumes the offer from sender to recipient, opens a rendezvous
// endpoint, starts its relay and sends TRANSFER_READY to both parties.
// It returns as soon as the relay is launched.
func (c *Coordinator) PrepareTransfer(sender, recipient string) (domain.Rendezvous, error) {
	offer, ok := c.offers.Take(recipient, sender)
	if !ok {
		c.notify(recipient, domain.NoPendingOfferNotice(sender))
		return domain.Rendezvous{}, fmt.Errorf("%w: %w from %s", errors.ErrNotFound, errors.ErrNoPendingOffer, sender)
	}
	if _, ok := c.registry.Lookup(sender); !ok {
		c.notify(recipient, domain.NotFoundNotice(sender))
		return domain.Rendezvous{}, fmt.Errorf("%w: %s", errors.ErrNotFound, sender)
	}

	listener, err := c.listen("tcp", net.JoinHostPort(c.cfg.ListenHost, "0"))
	if err != nil {
		c.log.Error("Unable to open rendezvous endpoint", "sender", sender, "recipient", recipient, "error", err)
		c.notify(recipient, domain.TransferChannelNotice())
		c.notify(sender, domain.TransferChannelNotice())
		return domain.Rendezvous{}, fmt.Errorf("%w: %v", errors.ErrResource, err)
	}

	address := c.resolver.Resolve(listener.Addr())
	port := portOf(listener.Addr())
	rendezvous := domain.NewRendezvous(address, port, offer, c.clock())

	worker := workers.NewRelayWorker(c.log, listener, rendezvous, c.cfg.Relay).
		WithProgress(c.logProgress)
	if c.journal != nil {
		worker = worker.WithJournal(c.journal)
	}
	if c.monitoring != nil {
		worker = worker.WithMonitoring(c.monitoring)
	}
	c.launch(rendezvous.ID, worker)

	c.log.Info("Rendezvous opened", "rendezvous_id", rendezvous.ID.String(), "sender", sender,
		"recipient", recipient, "endpoint", rendezvous.Endpoint())
	c.notify(sender, domain.TransferReadyLine(address, port, recipient))
	c.notify(recipient, domain.TransferReadyLine(address, port, sender))
	return rendezvous, nil
}

// Forget drops every pending offer involving name. Running relays are left alone.
func (c *Coordinator) Forget(name string) {
	if dropped := c.offers.DropParticipant(name); dropped > 0 {
		c.log.Debug("Pending offers dropped", "name", name, "count", dropped)
	}
}

// Active returns the number of relays still running.
func (c *Coordinator) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.active)
}

// Wait blocks until every launched relay has released its resources.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func (c *Coordinator) launch(id uuid.UUID, worker *workers.RelayWorker) {
	c.mu.Lock()
	c.active[id] = worker
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			c.mu.Lock()
			delete(c.active, id)
			c.mu.Unlock()
		}()
		// The relay logs and journals its own outcome.
		_ = worker.Run(c.ctx)
	}()
}

func (c *Coordinator) logProgress(p domain.TransferProgress) {
	c.log.Info("Relay progress",
		"rendezvous_id", p.RendezvousID.String(),
		"bytes", p.Transferred,
		"declared", p.Declared,
		"percent", fmt.Sprintf("%.1f", p.Percent()),
		"elapsed", p.Elapsed.Round(time.Millisecond))
}

func (c *Coordinator) notify(name, line string) {
	if err := c.router.Notify(name, line); err != nil {
		c.log.Debug("Notice undelivered", "name", name, "error", err)
	}
}

func portOf(addr net.Addr) int {
	if tcpAddr, ok := addr.(*net.TCPAddr); ok {
		return tcpAddr.Port
	}
	_, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return 0
	}
	p, _ := strconv.Atoi(port)
	return p
}

package runtime

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"
)

// Router delivers chat lines through the Registry.
// Delivery is synchronous on the caller's goroutine, which is what keeps one
// sender's messages in issue order for every recipient.
type Router struct {
	registry *Registry
	clock    func() time.Time
	log      *slog.Logger
}

func NewRouter(registry *Registry, log *slog.Logger) *Router {
	return &Router{registry: registry, clock: time.Now, log: log}
}

// WithClock replaces the time source used for the [HH:MM] stamp.
func (r *Router) WithClock(clock func() time.Time) *Router {
	r.clock = clock
	return r
}

// Broadcast sends "[HH:MM] <sender>: <text>" to every session except the sender's.
// It returns the number of successful deliveries.
func (r *Router) Broadcast(sender, text string) int {
	message := domain.NewMessage(sender, nil, text, r.clock())
	recipients := lo.Filter(r.registry.Snapshot(), func(s Session, _ int) bool {
		return s.Name != sender
	})
	return r.deliver(message, recipients)
}

// Announce sends a Server-authored line to every session, including a newcomer.
func (r *Router) Announce(text string) int {
	message := domain.NewMessage(domain.ServerName, nil, text, r.clock())
	return r.deliver(message, r.registry.Snapshot())
}

// PrivateMessage delivers only to recipient. An absent recipient produces exactly
// one not-found notice to the sender and nothing else.
func (r *Router) PrivateMessage(sender, recipient, text string) error {
	sink, ok := r.registry.Lookup(recipient)
	if !ok {
		if err := r.Notify(sender, domain.NotFoundNotice(recipient)); err != nil {
			r.log.Debug("Not-found notice undelivered", "sender", sender, "error", err)
		}
		return fmt.Errorf("%w: %s", errors.ErrNotFound, recipient)
	}

	message := domain.NewMessage(sender, &recipient, text, r.clock())
	if err := sink.Send(message.Format()); err != nil {
		r.log.Warn("Private delivery failed", "sender", sender, "recipient", recipient, "error", err)
		return err
	}
	return nil
}

// Notify sends a raw line to a single participant.
func (r *Router) Notify(name, line string) error {
	sink, ok := r.registry.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrNotFound, name)
	}
	return sink.Send(line)
}

func (r *Router) deliver(message domain.Message, recipients []Session) int {
	line := message.Format()
	delivered := 0
	for _, s := range recipients {
		if err := s.Sink.Send(line); err != nil {
			r.log.Warn("Delivery failed", "sender", message.Sender, "recipient", s.Name, "error", err)
			continue
		}
		delivered++
	}
	return delivered
}

package domain

import (
	"chat-relay/errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"
)

type RendezvousState int

const (
	Listening RendezvousState = iota
	BothConnected
	TimedOut
	Closed
)

func (s RendezvousState) String() string {
	switch s {
	case Listening:
		return "LISTENING"
	case BothConnected:
		return "BOTH_CONNECTED"
	case TimedOut:
		return "TIMED_OUT"
	case Closed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

var allowedTransitions = map[RendezvousState][]RendezvousState{
	Listening:     {BothConnected, TimedOut, Closed},
	BothConnected: {Closed},
	TimedOut:      {Closed},
}

// Rendezvous is the ephemeral endpoint pairing the two data connections of one transfer.
type Rendezvous struct {
	ID           uuid.UUID
	Address      string
	Port         int
	Sender       string
	Recipient    string
	Filename     string
	DeclaredSize int64
	CreatedAt    time.Time
	State        RendezvousState
	// LastOpen is the state held right before Closed.
	LastOpen RendezvousState
}

func NewRendezvous(address string, port int, offer PendingOffer, at time.Time) Rendezvous {
	return Rendezvous{
		ID:           uuid.New(),
		Address:      address,
		Port:         port,
		Sender:       offer.Sender,
		Recipient:    offer.Recipient,
		Filename:     offer.Filename,
		DeclaredSize: offer.Size,
		CreatedAt:    at,
		State:        Listening,
	}
}

func (r *Rendezvous) Endpoint() string {
	return net.JoinHostPort(r.Address, strconv.Itoa(r.Port))
}

// Transition moves the rendezvous to the next state; Closed is terminal.
func (r *Rendezvous) Transition(to RendezvousState) error {
	for _, next := range allowedTransitions[r.State] {
		if next == to {
			if to == Closed {
				r.LastOpen = r.State
			}
			r.State = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", errors.ErrInvalidTransition, r.State, to)
}

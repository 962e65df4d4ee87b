package runtime

import (
	"chat-relay/domain"
	"sync"
	"time"
)

type offerKey struct {
	recipient string
	sender    string
}

// OfferBook holds file offers awaiting the recipient's accept.
// One offer per (recipient, sender): a newer offer replaces the older one.
type OfferBook struct {
	mu     sync.Mutex
	items  map[offerKey]domain.PendingOffer
	maxAge time.Duration
	clock  func() time.Time
}

// NewOfferBook creates an offer book; a non-positive maxAge disables expiry.
func NewOfferBook(maxAge time.Duration) *OfferBook {
	return &OfferBook{
		items:  make(map[offerKey]domain.PendingOffer),
		maxAge: maxAge,
		clock:  time.Now,
	}
}

func (b *OfferBook) Put(offer domain.PendingOffer) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if offer.OfferedAt.IsZero() {
		offer.OfferedAt = b.clock()
	}
	b.items[offerKey{recipient: offer.Recipient, sender: offer.Sender}] = offer
}

// Take removes and returns the live offer from sender to recipient.
func (b *OfferBook) Take(recipient, sender string) (domain.PendingOffer, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := offerKey{recipient: recipient, sender: sender}
	offer, ok := b.items[key]
	if !ok {
		return domain.PendingOffer{}, false
	}
	delete(b.items, key)

	if offer.Expired(b.clock(), b.maxAge) {
		return domain.PendingOffer{}, false
	}
	return offer, true
}

// DropParticipant removes every offer name sent or received.
func (b *OfferBook) DropParticipant(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	dropped := 0
	for key := range b.items {
		if key.recipient == name || key.sender == name {
			delete(b.items, key)
			dropped++
		}
	}
	return dropped
}

// Prune removes expired offers and returns how many were dropped.
func (b *OfferBook) Prune() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.pruneExpiredLocked()
}

// Count returns the number of live offers.
func (b *OfferBook) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pruneExpiredLocked()
	return len(b.items)
}

// pruneExpiredLocked removes expired items (must hold lock)
func (b *OfferBook) pruneExpiredLocked() int {
	if b.maxAge <= 0 {
		return 0
	}

	now := b.clock()
	pruned := 0
	for key, offer := range b.items {
		if offer.Expired(now, b.maxAge) {
			delete(b.items, key)
			pruned++
		}
	}
	return pruned
}

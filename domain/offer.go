package domain

import "time"

// PendingOffer is a sender's declared intent to send a file, awaiting the recipient's accept.
type PendingOffer struct {
	Sender    string
	Recipient string
	Filename  string
	Size      int64
	OfferedAt time.Time
}

// Expired reports whether the offer outlived ttl. A non-positive ttl never expires.
func (o PendingOffer) Expired(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(o.OfferedAt) >= ttl
}

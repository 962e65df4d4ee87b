package domain

import (
	"time"

	"github.com/google/uuid"
)

type TransferOutcome string

const (
	OutcomeCompleted TransferOutcome = "completed"
	OutcomeFailed    TransferOutcome = "failed"
	OutcomeTimedOut  TransferOutcome = "timed_out"
	OutcomeAborted   TransferOutcome = "aborted"
)

// TransferProgress is one observation of a running copy.
type TransferProgress struct {
	RendezvousID uuid.UUID
	Transferred  int64
	Declared     int64
	Elapsed      time.Duration
}

// Percent is bounded to [0, 100]; an unknown declared size reports 0 until done.
func (p TransferProgress) Percent() float64 {
	if p.Declared <= 0 {
		return 0
	}
	pct := float64(p.Transferred) / float64(p.Declared) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// TransferRecord is the journal entry written when a rendezvous closes.
type TransferRecord struct {
	ID           uuid.UUID
	Sender       string
	Recipient    string
	Filename     string
	DeclaredSize int64
	BytesRelayed int64
	Endpoint     string
	FinalState   RendezvousState
	Outcome      TransferOutcome
	Error        string
	CreatedAt    time.Time
	ClosedAt     time.Time
}

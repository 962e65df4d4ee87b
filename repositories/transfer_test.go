package repositories

import (
	"chat-relay/domain"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sampleRecord(name string, closedAt time.Time) domain.TransferRecord {
	return domain.TransferRecord{
		ID:           uuid.New(),
		Sender:       "alice",
		Recipient:    "bob",
		Filename:     name,
		DeclaredSize: 1 << 40,
		BytesRelayed: 1024,
		Endpoint:     "127.0.0.1:40123",
		FinalState:   domain.BothConnected,
		Outcome:      domain.OutcomeCompleted,
		CreatedAt:    closedAt.Add(-time.Second),
		ClosedAt:     closedAt,
	}
}

func Test_Record_And_Read_Back_Transfer(t *testing.T) {
	req := require.New(t)
	repository := NewTransferRepository(openTestDB(t), slog.Default(), time.Hour)
	closedAt := time.Date(2026, 3, 14, 9, 5, 7, 123456789, time.UTC)
	record := sampleRecord("report.pdf", closedAt)
	record.Outcome = domain.OutcomeTimedOut
	record.FinalState = domain.TimedOut
	record.Error = "transfer timeout: i/o timeout"

	// When a closed rendezvous is journaled
	req.NoError(repository.Record(record))

	// Then it reads back identically
	records, err := repository.Latest(10)
	req.NoError(err)
	req.Len(records, 1)
	req.Equal(record, records[0])
}

func Test_Latest_Returns_Newest_First_With_Limit(t *testing.T) {
	req := require.New(t)
	repository := NewTransferRepository(openTestDB(t), slog.Default(), 0)
	at := time.Now().UTC()

	for i, name := range []string{"first.txt", "second.txt", "third.txt"} {
		req.NoError(repository.Record(sampleRecord(name, at.Add(time.Duration(i)*time.Minute))))
	}

	records, err := repository.Latest(2)
	req.NoError(err)
	req.Len(records, 2)
	req.Equal("third.txt", records[0].Filename)
	req.Equal("second.txt", records[1].Filename)

	all, err := repository.Latest(0)
	req.NoError(err)
	req.Len(all, 3)
}

package repositories

import (
	"chat-relay/domain"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

const transferPrefix = "transfer:"

// TransferRepository is the journal of closed rendezvous.
type TransferRepository struct {
	db  *badger.DB
	log *slog.Logger
	ttl time.Duration
}

// NewTransferRepository keeps records for ttl; a non-positive ttl keeps them forever.
func NewTransferRepository(db *badger.DB, log *slog.Logger, ttl time.Duration) TransferRepository {
	return TransferRepository{db: db, log: log, ttl: ttl}
}

// Record persists one closed rendezvous.
// The key is "transfer:{closed_at_padded}:{uuid}" so a reverse prefix scan
// returns the newest transfers first.
func (r TransferRepository) Record(record domain.TransferRecord) error {
	key := fmt.Sprintf("%s%019d:%s", transferPrefix, record.ClosedAt.UnixNano(), record.ID)
	value, err := encodeTransfer(record)
	if err != nil {
		return err
	}
	bytes, err := proto.Marshal(value)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), bytes)
		if r.ttl > 0 {
			entry = entry.WithTTL(r.ttl)
		}
		return txn.SetEntry(entry)
	})
}

// Latest returns up to limit records, newest first. A non-positive limit returns all.
func (r TransferRepository) Latest(limit int) ([]domain.TransferRecord, error) {
	var values [][]byte
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(transferPrefix)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(append(prefix, []byte("9999999999999999999")...)); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(values) == limit {
				break
			}
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			values = append(values, value)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	records := make([]domain.TransferRecord, 0, len(values))
	for _, b := range values {
		var value structpb.Struct
		if err := proto.Unmarshal(b, &value); err != nil {
			return nil, err
		}
		record, err := decodeTransfer(&value)
		if err != nil {
			r.log.Warn("Skipping unreadable journal entry", "error", err)
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func encodeTransfer(record domain.TransferRecord) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"id":            record.ID.String(),
		"sender":        record.Sender,
		"recipient":     record.Recipient,
		"filename":      record.Filename,
		"declared_size": record.DeclaredSize,
		"bytes_relayed": record.BytesRelayed,
		"endpoint":      record.Endpoint,
		"final_state":   record.FinalState.String(),
		"outcome":       string(record.Outcome),
		"error":         record.Error,
		"created_at":    timestampFields(record.CreatedAt),
		"closed_at":     timestampFields(record.ClosedAt),
	})
}

func decodeTransfer(value *structpb.Struct) (domain.TransferRecord, error) {
	fields := value.GetFields()
	id, err := uuid.Parse(fields["id"].GetStringValue())
	if err != nil {
		return domain.TransferRecord{}, err
	}
	return domain.TransferRecord{
		ID:           id,
		Sender:       fields["sender"].GetStringValue(),
		Recipient:    fields["recipient"].GetStringValue(),
		Filename:     fields["filename"].GetStringValue(),
		DeclaredSize: int64(fields["declared_size"].GetNumberValue()),
		BytesRelayed: int64(fields["bytes_relayed"].GetNumberValue()),
		Endpoint:     fields["endpoint"].GetStringValue(),
		FinalState:   parseRendezvousState(fields["final_state"].GetStringValue()),
		Outcome:      domain.TransferOutcome(fields["outcome"].GetStringValue()),
		Error:        fields["error"].GetStringValue(),
		CreatedAt:    timestampFrom(fields["created_at"]),
		ClosedAt:     timestampFrom(fields["closed_at"]),
	}, nil
}

// timestampFields splits a time into seconds and nanos, both exact as float64.
func timestampFields(t time.Time) map[string]any {
	ts := timestamppb.New(t)
	return map[string]any{"seconds": ts.GetSeconds(), "nanos": int64(ts.GetNanos())}
}

func timestampFrom(value *structpb.Value) time.Time {
	fields := value.GetStructValue().GetFields()
	ts := &timestamppb.Timestamp{
		Seconds: int64(fields["seconds"].GetNumberValue()),
		Nanos:   int32(fields["nanos"].GetNumberValue()),
	}
	return ts.AsTime()
}

func parseRendezvousState(name string) domain.RendezvousState {
	states := []domain.RendezvousState{domain.Listening, domain.BothConnected, domain.TimedOut, domain.Closed}
	state, ok := lo.Find(states, func(s domain.RendezvousState) bool { return s.String() == name })
	if !ok {
		return domain.Closed
	}
	return state
}

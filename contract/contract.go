//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// LineSink pushes one line of text to a participant's control channel.
type LineSink interface {
	Send(line string) error
}

type IRegistry interface {
	Add(name string, sink LineSink) (replaced bool)
	Register(name string, sink LineSink) error
	Remove(name string)
	RemoveIfCurrent(name string, sink LineSink) bool
	Lookup(name string) (LineSink, bool)
	Len() int
}

type IRouter interface {
	Broadcast(sender, text string) int
	PrivateMessage(sender, recipient, text string) error
	Announce(text string) int
	Notify(name, line string) error
}

type ICoordinator interface {
	RequestTransfer(sender, recipient, filename string, size int64) error
	PrepareTransfer(sender, recipient string) (domain.Rendezvous, error)
	Forget(name string)
}

type ITransferJournal interface {
	Record(record domain.TransferRecord) error
	Latest(limit int) ([]domain.TransferRecord, error)
}

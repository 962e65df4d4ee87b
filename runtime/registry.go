package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"fmt"
	"sort"
	"sync"

	"github.com/samber/lo"
)

// Session is the live binding between a participant name and its control channel.
type Session struct {
	Name string
	Sink contract.LineSink
}

// Registry is the single authority on which names are present.
// Every read and write goes through its lock, so a broadcast iterating a snapshot
// never observes a half-applied add or remove.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]contract.LineSink // map participant -> Sink
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]contract.LineSink),
	}
}

// Add binds name to sink. An existing session with the same name is replaced:
// the newer connection wins.
func (r *Registry) Add(name string, sink contract.LineSink) (replaced bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, replaced = r.sessions[name]
	r.sessions[name] = sink
	return replaced
}

// Register is the strict variant of Add: blank, whitespace-bearing or already
// present names are rejected with ErrNameTaken.
func (r *Registry) Register(name string, sink contract.LineSink) error {
	if !domain.IsAcceptableName(name) {
		return fmt.Errorf("%w: %q", errors.ErrNameTaken, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[name]; ok {
		return fmt.Errorf("%w: %q", errors.ErrNameTaken, name)
	}
	r.sessions[name] = sink
	return nil
}

func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, name)
}

// RemoveIfCurrent removes name only while it is still bound to sink, so a
// connection that lost its name to a newer one cannot evict it on close.
func (r *Registry) RemoveIfCurrent(name string, sink contract.LineSink) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.sessions[name]
	if !ok || current != sink {
		return false
	}
	delete(r.sessions, name)
	return true
}

func (r *Registry) Lookup(name string) (contract.LineSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sink, ok := r.sessions[name]
	return sink, ok
}

// Snapshot copies the current sessions; iteration order is unspecified.
func (r *Registry) Snapshot() []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.MapToSlice(r.sessions, func(name string, sink contract.LineSink) Session {
		return Session{Name: name, Sink: sink}
	})
}

// Names returns the present names in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := lo.Keys(r.sessions)
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}

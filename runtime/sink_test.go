package runtime

import (
	"fmt"
	"sync"
)

// Sink records every line pushed to a participant.
type Sink struct {
	mu    sync.Mutex
	lines []string
	fail  bool
}

func (s *Sink) Send(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return fmt.Errorf("broken pipe")
	}
	s.lines = append(s.lines, line)
	return nil
}

func (s *Sink) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

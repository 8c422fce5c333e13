package jobs

import (
	"errors"
	"sync"
)

// ErrAborted is returned to workers still waiting when a sequence is aborted.
var ErrAborted = errors.New("jobs: sequence aborted")

// Sequencer hands out turns in index order. A worker holding index i calls
// Wait(i), does its exclusive work, then Advance to pass the turn on.
type Sequencer struct {
	mu      sync.Mutex
	cond    *sync.Cond
	next    int
	aborted bool
}

func NewSequencer() *Sequencer {
	s := &Sequencer{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Wait blocks until it is i's turn or the sequence is aborted.
func (s *Sequencer) Wait(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.next != i && !s.aborted {
		s.cond.Wait()
	}
	if s.aborted {
		return ErrAborted
	}
	return nil
}

// Advance ends the current turn.
func (s *Sequencer) Advance() {
	s.mu.Lock()
	s.next++
	s.mu.Unlock()
	s.cond.Broadcast()
}

// Abort wakes every waiter with ErrAborted. Later Waits fail immediately.
func (s *Sequencer) Abort() {
	s.mu.Lock()
	s.aborted = true
	s.mu.Unlock()
	s.cond.Broadcast()
}

// Next is the index whose turn it is.
func (s *Sequencer) Next() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

package dispatch

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrDuplicateExecutionID = errors.New("dispatch: duplicate execution id")
	ErrUnknownExecutionID   = errors.New("dispatch: unknown execution id")
	ErrRecordCompleted      = errors.New("dispatch: record already completed")
)

// Status is the execution lifecycle phase marker.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Record is the per-execution status/output/error entry. Callers always
// receive copies; the store owns the only mutable instance.
type Record struct {
	Status Status
	Output string
	Error  string
}

// Store is the concurrent execution-record table. One mutex guards creation,
// completion, and reads; every critical section is an in-memory map
// operation only, all expensive work happens in the background task outside
// the lock. Records are never deleted.
type Store struct {
	mu      sync.Mutex
	records map[string]Record
}

func NewStore() *Store {
	return &Store{records: make(map[string]Record)}
}

// Create writes the pending record for a freshly allocated execution id.
func (s *Store) Create(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateExecutionID, id)
	}
	s.records[id] = Record{Status: StatusPending}
	return nil
}

// Complete transitions a pending record to its terminal state. Transitions
// are monotonic: a completed record never changes again.
func (s *Store) Complete(id string, status Status, output, errText string) error {
	if status != StatusSuccess && status != StatusError {
		return fmt.Errorf("dispatch: invalid terminal status %q", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownExecutionID, id)
	}
	if rec.Status != StatusPending {
		return fmt.Errorf("%w: %s is %s", ErrRecordCompleted, id, rec.Status)
	}
	s.records[id] = Record{Status: status, Output: output, Error: errText}
	return nil
}

// Get returns a snapshot copy of one record.
func (s *Store) Get(id string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	return rec, ok
}

// Len reports the current table size. Diagnostic only.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Package memory is an in-process ledger used in tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/dvloznov/budgetrak/internal/ledger"
)

type Store struct {
	mu          sync.Mutex
	rows        []ledger.Row
	initialized bool
}

var _ ledger.Store = (*Store)(nil)

func New(rows ...ledger.Row) *Store {
	return &Store{rows: append([]ledger.Row(nil), rows...)}
}

func (s *Store) Initialize(_ context.Context) (*ledger.Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	created := !s.initialized
	s.initialized = true
	return &ledger.Info{Backend: "memory", Title: "in-memory ledger", Location: "memory", Created: created}, nil
}

// Append stores the rows and returns a synthetic range.
func (s *Store) Append(_ context.Context, rows []ledger.Row) (*ledger.AppendResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	first := len(s.rows) + 1
	s.rows = append(s.rows, rows...)
	return &ledger.AppendResult{
		Appended: len(rows),
		Range:    fmt.Sprintf("mem:%d-%d", first, len(s.rows)),
	}, nil
}

func (s *Store) Query(_ context.Context, f ledger.Filter) ([]ledger.Row, error) {
	s.mu.Lock()
	rows := append([]ledger.Row(nil), s.rows...)
	s.mu.Unlock()
	return f.Apply(rows), nil
}

// Len returns the number of stored rows.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

package memory

import (
	"context"
	"fmt"
	"sync"

	"debttracker/internal/core"
	ports "debttracker/internal/sheets"
)

var _ ports.RowSink = (*Store)(nil)

// Store is an in-process RowSink used when no spreadsheet is configured.
type Store struct {
	mu   sync.Mutex
	rows [][]string
	ids  map[core.ID]int
}

func New() *Store {
	return &Store{ids: make(map[core.ID]int)}
}

// AppendRow stores the row and returns a synthetic row reference.
func (s *Store) AppendRow(_ context.Context, id core.ID, row core.ExportRow) (string, error) {
	if id == "" {
		return "", fmt.Errorf("append row: missing transaction id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, ports.Values(id, row))
	s.ids[id] = len(s.rows)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

func (s *Store) Contains(_ context.Context, id core.ID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok, nil
}

func (s *Store) IDs(_ context.Context) (map[core.ID]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[core.ID]struct{}, len(s.ids))
	for id := range s.ids {
		out[id] = struct{}{}
	}
	return out, nil
}

// Rows returns a copy of every stored row in append order.
func (s *Store) Rows() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.rows))
	for i, r := range s.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

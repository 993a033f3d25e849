package memory

import (
	"context"
	"slices"
	"sync"

	"cryptotracker/internal/market"
)

// Sink keeps every table written to it. Err, when set, is returned by Write
// instead of storing the table.
type Sink struct {
	name string

	mu     sync.Mutex
	tables []market.Table
	Err    error
}

func NewSink(name string) *Sink {
	if name == "" {
		name = "memory"
	}
	return &Sink{name: name, tables: make([]market.Table, 0)}
}

func (s *Sink) Name() string { return s.name }

func (s *Sink) Write(_ context.Context, t market.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.tables = append(s.tables, slices.Clone(t))
	return nil
}

// Tables returns a copy of everything written so far, oldest first.
func (s *Sink) Tables() []market.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.tables)
}

// Latest returns the last written table.
func (s *Sink) Latest() (market.Table, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tables) == 0 {
		return nil, false
	}
	return s.tables[len(s.tables)-1], true
}

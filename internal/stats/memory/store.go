package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mcoot/codebreak-go/internal/stats"
)

// Store is an in-memory implementation of the stats interface
type Store struct {
	mu   sync.RWMutex
	wins map[string]int
}

// New creates a new in-memory stats store
func New() *Store {
	return &Store{
		wins: make(map[string]int),
	}
}

// Ensure Store implements the interface
var _ stats.Store = (*Store)(nil)

func (s *Store) RecordWin(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wins[name]++
	return nil
}

func (s *Store) Wins(ctx context.Context, name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wins[name], nil
}

func (s *Store) Leaders(ctx context.Context, limit int) ([]stats.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]stats.Entry, 0, len(s.wins))
	for name, wins := range s.wins {
		entries = append(entries, stats.Entry{Name: name, Wins: wins})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Wins != entries[j].Wins {
			return entries[i].Wins > entries[j].Wins
		}
		return entries[i].Name < entries[j].Name
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

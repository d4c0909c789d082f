// Package stats aggregates win counts across rooms.
//
// Rooms themselves are never persisted; the only state that outlives a
// room is the name-to-wins tally recorded here.
package stats

import "context"

// Entry is one row of the leaderboard
type Entry struct {
	Name string `json:"name"`
	Wins int    `json:"wins"`
}

// Store defines the interface for win-tally persistence
type Store interface {
	// RecordWin increments the win count for the given player name
	RecordWin(ctx context.Context, name string) error

	// Wins returns the win count for the given player name (0 if unseen)
	Wins(ctx context.Context, name string) (int, error)

	// Leaders returns up to limit entries ordered by wins descending
	Leaders(ctx context.Context, limit int) ([]Entry, error)
}

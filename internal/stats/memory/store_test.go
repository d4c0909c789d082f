package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/codebreak-go/internal/stats"
)

func TestRecordAndQueryWins(t *testing.T) {
	store := New()
	ctx := context.Background()

	wins, err := store.Wins(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, wins)

	require.NoError(t, store.RecordWin(ctx, "alice"))
	require.NoError(t, store.RecordWin(ctx, "alice"))

	wins, err = store.Wins(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, wins)
}

func TestLeadersOrderingAndLimit(t *testing.T) {
	store := New()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.RecordWin(ctx, "alice"))
	}
	require.NoError(t, store.RecordWin(ctx, "bob"))
	for i := 0; i < 3; i++ {
		require.NoError(t, store.RecordWin(ctx, "carol"))
	}

	leaders, err := store.Leaders(ctx, 0)
	require.NoError(t, err)
	// Ties break alphabetically
	assert.Equal(t, []stats.Entry{
		{Name: "alice", Wins: 3},
		{Name: "carol", Wins: 3},
		{Name: "bob", Wins: 1},
	}, leaders)

	top, err := store.Leaders(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []stats.Entry{{Name: "alice", Wins: 3}}, top)
}

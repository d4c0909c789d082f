package session

import "github.com/mcoot/codebreak-go/internal/supervisor"

// Policy holds the configurable room behaviors. The defaults follow the
// canonical semantics; the alternates exist because deployed variants of
// the game disagree on them.
type Policy struct {
	// GraceTicks is the disconnect grace period, in supervisor ticks
	GraceTicks int

	// DissolveOnLeave ends the whole session when a player leaves
	// mid-setup or mid-game, notifying the remaining player. When false,
	// the remaining player is left waiting instead. A leave during the
	// lobby phase never dissolves the room.
	DissolveOnLeave bool

	// PreserveChatOnRematch keeps the chat log across a rematch reset.
	// The guess log is always cleared; it is scoped to a single round.
	PreserveChatOnRematch bool
}

// DefaultPolicy returns the canonical room behaviors
func DefaultPolicy() Policy {
	return Policy{
		GraceTicks:            supervisor.DefaultTicks,
		DissolveOnLeave:       true,
		PreserveChatOnRematch: false,
	}
}

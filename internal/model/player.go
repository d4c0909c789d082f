package model

// PlayerToken uniquely identifies a player within a room.
// It is stable across reconnects, unlike the transport connection id.
type PlayerToken string

// ConnectionID identifies a live transport connection.
// A new one is issued every time a client (re)connects.
type ConnectionID string

// Player represents one side of a room
type Player struct {
	Token PlayerToken
	Name  string

	// Secret is the player's hidden code. Empty until setup completes.
	Secret string

	// Ready is set once the player has submitted a valid secret this round
	Ready bool

	// Conn is the player's current connection, or empty while detached.
	// Room state survives a detach; only this reference is cleared.
	Conn ConnectionID

	// Wins counts rounds won by this player within the room
	Wins int
}

// Attached reports whether the player currently has a live connection
func (p *Player) Attached() bool {
	return p.Conn != ""
}

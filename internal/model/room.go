package model

import "time"

// RoomID is a short human-typeable identifier for joining rooms.
// IDs are unique among live rooms only and may be reused after teardown.
type RoomID string

// Phase represents the current state of a room's session
type Phase string

const (
	PhaseLobby Phase = "lobby" // Waiting for a second player
	PhaseSetup Phase = "setup" // Players choosing secrets
	PhaseGame  Phase = "game"  // Turn-by-turn guessing
)

// MaxPlayers is the fixed room capacity
const MaxPlayers = 2

// JoinRequest is a pending request from a candidate who wants the open
// slot. Join is a two-party handshake: the candidate is only promoted to
// a Player once an existing member accepts.
type JoinRequest struct {
	Token PlayerToken
	Name  string
	Conn  ConnectionID
}

// GuessRecord is an immutable entry in a room's guess log
type GuessRecord struct {
	PlayerToken PlayerToken `json:"playerToken"`
	PlayerName  string      `json:"playerName"`
	Guess       string      `json:"guess"`
	Bulls       int         `json:"bulls"`
	Cows        int         `json:"cows"`
	Winner      bool        `json:"winner"`

	// TurnToken is the turn holder resulting from this guess
	TurnToken PlayerToken `json:"turnToken"`
}

// ChatMessage is an immutable entry in a room's chat log
type ChatMessage struct {
	PlayerToken PlayerToken `json:"playerToken"`
	SenderName  string      `json:"senderName"`
	Message     string      `json:"message"`
}

// RoundResult records the outcome of a completed round
type RoundResult struct {
	Round         int    `json:"round"`
	WinnerName    string `json:"winnerName"`
	LoserSecret   string `json:"loserSecret"`
	WinnerGuesses int    `json:"winnerGuesses"`
}

// Room is the aggregate root for a single two-player session
type Room struct {
	ID    RoomID
	Phase Phase

	// PlayerOrder holds tokens in join order. The starter of round N is
	// PlayerOrder[N mod 2], which alternates who opens each round.
	PlayerOrder []PlayerToken
	Players     map[PlayerToken]*Player

	// JoinRequests holds candidates awaiting approval for the open slot
	JoinRequests map[PlayerToken]*JoinRequest

	// RoundCount increments on every rematch
	RoundCount int

	// TurnHolder is the token allowed to guess, or empty outside the game phase
	TurnHolder PlayerToken

	// Finished is set by the winning guess and cleared on rematch. While
	// set, further guesses are ignored; the transport may redeliver the
	// winning guess itself.
	Finished bool

	Guesses []GuessRecord
	Chat    []ChatMessage
	History []RoundResult

	// RematchVotes is the consent set for the next round. The room only
	// resets once both players have voted.
	RematchVotes map[PlayerToken]bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// GetPlayer returns the player with the given token, or nil
func (r *Room) GetPlayer(token PlayerToken) *Player {
	return r.Players[token]
}

// Opponent returns the other player in the room, or nil if there is none
func (r *Room) Opponent(token PlayerToken) *Player {
	for _, t := range r.PlayerOrder {
		if t != token {
			return r.Players[t]
		}
	}
	return nil
}

// PlayerByConn returns the player bound to the given connection, or nil
func (r *Room) PlayerByConn(conn ConnectionID) *Player {
	if conn == "" {
		return nil
	}
	for _, p := range r.Players {
		if p.Conn == conn {
			return p
		}
	}
	return nil
}

// IsFull reports whether the room has reached capacity
func (r *Room) IsFull() bool {
	return len(r.Players) >= MaxPlayers
}

// AllReady reports whether every player has submitted a secret
func (r *Room) AllReady() bool {
	if len(r.Players) < MaxPlayers {
		return false
	}
	for _, p := range r.Players {
		if !p.Ready || p.Secret == "" {
			return false
		}
	}
	return true
}

// Starter returns the token that opens the current round
func (r *Room) Starter() PlayerToken {
	if len(r.PlayerOrder) < MaxPlayers {
		return ""
	}
	return r.PlayerOrder[r.RoundCount%MaxPlayers]
}

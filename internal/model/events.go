package model

// EventType identifies an outbound event on the wire
type EventType string

const (
	EventSession              EventType = "session"
	EventRoomCreated          EventType = "room_created"
	EventLobbyUpdate          EventType = "lobby_update"
	EventJoinRequest          EventType = "join_request"
	EventJoinRequestCancelled EventType = "join_request_cancelled"
	EventJoinApproved         EventType = "join_approved"
	EventJoinRejected         EventType = "join_rejected"
	EventEnterSetup           EventType = "enter_setup"
	EventOpponentReady        EventType = "op_ready_state"
	EventGameStart            EventType = "game_start"
	EventGuessResult          EventType = "guess_result"
	EventRematchStatus        EventType = "rematch_status"
	EventReceiveChat          EventType = "receive_chat"
	EventDisplayTyping        EventType = "display_typing"
	EventRejoinedGame         EventType = "rejoined_game"
	EventReconnectSuccess     EventType = "reconnect_success"
	EventOpponentDisconnected EventType = "opponent_disconnected"
	EventTimerTick            EventType = "timer_tick"
	EventRoomClosed           EventType = "room_closed"
	EventError                EventType = "error_msg"
)

// Event is the envelope for every outbound message
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data,omitempty"`
}

// SessionPayload hands a freshly connected client its player token.
// Clients persist the token so they can reclaim their seat after a
// transport drop.
type SessionPayload struct {
	Token PlayerToken `json:"token"`
}

// RoomCreatedPayload contains data for room created events
type RoomCreatedPayload struct {
	RoomID RoomID `json:"roomId"`
}

// LobbySnapshot describes one member in a lobby update
type LobbySnapshot struct {
	Token PlayerToken `json:"token"`
	Name  string      `json:"name"`
}

// LobbyUpdatePayload contains the current membership of a room
type LobbyUpdatePayload struct {
	RoomID  RoomID          `json:"roomId"`
	Players []LobbySnapshot `json:"players"`
}

// JoinRequestPayload notifies members of a pending join request
type JoinRequestPayload struct {
	Token PlayerToken `json:"token"`
	Name  string      `json:"name"`
}

// JoinResolvedPayload notifies a candidate of the handshake outcome
type JoinResolvedPayload struct {
	RoomID RoomID `json:"roomId"`
}

// GameStartPayload is sent to each player when both secrets are in.
// Secrets themselves are never included here.
type GameStartPayload struct {
	Opponent  string      `json:"opponent"`
	TurnToken PlayerToken `json:"turnToken"`
}

// GuessResultPayload is broadcast after every accepted guess
type GuessResultPayload struct {
	GuessRecord

	// Secrets maps player name to secret code. Populated only when the
	// guess won the round, since revealing is safe post-game.
	Secrets map[string]string `json:"secrets,omitempty"`
}

// RematchStatusPayload broadcasts the current rematch consent count
type RematchStatusPayload struct {
	Votes  int `json:"votes"`
	Needed int `json:"needed"`
}

// TypingPayload relays a typing indicator to the other side
type TypingPayload struct {
	Name     string `json:"name"`
	IsTyping bool   `json:"isTyping"`
}

// RejoinedGamePayload is the full state snapshot sent to a rejoining
// connection so the client can rebuild its view
type RejoinedGamePayload struct {
	RoomID         RoomID        `json:"roomId"`
	Name           string        `json:"name"`
	Secret         string        `json:"secret,omitempty"`
	Phase          Phase         `json:"state"`
	OpponentName   string        `json:"opponentName"`
	TurnToken      PlayerToken   `json:"turnToken,omitempty"`
	Guesses        []GuessRecord `json:"guesses"`
	ChatHistory    []ChatMessage `json:"chatHistory"`
	RematchPending bool          `json:"rematchPending"`
}

// DisconnectPayload announces a detached opponent and the grace period
type DisconnectPayload struct {
	Name     string `json:"name"`
	TimeLeft int    `json:"timeLeft"`
}

// TimerTickPayload carries the remaining grace period seconds
type TimerTickPayload struct {
	TimeLeft int `json:"timeLeft"`
}

// RoomClosedPayload carries the reason a room was torn down
type RoomClosedPayload struct {
	Reason string `json:"reason"`
}

// ErrorPayload carries a user-actionable error notice
type ErrorPayload struct {
	Message string `json:"message"`
}

package ws

import (
	"encoding/json"

	"github.com/mcoot/codebreak-go/internal/model"
)

// Command identifies an inbound message from a client
type Command string

const (
	CmdCreateRoom  Command = "create_room"
	CmdJoinRoom    Command = "join_room"
	CmdCancelJoin  Command = "cancel_join"
	CmdResolveJoin Command = "resolve_join"
	CmdStartSetup  Command = "host_start_setup"
	CmdPlayerReady Command = "player_ready"
	CmdMakeGuess   Command = "make_guess"
	CmdPlayAgain   Command = "play_again"
	CmdSendChat    Command = "send_chat"
	CmdTyping      Command = "typing"
	CmdRejoinRoom  Command = "rejoin_room"
	CmdLeaveRoom   Command = "leave_room"
)

// Message is the envelope for every inbound message. Data is decoded
// per command once the type is known.
type Message struct {
	Type Command         `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// CreateRoomRequest opens a new room with the sender as host
type CreateRoomRequest struct {
	Name string `json:"name"`
}

// JoinRoomRequest asks the members of a room to admit the sender
type JoinRoomRequest struct {
	RoomID model.RoomID `json:"roomId"`
	Name   string       `json:"name"`
}

// CancelJoinRequest withdraws the sender's pending join request
type CancelJoinRequest struct {
	RoomID model.RoomID `json:"roomId"`
}

// ResolveJoinRequest accepts or rejects a pending candidate
type ResolveJoinRequest struct {
	RoomID model.RoomID      `json:"roomId"`
	Token  model.PlayerToken `json:"token"`
	Accept bool              `json:"accept"`
}

// StartSetupRequest moves a full lobby into secret selection
type StartSetupRequest struct {
	RoomID model.RoomID `json:"roomId"`
}

// PlayerReadyRequest submits the sender's secret code
type PlayerReadyRequest struct {
	RoomID model.RoomID `json:"roomId"`
	Secret string       `json:"secret"`
}

// MakeGuessRequest submits a guess on the sender's turn
type MakeGuessRequest struct {
	RoomID model.RoomID `json:"roomId"`
	Guess  string       `json:"guess"`
}

// PlayAgainRequest casts the sender's rematch vote
type PlayAgainRequest struct {
	RoomID model.RoomID `json:"roomId"`
}

// SendChatRequest posts a chat message to the room
type SendChatRequest struct {
	RoomID  model.RoomID `json:"roomId"`
	Message string       `json:"message"`
}

// TypingRequest relays the sender's typing indicator
type TypingRequest struct {
	RoomID   model.RoomID `json:"roomId"`
	IsTyping bool         `json:"isTyping"`
}

// RejoinRequest reclaims a session after a reconnect. Token is the
// player token issued on the original connection; the client is
// expected to persist it across the gap.
type RejoinRequest struct {
	RoomID model.RoomID      `json:"roomId"`
	Token  model.PlayerToken `json:"token"`
}

// LeaveRequest is an explicit voluntary exit from a room
type LeaveRequest struct {
	RoomID model.RoomID `json:"roomId"`
}

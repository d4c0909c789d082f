package model

import "errors"

// Common errors used across the application.
//
// Only ErrRoomNotFound, ErrRoomFull and ErrSessionExpired are surfaced to
// the originating connection; the rest describe expected races or
// malformed input and are swallowed as no-ops by the session engine.
var (
	// Registry errors
	ErrRoomNotFound      = errors.New("room not found")
	ErrRegistryExhausted = errors.New("room identifier space exhausted")

	// Membership errors
	ErrRoomFull       = errors.New("room is full")
	ErrSessionExpired = errors.New("room expired or invalid token")
	ErrNotInRoom      = errors.New("player is not in room")
	ErrAlreadyInRoom  = errors.New("player is already in room")

	// Gameplay errors
	ErrInvalidCode = errors.New("invalid code")
	ErrStaleAction = errors.New("action out of phase or out of turn")
)

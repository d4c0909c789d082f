// Package registry owns the mapping from room identifier to live room.
package registry

import (
	"strconv"
	"sync"

	"github.com/mcoot/codebreak-go/internal/dependencies/clock"
	"github.com/mcoot/codebreak-go/internal/dependencies/random"
	"github.com/mcoot/codebreak-go/internal/model"
)

const (
	// roomIDMin and roomIDSpan bound generated room identifiers to
	// four-digit numbers, short enough to type or read aloud
	roomIDMin  = 1000
	roomIDSpan = 9000

	// maxIDAttempts bounds the uniqueness retry loop. Hitting it means
	// the identifier space is momentarily saturated.
	maxIDAttempts = 1000
)

// Registry holds all live rooms and enforces identifier uniqueness
type Registry struct {
	mu     sync.RWMutex
	rooms  map[model.RoomID]*model.Room
	clock  clock.Clock
	random random.Random
}

// New creates an empty Registry
func New(clk clock.Clock, rnd random.Random) *Registry {
	return &Registry{
		rooms:  make(map[model.RoomID]*model.Room),
		clock:  clk,
		random: rnd,
	}
}

// Create allocates a room in the lobby phase under a fresh identifier.
// Identifiers are unique among live rooms only; once a room is deleted
// its identifier may be handed out again.
func (r *Registry) Create() (*model.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var id model.RoomID
	for attempt := 0; ; attempt++ {
		if attempt >= maxIDAttempts {
			return nil, model.ErrRegistryExhausted
		}
		id = model.RoomID(strconv.Itoa(roomIDMin + r.random.Intn(roomIDSpan)))
		if _, taken := r.rooms[id]; !taken {
			break
		}
	}

	now := r.clock.Now()
	room := &model.Room{
		ID:           id,
		Phase:        model.PhaseLobby,
		Players:      make(map[model.PlayerToken]*model.Player),
		JoinRequests: make(map[model.PlayerToken]*model.JoinRequest),
		RematchVotes: make(map[model.PlayerToken]bool),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.rooms[id] = room
	return room, nil
}

// Get returns the room with the given identifier
func (r *Registry) Get(id model.RoomID) (*model.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[id]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return room, nil
}

// Delete removes the room with the given identifier. Deleting an
// already-deleted room is a no-op.
func (r *Registry) Delete(id model.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, id)
}

// Exists reports whether a room with the given identifier is live
func (r *Registry) Exists(id model.RoomID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[id]
	return ok
}

// Count returns the number of live rooms
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Each calls fn for every live room. Used by the transport layer to
// locate the room owning a disconnected connection.
func (r *Registry) Each(fn func(*model.Room) bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, room := range r.rooms {
		if !fn(room) {
			return
		}
	}
}

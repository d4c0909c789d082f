// Package session implements the authoritative per-room state machine:
// lobby membership, the join-request handshake, setup and readiness,
// turn arbitration, scoring, chat relay, rematch consensus, and
// reconnect reconciliation.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mcoot/codebreak-go/internal/code"
	"github.com/mcoot/codebreak-go/internal/dependencies/clock"
	"github.com/mcoot/codebreak-go/internal/model"
	"github.com/mcoot/codebreak-go/internal/registry"
	"github.com/mcoot/codebreak-go/internal/stats"
	"github.com/mcoot/codebreak-go/internal/supervisor"
)

const (
	waitingPlaceholder = "Waiting..."
	roomClosedTimeout  = "Opponent did not reconnect. Room closed."
	roomClosedLeft     = "Opponent left. Room closed."
)

// Engine applies inbound events to rooms and emits the resulting
// outbound events through its Sender.
//
// A single mutex serializes every operation, so within one handler no
// other event can interleave. Supervisor callbacks re-enter through the
// same lock and re-validate state, which resolves the rejoin-vs-expiry
// race in favor of the rejoin.
type Engine struct {
	mu sync.Mutex

	registry   *registry.Registry
	supervisor *supervisor.Supervisor
	stats      stats.Store
	sender     Sender
	clock      clock.Clock
	policy     Policy
	logger     *slog.Logger
}

// NewEngine creates an Engine with the given collaborators
func NewEngine(
	reg *registry.Registry,
	sup *supervisor.Supervisor,
	statsStore stats.Store,
	sender Sender,
	clk clock.Clock,
	policy Policy,
	logger *slog.Logger,
) *Engine {
	if policy.GraceTicks <= 0 {
		policy.GraceTicks = supervisor.DefaultTicks
	}
	return &Engine{
		registry:   reg,
		supervisor: sup,
		stats:      statsStore,
		sender:     sender,
		clock:      clk,
		policy:     policy,
		logger:     logger.With(slog.String("component", "session")),
	}
}

// IsSurfaced reports whether err is a user-actionable error that should
// be relayed to the originating connection. Everything else is an
// expected race or malformed input and is swallowed.
func IsSurfaced(err error) bool {
	return errors.Is(err, model.ErrRoomNotFound) ||
		errors.Is(err, model.ErrRoomFull) ||
		errors.Is(err, model.ErrSessionExpired) ||
		errors.Is(err, model.ErrRegistryExhausted)
}

// CreateRoom allocates a room in the lobby phase with the requester as
// its sole player and tells the requester the new room identifier.
func (e *Engine) CreateRoom(ctx context.Context, name string, token model.PlayerToken, conn model.ConnectionID) (model.RoomID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	room, err := e.registry.Create()
	if err != nil {
		return "", err
	}

	room.Players[token] = &model.Player{Token: token, Name: name, Conn: conn}
	room.PlayerOrder = append(room.PlayerOrder, token)
	e.touch(room)

	e.logger.Info("room created",
		slog.String("room", string(room.ID)),
		slog.String("player", name))

	e.sender.Send(conn, model.Event{
		Type: model.EventRoomCreated,
		Data: model.RoomCreatedPayload{RoomID: room.ID},
	})
	e.broadcastLobby(room)
	return room.ID, nil
}

// RequestJoin records a pending join request for the open slot and
// notifies the current members. Join is a two-party handshake: the
// candidate only becomes a player once a member accepts.
//
// A token that already owns a player record in the room is treated as a
// returning player and rebound instead.
func (e *Engine) RequestJoin(ctx context.Context, roomID model.RoomID, token model.PlayerToken, name string, conn model.ConnectionID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	room, err := e.registry.Get(roomID)
	if err != nil {
		return err
	}

	if room.GetPlayer(token) != nil {
		return e.rejoinLocked(room, token, conn)
	}

	if room.IsFull() {
		return model.ErrRoomFull
	}

	room.JoinRequests[token] = &model.JoinRequest{Token: token, Name: name, Conn: conn}
	e.touch(room)

	e.logger.Info("join requested",
		slog.String("room", string(roomID)),
		slog.String("candidate", name))

	e.broadcast(room, model.Event{
		Type: model.EventJoinRequest,
		Data: model.JoinRequestPayload{Token: token, Name: name},
	})
	return nil
}

// CancelJoinRequest withdraws a candidate's own pending request. A
// no-op if the request has already been resolved or never existed.
func (e *Engine) CancelJoinRequest(ctx context.Context, roomID model.RoomID, token model.PlayerToken) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	room, err := e.registry.Get(roomID)
	if err != nil {
		return model.ErrStaleAction
	}
	if _, ok := room.JoinRequests[token]; !ok {
		return model.ErrStaleAction
	}

	delete(room.JoinRequests, token)
	e.touch(room)
	e.broadcast(room, model.Event{
		Type: model.EventJoinRequestCancelled,
		Data: model.JoinRequestPayload{Token: token},
	})
	return nil
}

// ResolveJoinRequest accepts or rejects a pending candidate. Only a
// current member may resolve. Resolving a request that no longer exists
// is a no-op: network races can duplicate resolution attempts, so the
// operation is idempotent rather than an error.
func (e *Engine) ResolveJoinRequest(ctx context.Context, roomID model.RoomID, resolver, candidate model.PlayerToken, accept bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	room, err := e.registry.Get(roomID)
	if err != nil {
		return model.ErrStaleAction
	}
	if room.GetPlayer(resolver) == nil {
		return model.ErrStaleAction
	}
	req, ok := room.JoinRequests[candidate]
	if !ok {
		return model.ErrStaleAction
	}
	delete(room.JoinRequests, candidate)

	if !accept {
		e.sender.Send(req.Conn, model.Event{
			Type: model.EventJoinRejected,
			Data: model.JoinResolvedPayload{RoomID: roomID},
		})
		return nil
	}

	// The player count is re-checked here, not just at request time: two
	// candidates can race for the single open slot
	if room.IsFull() {
		e.sender.Send(req.Conn, model.Event{
			Type: model.EventJoinRejected,
			Data: model.JoinResolvedPayload{RoomID: roomID},
		})
		return nil
	}

	room.Players[candidate] = &model.Player{Token: candidate, Name: req.Name, Conn: req.Conn}
	room.PlayerOrder = append(room.PlayerOrder, candidate)
	e.touch(room)

	e.logger.Info("join approved",
		slog.String("room", string(roomID)),
		slog.String("candidate", req.Name))

	e.sender.Send(req.Conn, model.Event{
		Type: model.EventJoinApproved,
		Data: model.JoinResolvedPayload{RoomID: roomID},
	})
	e.broadcastLobby(room)
	return nil
}

// BeginSetup moves a full lobby into the setup phase
func (e *Engine) BeginSetup(ctx context.Context, roomID model.RoomID, token model.PlayerToken) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	room, err := e.registry.Get(roomID)
	if err != nil {
		return model.ErrStaleAction
	}
	if room.GetPlayer(token) == nil || room.Phase != model.PhaseLobby || !room.IsFull() {
		return model.ErrStaleAction
	}

	room.Phase = model.PhaseSetup
	e.touch(room)
	e.broadcast(room, model.Event{Type: model.EventEnterSetup})
	return nil
}

// SubmitSecret records a player's secret during setup. Invalid codes
// are dropped silently. Once both players are ready the room enters the
// game phase and the round starter is announced; secrets are never sent
// to either side here.
func (e *Engine) SubmitSecret(ctx context.Context, roomID model.RoomID, token model.PlayerToken, secret string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	room, err := e.registry.Get(roomID)
	if err != nil {
		return model.ErrStaleAction
	}
	player := room.GetPlayer(token)
	if player == nil || room.Phase != model.PhaseSetup {
		return model.ErrStaleAction
	}
	if !code.IsValid(secret, code.Length) {
		return model.ErrInvalidCode
	}

	player.Secret = secret
	player.Ready = true
	e.touch(room)
	e.broadcast(room, model.Event{Type: model.EventOpponentReady}, player.Conn)

	if !room.AllReady() {
		return nil
	}

	// The starter alternates each round: playerOrder[roundCount mod 2]
	room.Phase = model.PhaseGame
	room.TurnHolder = room.Starter()

	e.logger.Info("game started",
		slog.String("room", string(roomID)),
		slog.Int("round", room.RoundCount),
		slog.String("starter", string(room.TurnHolder)))

	for _, t := range room.PlayerOrder {
		p := room.Players[t]
		opponent := room.Opponent(t)
		if p == nil || opponent == nil || !p.Attached() {
			continue
		}
		e.sender.Send(p.Conn, model.Event{
			Type: model.EventGameStart,
			Data: model.GameStartPayload{
				Opponent:  opponent.Name,
				TurnToken: room.TurnHolder,
			},
		})
	}
	return nil
}

// SubmitGuess scores a guess against the opponent's secret. Guesses
// arriving out of phase or out of turn are ignored rather than
// rejected, since the transport may redeliver stale messages.
func (e *Engine) SubmitGuess(ctx context.Context, roomID model.RoomID, token model.PlayerToken, guess string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	room, err := e.registry.Get(roomID)
	if err != nil {
		return model.ErrStaleAction
	}
	player := room.GetPlayer(token)
	if player == nil || room.Phase != model.PhaseGame || room.Finished || room.TurnHolder != token {
		return model.ErrStaleAction
	}
	opponent := room.Opponent(token)
	if opponent == nil {
		return model.ErrStaleAction
	}
	if !code.IsValid(guess, code.Length) {
		return model.ErrInvalidCode
	}

	bulls, cows := code.Score(opponent.Secret, guess)
	winner := bulls == code.Length

	if !winner {
		room.TurnHolder = opponent.Token
	}

	record := model.GuessRecord{
		PlayerToken: token,
		PlayerName:  player.Name,
		Guess:       guess,
		Bulls:       bulls,
		Cows:        cows,
		Winner:      winner,
		TurnToken:   room.TurnHolder,
	}
	room.Guesses = append(room.Guesses, record)
	e.touch(room)

	payload := model.GuessResultPayload{GuessRecord: record}
	if winner {
		// The round is over: tallies, history and the stats store are
		// written exactly once, and Finished blocks any redelivery
		room.Finished = true
		player.Wins++
		room.History = append(room.History, model.RoundResult{
			Round:         room.RoundCount,
			WinnerName:    player.Name,
			LoserSecret:   opponent.Secret,
			WinnerGuesses: e.countGuesses(room, token),
		})

		// Revealing both secrets is safe only now that the round is over
		payload.Secrets = map[string]string{
			player.Name:   player.Secret,
			opponent.Name: opponent.Secret,
		}

		if err := e.stats.RecordWin(ctx, player.Name); err != nil {
			e.logger.Error("failed to record win",
				slog.String("player", player.Name),
				slog.Any("error", err))
		}

		e.logger.Info("round won",
			slog.String("room", string(roomID)),
			slog.String("winner", player.Name),
			slog.Int("guesses", e.countGuesses(room, token)))
	}

	e.broadcast(room, model.Event{Type: model.EventGuessResult, Data: payload})
	return nil
}

// RequestRematch adds the player's consent for another round and
// broadcasts the vote count. The room only resets once both players
// have consented: a single request stays pending until the second one.
func (e *Engine) RequestRematch(ctx context.Context, roomID model.RoomID, token model.PlayerToken) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	room, err := e.registry.Get(roomID)
	if err != nil {
		return model.ErrStaleAction
	}
	if room.GetPlayer(token) == nil || room.Phase == model.PhaseSetup {
		return model.ErrStaleAction
	}

	room.RematchVotes[token] = true
	e.touch(room)
	e.broadcast(room, model.Event{
		Type: model.EventRematchStatus,
		Data: model.RematchStatusPayload{Votes: len(room.RematchVotes), Needed: model.MaxPlayers},
	})

	if len(room.RematchVotes) < model.MaxPlayers {
		return nil
	}

	e.resetForRematch(room)
	e.broadcast(room, model.Event{Type: model.EventEnterSetup})
	return nil
}

func (e *Engine) resetForRematch(room *model.Room) {
	room.Phase = model.PhaseSetup
	room.Finished = false
	room.Guesses = nil
	room.TurnHolder = ""
	room.RoundCount++
	room.RematchVotes = make(map[model.PlayerToken]bool)
	if !e.policy.PreserveChatOnRematch {
		room.Chat = nil
	}
	for _, p := range room.Players {
		p.Secret = ""
		p.Ready = false
	}
	e.touch(room)

	e.logger.Info("rematch agreed",
		slog.String("room", string(room.ID)),
		slog.Int("round", room.RoundCount))
}

// SendChat logs a chat message and relays it to the whole room
func (e *Engine) SendChat(ctx context.Context, roomID model.RoomID, token model.PlayerToken, message string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	room, err := e.registry.Get(roomID)
	if err != nil {
		return model.ErrStaleAction
	}
	player := room.GetPlayer(token)
	if player == nil {
		return model.ErrStaleAction
	}

	msg := model.ChatMessage{PlayerToken: token, SenderName: player.Name, Message: message}
	room.Chat = append(room.Chat, msg)
	e.touch(room)
	e.broadcast(room, model.Event{Type: model.EventReceiveChat, Data: msg})
	return nil
}

// SetTyping relays a typing indicator to everyone except the sender.
// Typing indicators are transient and never logged.
func (e *Engine) SetTyping(ctx context.Context, roomID model.RoomID, token model.PlayerToken, isTyping bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	room, err := e.registry.Get(roomID)
	if err != nil {
		return model.ErrStaleAction
	}
	player := room.GetPlayer(token)
	if player == nil {
		return model.ErrStaleAction
	}

	e.broadcast(room, model.Event{
		Type: model.EventDisplayTyping,
		Data: model.TypingPayload{Name: player.Name, IsTyping: isTyping},
	}, player.Conn)
	return nil
}

// Rejoin rebinds a returning player's token to a fresh connection,
// cancels any running grace countdown, and replies with a full state
// snapshot so the client can rebuild its view.
func (e *Engine) Rejoin(ctx context.Context, roomID model.RoomID, token model.PlayerToken, conn model.ConnectionID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	room, err := e.registry.Get(roomID)
	if err != nil {
		return model.ErrSessionExpired
	}
	return e.rejoinLocked(room, token, conn)
}

func (e *Engine) rejoinLocked(room *model.Room, token model.PlayerToken, conn model.ConnectionID) error {
	player := room.GetPlayer(token)
	if player == nil {
		return model.ErrSessionExpired
	}

	player.Conn = conn
	// Cancelling here, inside the engine's lock, means an expiry that
	// raced this rejoin will find the player reattached and stand down
	e.supervisor.Cancel(token)
	e.touch(room)

	e.logger.Info("player rejoined",
		slog.String("room", string(room.ID)),
		slog.String("player", player.Name))

	opponentName := waitingPlaceholder
	opponentReady := false
	if opponent := room.Opponent(token); opponent != nil {
		opponentName = opponent.Name
		opponentReady = opponent.Ready
	}

	e.sender.Send(conn, model.Event{
		Type: model.EventRejoinedGame,
		Data: model.RejoinedGamePayload{
			RoomID:         room.ID,
			Name:           player.Name,
			Secret:         player.Secret,
			Phase:          room.Phase,
			OpponentName:   opponentName,
			TurnToken:      room.TurnHolder,
			Guesses:        room.Guesses,
			ChatHistory:    room.Chat,
			RematchPending: room.RematchVotes[token],
		},
	})

	if room.Phase == model.PhaseSetup && opponentReady {
		e.sender.Send(conn, model.Event{Type: model.EventOpponentReady})
	}

	e.broadcast(room, model.Event{Type: model.EventReconnectSuccess})
	return nil
}

// Leave handles an explicit voluntary exit. Leaving an empty room
// behind deletes it; leaving mid-session dissolves the room for the
// remaining player too (policy-controlled), since walking out is
// treated as ending the session.
func (e *Engine) Leave(ctx context.Context, roomID model.RoomID, token model.PlayerToken) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	room, err := e.registry.Get(roomID)
	if err != nil {
		return model.ErrStaleAction
	}
	player := room.GetPlayer(token)
	if player == nil {
		return model.ErrStaleAction
	}

	e.logger.Info("player left",
		slog.String("room", string(roomID)),
		slog.String("player", player.Name))

	e.supervisor.Cancel(token)
	delete(room.Players, token)
	delete(room.RematchVotes, token)
	for i, t := range room.PlayerOrder {
		if t == token {
			room.PlayerOrder = append(room.PlayerOrder[:i], room.PlayerOrder[i+1:]...)
			break
		}
	}

	if len(room.Players) == 0 {
		e.teardownLocked(room, "")
		return nil
	}

	if room.Phase != model.PhaseLobby && e.policy.DissolveOnLeave {
		e.teardownLocked(room, roomClosedLeft)
		return nil
	}

	e.touch(room)
	e.broadcastLobby(room)
	return nil
}

// Detach handles a transport-level disconnect. The player record is
// kept — secret, logs and rematch consent all survive the gap — and
// only the connection reference is cleared while the grace countdown
// runs.
func (e *Engine) Detach(ctx context.Context, conn model.ConnectionID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var room *model.Room
	var player *model.Player
	e.registry.Each(func(r *model.Room) bool {
		if p := r.PlayerByConn(conn); p != nil {
			room, player = r, p
			return false
		}
		return true
	})
	if player == nil {
		e.withdrawPendingLocked(conn)
		return
	}

	player.Conn = ""
	e.touch(room)

	e.logger.Info("player detached",
		slog.String("room", string(room.ID)),
		slog.String("player", player.Name),
		slog.Int("grace_ticks", e.policy.GraceTicks))

	e.broadcast(room, model.Event{
		Type: model.EventOpponentDisconnected,
		Data: model.DisconnectPayload{Name: player.Name, TimeLeft: e.policy.GraceTicks},
	})

	roomID := room.ID
	token := player.Token
	e.supervisor.Start(token, e.policy.GraceTicks,
		func(remaining int) { e.graceTick(roomID, remaining) },
		func() { e.graceExpire(roomID, token) },
	)
}

// withdrawPendingLocked drops a join request whose candidate
// disconnected before being resolved. Without this, a later accept
// would promote a player bound to a dead connection that reads as
// attached, so no grace countdown would ever reclaim the room.
func (e *Engine) withdrawPendingLocked(conn model.ConnectionID) {
	e.registry.Each(func(r *model.Room) bool {
		for token, req := range r.JoinRequests {
			if req.Conn != conn {
				continue
			}
			delete(r.JoinRequests, token)
			e.touch(r)

			e.logger.Info("pending join request withdrawn",
				slog.String("room", string(r.ID)),
				slog.String("candidate", req.Name))

			e.broadcast(r, model.Event{
				Type: model.EventJoinRequestCancelled,
				Data: model.JoinRequestPayload{Token: token},
			})
			return false
		}
		return true
	})
}

func (e *Engine) graceTick(roomID model.RoomID, remaining int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	room, err := e.registry.Get(roomID)
	if err != nil {
		return
	}
	e.broadcast(room, model.Event{
		Type: model.EventTimerTick,
		Data: model.TimerTickPayload{TimeLeft: remaining},
	})
}

func (e *Engine) graceExpire(roomID model.RoomID, token model.PlayerToken) {
	e.mu.Lock()
	defer e.mu.Unlock()

	room, err := e.registry.Get(roomID)
	if err != nil {
		return
	}
	// A rejoin that won the race has already rebound the connection
	if player := room.GetPlayer(token); player == nil || player.Attached() {
		return
	}

	e.logger.Info("grace period expired",
		slog.String("room", string(roomID)),
		slog.String("token", string(token)))

	e.teardownLocked(room, roomClosedTimeout)
}

// teardownLocked destroys the room, cancelling outstanding countdowns
// and notifying everyone still connected. reason may be empty when
// there is nobody left to tell.
func (e *Engine) teardownLocked(room *model.Room, reason string) {
	for token := range room.Players {
		e.supervisor.Cancel(token)
	}
	if reason != "" {
		e.broadcast(room, model.Event{
			Type: model.EventRoomClosed,
			Data: model.RoomClosedPayload{Reason: reason},
		})
	}
	// Pending candidates are turned away rather than left hanging
	for _, req := range room.JoinRequests {
		e.sender.Send(req.Conn, model.Event{
			Type: model.EventJoinRejected,
			Data: model.JoinResolvedPayload{RoomID: room.ID},
		})
	}
	e.registry.Delete(room.ID)

	e.logger.Info("room destroyed", slog.String("room", string(room.ID)))
}

// broadcast sends an event to every attached player except those listed
func (e *Engine) broadcast(room *model.Room, event model.Event, except ...model.ConnectionID) {
	for _, p := range room.Players {
		if !p.Attached() {
			continue
		}
		skip := false
		for _, ex := range except {
			if p.Conn == ex {
				skip = true
				break
			}
		}
		if !skip {
			e.sender.Send(p.Conn, event)
		}
	}
}

func (e *Engine) broadcastLobby(room *model.Room) {
	players := make([]model.LobbySnapshot, 0, len(room.PlayerOrder))
	for _, t := range room.PlayerOrder {
		if p := room.Players[t]; p != nil {
			players = append(players, model.LobbySnapshot{Token: p.Token, Name: p.Name})
		}
	}
	e.broadcast(room, model.Event{
		Type: model.EventLobbyUpdate,
		Data: model.LobbyUpdatePayload{RoomID: room.ID, Players: players},
	})
}

func (e *Engine) countGuesses(room *model.Room, token model.PlayerToken) int {
	n := 0
	for _, g := range room.Guesses {
		if g.PlayerToken == token {
			n++
		}
	}
	return n
}

func (e *Engine) touch(room *model.Room) {
	room.UpdatedAt = e.clock.Now()
}

// Package ws is the websocket transport: it upgrades connections,
// decodes inbound commands into engine operations, and delivers the
// engine's outbound events back to the right connections.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mcoot/codebreak-go/internal/model"
	"github.com/mcoot/codebreak-go/internal/session"
)

// GameEngine is the set of operations the transport drives. Satisfied
// by the session engine.
type GameEngine interface {
	CreateRoom(ctx context.Context, name string, token model.PlayerToken, conn model.ConnectionID) (model.RoomID, error)
	RequestJoin(ctx context.Context, roomID model.RoomID, token model.PlayerToken, name string, conn model.ConnectionID) error
	CancelJoinRequest(ctx context.Context, roomID model.RoomID, token model.PlayerToken) error
	ResolveJoinRequest(ctx context.Context, roomID model.RoomID, resolver, candidate model.PlayerToken, accept bool) error
	BeginSetup(ctx context.Context, roomID model.RoomID, token model.PlayerToken) error
	SubmitSecret(ctx context.Context, roomID model.RoomID, token model.PlayerToken, secret string) error
	SubmitGuess(ctx context.Context, roomID model.RoomID, token model.PlayerToken, guess string) error
	RequestRematch(ctx context.Context, roomID model.RoomID, token model.PlayerToken) error
	SendChat(ctx context.Context, roomID model.RoomID, token model.PlayerToken, message string) error
	SetTyping(ctx context.Context, roomID model.RoomID, token model.PlayerToken, isTyping bool) error
	Rejoin(ctx context.Context, roomID model.RoomID, token model.PlayerToken, conn model.ConnectionID) error
	Leave(ctx context.Context, roomID model.RoomID, token model.PlayerToken) error
	Detach(ctx context.Context, conn model.ConnectionID)
}

// Hub owns all live websocket connections and routes traffic between
// them and the engine. It is the engine's Sender.
type Hub struct {
	engine   GameEngine
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[model.ConnectionID]*client
}

// Ensure Hub implements the engine's outbound interface, and that the
// real engine satisfies the inbound one
var (
	_ session.Sender = (*Hub)(nil)
	_ GameEngine     = (*session.Engine)(nil)
)

// NewHub creates a Hub with no engine bound yet. The hub and the
// engine reference each other, so construction is two-phase: build the
// hub, build the engine against it, then Bind.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger.With(slog.String("component", "ws")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[model.ConnectionID]*client),
	}
}

// Bind attaches the engine the hub dispatches into
func (h *Hub) Bind(engine GameEngine) {
	h.engine = engine
}

// ServeHTTP upgrades the request to a websocket, mints the connection
// a player token, and starts its pumps. The token is sent to the
// client immediately so it can be persisted for rejoin.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.Any("error", err))
		return
	}

	c := &client{
		hub:   h,
		id:    model.ConnectionID(uuid.NewString()),
		token: model.PlayerToken(uuid.NewString()),
		conn:  conn,
		send:  make(chan []byte, sendBufferSize),
	}

	h.mu.Lock()
	h.clients[c.id] = c
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("websocket connected",
		slog.String("conn", string(c.id)),
		slog.Int("total_clients", total))

	go c.writePump()
	go c.readPump()

	h.Send(c.id, model.Event{
		Type: model.EventSession,
		Data: model.SessionPayload{Token: c.playerToken()},
	})
}

// Send implements session.Sender. Events for connections that are
// gone, or whose buffer is full, are dropped; the engine's state is
// authoritative and a reconnecting client resyncs from a snapshot.
func (h *Hub) Send(conn model.ConnectionID, event model.Event) {
	h.mu.RLock()
	c, ok := h.clients[conn]
	h.mu.RUnlock()
	if !ok {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to encode event",
			slog.String("type", string(event.Type)),
			slog.Any("error", err))
		return
	}

	if !c.enqueue(payload) {
		h.logger.Warn("event dropped",
			slog.String("conn", string(conn)),
			slog.String("type", string(event.Type)))
	}
}

// ClientCount returns the number of live connections
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close tears down every live connection
func (h *Hub) Close() {
	h.mu.Lock()
	for id, c := range h.clients {
		c.close()
		_ = c.conn.Close()
		delete(h.clients, id)
	}
	h.mu.Unlock()
	h.logger.Info("websocket hub closed")
}

// drop unregisters a client after its read pump ends and tells the
// engine the connection is gone so the grace countdown can start
func (h *Hub) drop(c *client) {
	h.mu.Lock()
	if current, ok := h.clients[c.id]; !ok || current != c {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.id)
	total := len(h.clients)
	h.mu.Unlock()

	c.close()
	h.logger.Info("websocket disconnected",
		slog.String("conn", string(c.id)),
		slog.Int("total_clients", total))

	h.engine.Detach(context.Background(), c.id)
}

// dispatch decodes one inbound message and applies it to the engine.
// Malformed messages and swallowed engine errors produce no reply;
// surfaced errors go back to the sender as error_msg.
func (h *Hub) dispatch(c *client, raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.logger.Warn("malformed message",
			slog.String("conn", string(c.id)),
			slog.Any("error", err))
		return
	}

	ctx := context.Background()
	token := c.playerToken()

	var err error
	switch msg.Type {
	case CmdCreateRoom:
		var req CreateRoomRequest
		if err = json.Unmarshal(msg.Data, &req); err == nil {
			_, err = h.engine.CreateRoom(ctx, req.Name, token, c.id)
		}

	case CmdJoinRoom:
		var req JoinRoomRequest
		if err = json.Unmarshal(msg.Data, &req); err == nil {
			err = h.engine.RequestJoin(ctx, req.RoomID, token, req.Name, c.id)
		}

	case CmdCancelJoin:
		var req CancelJoinRequest
		if err = json.Unmarshal(msg.Data, &req); err == nil {
			err = h.engine.CancelJoinRequest(ctx, req.RoomID, token)
		}

	case CmdResolveJoin:
		var req ResolveJoinRequest
		if err = json.Unmarshal(msg.Data, &req); err == nil {
			err = h.engine.ResolveJoinRequest(ctx, req.RoomID, token, req.Token, req.Accept)
		}

	case CmdStartSetup:
		var req StartSetupRequest
		if err = json.Unmarshal(msg.Data, &req); err == nil {
			err = h.engine.BeginSetup(ctx, req.RoomID, token)
		}

	case CmdPlayerReady:
		var req PlayerReadyRequest
		if err = json.Unmarshal(msg.Data, &req); err == nil {
			err = h.engine.SubmitSecret(ctx, req.RoomID, token, req.Secret)
		}

	case CmdMakeGuess:
		var req MakeGuessRequest
		if err = json.Unmarshal(msg.Data, &req); err == nil {
			err = h.engine.SubmitGuess(ctx, req.RoomID, token, req.Guess)
		}

	case CmdPlayAgain:
		var req PlayAgainRequest
		if err = json.Unmarshal(msg.Data, &req); err == nil {
			err = h.engine.RequestRematch(ctx, req.RoomID, token)
		}

	case CmdSendChat:
		var req SendChatRequest
		if err = json.Unmarshal(msg.Data, &req); err == nil {
			err = h.engine.SendChat(ctx, req.RoomID, token, req.Message)
		}

	case CmdTyping:
		var req TypingRequest
		if err = json.Unmarshal(msg.Data, &req); err == nil {
			err = h.engine.SetTyping(ctx, req.RoomID, token, req.IsTyping)
		}

	case CmdRejoinRoom:
		var req RejoinRequest
		if err = json.Unmarshal(msg.Data, &req); err == nil {
			// The connection takes over the persisted identity before
			// the engine validates it, so a failed rejoin leaves the
			// fresh token untouched
			if req.Token != "" {
				err = h.engine.Rejoin(ctx, req.RoomID, req.Token, c.id)
				if err == nil {
					c.setPlayerToken(req.Token)
				}
			} else {
				err = model.ErrSessionExpired
			}
		}

	case CmdLeaveRoom:
		var req LeaveRequest
		if err = json.Unmarshal(msg.Data, &req); err == nil {
			err = h.engine.Leave(ctx, req.RoomID, token)
		}

	default:
		h.logger.Debug("unknown command",
			slog.String("conn", string(c.id)),
			slog.String("type", string(msg.Type)))
		return
	}

	if err == nil {
		return
	}
	if !session.IsSurfaced(err) {
		h.logger.Debug("command dropped",
			slog.String("conn", string(c.id)),
			slog.String("type", string(msg.Type)),
			slog.Any("error", err))
		return
	}

	h.Send(c.id, model.Event{
		Type: model.EventError,
		Data: model.ErrorPayload{Message: errorMessage(err)},
	})
}

// errorMessage translates a surfaced sentinel into user-facing text
func errorMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrRoomNotFound):
		return "Room not found."
	case errors.Is(err, model.ErrRoomFull):
		return "Room is full."
	case errors.Is(err, model.ErrSessionExpired):
		return "Session expired. Please start a new game."
	case errors.Is(err, model.ErrRegistryExhausted):
		return "No rooms available right now. Try again shortly."
	default:
		return "Something went wrong."
	}
}

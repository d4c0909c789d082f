package session

import "github.com/mcoot/codebreak-go/internal/model"

// Sender delivers outbound events to live connections. The engine is
// written against this interface rather than any particular transport;
// the websocket hub provides the production implementation.
type Sender interface {
	Send(conn model.ConnectionID, event model.Event)
}

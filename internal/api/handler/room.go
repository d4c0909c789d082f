package handler

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/mcoot/codebreak-go/internal/api/response"
	"github.com/mcoot/codebreak-go/internal/model"
	"github.com/mcoot/codebreak-go/internal/registry"
)

const qrSize = 320

// RoomHandler serves the room-adjacent HTTP endpoints that sit outside
// the websocket protocol
type RoomHandler struct {
	registry *registry.Registry
}

// NewRoomHandler creates a RoomHandler
func NewRoomHandler(reg *registry.Registry) *RoomHandler {
	return &RoomHandler{registry: reg}
}

// QR renders a PNG QR code pointing at the room's join URL, so the
// room can be shared by pointing a phone at the host's screen
func (h *RoomHandler) QR(w http.ResponseWriter, r *http.Request) {
	roomID := model.RoomID(mux.Vars(r)["id"])
	if !h.registry.Exists(roomID) {
		response.Error(w, http.StatusNotFound, "room not found")
		return
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// The QR target is the room page itself, one level up from /qr
	url := scheme + "://" + r.Host + strings.TrimSuffix(r.URL.Path, "/qr")

	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "qr generation failed")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

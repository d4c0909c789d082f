package handler

import (
	"net/http"
	"strconv"

	"github.com/mcoot/codebreak-go/internal/api/response"
	"github.com/mcoot/codebreak-go/internal/stats"
)

const defaultLeaderboardLimit = 10

// StatsHandler serves the cross-room win leaderboard
type StatsHandler struct {
	store stats.Store
}

// NewStatsHandler creates a StatsHandler
func NewStatsHandler(store stats.Store) *StatsHandler {
	return &StatsHandler{store: store}
}

// Leaderboard returns the top players by win count. The limit query
// parameter caps the result; it defaults to 10 and 0 means no cap.
func (h *StatsHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := defaultLeaderboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	leaders, err := h.store.Leaders(r.Context(), limit)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "failed to load leaderboard")
		return
	}
	if leaders == nil {
		leaders = []stats.Entry{}
	}

	response.JSON(w, http.StatusOK, map[string]any{"leaders": leaders})
}

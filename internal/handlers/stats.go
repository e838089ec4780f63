package handlers

import (
	"net/http"
)

// StatsResponse represents the response from the stats endpoint.
type StatsResponse struct {
	TotalQuestions  int64 `json:"total_questions"`
	TotalAnswers    int64 `json:"total_answers"`
	TotalSessions   int64 `json:"total_sessions"`
	TotalReactions  int64 `json:"total_reactions"`
	LiveConnections int64 `json:"live_connections"`
}

// Stats returns board statistics for the portal dashboard.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	totalQuestions, err := h.db.CountQuestions(ctx)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to count questions")
		return
	}

	totalAnswers, err := h.db.SumAnswerCount(ctx)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to sum answers")
		return
	}

	totalSessions, err := h.db.CountSessions(ctx)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to count sessions")
		return
	}

	totalReactions, err := h.redis.TotalReactions(ctx)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to count reactions")
		return
	}

	var liveConnections int64
	if h.channel != nil {
		liveConnections = h.channel.ClientCount()
	}

	h.JSON(w, http.StatusOK, StatsResponse{
		TotalQuestions:  totalQuestions,
		TotalAnswers:    totalAnswers,
		TotalSessions:   totalSessions,
		TotalReactions:  totalReactions,
		LiveConnections: liveConnections,
	})
}

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/IndhujaSadayappan/byts-phase2-sub000/internal/models"
)

// ThreadResponse represents a question's answer thread. Clients seed their
// live view from this snapshot and use it to resynchronize after a reconnect.
type ThreadResponse struct {
	Question models.Question `json:"question"`
	Answers  []models.Answer `json:"answers"`
}

// ListAnswers handles fetching the thread for one question.
func (h *Handler) ListAnswers(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid question ID format")
		return
	}

	question, err := h.db.GetQuestion(r.Context(), id)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if question == nil {
		h.Error(w, http.StatusNotFound, "question not found")
		return
	}

	answers, err := h.redis.ListAnswers(r.Context(), idStr)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to fetch answers")
		return
	}

	h.JSON(w, http.StatusOK, ThreadResponse{Question: *question, Answers: answers})
}

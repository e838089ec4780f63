package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/IndhujaSadayappan/byts-phase2-sub000/internal/metrics"
	"github.com/IndhujaSadayappan/byts-phase2-sub000/internal/models"
)

const maxQuestionLength = 1000

// CreateQuestionRequest represents the question creation request.
type CreateQuestionRequest struct {
	Text      string `json:"text"`
	SessionID string `json:"session_id"`
}

// UpdateStatusRequest represents the status change request.
type UpdateStatusRequest struct {
	Status models.QuestionStatus `json:"status"`
}

// QuestionListResponse represents the questions list response.
type QuestionListResponse struct {
	Questions []models.Question `json:"questions"`
	Total     int               `json:"total"`
}

// ListQuestions handles listing questions, optionally filtered by status.
func (h *Handler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	limitStr := r.URL.Query().Get("limit")
	offsetStr := r.URL.Query().Get("offset")
	statusStr := r.URL.Query().Get("status")

	limit := 50
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}
	if limit > 200 {
		limit = 200
	}

	offset := 0
	if offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	status := models.QuestionStatus(statusStr)
	if statusStr != "" && !status.Valid() {
		h.Error(w, http.StatusBadRequest, "unknown status filter")
		return
	}

	questions, total, err := h.db.ListQuestions(r.Context(), status, limit, offset)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if questions == nil {
		questions = []models.Question{}
	}

	h.JSON(w, http.StatusOK, QuestionListResponse{Questions: questions, Total: total})
}

// CreateQuestion handles posting a new anonymous question.
func (h *Handler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req CreateQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.Text = sanitizeText(req.Text)
	if req.Text == "" {
		h.Error(w, http.StatusBadRequest, "text is required")
		return
	}
	if len(req.Text) > maxQuestionLength {
		h.Error(w, http.StatusUnprocessableEntity, "question too long")
		return
	}
	if req.SessionID == "" {
		h.Error(w, http.StatusBadRequest, "session_id is required")
		return
	}

	question, err := h.db.CreateQuestion(r.Context(), req.Text, req.SessionID)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to create question")
		return
	}

	// Search indexing is best-effort
	if h.redis != nil {
		_ = h.redis.IndexQuestion(r.Context(), question.ID.String(), question.Text, question.CreatedAt)
	}

	metrics.QuestionsCreated.Inc()

	h.JSON(w, http.StatusCreated, question)
}

// UpdateStatus handles the status transition. Only archiving is supported:
// a reopen request is rejected, never silently accepted.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid question ID format")
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.Status != models.StatusArchived {
		h.Error(w, http.StatusUnprocessableEntity, "only the archived status can be set")
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

	if question.Status != models.StatusArchived {
		if err := h.db.ArchiveQuestion(r.Context(), id); err != nil {
			h.Error(w, http.StatusInternalServerError, "failed to archive question")
			return
		}
		metrics.QuestionsArchived.Inc()
	}

	question.Status = models.StatusArchived
	h.JSON(w, http.StatusOK, question)
}

// SetSummaryRequest represents the assistant summary request.
type SetSummaryRequest struct {
	Summary string `json:"summary"`
}

// SetSummary attaches an assistant-generated summary to a question. The
// summary renders under the reserved assistant identity, not as a thread
// answer.
func (h *Handler) SetSummary(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid question ID format")
		return
	}

	var req SetSummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.Summary = sanitizeText(req.Summary)
	if req.Summary == "" {
		h.Error(w, http.StatusBadRequest, "summary is required")
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

	if err := h.db.SetAISummary(r.Context(), id, req.Summary); err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to set summary")
		return
	}

	question.AISummary = req.Summary
	h.JSON(w, http.StatusOK, question)
}

// SearchResponse represents the question search response.
type SearchResponse struct {
	Questions []models.Question `json:"questions"`
}

// SearchQuestions handles full-text lookup over question text.
func (h *Handler) SearchQuestions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		h.Error(w, http.StatusBadRequest, "q is required")
		return
	}

	limit := 20
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}

	ids, err := h.redis.SearchQuestions(r.Context(), query, limit)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "search failed")
		return
	}

	metrics.SearchQueries.Inc()

	questions := make([]models.Question, 0, len(ids))
	for _, idStr := range ids {
		id, err := uuid.Parse(idStr)
		if err != nil {
			continue
		}
		q, err := h.db.GetQuestion(r.Context(), id)
		if err != nil || q == nil {
			continue
		}
		questions = append(questions, *q)
	}

	h.JSON(w, http.StatusOK, SearchResponse{Questions: questions})
}

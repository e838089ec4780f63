package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/IndhujaSadayappan/byts-phase2-sub000/internal/identity"
	"github.com/IndhujaSadayappan/byts-phase2-sub000/internal/metrics"
)

// SessionInitRequest represents the session registration request.
type SessionInitRequest struct {
	SessionID string `json:"session_id"`
	Icon      string `json:"icon"`
}

// InitSession registers a client's anonymous session. Clients call this
// best-effort after resolving their identity; a failure here never blocks
// message sending or receiving.
func (h *Handler) InitSession(w http.ResponseWriter, r *http.Request) {
	var req SessionInitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.SessionID == "" {
		h.Error(w, http.StatusBadRequest, "session_id is required")
		return
	}
	if !identity.ValidIcon(req.Icon) {
		h.Error(w, http.StatusBadRequest, "unknown icon")
		return
	}

	session, err := h.db.RegisterSession(r.Context(), req.SessionID, req.Icon)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to register session")
		return
	}

	metrics.SessionsRegistered.Inc()

	h.JSON(w, http.StatusOK, session)
}

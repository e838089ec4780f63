package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"unicode"

	"github.com/IndhujaSadayappan/byts-phase2-sub000/internal/store"
)

// ChannelInfo reports on the live broadcast channel. Nil when the handler
// runs without one (tests).
type ChannelInfo interface {
	ClientCount() int64
}

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	db      store.DataStore
	redis   *store.RedisStore
	channel ChannelInfo
}

// NewHandler creates a new Handler with the given stores.
func NewHandler(db store.DataStore, redis *store.RedisStore, channel ChannelInfo) *Handler {
	return &Handler{db: db, redis: redis, channel: channel}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// sanitizeText trims whitespace and strips control characters.
func sanitizeText(text string) string {
	text = strings.TrimSpace(text)

	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' {
			return -1
		}
		return r
	}, text)
}

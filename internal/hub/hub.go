// Package hub implements the shared broadcast channel. Every connected client
// joins the same channel; answers and reaction updates fan out to all of them
// and clients filter locally by question id.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/IndhujaSadayappan/byts-phase2-sub000/internal/metrics"
	"github.com/IndhujaSadayappan/byts-phase2-sub000/internal/models"
	"github.com/IndhujaSadayappan/byts-phase2-sub000/internal/store"
)

// Registry is the slice of the question registry the hub needs.
type Registry interface {
	GetQuestion(ctx context.Context, id uuid.UUID) (*models.Question, error)
	IncrementAnswerCount(ctx context.Context, id uuid.UUID) error
}

// AnswerStore persists answers and aggregates reactions.
type AnswerStore interface {
	AddAnswer(ctx context.Context, ans *models.Answer) error
	RemoveAnswer(ctx context.Context, questionID, answerID string) error
	ToggleReaction(ctx context.Context, answerID, sessionID string, kind models.ReactionKind) (models.ReactionMap, error)
}

// Hub maintains the set of connected clients and fans accepted events out to
// every one of them.
type Hub struct {
	registry Registry
	answers  AnswerStore
	logger   zerolog.Logger

	clients     map[*Client]bool
	clientCount atomic.Int64
	register    chan *Client
	unregister  chan *Client
	broadcast   chan []byte
	done        chan struct{}
}

// New creates a Hub. Run must be called before clients connect.
func New(registry Registry, answers AnswerStore, logger zerolog.Logger) *Hub {
	return &Hub{
		registry:   registry,
		answers:    answers,
		logger:     logger,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
	}
}

// Run owns the client set. It loops until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for client := range h.clients {
				client.closeSend()
				if client.conn != nil {
					client.conn.Close()
				}
				delete(h.clients, client)
			}
			h.clientCount.Store(0)
			return

		case client := <-h.register:
			h.clients[client] = true
			h.clientCount.Add(1)
			metrics.ConnectedClients.Inc()

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closeSend()
				h.clientCount.Add(-1)
				metrics.ConnectedClients.Dec()
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				if !client.trySend(message) {
					// Slow client: drop it rather than block delivery
					// to everyone else.
					delete(h.clients, client)
					client.closeSend()
					h.clientCount.Add(-1)
					metrics.ConnectedClients.Dec()
					h.logger.Warn().Msg("dropping slow client")
				}
			}
		}
	}
}

// ClientCount returns the number of currently connected clients.
func (h *Hub) ClientCount() int64 {
	return h.clientCount.Load()
}

// Broadcast sends an envelope to every connected client.
func (h *Hub) Broadcast(env models.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		h.logger.Error().Err(err).Str("type", env.Type).Msg("marshal broadcast envelope")
		return
	}
	h.broadcast <- data
}

// handleEnvelope dispatches one inbound frame. Unknown tags and malformed
// payloads are dropped silently; referential and persistence faults go back
// to the submitter only.
func (h *Hub) handleEnvelope(ctx context.Context, c *Client, data []byte) {
	var env models.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		h.logger.Debug().Err(err).Msg("dropping malformed frame")
		return
	}

	switch env.Type {
	case models.TypeNewAnswer:
		var payload models.NewAnswerPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			h.logger.Debug().Err(err).Msg("dropping malformed NEW_ANSWER payload")
			return
		}
		h.handleNewAnswer(ctx, c, payload)

	case models.TypeReaction:
		var payload models.ReactionPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			h.logger.Debug().Err(err).Msg("dropping malformed REACTION payload")
			return
		}
		h.handleReaction(ctx, c, payload)

	default:
		h.logger.Debug().Str("type", env.Type).Msg("dropping unknown frame type")
	}
}

// handleNewAnswer runs the fan-out rule: validate, persist, increment the
// question's answer count, then broadcast to everyone. If the persist fails
// nothing is broadcast, so the thread view never shows an answer the registry
// does not hold.
func (h *Hub) handleNewAnswer(ctx context.Context, c *Client, payload models.NewAnswerPayload) {
	if payload.SessionID == "" {
		c.sendError("session_id is required")
		return
	}
	if (payload.Text == "") == (payload.ImageURL == "") {
		c.sendError("exactly one of text and image_url must be set")
		return
	}

	questionID, err := uuid.Parse(payload.QuestionID)
	if err != nil {
		c.sendError("invalid question id")
		return
	}

	question, err := h.registry.GetQuestion(ctx, questionID)
	if err != nil {
		h.logger.Error().Err(err).Msg("question lookup failed")
		c.sendError("failed to submit answer")
		return
	}
	if question == nil {
		c.sendError("question not found")
		return
	}
	if question.Status == models.StatusArchived {
		c.sendError("question is archived")
		return
	}

	ans := &models.Answer{
		QuestionID:      payload.QuestionID,
		Text:            payload.Text,
		ImageURL:        payload.ImageURL,
		SenderSessionID: payload.SessionID,
		SenderIcon:      payload.SenderIcon,
	}

	if err := h.answers.AddAnswer(ctx, ans); err != nil {
		h.logger.Error().Err(err).Str("question_id", payload.QuestionID).Msg("answer persist failed")
		c.sendError("failed to submit answer")
		return
	}

	if err := h.registry.IncrementAnswerCount(ctx, questionID); err != nil {
		// Back the stored answer out so the thread never diverges from
		// the question's count.
		h.logger.Error().Err(err).Str("question_id", payload.QuestionID).Msg("answer count update failed")
		if rmErr := h.answers.RemoveAnswer(ctx, ans.QuestionID, ans.ID); rmErr != nil {
			h.logger.Error().Err(rmErr).Str("answer_id", ans.ID).Msg("answer rollback failed")
		}
		c.sendError("failed to submit answer")
		return
	}

	metrics.AnswersPosted.Inc()

	env, err := models.NewEnvelope(models.TypeAnswerReceived, models.AnswerReceivedPayload{Answer: *ans})
	if err != nil {
		h.logger.Error().Err(err).Msg("marshal ANSWER_RECEIVED")
		return
	}
	h.Broadcast(env)
}

// handleReaction applies the atomic toggle and broadcasts the complete
// post-toggle map. A reaction against an unknown answer is a no-op reported
// to the submitter only.
func (h *Hub) handleReaction(ctx context.Context, c *Client, payload models.ReactionPayload) {
	if !payload.Reaction.Valid() {
		c.sendError("unknown reaction kind")
		return
	}

	reactions, err := h.answers.ToggleReaction(ctx, payload.AnswerID, c.sessionID, payload.Reaction)
	if err != nil {
		if errors.Is(err, store.ErrAnswerNotFound) {
			c.sendError("answer not found")
			return
		}
		h.logger.Error().Err(err).Str("answer_id", payload.AnswerID).Msg("reaction toggle failed")
		c.sendError("failed to apply reaction")
		return
	}

	metrics.ReactionsToggled.WithLabelValues(string(payload.Reaction)).Inc()

	env, err := models.NewEnvelope(models.TypeReactionUpdated, models.ReactionUpdatedPayload{
		AnswerID:  payload.AnswerID,
		Reactions: reactions,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("marshal REACTION_UPDATED")
		return
	}
	h.Broadcast(env)
}

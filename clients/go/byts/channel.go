package byts

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/IndhujaSadayappan/byts-phase2-sub000/internal/models"
)

// ConnState is the channel connection lifecycle state.
type ConnState int

const (
	StateConnecting ConnState = iota
	StateOpen
	StateClosed
)

// ChannelHandlers receives inbound channel traffic. Nil handlers are skipped.
type ChannelHandlers struct {
	// OnAnswer is called for every ANSWER_RECEIVED envelope, for every
	// question; filtering by the open question is the receiver's job.
	OnAnswer func(ans models.Answer)

	// OnReaction is called with the complete reaction map for one answer.
	OnReaction func(answerID string, reactions models.ReactionMap)

	// OnError is called for ERROR envelopes addressed to this client.
	OnError func(message string)

	// OnClose is called once when the connection transitions to closed.
	// Receivers must re-fetch the snapshot after reconnecting: the channel
	// does not replay history.
	OnClose func()
}

// Channel is one client's connection to the shared broadcast channel.
type Channel struct {
	client   *Client
	handlers ChannelHandlers

	mu    sync.Mutex
	state ConnState
	conn  *websocket.Conn
}

// OpenChannel dials the broadcast endpoint and starts the read loop. The
// returned Channel is in the open state on success.
func (c *Client) OpenChannel(ctx context.Context, handlers ChannelHandlers) (*Channel, error) {
	ch := &Channel{
		client:   c,
		handlers: handlers,
		state:    StateConnecting,
	}

	wsURL := strings.Replace(c.BaseURL, "http", "ws", 1) + "/ws?session_id=" + url.QueryEscape(c.Session.ID)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		ch.setState(StateClosed)
		return nil, err
	}

	ch.mu.Lock()
	ch.conn = conn
	ch.state = StateOpen
	ch.mu.Unlock()

	go ch.readLoop()
	return ch, nil
}

// State returns the current lifecycle state.
func (ch *Channel) State() ConnState {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.state
}

func (ch *Channel) setState(s ConnState) {
	ch.mu.Lock()
	ch.state = s
	ch.mu.Unlock()
}

// Close closes the connection. Closing is an implicit unsubscribe; no other
// participant's state needs cleanup.
func (ch *Channel) Close() error {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.state == StateClosed {
		return nil
	}
	ch.state = StateClosed
	return ch.conn.Close()
}

// SubmitAnswer sends a NEW_ANSWER envelope. Submissions while the connection
// is not open are silently dropped; the caller sees its own answer come back
// through the broadcast path, never rendered optimistically.
func (ch *Channel) SubmitAnswer(questionID, text, imageURL string) error {
	return ch.write(models.TypeNewAnswer, models.NewAnswerPayload{
		QuestionID: questionID,
		Text:       text,
		ImageURL:   imageURL,
		SenderIcon: ch.client.Session.Icon,
		SessionID:  ch.client.Session.ID,
	})
}

// React sends a REACTION envelope toggling this session's reaction.
func (ch *Channel) React(answerID string, kind models.ReactionKind) error {
	return ch.write(models.TypeReaction, models.ReactionPayload{
		AnswerID: answerID,
		Reaction: kind,
	})
}

func (ch *Channel) write(typ string, payload any) error {
	env, err := models.NewEnvelope(typ, payload)
	if err != nil {
		return err
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.state != StateOpen {
		// Deliberate: no queuing, no error surfaced.
		return nil
	}
	return ch.conn.WriteJSON(env)
}

// readLoop dispatches inbound envelopes until the connection drops. Unknown
// tags are dropped silently.
func (ch *Channel) readLoop() {
	defer func() {
		ch.Close()
		if ch.handlers.OnClose != nil {
			ch.handlers.OnClose()
		}
	}()

	for {
		_, data, err := ch.conn.ReadMessage()
		if err != nil {
			return
		}

		var env models.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}

		switch env.Type {
		case models.TypeAnswerReceived:
			var payload models.AnswerReceivedPayload
			if err := json.Unmarshal(env.Payload, &payload); err != nil {
				continue
			}
			if ch.handlers.OnAnswer != nil {
				ch.handlers.OnAnswer(payload.Answer)
			}

		case models.TypeReactionUpdated:
			var payload models.ReactionUpdatedPayload
			if err := json.Unmarshal(env.Payload, &payload); err != nil {
				continue
			}
			if ch.handlers.OnReaction != nil {
				ch.handlers.OnReaction(payload.AnswerID, payload.Reactions)
			}

		case models.TypeError:
			var payload models.ErrorPayload
			if err := json.Unmarshal(env.Payload, &payload); err != nil {
				continue
			}
			if ch.handlers.OnError != nil {
				ch.handlers.OnError(payload.Message)
			}
		}
	}
}

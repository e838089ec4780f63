package models

import "encoding/json"

// Channel message tags. Every frame crossing the broadcast channel is an
// Envelope carrying exactly one of these types. Receivers switch exhaustively
// on the tag and drop anything they do not recognize.
const (
	// client -> server
	TypeNewAnswer = "NEW_ANSWER"
	TypeReaction  = "REACTION"

	// server -> client
	TypeAnswerReceived  = "ANSWER_RECEIVED"
	TypeReactionUpdated = "REACTION_UPDATED"
	TypeError           = "ERROR" // delivered to the submitter only, never broadcast
)

// Envelope is the on-wire wrapper for every channel message.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewEnvelope wraps payload under the given tag.
func NewEnvelope(typ string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: typ, Payload: data}, nil
}

// NewAnswerPayload is a client's answer submission.
type NewAnswerPayload struct {
	QuestionID string `json:"question_id"`
	Text       string `json:"text,omitempty"`
	ImageURL   string `json:"image_url,omitempty"`
	SenderIcon string `json:"sender_icon"`
	SessionID  string `json:"session_id"`
}

// ReactionPayload is a client's reaction toggle submission.
type ReactionPayload struct {
	AnswerID string       `json:"answer_id"`
	Reaction ReactionKind `json:"reaction"`
}

// AnswerReceivedPayload carries a newly persisted answer to every client.
type AnswerReceivedPayload struct {
	Answer Answer `json:"answer"`
}

// ReactionUpdatedPayload carries the complete post-toggle reaction map for one
// answer, so clients that missed earlier updates still converge.
type ReactionUpdatedPayload struct {
	AnswerID  string      `json:"answer_id"`
	Reactions ReactionMap `json:"reactions"`
}

// ErrorPayload reports a rejected submission back to the submitter.
type ErrorPayload struct {
	Message string `json:"message"`
}

package models

// ReactionKind is one of the three reactions a session can give an answer.
type ReactionKind string

const (
	ReactionHelpful ReactionKind = "helpful"
	ReactionClear   ReactionKind = "clear"
	ReactionSmart   ReactionKind = "smart"
)

// ReactionKinds lists every kind in display order.
var ReactionKinds = []ReactionKind{ReactionHelpful, ReactionClear, ReactionSmart}

// Valid reports whether k is a known reaction kind.
func (k ReactionKind) Valid() bool {
	switch k {
	case ReactionHelpful, ReactionClear, ReactionSmart:
		return true
	}
	return false
}

// ReactionMap holds per-kind reaction counts for one answer. Every kind is
// always present, so clients converge on the full map rather than deltas.
type ReactionMap map[ReactionKind]int64

// NewReactionMap returns a map with all kinds zeroed.
func NewReactionMap() ReactionMap {
	m := make(ReactionMap, len(ReactionKinds))
	for _, k := range ReactionKinds {
		m[k] = 0
	}
	return m
}

// Answer represents one reply in a question's thread. Answers are immutable
// once created; exactly one of Text/ImageURL must be non-empty.
type Answer struct {
	ID              string      `json:"id"` // ULID
	QuestionID      string      `json:"question_id"`
	Text            string      `json:"text,omitempty"`
	ImageURL        string      `json:"image_url,omitempty"`
	SenderSessionID string      `json:"sender_session_id"`
	SenderIcon      string      `json:"sender_icon"`
	Reactions       ReactionMap `json:"reactions"`
	Timestamp       int64       `json:"ts"` // Unix ms
}

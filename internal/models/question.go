package models

import (
	"time"

	"github.com/google/uuid"
)

// QuestionStatus is the lifecycle state of a question.
type QuestionStatus string

const (
	StatusOpen     QuestionStatus = "open"
	StatusArchived QuestionStatus = "archived"
)

// Valid reports whether s is a known status value.
func (s QuestionStatus) Valid() bool {
	return s == StatusOpen || s == StatusArchived
}

// Question represents an anonymous question posted to the board.
// AnswerCount mirrors the number of answers the registry holds for the
// question; it is incremented only by the broadcast fan-out path.
type Question struct {
	ID              uuid.UUID      `json:"id"`
	Text            string         `json:"text"`
	AuthorSessionID string         `json:"author_session_id"`
	Status          QuestionStatus `json:"status"`
	AnswerCount     int64          `json:"answer_count"`
	AISummary       string         `json:"ai_summary,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/IndhujaSadayappan/byts-phase2-sub000/internal/models"
)

// ErrStatusTransition is returned when a status change other than
// open -> archived is requested. Archiving is terminal; there is no reopen.
var ErrStatusTransition = errors.New("store: unsupported status transition")

// DataStore defines the interface for persistent storage of questions and
// sessions. Both PostgresStore and SQLiteStore implement this interface.
type DataStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// Session operations
	RegisterSession(ctx context.Context, sessionID, icon string) (*models.Session, error)
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)
	CountSessions(ctx context.Context) (int64, error)

	// Question operations
	CreateQuestion(ctx context.Context, text, authorSessionID string) (*models.Question, error)
	GetQuestion(ctx context.Context, id uuid.UUID) (*models.Question, error)
	ListQuestions(ctx context.Context, status models.QuestionStatus, limit, offset int) ([]models.Question, int, error)
	ArchiveQuestion(ctx context.Context, id uuid.UUID) error
	SetAISummary(ctx context.Context, id uuid.UUID, summary string) error
	IncrementAnswerCount(ctx context.Context, id uuid.UUID) error
	CountQuestions(ctx context.Context) (int64, error)
	SumAnswerCount(ctx context.Context) (int64, error)
}

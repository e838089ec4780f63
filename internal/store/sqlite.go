package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/IndhujaSadayappan/byts-phase2-sub000/internal/models"
)

// SQLiteStore handles SQLite database operations. It is the default store in
// development and behind DataStore is interchangeable with PostgresStore.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to "./data/byts.db".
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/byts.db"
	}

	// ":memory:" is used by tests and needs no directory
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}

	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		icon TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS questions (
		id TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		author_session_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'open',
		answer_count INTEGER NOT NULL DEFAULT 0,
		ai_summary TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_questions_status ON questions(status);
	CREATE INDEX IF NOT EXISTS idx_questions_created ON questions(created_at);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// RegisterSession records a session identity. Registration is idempotent: a
// session that already exists is returned unchanged.
func (s *SQLiteStore) RegisterSession(ctx context.Context, sessionID, icon string) (*models.Session, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO sessions (id, icon, created_at)
		VALUES (?, ?, ?)
	`, sessionID, icon, time.Now())
	if err != nil {
		return nil, err
	}

	return s.GetSession(ctx, sessionID)
}

// GetSession retrieves a session by ID.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	session := &models.Session{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, icon, created_at FROM sessions WHERE id = ?
	`, sessionID).Scan(&session.ID, &session.Icon, &session.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return session, nil
}

// CountSessions returns the total number of registered sessions.
func (s *SQLiteStore) CountSessions(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&count)
	return count, err
}

// CreateQuestion creates a new question in open status.
func (s *SQLiteStore) CreateQuestion(ctx context.Context, text, authorSessionID string) (*models.Question, error) {
	id := uuid.New().String()
	now := time.Now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO questions (id, text, author_session_id, status, answer_count, created_at)
		VALUES (?, ?, ?, 'open', 0, ?)
	`, id, text, authorSessionID, now)
	if err != nil {
		return nil, err
	}

	return s.GetQuestion(ctx, uuid.MustParse(id))
}

// GetQuestion retrieves a question by ID.
func (s *SQLiteStore) GetQuestion(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	q := &models.Question{}
	var idStr string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, text, author_session_id, status, answer_count, ai_summary, created_at
		FROM questions WHERE id = ?
	`, id.String()).Scan(
		&idStr,
		&q.Text,
		&q.AuthorSessionID,
		&q.Status,
		&q.AnswerCount,
		&q.AISummary,
		&q.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	q.ID = uuid.MustParse(idStr)
	return q, nil
}

// ListQuestions retrieves questions with pagination, newest first. An empty
// status returns questions in every status.
func (s *SQLiteStore) ListQuestions(ctx context.Context, status models.QuestionStatus, limit, offset int) ([]models.Question, int, error) {
	where := ""
	args := []any{}
	if status != "" {
		where = "WHERE status = ?"
		args = append(args, string(status))
	}

	var total int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions `+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text, author_session_id, status, answer_count, ai_summary, created_at
		FROM questions `+where+`
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		var q models.Question
		var idStr string

		err := rows.Scan(
			&idStr,
			&q.Text,
			&q.AuthorSessionID,
			&q.Status,
			&q.AnswerCount,
			&q.AISummary,
			&q.CreatedAt,
		)
		if err != nil {
			return nil, 0, err
		}

		q.ID = uuid.MustParse(idStr)
		questions = append(questions, q)
	}

	return questions, total, nil
}

// ArchiveQuestion transitions a question to archived. The transition is
// monotonic: archiving an archived question is a no-op.
func (s *SQLiteStore) ArchiveQuestion(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE questions SET status = 'archived' WHERE id = ?
	`, id.String())
	return err
}

// SetAISummary attaches a generated summary to a question.
func (s *SQLiteStore) SetAISummary(ctx context.Context, id uuid.UUID, summary string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE questions SET ai_summary = ? WHERE id = ?
	`, summary, id.String())
	return err
}

// IncrementAnswerCount increments the cached answer count. Only the broadcast
// fan-out path calls this, after the answer itself has been persisted.
func (s *SQLiteStore) IncrementAnswerCount(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE questions SET answer_count = answer_count + 1 WHERE id = ?
	`, id.String())
	return err
}

// CountQuestions returns the total number of questions.
func (s *SQLiteStore) CountQuestions(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&count)
	return count, err
}

// SumAnswerCount returns the total answer count across all questions.
func (s *SQLiteStore) SumAnswerCount(ctx context.Context) (int64, error) {
	var sum int64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(answer_count), 0) FROM questions`).Scan(&sum)
	return sum, err
}

package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/IndhujaSadayappan/byts-phase2-sub000/internal/models"
)

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool and
// ensures the schema exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	store := &PostgresStore{pool: pool}

	if err := store.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *PostgresStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		icon TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS questions (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		text TEXT NOT NULL,
		author_session_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'open',
		answer_count BIGINT NOT NULL DEFAULT 0,
		ai_summary TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_questions_status ON questions(status);
	CREATE INDEX IF NOT EXISTS idx_questions_created ON questions(created_at);
	`

	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// RegisterSession records a session identity, idempotently.
func (s *PostgresStore) RegisterSession(ctx context.Context, sessionID, icon string) (*models.Session, error) {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (id, icon)
		VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING
	`, sessionID, icon)
	if err != nil {
		return nil, err
	}

	return s.GetSession(ctx, sessionID)
}

// GetSession retrieves a session by ID.
func (s *PostgresStore) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	session := &models.Session{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, icon, created_at FROM sessions WHERE id = $1
	`, sessionID).Scan(&session.ID, &session.Icon, &session.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return session, nil
}

// CountSessions returns the total number of registered sessions.
func (s *PostgresStore) CountSessions(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&count)
	return count, err
}

// CreateQuestion creates a new question in open status.
func (s *PostgresStore) CreateQuestion(ctx context.Context, text, authorSessionID string) (*models.Question, error) {
	q := &models.Question{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO questions (text, author_session_id)
		VALUES ($1, $2)
		RETURNING id, text, author_session_id, status, answer_count, ai_summary, created_at
	`, text, authorSessionID).Scan(
		&q.ID,
		&q.Text,
		&q.AuthorSessionID,
		&q.Status,
		&q.AnswerCount,
		&q.AISummary,
		&q.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// GetQuestion retrieves a question by ID.
func (s *PostgresStore) GetQuestion(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	q := &models.Question{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, text, author_session_id, status, answer_count, ai_summary, created_at
		FROM questions WHERE id = $1
	`, id).Scan(
		&q.ID,
		&q.Text,
		&q.AuthorSessionID,
		&q.Status,
		&q.AnswerCount,
		&q.AISummary,
		&q.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return q, nil
}

// ListQuestions retrieves questions with pagination, newest first.
func (s *PostgresStore) ListQuestions(ctx context.Context, status models.QuestionStatus, limit, offset int) ([]models.Question, int, error) {
	where := ""
	countArgs := []any{}
	if status != "" {
		where = "WHERE status = $1"
		countArgs = append(countArgs, string(status))
	}

	var total int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM questions `+where, countArgs...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, text, author_session_id, status, answer_count, ai_summary, created_at
		FROM questions
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`
	args := []any{limit, offset}
	if status != "" {
		query = `
		SELECT id, text, author_session_id, status, answer_count, ai_summary, created_at
		FROM questions
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
		args = []any{string(status), limit, offset}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		var q models.Question
		err := rows.Scan(
			&q.ID,
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
		questions = append(questions, q)
	}

	return questions, total, nil
}

// ArchiveQuestion transitions a question to archived, monotonically.
func (s *PostgresStore) ArchiveQuestion(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE questions SET status = 'archived' WHERE id = $1
	`, id)
	return err
}

// SetAISummary attaches a generated summary to a question.
func (s *PostgresStore) SetAISummary(ctx context.Context, id uuid.UUID, summary string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE questions SET ai_summary = $1 WHERE id = $2
	`, summary, id)
	return err
}

// IncrementAnswerCount increments the cached answer count.
func (s *PostgresStore) IncrementAnswerCount(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE questions SET answer_count = answer_count + 1 WHERE id = $1
	`, id)
	return err
}

// CountQuestions returns the total number of questions.
func (s *PostgresStore) CountQuestions(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM questions`).Scan(&count)
	return count, err
}

// SumAnswerCount returns the total answer count across all questions.
func (s *PostgresStore) SumAnswerCount(ctx context.Context) (int64, error) {
	var sum int64
	err := s.pool.QueryRow(ctx, `SELECT COALESCE(SUM(answer_count), 0) FROM questions`).Scan(&sum)
	return sum, err
}

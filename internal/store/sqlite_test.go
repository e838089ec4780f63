package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/IndhujaSadayappan/byts-phase2-sub000/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestCreateAndGetQuestion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	q, err := s.CreateQuestion(ctx, "How hard was the OA?", "session-a")
	require.NoError(t, err)
	require.Equal(t, "How hard was the OA?", q.Text)
	require.Equal(t, "session-a", q.AuthorSessionID)
	require.Equal(t, models.StatusOpen, q.Status)
	require.EqualValues(t, 0, q.AnswerCount)

	got, err := s.GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, q.ID, got.ID)
}

func TestGetQuestionMissing(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetQuestion(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestListQuestionsByStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	q1, err := s.CreateQuestion(ctx, "first question", "session-a")
	require.NoError(t, err)
	_, err = s.CreateQuestion(ctx, "second question", "session-b")
	require.NoError(t, err)

	require.NoError(t, s.ArchiveQuestion(ctx, q1.ID))

	open, total, err := s.ListQuestions(ctx, models.StatusOpen, 50, 0)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, open, 1)
	require.Equal(t, "second question", open[0].Text)

	all, total, err := s.ListQuestions(ctx, "", 50, 0)
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, all, 2)
}

func TestArchiveIsMonotonic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	q, err := s.CreateQuestion(ctx, "archive me", "session-a")
	require.NoError(t, err)

	require.NoError(t, s.ArchiveQuestion(ctx, q.ID))

	got, err := s.GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusArchived, got.Status)

	// Archiving again is a no-op: the question stays archived.
	require.NoError(t, s.ArchiveQuestion(ctx, q.ID))
	got, err = s.GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusArchived, got.Status)
}

func TestIncrementAnswerCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	q, err := s.CreateQuestion(ctx, "count me", "session-a")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.IncrementAnswerCount(ctx, q.ID))
	}

	got, err := s.GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	require.EqualValues(t, 3, got.AnswerCount)

	sum, err := s.SumAnswerCount(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 3, sum)
}

func TestSetAISummary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	q, err := s.CreateQuestion(ctx, "summarize me", "session-a")
	require.NoError(t, err)
	require.Empty(t, q.AISummary)

	require.NoError(t, s.SetAISummary(ctx, q.ID, "three answers agree it was medium"))

	got, err := s.GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	require.Equal(t, "three answers agree it was medium", got.AISummary)
}

func TestRegisterSessionIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.RegisterSession(ctx, "session-a", "fox")
	require.NoError(t, err)
	require.Equal(t, "session-a", first.ID)
	require.Equal(t, "fox", first.Icon)

	// Re-registering never changes the stored identity.
	again, err := s.RegisterSession(ctx, "session-a", "owl")
	require.NoError(t, err)
	require.Equal(t, "fox", again.Icon)

	count, err := s.CountSessions(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/IndhujaSadayappan/byts-phase2-sub000/internal/models"
)

func newTestRedis(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStoreWithClient(client)
}

func addTestAnswer(t *testing.T, s *RedisStore, questionID, text string) *models.Answer {
	t.Helper()
	ans := &models.Answer{
		QuestionID:      questionID,
		Text:            text,
		SenderSessionID: "session-a",
		SenderIcon:      "fox",
	}
	require.NoError(t, s.AddAnswer(context.Background(), ans))
	return ans
}

func TestAddAnswerAssignsIDAndTimestamp(t *testing.T) {
	s := newTestRedis(t)

	ans := addTestAnswer(t, s, "q1", "Medium difficulty")
	require.NotEmpty(t, ans.ID)
	require.NotZero(t, ans.Timestamp)

	got, err := s.GetAnswer(context.Background(), ans.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, ans.ID, got.ID)
	require.Equal(t, "q1", got.QuestionID)
	require.Equal(t, models.NewReactionMap(), got.Reactions)
}

func TestGetAnswerMissing(t *testing.T) {
	s := newTestRedis(t)

	got, err := s.GetAnswer(context.Background(), "nope")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestListAnswersChronological(t *testing.T) {
	s := newTestRedis(t)
	ctx := context.Background()

	base := time.Now().UnixMilli()
	for i := 0; i < 3; i++ {
		ans := &models.Answer{
			QuestionID:      "q1",
			Text:            fmt.Sprintf("answer %d", i),
			SenderSessionID: "session-a",
			SenderIcon:      "fox",
			Timestamp:       base + int64(i)*1000,
		}
		require.NoError(t, s.AddAnswer(ctx, ans))
	}
	addTestAnswer(t, s, "q2", "other thread")

	answers, err := s.ListAnswers(ctx, "q1")
	require.NoError(t, err)
	require.Len(t, answers, 3)
	for i, ans := range answers {
		require.Equal(t, fmt.Sprintf("answer %d", i), ans.Text)
	}

	count, err := s.CountAnswers(ctx, "q1")
	require.NoError(t, err)
	require.EqualValues(t, 3, count)
}

func TestRemoveAnswerErasesAllState(t *testing.T) {
	s := newTestRedis(t)
	ctx := context.Background()

	ans := addTestAnswer(t, s, "q1", "here and gone")
	_, err := s.ToggleReaction(ctx, ans.ID, "s1", models.ReactionHelpful)
	require.NoError(t, err)

	require.NoError(t, s.RemoveAnswer(ctx, "q1", ans.ID))

	got, err := s.GetAnswer(ctx, ans.ID)
	require.NoError(t, err)
	require.Nil(t, got)

	answers, err := s.ListAnswers(ctx, "q1")
	require.NoError(t, err)
	require.Empty(t, answers)

	count, err := s.CountAnswers(ctx, "q1")
	require.NoError(t, err)
	require.EqualValues(t, 0, count)

	// Its reactions leave the board-wide counter with them.
	total, err := s.TotalReactions(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 0, total)
}

func TestToggleReactionIsItsOwnInverse(t *testing.T) {
	s := newTestRedis(t)
	ctx := context.Background()

	ans := addTestAnswer(t, s, "q1", "toggle me")

	// Toggle on
	reactions, err := s.ToggleReaction(ctx, ans.ID, "session-c", models.ReactionHelpful)
	require.NoError(t, err)
	require.EqualValues(t, 1, reactions[models.ReactionHelpful])
	require.EqualValues(t, 0, reactions[models.ReactionClear])
	require.EqualValues(t, 0, reactions[models.ReactionSmart])

	member, err := s.HasReaction(ctx, ans.ID, "session-c", models.ReactionHelpful)
	require.NoError(t, err)
	require.True(t, member)

	// Toggle off returns membership and count to the original state
	reactions, err = s.ToggleReaction(ctx, ans.ID, "session-c", models.ReactionHelpful)
	require.NoError(t, err)
	require.EqualValues(t, 0, reactions[models.ReactionHelpful])

	member, err = s.HasReaction(ctx, ans.ID, "session-c", models.ReactionHelpful)
	require.NoError(t, err)
	require.False(t, member)

	// The board-wide counter returns to zero as well.
	total, err := s.TotalReactions(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 0, total)
}

func TestToggleReactionCountsDistinctSessions(t *testing.T) {
	s := newTestRedis(t)
	ctx := context.Background()

	ans := addTestAnswer(t, s, "q1", "popular answer")

	for _, session := range []string{"s1", "s2", "s3"} {
		_, err := s.ToggleReaction(ctx, ans.ID, session, models.ReactionClear)
		require.NoError(t, err)
	}

	reactions, err := s.GetReactions(ctx, ans.ID)
	require.NoError(t, err)
	require.EqualValues(t, 3, reactions[models.ReactionClear])

	// Kinds are independent per session
	_, err = s.ToggleReaction(ctx, ans.ID, "s1", models.ReactionSmart)
	require.NoError(t, err)

	reactions, err = s.GetReactions(ctx, ans.ID)
	require.NoError(t, err)
	require.EqualValues(t, 3, reactions[models.ReactionClear])
	require.EqualValues(t, 1, reactions[models.ReactionSmart])

	total, err := s.TotalReactions(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 4, total)
}

func TestToggleReactionUnknownAnswer(t *testing.T) {
	s := newTestRedis(t)

	_, err := s.ToggleReaction(context.Background(), "missing", "session-a", models.ReactionHelpful)
	require.ErrorIs(t, err, ErrAnswerNotFound)
}

func TestToggleReactionUnknownKind(t *testing.T) {
	s := newTestRedis(t)

	ans := addTestAnswer(t, s, "q1", "bad kind")
	_, err := s.ToggleReaction(context.Background(), ans.ID, "session-a", models.ReactionKind("angry"))
	require.Error(t, err)
}

func TestListAnswersMergesReactions(t *testing.T) {
	s := newTestRedis(t)
	ctx := context.Background()

	ans := addTestAnswer(t, s, "q1", "react then list")
	_, err := s.ToggleReaction(ctx, ans.ID, "s1", models.ReactionHelpful)
	require.NoError(t, err)

	answers, err := s.ListAnswers(ctx, "q1")
	require.NoError(t, err)
	require.Len(t, answers, 1)
	require.EqualValues(t, 1, answers[0].Reactions[models.ReactionHelpful])
}

func TestSearchQuestions(t *testing.T) {
	s := newTestRedis(t)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, s.IndexQuestion(ctx, "q1", "How hard was the online assessment?", now))
	require.NoError(t, s.IndexQuestion(ctx, "q2", "Which topics does the assessment cover?", now.Add(time.Second)))
	require.NoError(t, s.IndexQuestion(ctx, "q3", "Anyone up for mock interviews?", now.Add(2*time.Second)))

	ids, err := s.SearchQuestions(ctx, "assessment", 10)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"q1", "q2"}, ids)

	ids, err = s.SearchQuestions(ctx, "hard assessment", 10)
	require.NoError(t, err)
	require.Equal(t, []string{"q1"}, ids)

	ids, err = s.SearchQuestions(ctx, "nonexistent", 10)
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestRateLimitCounter(t *testing.T) {
	s := newTestRedis(t)
	ctx := context.Background()

	ok, err := s.CheckRateLimit(ctx, "ip:1.2.3.4", 2)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, s.IncrementRateLimit(ctx, "ip:1.2.3.4", time.Minute))
	require.NoError(t, s.IncrementRateLimit(ctx, "ip:1.2.3.4", time.Minute))

	ok, err = s.CheckRateLimit(ctx, "ip:1.2.3.4", 2)
	require.NoError(t, err)
	require.False(t, ok)
}

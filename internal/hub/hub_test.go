package hub

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/IndhujaSadayappan/byts-phase2-sub000/internal/models"
	"github.com/IndhujaSadayappan/byts-phase2-sub000/internal/store"
)

// newTestHub wires a hub against in-memory SQLite and miniredis and exposes it
// behind a real websocket endpoint.
func newTestHub(t *testing.T) (*Hub, store.DataStore, *store.RedisStore, string) {
	t.Helper()
	ctx := context.Background()

	db, err := store.NewSQLiteStore(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(db.Close)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	redisStore := store.NewRedisStoreWithClient(client)

	h := New(db, redisStore, zerolog.Nop())

	runCtx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)
	go h.Run(runCtx)

	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	return h, db, redisStore, wsURL
}

func dial(t *testing.T, wsURL, sessionID string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?session_id="+sessionID, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	env, err := models.NewEnvelope(typ, payload)
	require.NoError(t, err)
	data, err := json.Marshal(env)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func readEnvelope(t *testing.T, conn *websocket.Conn) models.Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var env models.Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	return env
}

// expectSilence asserts that nothing arrives on the connection within the
// window.
func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	require.True(t, errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "timeout"))
}

func TestNewAnswerFansOutToAllClients(t *testing.T) {
	_, db, _, wsURL := newTestHub(t)
	ctx := context.Background()

	question, err := db.CreateQuestion(ctx, "How long is the interview?", "author-session")
	require.NoError(t, err)

	sender := dial(t, wsURL, "sender-session")
	observer := dial(t, wsURL, "observer-session")
	time.Sleep(50 * time.Millisecond) // let both registrations land

	send(t, sender, models.TypeNewAnswer, models.NewAnswerPayload{
		QuestionID: question.ID.String(),
		Text:       "About 45 minutes",
		SenderIcon: "fox",
		SessionID:  "sender-session",
	})

	for _, conn := range []*websocket.Conn{sender, observer} {
		env := readEnvelope(t, conn)
		require.Equal(t, models.TypeAnswerReceived, env.Type)

		var payload models.AnswerReceivedPayload
		require.NoError(t, json.Unmarshal(env.Payload, &payload))
		require.Equal(t, question.ID.String(), payload.Answer.QuestionID)
		require.Equal(t, "About 45 minutes", payload.Answer.Text)
		require.Equal(t, "fox", payload.Answer.SenderIcon)
		require.NotEmpty(t, payload.Answer.ID)
		require.Equal(t, models.NewReactionMap(), payload.Answer.Reactions)
	}

	// The persisted count keeps pace with the thread.
	got, err := db.GetQuestion(ctx, question.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, got.AnswerCount)
}

func TestNewAnswerUnknownQuestionErrorsSubmitterOnly(t *testing.T) {
	_, _, _, wsURL := newTestHub(t)

	sender := dial(t, wsURL, "sender-session")
	observer := dial(t, wsURL, "observer-session")
	time.Sleep(50 * time.Millisecond)

	send(t, sender, models.TypeNewAnswer, models.NewAnswerPayload{
		QuestionID: "1f0f57a8-67f4-4c85-a1f4-111111111111",
		Text:       "answering nothing",
		SenderIcon: "fox",
		SessionID:  "sender-session",
	})

	env := readEnvelope(t, sender)
	require.Equal(t, models.TypeError, env.Type)

	var payload models.ErrorPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	require.Equal(t, "question not found", payload.Message)

	expectSilence(t, observer)
}

func TestNewAnswerArchivedQuestionRejected(t *testing.T) {
	_, db, _, wsURL := newTestHub(t)
	ctx := context.Background()

	question, err := db.CreateQuestion(ctx, "Old thread", "author-session")
	require.NoError(t, err)
	require.NoError(t, db.ArchiveQuestion(ctx, question.ID))

	sender := dial(t, wsURL, "sender-session")

	send(t, sender, models.TypeNewAnswer, models.NewAnswerPayload{
		QuestionID: question.ID.String(),
		Text:       "too late",
		SenderIcon: "owl",
		SessionID:  "sender-session",
	})

	env := readEnvelope(t, sender)
	require.Equal(t, models.TypeError, env.Type)

	var payload models.ErrorPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	require.Equal(t, "question is archived", payload.Message)

	got, err := db.GetQuestion(ctx, question.ID)
	require.NoError(t, err)
	require.EqualValues(t, 0, got.AnswerCount)
}

func TestNewAnswerRequiresExactlyOneBody(t *testing.T) {
	_, db, _, wsURL := newTestHub(t)

	question, err := db.CreateQuestion(context.Background(), "Pick one", "author-session")
	require.NoError(t, err)

	sender := dial(t, wsURL, "sender-session")

	// Neither text nor image.
	send(t, sender, models.TypeNewAnswer, models.NewAnswerPayload{
		QuestionID: question.ID.String(),
		SenderIcon: "fox",
		SessionID:  "sender-session",
	})
	env := readEnvelope(t, sender)
	require.Equal(t, models.TypeError, env.Type)

	// Both at once.
	send(t, sender, models.TypeNewAnswer, models.NewAnswerPayload{
		QuestionID: question.ID.String(),
		Text:       "words",
		ImageURL:   "https://example.com/shot.png",
		SenderIcon: "fox",
		SessionID:  "sender-session",
	})
	env = readEnvelope(t, sender)
	require.Equal(t, models.TypeError, env.Type)
}

func TestReactionBroadcastsFullMap(t *testing.T) {
	_, db, redisStore, wsURL := newTestHub(t)
	ctx := context.Background()

	question, err := db.CreateQuestion(ctx, "React to this", "author-session")
	require.NoError(t, err)

	ans := &models.Answer{
		QuestionID:      question.ID.String(),
		Text:            "an answer",
		SenderSessionID: "author-session",
		SenderIcon:      "fox",
	}
	require.NoError(t, redisStore.AddAnswer(ctx, ans))

	reactor := dial(t, wsURL, "reactor-session")
	observer := dial(t, wsURL, "observer-session")
	time.Sleep(50 * time.Millisecond)

	send(t, reactor, models.TypeReaction, models.ReactionPayload{
		AnswerID: ans.ID,
		Reaction: models.ReactionHelpful,
	})

	for _, conn := range []*websocket.Conn{reactor, observer} {
		env := readEnvelope(t, conn)
		require.Equal(t, models.TypeReactionUpdated, env.Type)

		var payload models.ReactionUpdatedPayload
		require.NoError(t, json.Unmarshal(env.Payload, &payload))
		require.Equal(t, ans.ID, payload.AnswerID)
		require.EqualValues(t, 1, payload.Reactions[models.ReactionHelpful])
		require.EqualValues(t, 0, payload.Reactions[models.ReactionClear])
		require.EqualValues(t, 0, payload.Reactions[models.ReactionSmart])
	}

	// Same session toggling again retracts.
	send(t, reactor, models.TypeReaction, models.ReactionPayload{
		AnswerID: ans.ID,
		Reaction: models.ReactionHelpful,
	})
	env := readEnvelope(t, reactor)
	require.Equal(t, models.TypeReactionUpdated, env.Type)

	var payload models.ReactionUpdatedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	require.EqualValues(t, 0, payload.Reactions[models.ReactionHelpful])
}

func TestReactionUnknownAnswerErrorsSubmitterOnly(t *testing.T) {
	_, _, _, wsURL := newTestHub(t)

	reactor := dial(t, wsURL, "reactor-session")
	observer := dial(t, wsURL, "observer-session")
	time.Sleep(50 * time.Millisecond)

	send(t, reactor, models.TypeReaction, models.ReactionPayload{
		AnswerID: "01JMISSING0000000000000000",
		Reaction: models.ReactionSmart,
	})

	env := readEnvelope(t, reactor)
	require.Equal(t, models.TypeError, env.Type)

	var payload models.ErrorPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	require.Equal(t, "answer not found", payload.Message)

	expectSilence(t, observer)
}

func TestUnknownFrameTypeDroppedSilently(t *testing.T) {
	_, _, _, wsURL := newTestHub(t)

	conn := dial(t, wsURL, "sender-session")
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"TYPING","payload":{}}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json at all`)))

	expectSilence(t, conn)
}

// failingAnswerStore simulates a persistence outage.
type failingAnswerStore struct{}

func (failingAnswerStore) AddAnswer(ctx context.Context, ans *models.Answer) error {
	return errors.New("redis down")
}

func (failingAnswerStore) RemoveAnswer(ctx context.Context, questionID, answerID string) error {
	return errors.New("redis down")
}

func (failingAnswerStore) ToggleReaction(ctx context.Context, answerID, sessionID string, kind models.ReactionKind) (models.ReactionMap, error) {
	return nil, errors.New("redis down")
}

func TestPersistFailureBlocksFanOut(t *testing.T) {
	ctx := context.Background()

	db, err := store.NewSQLiteStore(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(db.Close)

	h := New(db, failingAnswerStore{}, zerolog.Nop())
	runCtx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)
	go h.Run(runCtx)

	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	t.Cleanup(srv.Close)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	question, err := db.CreateQuestion(ctx, "Doomed thread", "author-session")
	require.NoError(t, err)

	sender := dial(t, wsURL, "sender-session")
	observer := dial(t, wsURL, "observer-session")
	time.Sleep(50 * time.Millisecond)

	send(t, sender, models.TypeNewAnswer, models.NewAnswerPayload{
		QuestionID: question.ID.String(),
		Text:       "will not land",
		SenderIcon: "fox",
		SessionID:  "sender-session",
	})

	env := readEnvelope(t, sender)
	require.Equal(t, models.TypeError, env.Type)
	expectSilence(t, observer)

	// The failed persist must not bump the count either.
	got, err := db.GetQuestion(ctx, question.ID)
	require.NoError(t, err)
	require.EqualValues(t, 0, got.AnswerCount)
}

// brokenCountRegistry accepts lookups but fails every count update.
type brokenCountRegistry struct {
	question *models.Question
}

func (r brokenCountRegistry) GetQuestion(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	return r.question, nil
}

func (r brokenCountRegistry) IncrementAnswerCount(ctx context.Context, id uuid.UUID) error {
	return errors.New("db down")
}

func TestIncrementFailureBacksOutAnswer(t *testing.T) {
	ctx := context.Background()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	redisStore := store.NewRedisStoreWithClient(client)

	question := &models.Question{ID: uuid.New(), Text: "Doomed count", Status: models.StatusOpen}
	h := New(brokenCountRegistry{question: question}, redisStore, zerolog.Nop())

	runCtx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)
	go h.Run(runCtx)

	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	t.Cleanup(srv.Close)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	sender := dial(t, wsURL, "sender-session")
	observer := dial(t, wsURL, "observer-session")
	time.Sleep(50 * time.Millisecond)

	send(t, sender, models.TypeNewAnswer, models.NewAnswerPayload{
		QuestionID: question.ID.String(),
		Text:       "will be rolled back",
		SenderIcon: "fox",
		SessionID:  "sender-session",
	})

	env := readEnvelope(t, sender)
	require.Equal(t, models.TypeError, env.Type)
	expectSilence(t, observer)

	// The answer must not linger in the thread: the snapshot would
	// otherwise disagree with the never-incremented count forever.
	answers, err := redisStore.ListAnswers(ctx, question.ID.String())
	require.NoError(t, err)
	require.Empty(t, answers)

	count, err := redisStore.CountAnswers(ctx, question.ID.String())
	require.NoError(t, err)
	require.EqualValues(t, 0, count)
}

func TestSendErrorAfterClientDropped(t *testing.T) {
	h := New(nil, nil, zerolog.Nop())

	runCtx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(runCtx)

	c := &Client{
		hub:       h,
		send:      make(chan []byte, 1),
		sessionID: "stalled-session",
		logger:    zerolog.Nop(),
	}
	h.register <- c

	// Fill the queue so the next broadcast drops this client and closes
	// its queue.
	require.True(t, c.trySend([]byte(`{"type":"ANSWER_RECEIVED"}`)))
	h.Broadcast(models.Envelope{Type: models.TypeReactionUpdated, Payload: []byte(`{}`)})

	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.closed
	}, 2*time.Second, 10*time.Millisecond)

	// The read pump may still report faults after the drop; that must be
	// a quiet no-op, never a crash.
	require.NotPanics(t, func() { c.sendError("still talking") })
	require.False(t, c.trySend([]byte("late")))
}

func TestShutdownClosesConnections(t *testing.T) {
	ctx := context.Background()

	db, err := store.NewSQLiteStore(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(db.Close)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	redisStore := store.NewRedisStoreWithClient(client)

	h := New(db, redisStore, zerolog.Nop())
	runCtx, cancel := context.WithCancel(ctx)
	go h.Run(runCtx)

	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	t.Cleanup(srv.Close)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	conn := dial(t, wsURL, "shutdown-session")
	time.Sleep(50 * time.Millisecond)

	cancel()

	// The hub tears the connection down on shutdown instead of leaving it
	// dangling, so the read returns promptly.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
}


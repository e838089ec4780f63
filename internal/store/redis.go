package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/IndhujaSadayappan/byts-phase2-sub000/internal/models"
)

const rateLimitTTL = time.Minute

// ErrAnswerNotFound is returned when an operation references an answer id the
// store does not hold.
var ErrAnswerNotFound = errors.New("store: answer not found")

// RedisStore holds the hot side of the registry: answers, the reaction
// aggregator state, the question search index, and rate limit counters.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// NewRedisStoreWithClient wraps an existing client. Used by tests.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Client exposes the underlying client for the rate limiter middleware.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// questionAnswersKey returns the key for a question's answer id sorted set.
func questionAnswersKey(questionID string) string {
	return fmt.Sprintf("question:%s:answers", questionID)
}

// answerKey returns the key holding an answer's serialized record.
func answerKey(answerID string) string {
	return fmt.Sprintf("answer:%s", answerID)
}

// reactorsKey returns the key for the set of sessions holding a reaction of
// the given kind on an answer.
func reactorsKey(answerID string, kind models.ReactionKind) string {
	return fmt.Sprintf("answer:%s:reactors:%s", answerID, kind)
}

// searchWordKey returns the key for a question search word index.
func searchWordKey(word string) string {
	return fmt.Sprintf("qsearch:words:%s", strings.ToLower(word))
}

// rateLimitKey returns the key for a rate limit counter.
func rateLimitKey(key string) string {
	return fmt.Sprintf("ratelimit:%s", key)
}

// AddAnswer stores an answer. The answer record itself is immutable; live
// reaction counts are kept separately and merged at read time.
func (s *RedisStore) AddAnswer(ctx context.Context, ans *models.Answer) error {
	if ans.ID == "" {
		ans.ID = ulid.Make().String()
	}
	if ans.Timestamp == 0 {
		ans.Timestamp = time.Now().UnixMilli()
	}
	if ans.Reactions == nil {
		ans.Reactions = models.NewReactionMap()
	}

	data, err := json.Marshal(ans)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, answerKey(ans.ID), string(data), 0)
	pipe.ZAdd(ctx, questionAnswersKey(ans.QuestionID), redis.Z{
		Score:  float64(ans.Timestamp),
		Member: ans.ID,
	})
	_, err = pipe.Exec(ctx)
	return err
}

// GetAnswer retrieves an answer by id, with its current reaction map merged
// in. Returns nil, nil when the answer does not exist.
func (s *RedisStore) GetAnswer(ctx context.Context, answerID string) (*models.Answer, error) {
	data, err := s.client.Get(ctx, answerKey(answerID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var ans models.Answer
	if err := json.Unmarshal([]byte(data), &ans); err != nil {
		return nil, err
	}

	reactions, err := s.GetReactions(ctx, answerID)
	if err != nil {
		return nil, err
	}
	ans.Reactions = reactions

	return &ans, nil
}

// ListAnswers retrieves a question's thread in chronological order, each
// answer carrying its full current reaction map.
func (s *RedisStore) ListAnswers(ctx context.Context, questionID string) ([]models.Answer, error) {
	ids, err := s.client.ZRange(ctx, questionAnswersKey(questionID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []models.Answer{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = answerKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	answers := make([]models.Answer, 0, len(values))
	for _, v := range values {
		data, ok := v.(string)
		if !ok {
			continue
		}
		var ans models.Answer
		if err := json.Unmarshal([]byte(data), &ans); err != nil {
			continue
		}
		reactions, err := s.GetReactions(ctx, ans.ID)
		if err != nil {
			return nil, err
		}
		ans.Reactions = reactions
		answers = append(answers, ans)
	}

	return answers, nil
}

// RemoveAnswer deletes an answer and its reaction state from the thread.
// Used to back out an answer whose registry-side count update failed, so the
// snapshot never diverges from the question's answer count.
func (s *RedisStore) RemoveAnswer(ctx context.Context, questionID, answerID string) error {
	reactions, err := s.GetReactions(ctx, answerID)
	if err != nil {
		return err
	}
	var active int64
	for _, n := range reactions {
		active += n
	}

	keys := []string{answerKey(answerID)}
	for _, k := range models.ReactionKinds {
		keys = append(keys, reactorsKey(answerID, k))
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, keys...)
	pipe.ZRem(ctx, questionAnswersKey(questionID), answerID)
	if active > 0 {
		pipe.DecrBy(ctx, reactionTotalKey, active)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// CountAnswers returns the number of answers in a question's thread.
func (s *RedisStore) CountAnswers(ctx context.Context, questionID string) (int64, error) {
	return s.client.ZCard(ctx, questionAnswersKey(questionID)).Result()
}

// reactionTotalKey holds the board-wide count of active reactions.
const reactionTotalKey = "stats:reactions:total"

// toggleScript toggles a session's membership in one kind's reactor set and
// returns the cardinality of all three sets. Membership sets are the source
// of the counts, and the single EVAL makes the read-modify-write atomic, so
// concurrent toggles on the same answer cannot lose updates. KEYS[4] is the
// board-wide active reaction counter.
var toggleScript = redis.NewScript(`
local target = KEYS[tonumber(ARGV[2])]
if redis.call('SISMEMBER', target, ARGV[1]) == 1 then
	redis.call('SREM', target, ARGV[1])
	redis.call('DECR', KEYS[4])
else
	redis.call('SADD', target, ARGV[1])
	redis.call('INCR', KEYS[4])
end
return {redis.call('SCARD', KEYS[1]), redis.call('SCARD', KEYS[2]), redis.call('SCARD', KEYS[3])}
`)

// ToggleReaction flips the session's membership for (answerID, kind) and
// returns the complete post-toggle reaction map. Returns ErrAnswerNotFound
// when the answer does not exist.
func (s *RedisStore) ToggleReaction(ctx context.Context, answerID, sessionID string, kind models.ReactionKind) (models.ReactionMap, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("store: unknown reaction kind %q", kind)
	}

	exists, err := s.client.Exists(ctx, answerKey(answerID)).Result()
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, ErrAnswerNotFound
	}

	keys := make([]string, len(models.ReactionKinds)+1)
	kindIndex := 0
	for i, k := range models.ReactionKinds {
		keys[i] = reactorsKey(answerID, k)
		if k == kind {
			kindIndex = i + 1 // Lua tables are 1-based
		}
	}
	keys[len(models.ReactionKinds)] = reactionTotalKey

	result, err := toggleScript.Run(ctx, s.client, keys, sessionID, kindIndex).Slice()
	if err != nil {
		return nil, err
	}

	counts := models.NewReactionMap()
	for i, k := range models.ReactionKinds {
		if i < len(result) {
			if n, ok := result[i].(int64); ok {
				counts[k] = n
			}
		}
	}
	return counts, nil
}

// GetReactions returns the current reaction map for an answer. Counts are the
// cardinalities of the membership sets.
func (s *RedisStore) GetReactions(ctx context.Context, answerID string) (models.ReactionMap, error) {
	pipe := s.client.Pipeline()
	cmds := make([]*redis.IntCmd, len(models.ReactionKinds))
	for i, k := range models.ReactionKinds {
		cmds[i] = pipe.SCard(ctx, reactorsKey(answerID, k))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	counts := models.NewReactionMap()
	for i, k := range models.ReactionKinds {
		counts[k] = cmds[i].Val()
	}
	return counts, nil
}

// TotalReactions returns the board-wide count of active reactions.
func (s *RedisStore) TotalReactions(ctx context.Context) (int64, error) {
	count, err := s.client.Get(ctx, reactionTotalKey).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}

// HasReaction reports whether the session currently holds membership for
// (answerID, kind).
func (s *RedisStore) HasReaction(ctx context.Context, answerID, sessionID string, kind models.ReactionKind) (bool, error) {
	return s.client.SIsMember(ctx, reactorsKey(answerID, kind), sessionID).Result()
}

// wordRegex matches word characters for search indexing.
var wordRegex = regexp.MustCompile(`\w+`)

// IndexQuestion indexes a question's text for search. Indexing is
// best-effort; a failed index never fails question creation.
func (s *RedisStore) IndexQuestion(ctx context.Context, questionID, text string, createdAt time.Time) error {
	words := wordRegex.FindAllString(strings.ToLower(text), -1)

	seen := make(map[string]bool)
	for _, word := range words {
		if len(word) < 3 || seen[word] {
			continue
		}
		seen[word] = true

		s.client.ZAdd(ctx, searchWordKey(word), redis.Z{
			Score:  float64(createdAt.UnixMilli()),
			Member: questionID,
		})
	}

	return nil
}

// SearchQuestions returns ids of questions whose text contains every query
// word, newest first.
func (s *RedisStore) SearchQuestions(ctx context.Context, query string, limit int) ([]string, error) {
	tokens := wordRegex.FindAllString(strings.ToLower(query), -1)
	keep := tokens[:0]
	for _, t := range tokens {
		if len(t) >= 3 {
			keep = append(keep, t)
		}
	}
	tokens = keep
	if len(tokens) == 0 {
		return []string{}, nil
	}

	keys := make([]string, len(tokens))
	for i, t := range tokens {
		keys[i] = searchWordKey(t)
	}

	if len(keys) == 1 {
		return s.client.ZRevRange(ctx, keys[0], 0, int64(limit)-1).Result()
	}

	// Multiple words: intersect into a scratch key
	tempKey := fmt.Sprintf("qsearch:temp:%d", time.Now().UnixNano())
	if err := s.client.ZInterStore(ctx, tempKey, &redis.ZStore{
		Keys:      keys,
		Aggregate: "MIN",
	}).Err(); err != nil {
		return nil, err
	}
	defer s.client.Del(ctx, tempKey)

	return s.client.ZRevRange(ctx, tempKey, 0, int64(limit)-1).Result()
}

// CheckRateLimit checks whether a key is under its request limit.
func (s *RedisStore) CheckRateLimit(ctx context.Context, key string, limit int) (bool, error) {
	count, err := s.client.Get(ctx, rateLimitKey(key)).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, err
	}
	return count < limit, nil
}

// IncrementRateLimit increments a rate limit counter.
func (s *RedisStore) IncrementRateLimit(ctx context.Context, key string, window time.Duration) error {
	if window <= 0 {
		window = rateLimitTTL
	}

	pipe := s.client.Pipeline()
	pipe.Incr(ctx, rateLimitKey(key))
	pipe.Expire(ctx, rateLimitKey(key), window)
	_, err := pipe.Exec(ctx)
	return err
}

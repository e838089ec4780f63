package byts

import (
	"sync"

	"github.com/IndhujaSadayappan/byts-phase2-sub000/internal/models"
)

// ThreadView merges a registry snapshot with the live broadcast stream into
// one consistent, duplicate-free view of a single question's thread.
type ThreadView struct {
	mu         sync.Mutex
	questionID string
	session    models.Session
	answers    []models.Answer
	index      map[string]int // answer id -> position
}

// NewThreadView creates a view for the given open question.
func NewThreadView(questionID string, session models.Session) *ThreadView {
	return &ThreadView{
		questionID: questionID,
		session:    session,
		index:      make(map[string]int),
	}
}

// Seed replaces the view with a registry snapshot. Called once on open and
// again after every reconnect.
func (t *ThreadView) Seed(answers []models.Answer) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.answers = make([]models.Answer, len(answers))
	copy(t.answers, answers)
	t.index = make(map[string]int, len(answers))
	for i, ans := range t.answers {
		t.index[ans.ID] = i
	}
}

// ApplyAnswer applies an ANSWER_RECEIVED message. It is a no-op when the
// answer belongs to another question or is already present, so duplicate
// delivery never duplicates the view. Reports whether the view changed.
func (t *ThreadView) ApplyAnswer(ans models.Answer) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if ans.QuestionID != t.questionID {
		return false
	}
	if _, ok := t.index[ans.ID]; ok {
		return false
	}

	t.index[ans.ID] = len(t.answers)
	t.answers = append(t.answers, ans)
	return true
}

// ApplyReactions replaces the reaction map of the matching answer wholesale.
// Carrying the complete map means a view that missed earlier updates still
// converges here. Reports whether the view changed.
func (t *ThreadView) ApplyReactions(answerID string, reactions models.ReactionMap) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	i, ok := t.index[answerID]
	if !ok {
		return false
	}
	t.answers[i].Reactions = reactions
	return true
}

// Answers returns a copy of the current thread in order.
func (t *ThreadView) Answers() []models.Answer {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]models.Answer, len(t.answers))
	copy(out, t.answers)
	return out
}

// Len returns the number of answers in the view.
func (t *ThreadView) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.answers)
}

// IsOwn reports whether an answer came from the local session. Used purely
// for display alignment, never to suppress delivery.
func (t *ThreadView) IsOwn(ans models.Answer) bool {
	return ans.SenderSessionID == t.session.ID && ans.SenderIcon == t.session.Icon
}

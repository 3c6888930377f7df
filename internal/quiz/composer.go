// Package quiz assembles vocabulary quiz sessions and builds their
// multiple-choice questions.
package quiz

import (
	"context"

	"github.com/example/engcoach/internal/priority"
	"github.com/example/engcoach/pkg/models"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultQuizLength is the number of questions in a session
	DefaultQuizLength = 10
	// DefaultPoolSize is the number of items fetched for distractors
	DefaultPoolSize = 80
	// MaxPriorityItems caps remediation items per session
	MaxPriorityItems = 4
)

// ErrNoItems is returned when the catalog has nothing for the level filter
var ErrNoItems = errors.New("no vocabulary for this selection")

// Catalog reads vocabulary items
type Catalog interface {
	ListByLevel(ctx context.Context, level models.Level) ([]models.VocabularyItem, error)
}

// History reads a learner's answer records
type History interface {
	ListByLearner(ctx context.Context, learnerID string, level models.Level) ([]models.AnswerRecord, error)
}

// Request describes the session to compose. An empty LearnerID is a guest
// session without personalization. PoolSize <= 0 uses the whole catalog.
type Request struct {
	Level      models.Level
	QuizLength int
	PoolSize   int
	LearnerID  string
}

// NewRequest returns a request with the default sizes
func NewRequest(level models.Level, learnerID string) Request {
	return Request{
		Level:      level,
		QuizLength: DefaultQuizLength,
		PoolSize:   DefaultPoolSize,
		LearnerID:  learnerID,
	}
}

// Session is an ordered item list whose first QuizLength entries are the
// quiz; the rest only feed distractors.
type Session struct {
	Level      models.Level            `json:"level"`
	LearnerID  string                  `json:"user_id,omitempty"`
	QuizLength int                     `json:"quiz_length"`
	Items      []models.VocabularyItem `json:"items"`
	// PriorityIDs are the quiz items drawn from the review set
	PriorityIDs map[string]bool `json:"-"`

	selector *Selector
}

// Quiz returns the items asked in this session
func (s *Session) Quiz() []models.VocabularyItem {
	if len(s.Items) < s.QuizLength {
		return s.Items
	}
	return s.Items[:s.QuizLength]
}

// Pool returns every item, quiz included
func (s *Session) Pool() []models.VocabularyItem {
	return s.Items
}

// Question builds the multiple-choice question for the i-th quiz item
func (s *Session) Question(i int) (Question, error) {
	quiz := s.Quiz()
	if i < 0 || i >= len(quiz) {
		return Question{}, errors.Errorf("question %d out of range [0,%d)", i, len(quiz))
	}
	return s.selector.Build(quiz[i], s.Items), nil
}

// Questions builds every quiz question in order
func (s *Session) Questions() []Question {
	quiz := s.Quiz()
	questions := make([]Question, len(quiz))
	for i, item := range quiz {
		questions[i] = s.selector.Build(item, s.Items)
	}
	return questions
}

// Composer builds quiz sessions from the catalog and answer history
type Composer struct {
	catalog  Catalog
	history  History
	rnd      Random
	selector *Selector
}

// NewComposer creates a composer. A nil rnd uses a clock-seeded source.
func NewComposer(catalog Catalog, history History, rnd Random) *Composer {
	if rnd == nil {
		rnd = NewRandom()
	}
	return &Composer{
		catalog:  catalog,
		history:  history,
		rnd:      rnd,
		selector: NewSelector(rnd),
	}
}

// Compose loads the catalog and, for a learner, their history, then orders
// the items so weak words are mixed into fresh material.
func (c *Composer) Compose(ctx context.Context, req Request) (*Session, error) {
	if req.QuizLength <= 0 {
		req.QuizLength = DefaultQuizLength
	}

	var (
		items   []models.VocabularyItem
		history []models.AnswerRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = c.catalog.ListByLevel(gctx, req.Level)
		return errors.Wrap(err, "failed to load catalog")
	})
	if req.LearnerID != "" {
		g.Go(func() error {
			var err error
			history, err = c.history.ListByLearner(gctx, req.LearnerID, req.Level)
			return errors.Wrap(err, "failed to load answer history")
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, errors.Wrapf(ErrNoItems, "level %s", req.Level)
	}

	session := &Session{
		Level:       req.Level,
		LearnerID:   req.LearnerID,
		QuizLength:  req.QuizLength,
		PriorityIDs: map[string]bool{},
		selector:    c.selector,
	}

	var ordered []models.VocabularyItem
	if req.LearnerID == "" {
		ordered = shuffled(c.rnd, items)
	} else {
		ordered = c.personalize(items, priority.Score(history, req.Level), req.QuizLength, session.PriorityIDs)
	}

	session.Items = ordered[:resultLength(len(ordered), req.QuizLength, req.PoolSize)]
	return session, nil
}

// personalize splits items into review and fresh sets, draws the quiz from
// both and appends the leftovers for distractors
func (c *Composer) personalize(items []models.VocabularyItem, scores priority.Scores, n int, chosen map[string]bool) []models.VocabularyItem {
	scored := scores.Set()

	var prio, rest []models.VocabularyItem
	for _, v := range items {
		if scored[v.ID] {
			prio = append(prio, v)
		} else {
			rest = append(rest, v)
		}
	}
	prio = shuffled(c.rnd, prio)
	rest = shuffled(c.rnd, rest)

	nPrio := min(MaxPriorityItems, n, len(prio))
	nRest := max(min(n-nPrio, len(rest)), 0)
	if nPrio+nRest < n {
		// fresh items ran out
		nPrio = min(n-nRest, len(prio))
	}

	quiz := make([]models.VocabularyItem, 0, nPrio+nRest)
	quiz = append(quiz, prio[:nPrio]...)
	quiz = append(quiz, rest[:nRest]...)
	for _, v := range prio[:nPrio] {
		chosen[v.ID] = true
	}

	remaining := make([]models.VocabularyItem, 0, len(items)-len(quiz))
	remaining = append(remaining, prio[nPrio:]...)
	remaining = append(remaining, rest[nRest:]...)

	return append(shuffled(c.rnd, quiz), shuffled(c.rnd, remaining)...)
}

func resultLength(total, quizLength, poolSize int) int {
	pool := total
	if poolSize > 0 {
		pool = min(poolSize, total)
	}
	return max(min(quizLength, total), pool)
}

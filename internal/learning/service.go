// Package learning is the request-scoped entry point combining the store
// with the quiz, review, streak and badge engines
package learning

import (
	"context"
	"time"

	"github.com/example/engcoach/internal/ai"
	"github.com/example/engcoach/internal/badges"
	"github.com/example/engcoach/internal/database"
	"github.com/example/engcoach/internal/logger"
	"github.com/example/engcoach/internal/priority"
	"github.com/example/engcoach/internal/quiz"
	"github.com/example/engcoach/internal/spaced_repetition"
	"github.com/example/engcoach/internal/streak"
	"github.com/example/engcoach/pkg/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// ReadingAloudSeconds is the study time credited per reading-aloud click
const ReadingAloudSeconds = 10

var (
	// ErrGradingDisabled is returned by SubmitWriting without a grader
	ErrGradingDisabled = errors.New("writing grading is not configured")
	// ErrLearnerRequired is returned by operations that need a learner
	ErrLearnerRequired = errors.New("learner ID is required")
)

// Grader grades writing submissions
type Grader interface {
	Grade(ctx context.Context, req ai.Request) (ai.Result, error)
}

// Options configures a Service. Zero values pick the defaults and a
// negative PoolSize keeps the whole catalog for distractors.
type Options struct {
	QuizLength int
	PoolSize   int
	Location   *time.Location
	Random     quiz.Random
	Grader     Grader
	Logger     *logger.Logger
}

// Service runs learner operations against one database
type Service struct {
	vocab    *database.VocabularyRepository
	answers  *database.AnswerRepository
	srs      *database.SRSRepository
	activity *database.ActivityRepository
	writing  *database.WritingRepository

	composer *quiz.Composer
	sm2      *spaced_repetition.SM2
	streaks  *streak.Tracker
	badges   *badges.Evaluator
	grader   Grader

	quizLength int
	poolSize   int
	loc        *time.Location
	log        *logger.Logger
	now        func() time.Time
}

// New creates a service over db
func New(db *sqlx.DB, opts Options) *Service {
	if opts.QuizLength <= 0 {
		opts.QuizLength = quiz.DefaultQuizLength
	}
	if opts.PoolSize == 0 {
		opts.PoolSize = quiz.DefaultPoolSize
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}

	vocab := database.NewVocabularyRepository(db)
	answers := database.NewAnswerRepository(db)
	return &Service{
		vocab:      vocab,
		answers:    answers,
		srs:        database.NewSRSRepository(db),
		activity:   database.NewActivityRepository(db),
		writing:    database.NewWritingRepository(db),
		composer:   quiz.NewComposer(vocab, answers, opts.Random),
		sm2:        spaced_repetition.NewSM2(),
		streaks:    streak.NewTracker(database.NewStreakRepository(db), opts.Location, opts.Logger),
		badges:     badges.NewEvaluator(database.NewBadgeRepository(db), opts.Logger),
		grader:     opts.Grader,
		quizLength: opts.QuizLength,
		poolSize:   opts.PoolSize,
		loc:        opts.Location,
		log:        opts.Logger,
		now:        time.Now,
	}
}

// ComposeSession builds a quiz for level. An empty learnerID is a guest.
func (s *Service) ComposeSession(ctx context.Context, level models.Level, learnerID string) (*quiz.Session, error) {
	return s.composer.Compose(ctx, quiz.Request{
		Level:      level,
		QuizLength: s.quizLength,
		PoolSize:   s.poolSize,
		LearnerID:  learnerID,
	})
}

// RecordAnswer stores one answered question. An existing flashcard for the
// item is rescheduled from the outcome.
func (s *Service) RecordAnswer(ctx context.Context, learnerID, vocabularyID string, correct bool) error {
	if learnerID == "" {
		return ErrLearnerRequired
	}
	now := s.now()
	rec := &models.AnswerRecord{LearnerID: learnerID, VocabularyID: vocabularyID, Correct: correct, CreatedAt: now}
	if err := s.answers.Append(ctx, rec); err != nil {
		return err
	}

	card, err := s.srs.Get(ctx, learnerID, vocabularyID)
	if errors.Is(err, database.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	next := s.sm2.Process(card, int(spaced_repetition.QualityFromAnswer(correct, false)), now)
	return s.srs.Upsert(ctx, &next)
}

// SessionSummary describes a finished quiz
type SessionSummary struct {
	Seconds   int `json:"seconds"`
	Questions int `json:"questions"`
	Correct   int `json:"correct"`
}

// Outcome is what a checkpoint changed for the learner
type Outcome struct {
	Streak    models.StreakRecord `json:"streak"`
	NewBadges []string            `json:"new_badges"`
}

// CompleteSession logs a finished quiz, counts the day and awards badges
func (s *Service) CompleteSession(ctx context.Context, learnerID string, summary SessionSummary) (*Outcome, error) {
	return s.logActivity(ctx, &models.StudyActivity{
		LearnerID:     learnerID,
		ActivityType:  models.ActivityVocabularyQuiz,
		Seconds:       max(summary.Seconds, 0),
		QuestionCount: summary.Questions,
		CorrectCount:  summary.Correct,
	})
}

// LogReadingAloud credits one reading-aloud exercise
func (s *Service) LogReadingAloud(ctx context.Context, learnerID string) (*Outcome, error) {
	return s.logActivity(ctx, &models.StudyActivity{
		LearnerID:    learnerID,
		ActivityType: models.ActivityReadingAloud,
		Seconds:      ReadingAloudSeconds,
	})
}

func (s *Service) logActivity(ctx context.Context, a *models.StudyActivity) (*Outcome, error) {
	if a.LearnerID == "" {
		return nil, ErrLearnerRequired
	}
	now := s.now()
	a.CreatedAt = now
	if err := s.activity.Log(ctx, a); err != nil {
		return nil, err
	}

	rec, err := s.streaks.Touch(ctx, a.LearnerID, now)
	if err != nil {
		return nil, err
	}

	// the activity and streak are committed; badges catch up on the next sweep
	earned, err := s.Checkpoint(ctx, a.LearnerID)
	if err != nil {
		s.log.Warn("badge checkpoint failed", "learner", a.LearnerID, "activity", a.ActivityType, "error", err)
		earned = []string{}
	}
	return &Outcome{Streak: rec, NewBadges: earned}, nil
}

// Checkpoint re-evaluates badges from fresh statistics without touching
// the streak
func (s *Service) Checkpoint(ctx context.Context, learnerID string) ([]string, error) {
	if learnerID == "" {
		return nil, ErrLearnerRequired
	}
	stats, err := s.Stats(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	return s.badges.Evaluate(ctx, learnerID, stats)
}

// Stats aggregates the learner's badge statistics
func (s *Service) Stats(ctx context.Context, learnerID string) (models.BadgeStats, error) {
	var (
		totals  database.ActivityTotals
		writing int
		rec     models.StreakRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totals, err = s.activity.Totals(gctx, learnerID)
		return err
	})
	g.Go(func() error {
		var err error
		writing, err = s.writing.Count(gctx, learnerID)
		return err
	})
	g.Go(func() error {
		var err error
		rec, err = s.streaks.Current(gctx, learnerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.BadgeStats{}, errors.Wrap(err, "failed to load statistics")
	}

	return models.BadgeStats{
		VocabQuizCount:    totals.VocabQuizCount,
		WritingCount:      writing,
		TotalStudySeconds: totals.TotalSeconds,
		CurrentStreak:     rec.Current,
		HasStudied:        totals.Entries > 0,
	}, nil
}

// Streak returns the learner's stored streak
func (s *Service) Streak(ctx context.Context, learnerID string) (models.StreakRecord, error) {
	return s.streaks.Current(ctx, learnerID)
}

// TodaySeconds returns the study time logged on the current calendar day
func (s *Service) TodaySeconds(ctx context.Context, learnerID string) (int, error) {
	today := streak.Day(s.now(), s.loc)
	return s.activity.SecondsBetween(ctx, learnerID, today, today.AddDate(0, 0, 1))
}

// Review applies a flashcard rating and stores the new schedule
func (s *Service) Review(ctx context.Context, learnerID, vocabularyID string, rating int) (models.SRSState, error) {
	if learnerID == "" {
		return models.SRSState{}, ErrLearnerRequired
	}
	if _, err := s.vocab.GetByID(ctx, vocabularyID); err != nil {
		return models.SRSState{}, err
	}

	prev, err := s.srs.Get(ctx, learnerID, vocabularyID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return models.SRSState{}, err
	}

	next := s.sm2.Process(prev, rating, s.now())
	next.LearnerID = learnerID
	next.VocabularyID = vocabularyID
	if err := s.srs.Upsert(ctx, &next); err != nil {
		return models.SRSState{}, err
	}
	return next, nil
}

// DueCards returns the learner's flashcards due now, most urgent first
func (s *Service) DueCards(ctx context.Context, learnerID string, limit int) ([]models.SRSState, error) {
	cards, err := s.srs.ListByLearner(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	return s.sm2.DueCards(cards, s.now(), limit), nil
}

// ReviewSummary counts the learner's flashcards
type ReviewSummary struct {
	Total    int `json:"total"`
	Due      int `json:"due"`
	Mastered int `json:"mastered"`
}

// ReviewSummary reports how many cards are due and how many are mastered
func (s *Service) ReviewSummary(ctx context.Context, learnerID string) (ReviewSummary, error) {
	var summary ReviewSummary
	cards, err := s.srs.ListByLearner(ctx, learnerID)
	if err != nil {
		return summary, err
	}
	summary.Total = len(cards)
	for _, c := range cards {
		if s.sm2.IsMastered(c) {
			summary.Mastered++
		}
	}
	summary.Due, err = s.srs.CountDue(ctx, learnerID, s.now())
	return summary, err
}

// WritingInput is a submission to grade
type WritingInput struct {
	Level        models.Level `json:"level"`
	PromptType   string       `json:"prompt_type"`
	PromptText   string       `json:"prompt_text"`
	Content      string       `json:"content"`
	WordCountMin int          `json:"word_count_min,omitempty"`
	WordCountMax int          `json:"word_count_max,omitempty"`
	TimeSeconds  int          `json:"time_seconds"`
}

// WritingOutcome is a stored graded submission and its checkpoint result
type WritingOutcome struct {
	Submission  models.WritingSubmission `json:"submission"`
	Corrections []string                 `json:"corrections"`
	Outcome
}

// SubmitWriting grades a submission, stores it and counts it as study
func (s *Service) SubmitWriting(ctx context.Context, learnerID string, in WritingInput) (*WritingOutcome, error) {
	if learnerID == "" {
		return nil, ErrLearnerRequired
	}
	if s.grader == nil {
		return nil, ErrGradingDisabled
	}

	promptType := ai.NormalizePromptType(in.PromptType)
	res, err := s.grader.Grade(ctx, ai.Request{
		Level:        in.Level,
		PromptType:   promptType,
		PromptText:   in.PromptText,
		Content:      in.Content,
		WordCountMin: in.WordCountMin,
		WordCountMax: in.WordCountMax,
	})
	if err != nil {
		return nil, err
	}

	sub := models.WritingSubmission{
		LearnerID:         learnerID,
		Level:             in.Level,
		PromptType:        promptType,
		PromptText:        in.PromptText,
		Content:           in.Content,
		VocabularyScore:   res.VocabularyScore,
		GrammarScore:      res.GrammarScore,
		ContentScore:      res.ContentScore,
		OrganizationScore: res.OrganizationScore,
		InstructionScore:  res.InstructionScore,
		OverallScore:      ai.OverallScore(res),
		CorrectedText:     res.CorrectedText,
		Feedback:          res.Feedback,
		TimeSeconds:       max(in.TimeSeconds, 0),
		CreatedAt:         s.now(),
	}
	if err := s.writing.Save(ctx, &sub); err != nil {
		return nil, err
	}

	outcome, err := s.logActivity(ctx, &models.StudyActivity{
		LearnerID:    learnerID,
		ActivityType: models.ActivityWriting,
		Seconds:      sub.TimeSeconds,
	})
	if err != nil {
		return nil, err
	}
	return &WritingOutcome{
		Submission:  sub,
		Corrections: ai.Corrections(sub.CorrectedText),
		Outcome:     *outcome,
	}, nil
}

// Writings returns the learner's latest graded submissions
func (s *Service) Writings(ctx context.Context, learnerID string, limit int) ([]models.WritingSubmission, error) {
	return s.writing.ListByLearner(ctx, learnerID, limit)
}

// Proficiency reports the mastered share of a level's catalog
func (s *Service) Proficiency(ctx context.Context, learnerID string, level models.Level) (priority.ProficiencyReport, error) {
	var (
		total   int
		history []models.AnswerRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.vocab.CountByLevel(gctx, level)
		return err
	})
	g.Go(func() error {
		var err error
		history, err = s.answers.ListByLearner(gctx, learnerID, level)
		return err
	})
	if err := g.Wait(); err != nil {
		return priority.ProficiencyReport{}, err
	}
	return priority.Proficiency(history, total, level), nil
}

// WrongWords lists the learner's missed items, most missed first
func (s *Service) WrongWords(ctx context.Context, learnerID string) ([]priority.WrongWord, error) {
	history, err := s.answers.ListByLearner(ctx, learnerID, models.LevelAll)
	if err != nil {
		return nil, err
	}
	catalog, err := s.vocab.ListByLevel(ctx, models.LevelAll)
	if err != nil {
		return nil, err
	}
	return priority.WrongWords(history, catalog), nil
}

// History returns the learner's latest answers
func (s *Service) History(ctx context.Context, learnerID string, limit int) ([]database.HistoryEntry, error) {
	return s.answers.Recent(ctx, learnerID, limit)
}

// Badges lists earned badges with definitions
func (s *Service) Badges(ctx context.Context, learnerID string) ([]models.EarnedBadge, error) {
	return s.badges.List(ctx, learnerID)
}

// NextBadgeNotice returns the next badge to celebrate, or nil
func (s *Service) NextBadgeNotice(ctx context.Context, learnerID string) (*models.EarnedBadge, error) {
	return s.badges.NextUnshown(ctx, learnerID)
}

// MarkBadgeShown records that the badge notice was displayed
func (s *Service) MarkBadgeShown(ctx context.Context, learnerID, badgeKey string) error {
	return s.badges.MarkShown(ctx, learnerID, badgeKey)
}

// ActiveLearners returns learners with activity in the last window
func (s *Service) ActiveLearners(ctx context.Context, window time.Duration) ([]string, error) {
	return s.activity.ActiveLearners(ctx, s.now().Add(-window))
}

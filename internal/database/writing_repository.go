package database

import (
	"context"
	"time"

	"github.com/example/engcoach/pkg/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// WritingRepository handles database operations for graded writing
type WritingRepository struct {
	db *sqlx.DB
}

// NewWritingRepository creates a new repository instance
func NewWritingRepository(db *sqlx.DB) *WritingRepository {
	return &WritingRepository{db: db}
}

// Save stores a graded submission and sets its ID
func (r *WritingRepository) Save(ctx context.Context, s *models.WritingSubmission) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	s.CreatedAt = s.CreatedAt.UTC()

	insert := `
		INSERT INTO writing_submissions (
			user_id, level, prompt_type, prompt_text, content,
			vocabulary_score, grammar_score, content_score, organization_score, instruction_score,
			overall_score, corrected_text, feedback, time_seconds, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	args := []interface{}{
		s.LearnerID,
		s.Level,
		s.PromptType,
		s.PromptText,
		s.Content,
		s.VocabularyScore,
		s.GrammarScore,
		s.ContentScore,
		s.OrganizationScore,
		s.InstructionScore,
		s.OverallScore,
		s.CorrectedText,
		s.Feedback,
		s.TimeSeconds,
		s.CreatedAt,
	}

	if r.db.DriverName() == "postgres" {
		if err := r.db.QueryRowxContext(ctx, r.db.Rebind(insert+" RETURNING id"), args...).Scan(&s.ID); err != nil {
			return errors.Wrap(err, "failed to save writing submission")
		}
		return nil
	}

	result, err := r.db.ExecContext(ctx, insert, args...)
	if err != nil {
		return errors.Wrap(err, "failed to save writing submission")
	}
	s.ID, err = result.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "failed to get last insert ID")
	}
	return nil
}

// Count returns how many submissions the learner has made
func (r *WritingRepository) Count(ctx context.Context, learnerID string) (int, error) {
	var n int
	query := r.db.Rebind("SELECT COUNT(*) FROM writing_submissions WHERE user_id = ?")
	if err := r.db.GetContext(ctx, &n, query, learnerID); err != nil {
		return 0, errors.Wrap(err, "failed to count writing submissions")
	}
	return n, nil
}

// ListByLearner returns the learner's submissions, newest first
func (r *WritingRepository) ListByLearner(ctx context.Context, learnerID string, limit int) ([]models.WritingSubmission, error) {
	if limit <= 0 {
		limit = 20
	}
	query := r.db.Rebind(`
		SELECT id, user_id, level, prompt_type, prompt_text, content,
			vocabulary_score, grammar_score, content_score, organization_score, instruction_score,
			overall_score, corrected_text, feedback, time_seconds, created_at
		FROM writing_submissions
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`)
	subs := []models.WritingSubmission{}
	if err := r.db.SelectContext(ctx, &subs, query, learnerID, limit); err != nil {
		return nil, errors.Wrap(err, "failed to list writing submissions")
	}
	return subs, nil
}

package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/engcoach/pkg/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// SRSRepository handles database operations for flashcard schedules
type SRSRepository struct {
	db *sqlx.DB
}

// NewSRSRepository creates a new repository instance
func NewSRSRepository(db *sqlx.DB) *SRSRepository {
	return &SRSRepository{db: db}
}

// Get returns the schedule for a learner and item, or ErrNotFound
func (r *SRSRepository) Get(ctx context.Context, learnerID, vocabularyID string) (*models.SRSState, error) {
	var state models.SRSState
	query := r.db.Rebind(`
		SELECT user_id, vocabulary_id, interval_days, repetitions, ease_factor, last_reviewed_at
		FROM srs_states
		WHERE user_id = ? AND vocabulary_id = ?`)
	err := r.db.GetContext(ctx, &state, query, learnerID, vocabularyID)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(ErrNotFound, "srs state %s/%s", learnerID, vocabularyID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get srs state")
	}
	return &state, nil
}

// Upsert creates or replaces the schedule for a learner and item
func (r *SRSRepository) Upsert(ctx context.Context, state *models.SRSState) error {
	state.LastReviewedAt = state.LastReviewedAt.UTC()
	query := r.db.Rebind(`
		INSERT INTO srs_states (user_id, vocabulary_id, interval_days, repetitions, ease_factor, last_reviewed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, vocabulary_id) DO UPDATE SET
			interval_days = EXCLUDED.interval_days,
			repetitions = EXCLUDED.repetitions,
			ease_factor = EXCLUDED.ease_factor,
			last_reviewed_at = EXCLUDED.last_reviewed_at`)
	_, err := r.db.ExecContext(ctx, query,
		state.LearnerID,
		state.VocabularyID,
		state.Interval,
		state.Repetitions,
		state.EaseFactor,
		state.LastReviewedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to save srs state")
	}
	return nil
}

// ListByLearner returns every schedule of a learner
func (r *SRSRepository) ListByLearner(ctx context.Context, learnerID string) ([]models.SRSState, error) {
	query := r.db.Rebind(`
		SELECT user_id, vocabulary_id, interval_days, repetitions, ease_factor, last_reviewed_at
		FROM srs_states
		WHERE user_id = ?
		ORDER BY last_reviewed_at`)
	states := []models.SRSState{}
	if err := r.db.SelectContext(ctx, &states, query, learnerID); err != nil {
		return nil, errors.Wrap(err, "failed to list srs states")
	}
	return states, nil
}

// CountDue returns how many of the learner's cards are due at now
func (r *SRSRepository) CountDue(ctx context.Context, learnerID string, now time.Time) (int, error) {
	states, err := r.ListByLearner(ctx, learnerID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, s := range states {
		if !s.NextReviewAt().After(now) {
			n++
		}
	}
	return n, nil
}

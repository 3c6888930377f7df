package database

import (
	"context"
	"database/sql"

	"github.com/example/engcoach/pkg/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// StreakRepository handles database operations for daily streaks
type StreakRepository struct {
	db *sqlx.DB
}

// NewStreakRepository creates a new repository instance
func NewStreakRepository(db *sqlx.DB) *StreakRepository {
	return &StreakRepository{db: db}
}

// Get returns the learner's streak, or ErrNotFound
func (r *StreakRepository) Get(ctx context.Context, learnerID string) (*models.StreakRecord, error) {
	var rec models.StreakRecord
	query := r.db.Rebind(`
		SELECT user_id, current_streak, longest_streak, last_active_date
		FROM daily_streaks
		WHERE user_id = ?`)
	err := r.db.GetContext(ctx, &rec, query, learnerID)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(ErrNotFound, "streak %s", learnerID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get streak")
	}
	return &rec, nil
}

// Insert creates the first streak row. It reports false when a row already
// exists, leaving it untouched.
func (r *StreakRepository) Insert(ctx context.Context, rec models.StreakRecord) (bool, error) {
	query := r.db.Rebind(`
		INSERT INTO daily_streaks (user_id, current_streak, longest_streak, last_active_date)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO NOTHING`)
	result, err := r.db.ExecContext(ctx, query, rec.LearnerID, rec.Current, rec.Longest, rec.LastActiveDate)
	if err != nil {
		return false, errors.Wrap(err, "failed to create streak")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to get rows affected")
	}
	return rows == 1, nil
}

// CompareAndSwap replaces the streak only if the stored last-active date is
// still expectedLastActive. It reports false when another update won.
func (r *StreakRepository) CompareAndSwap(ctx context.Context, expectedLastActive string, rec models.StreakRecord) (bool, error) {
	query := r.db.Rebind(`
		UPDATE daily_streaks SET
			current_streak = ?,
			longest_streak = ?,
			last_active_date = ?
		WHERE user_id = ? AND last_active_date = ?`)
	result, err := r.db.ExecContext(ctx, query,
		rec.Current,
		rec.Longest,
		rec.LastActiveDate,
		rec.LearnerID,
		expectedLastActive,
	)
	if err != nil {
		return false, errors.Wrap(err, "failed to update streak")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to get rows affected")
	}
	return rows == 1, nil
}

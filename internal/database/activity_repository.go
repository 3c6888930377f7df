package database

import (
	"context"
	"time"

	"github.com/example/engcoach/pkg/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// ActivityRepository handles the study activity log and the aggregates
// computed from it
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository creates a new repository instance
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Log appends an activity entry
func (r *ActivityRepository) Log(ctx context.Context, a *models.StudyActivity) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	a.CreatedAt = a.CreatedAt.UTC()

	insert := `
		INSERT INTO user_activity_log (user_id, activity_type, seconds, question_count, correct_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	args := []interface{}{a.LearnerID, a.ActivityType, a.Seconds, a.QuestionCount, a.CorrectCount, a.CreatedAt}

	if r.db.DriverName() == "postgres" {
		if err := r.db.QueryRowxContext(ctx, r.db.Rebind(insert+" RETURNING id"), args...).Scan(&a.ID); err != nil {
			return errors.Wrap(err, "failed to log activity")
		}
		return nil
	}

	result, err := r.db.ExecContext(ctx, insert, args...)
	if err != nil {
		return errors.Wrap(err, "failed to log activity")
	}
	a.ID, err = result.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "failed to get last insert ID")
	}
	return nil
}

// ActivityTotals are the log-derived parts of the badge statistics
type ActivityTotals struct {
	VocabQuizCount int `db:"vocab_quiz_count"`
	TotalSeconds   int `db:"total_seconds"`
	Entries        int `db:"entries"`
}

// Totals aggregates the learner's whole activity log
func (r *ActivityRepository) Totals(ctx context.Context, learnerID string) (ActivityTotals, error) {
	var t ActivityTotals
	query := r.db.Rebind(`
		SELECT
			COALESCE(SUM(CASE WHEN activity_type = ? THEN 1 ELSE 0 END), 0) AS vocab_quiz_count,
			COALESCE(SUM(seconds), 0) AS total_seconds,
			COUNT(*) AS entries
		FROM user_activity_log
		WHERE user_id = ?`)
	if err := r.db.GetContext(ctx, &t, query, models.ActivityVocabularyQuiz, learnerID); err != nil {
		return t, errors.Wrap(err, "failed to get activity totals")
	}
	return t, nil
}

// SecondsBetween sums the study time logged in [from, to)
func (r *ActivityRepository) SecondsBetween(ctx context.Context, learnerID string, from, to time.Time) (int, error) {
	var n int
	query := r.db.Rebind(`
		SELECT COALESCE(SUM(seconds), 0)
		FROM user_activity_log
		WHERE user_id = ? AND created_at >= ? AND created_at < ?`)
	if err := r.db.GetContext(ctx, &n, query, learnerID, from.UTC(), to.UTC()); err != nil {
		return 0, errors.Wrap(err, "failed to sum study time")
	}
	return n, nil
}

// ActiveLearners returns the learners with any activity since the given time
func (r *ActivityRepository) ActiveLearners(ctx context.Context, since time.Time) ([]string, error) {
	ids := []string{}
	query := r.db.Rebind(`
		SELECT DISTINCT user_id
		FROM user_activity_log
		WHERE created_at >= ?
		ORDER BY user_id`)
	if err := r.db.SelectContext(ctx, &ids, query, since.UTC()); err != nil {
		return nil, errors.Wrap(err, "failed to list active learners")
	}
	return ids, nil
}

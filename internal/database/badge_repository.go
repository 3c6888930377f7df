package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/engcoach/pkg/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// BadgeRepository handles database operations for earned badges
type BadgeRepository struct {
	db *sqlx.DB
}

// NewBadgeRepository creates a new repository instance
func NewBadgeRepository(db *sqlx.DB) *BadgeRepository {
	return &BadgeRepository{db: db}
}

// EarnedKeys returns the set of badge keys the learner already holds
func (r *BadgeRepository) EarnedKeys(ctx context.Context, learnerID string) (map[string]bool, error) {
	var keys []string
	query := r.db.Rebind("SELECT badge_key FROM user_badges WHERE user_id = ?")
	if err := r.db.SelectContext(ctx, &keys, query, learnerID); err != nil {
		return nil, errors.Wrap(err, "failed to get earned badges")
	}
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return set, nil
}

// InsertIfAbsent awards a badge. It reports true only when this call created
// the row; a duplicate is not an error.
func (r *BadgeRepository) InsertIfAbsent(ctx context.Context, learnerID, badgeKey string, earnedAt time.Time) (bool, error) {
	query := r.db.Rebind(`
		INSERT INTO user_badges (user_id, badge_key, earned_at, popup_shown)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, badge_key) DO NOTHING`)
	result, err := r.db.ExecContext(ctx, query, learnerID, badgeKey, earnedAt.UTC(), false)
	if err != nil {
		return false, errors.Wrapf(err, "failed to earn badge %s", badgeKey)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to get rows affected")
	}
	return rows == 1, nil
}

// List returns the learner's badges, newest first
func (r *BadgeRepository) List(ctx context.Context, learnerID string) ([]models.EarnedBadge, error) {
	query := r.db.Rebind(`
		SELECT user_id, badge_key, earned_at, popup_shown
		FROM user_badges
		WHERE user_id = ?
		ORDER BY earned_at DESC, badge_key`)
	badges := []models.EarnedBadge{}
	if err := r.db.SelectContext(ctx, &badges, query, learnerID); err != nil {
		return nil, errors.Wrap(err, "failed to list badges")
	}
	return badges, nil
}

// NextUnshown returns the most recent badge whose notice was not displayed yet
func (r *BadgeRepository) NextUnshown(ctx context.Context, learnerID string) (*models.EarnedBadge, error) {
	var badge models.EarnedBadge
	query := r.db.Rebind(`
		SELECT user_id, badge_key, earned_at, popup_shown
		FROM user_badges
		WHERE user_id = ? AND popup_shown = ?
		ORDER BY earned_at DESC, badge_key
		LIMIT 1`)
	err := r.db.GetContext(ctx, &badge, query, learnerID, false)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(ErrNotFound, "unshown badge for %s", learnerID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get unshown badge")
	}
	return &badge, nil
}

// MarkShown records that the badge notice has been displayed
func (r *BadgeRepository) MarkShown(ctx context.Context, learnerID, badgeKey string) error {
	query := r.db.Rebind("UPDATE user_badges SET popup_shown = ? WHERE user_id = ? AND badge_key = ?")
	if _, err := r.db.ExecContext(ctx, query, true, learnerID, badgeKey); err != nil {
		return errors.Wrap(err, "failed to mark badge shown")
	}
	return nil
}

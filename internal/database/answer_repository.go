package database

import (
	"context"
	"time"

	"github.com/example/engcoach/pkg/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// AnswerRepository handles database operations for quiz answer records
type AnswerRepository struct {
	db *sqlx.DB
}

// NewAnswerRepository creates a new repository instance
func NewAnswerRepository(db *sqlx.DB) *AnswerRepository {
	return &AnswerRepository{db: db}
}

// Append stores a new answer record. Records are never updated.
func (r *AnswerRepository) Append(ctx context.Context, rec *models.AnswerRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC()

	insert := `
		INSERT INTO vocabulary_quiz_results (user_id, vocabulary_id, is_correct, created_at)
		VALUES (?, ?, ?, ?)`
	args := []interface{}{rec.LearnerID, rec.VocabularyID, rec.Correct, rec.CreatedAt}

	if r.db.DriverName() == "postgres" {
		if err := r.db.QueryRowxContext(ctx, r.db.Rebind(insert+" RETURNING id"), args...).Scan(&rec.ID); err != nil {
			return errors.Wrap(err, "failed to append answer")
		}
		return nil
	}

	result, err := r.db.ExecContext(ctx, insert, args...)
	if err != nil {
		return errors.Wrap(err, "failed to append answer")
	}
	rec.ID, err = result.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "failed to get last insert ID")
	}
	return nil
}

// ListByLearner returns the learner's answer history joined with the item
// level, oldest first. LevelAll returns every record.
func (r *AnswerRepository) ListByLearner(ctx context.Context, learnerID string, level models.Level) ([]models.AnswerRecord, error) {
	query := `
		SELECT r.id, r.user_id, r.vocabulary_id, v.level, r.is_correct, r.created_at
		FROM vocabulary_quiz_results r
		JOIN vocabulary v ON v.id = r.vocabulary_id
		WHERE r.user_id = ?`
	args := []interface{}{learnerID}
	if !level.IsAll() {
		query += " AND v.level = ?"
		args = append(args, level)
	}
	query += " ORDER BY r.created_at, r.id"

	records := []models.AnswerRecord{}
	if err := r.db.SelectContext(ctx, &records, r.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "failed to list answer history")
	}
	return records, nil
}

// HistoryEntry is an answer record with the item's word and meaning
type HistoryEntry struct {
	models.AnswerRecord
	Word    string `json:"word" db:"word"`
	Meaning string `json:"meaning_ja" db:"meaning_ja"`
}

// Recent returns the learner's latest answers, newest first
func (r *AnswerRepository) Recent(ctx context.Context, learnerID string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	query := r.db.Rebind(`
		SELECT r.id, r.user_id, r.vocabulary_id, v.level, r.is_correct, r.created_at,
			v.word, v.meaning_ja
		FROM vocabulary_quiz_results r
		JOIN vocabulary v ON v.id = r.vocabulary_id
		WHERE r.user_id = ?
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT ?`)
	entries := []HistoryEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, learnerID, limit); err != nil {
		return nil, errors.Wrap(err, "failed to get quiz history")
	}
	return entries, nil
}

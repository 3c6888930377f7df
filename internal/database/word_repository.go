package database

import (
	"context"
	"database/sql"

	"github.com/example/engcoach/pkg/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const vocabularyColumns = `id, level, word, meaning_ja, part_of_speech, category,
	pronunciation, example_en, example_ja`

// VocabularyRepository handles database operations for the vocabulary catalog
type VocabularyRepository struct {
	db *sqlx.DB
}

// NewVocabularyRepository creates a new repository instance
func NewVocabularyRepository(db *sqlx.DB) *VocabularyRepository {
	return &VocabularyRepository{db: db}
}

// ListByLevel returns the catalog for a level, or the whole catalog for LevelAll
func (r *VocabularyRepository) ListByLevel(ctx context.Context, level models.Level) ([]models.VocabularyItem, error) {
	items := []models.VocabularyItem{}
	var err error
	if level.IsAll() {
		err = r.db.SelectContext(ctx, &items, "SELECT "+vocabularyColumns+" FROM vocabulary ORDER BY id")
	} else {
		query := r.db.Rebind("SELECT " + vocabularyColumns + " FROM vocabulary WHERE level = ? ORDER BY id")
		err = r.db.SelectContext(ctx, &items, query, level)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to list vocabulary")
	}
	return items, nil
}

// CountByLevel returns the number of catalog entries for a level
func (r *VocabularyRepository) CountByLevel(ctx context.Context, level models.Level) (int, error) {
	var n int
	var err error
	if level.IsAll() {
		err = r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM vocabulary")
	} else {
		err = r.db.GetContext(ctx, &n, r.db.Rebind("SELECT COUNT(*) FROM vocabulary WHERE level = ?"), level)
	}
	if err != nil {
		return 0, errors.Wrap(err, "failed to count vocabulary")
	}
	return n, nil
}

// GetByID returns a vocabulary item by ID
func (r *VocabularyRepository) GetByID(ctx context.Context, id string) (*models.VocabularyItem, error) {
	var item models.VocabularyItem
	query := r.db.Rebind("SELECT " + vocabularyColumns + " FROM vocabulary WHERE id = ?")
	err := r.db.GetContext(ctx, &item, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(ErrNotFound, "vocabulary %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get vocabulary by ID")
	}
	return &item, nil
}

// FindByWordAndLevel returns the entry for word at level, if any
func (r *VocabularyRepository) FindByWordAndLevel(ctx context.Context, word string, level models.Level) (*models.VocabularyItem, error) {
	var item models.VocabularyItem
	query := r.db.Rebind("SELECT " + vocabularyColumns + " FROM vocabulary WHERE word = ? AND level = ?")
	err := r.db.GetContext(ctx, &item, query, word, level)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(ErrNotFound, "vocabulary %s (%s)", word, level)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find vocabulary")
	}
	return &item, nil
}

// Create inserts a new vocabulary item and sets its ID
func (r *VocabularyRepository) Create(ctx context.Context, item *models.VocabularyItem) error {
	args := []interface{}{
		item.Level,
		item.Word,
		item.Meaning,
		item.PartOfSpeech,
		item.Category,
		item.Pronunciation,
		item.ExampleEN,
		item.ExampleJA,
	}
	insert := `
		INSERT INTO vocabulary (level, word, meaning_ja, part_of_speech, category,
			pronunciation, example_en, example_ja)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	// Разные запросы для разных СУБД
	if r.db.DriverName() == "postgres" {
		var id int64
		if err := r.db.QueryRowxContext(ctx, r.db.Rebind(insert+" RETURNING id"), args...).Scan(&id); err != nil {
			return errors.Wrap(err, "failed to create vocabulary")
		}
		item.ID = formatID(id)
		return nil
	}

	result, err := r.db.ExecContext(ctx, insert, args...)
	if err != nil {
		return errors.Wrap(err, "failed to create vocabulary")
	}
	id, err := result.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "failed to get last insert ID")
	}
	item.ID = formatID(id)
	return nil
}

// Update modifies an existing vocabulary item
func (r *VocabularyRepository) Update(ctx context.Context, item *models.VocabularyItem) error {
	query := r.db.Rebind(`
		UPDATE vocabulary SET
			level = ?,
			word = ?,
			meaning_ja = ?,
			part_of_speech = ?,
			category = ?,
			pronunciation = ?,
			example_en = ?,
			example_ja = ?
		WHERE id = ?`)
	result, err := r.db.ExecContext(ctx, query,
		item.Level,
		item.Word,
		item.Meaning,
		item.PartOfSpeech,
		item.Category,
		item.Pronunciation,
		item.ExampleEN,
		item.ExampleJA,
		item.ID,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update vocabulary")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return errors.Wrapf(ErrNotFound, "vocabulary %s", item.ID)
	}
	return nil
}

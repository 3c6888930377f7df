package database

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// Connect opens the database for driver ("sqlite3" or "postgres")
// and initializes the schema
func Connect(driver, dsn string) (*sqlx.DB, error) {
	if driver == "sqlite3" && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, errors.Wrap(err, "failed to create data directory")
		}
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	if driver == "sqlite3" {
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "failed to enable foreign keys")
		}
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// idColumn is the auto-increment primary key for the dialect
func idColumn(db *sqlx.DB) string {
	if db.DriverName() == "postgres" {
		return "id BIGSERIAL PRIMARY KEY"
	}
	return "id INTEGER PRIMARY KEY AUTOINCREMENT"
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema(db *sqlx.DB) error {
	id := idColumn(db)
	statements := []struct {
		name  string
		query string
	}{
		{"vocabulary", `
			CREATE TABLE IF NOT EXISTS vocabulary (
				` + id + `,
				level TEXT NOT NULL,
				word TEXT NOT NULL,
				meaning_ja TEXT NOT NULL,
				part_of_speech TEXT NOT NULL DEFAULT '',
				category TEXT NOT NULL DEFAULT '',
				pronunciation TEXT NOT NULL DEFAULT '',
				example_en TEXT NOT NULL DEFAULT '',
				example_ja TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				UNIQUE(word, level)
			)`},
		{"vocabulary_quiz_results", `
			CREATE TABLE IF NOT EXISTS vocabulary_quiz_results (
				` + id + `,
				user_id TEXT NOT NULL,
				vocabulary_id BIGINT NOT NULL REFERENCES vocabulary(id),
				is_correct BOOLEAN NOT NULL,
				created_at TIMESTAMP NOT NULL
			)`},
		{"vocabulary_quiz_results index", `
			CREATE INDEX IF NOT EXISTS idx_quiz_results_user
			ON vocabulary_quiz_results(user_id, created_at)`},
		{"daily_streaks", `
			CREATE TABLE IF NOT EXISTS daily_streaks (
				user_id TEXT PRIMARY KEY,
				current_streak INTEGER NOT NULL DEFAULT 0,
				longest_streak INTEGER NOT NULL DEFAULT 0,
				last_active_date TEXT NOT NULL
			)`},
		{"user_badges", `
			CREATE TABLE IF NOT EXISTS user_badges (
				user_id TEXT NOT NULL,
				badge_key TEXT NOT NULL,
				earned_at TIMESTAMP NOT NULL,
				popup_shown BOOLEAN NOT NULL DEFAULT FALSE,
				PRIMARY KEY (user_id, badge_key)
			)`},
		{"user_activity_log", `
			CREATE TABLE IF NOT EXISTS user_activity_log (
				` + id + `,
				user_id TEXT NOT NULL,
				activity_type TEXT NOT NULL,
				seconds INTEGER NOT NULL DEFAULT 0,
				question_count INTEGER NOT NULL DEFAULT 0,
				correct_count INTEGER NOT NULL DEFAULT 0,
				created_at TIMESTAMP NOT NULL
			)`},
		{"user_activity_log index", `
			CREATE INDEX IF NOT EXISTS idx_activity_user
			ON user_activity_log(user_id, created_at)`},
		{"srs_states", `
			CREATE TABLE IF NOT EXISTS srs_states (
				user_id TEXT NOT NULL,
				vocabulary_id BIGINT NOT NULL REFERENCES vocabulary(id),
				interval_days INTEGER NOT NULL DEFAULT 0,
				repetitions INTEGER NOT NULL DEFAULT 0,
				ease_factor REAL NOT NULL DEFAULT 2.5,
				last_reviewed_at TIMESTAMP NOT NULL,
				PRIMARY KEY (user_id, vocabulary_id)
			)`},
		{"writing_submissions", `
			CREATE TABLE IF NOT EXISTS writing_submissions (
				` + id + `,
				user_id TEXT NOT NULL,
				level TEXT NOT NULL,
				prompt_type TEXT NOT NULL,
				prompt_text TEXT NOT NULL,
				content TEXT NOT NULL,
				vocabulary_score INTEGER NOT NULL,
				grammar_score INTEGER NOT NULL,
				content_score INTEGER NOT NULL,
				organization_score INTEGER NOT NULL,
				instruction_score INTEGER NOT NULL,
				overall_score REAL NOT NULL,
				corrected_text TEXT NOT NULL,
				feedback TEXT NOT NULL,
				time_seconds INTEGER NOT NULL DEFAULT 0,
				created_at TIMESTAMP NOT NULL
			)`},
	}

	for _, s := range statements {
		if _, err := db.Exec(s.query); err != nil {
			return errors.Wrapf(err, "failed to create %s", s.name)
		}
	}
	return nil
}

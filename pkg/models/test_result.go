package models

import "time"

// AnswerRecord is one answered quiz question. Records are append-only.
type AnswerRecord struct {
	ID           int64     `json:"id" db:"id"`
	LearnerID    string    `json:"user_id" db:"user_id"`
	VocabularyID string    `json:"vocabulary_id" db:"vocabulary_id"`
	Level        Level     `json:"level" db:"level"` // joined from the vocabulary row
	Correct      bool      `json:"is_correct" db:"is_correct"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

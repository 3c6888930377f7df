package models

import "time"

// SRSState tracks a learner's SM-2 schedule for a single flashcard
type SRSState struct {
	LearnerID      string    `json:"user_id" db:"user_id"`
	VocabularyID   string    `json:"vocabulary_id" db:"vocabulary_id"`
	Interval       int       `json:"interval" db:"interval_days"`  // days
	Repetitions    int       `json:"repetitions" db:"repetitions"` // consecutive successful reviews
	EaseFactor     float64   `json:"ease_factor" db:"ease_factor"` // never below 1.3
	LastReviewedAt time.Time `json:"last_reviewed_at" db:"last_reviewed_at"`
}

// NextReviewAt returns when the card becomes due again
func (s SRSState) NextReviewAt() time.Time {
	return s.LastReviewedAt.AddDate(0, 0, s.Interval)
}

package models

import "time"

// Activity types recorded in the study log
const (
	ActivityVocabularyQuiz = "vocabulary_quiz"
	ActivityReadingAloud   = "reading_aloud"
	ActivityWriting        = "writing"
)

// StudyActivity is a single entry of the study log
type StudyActivity struct {
	ID            int64     `json:"id" db:"id"`
	LearnerID     string    `json:"user_id" db:"user_id"`
	ActivityType  string    `json:"activity_type" db:"activity_type"`
	Seconds       int       `json:"seconds" db:"seconds"`
	QuestionCount int       `json:"question_count" db:"question_count"`
	CorrectCount  int       `json:"correct_count" db:"correct_count"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// BadgeStats is the aggregate snapshot badge thresholds are checked against
type BadgeStats struct {
	VocabQuizCount    int  `json:"vocab_quiz_count" db:"vocab_quiz_count"`
	WritingCount      int  `json:"writing_count" db:"writing_count"`
	TotalStudySeconds int  `json:"total_study_seconds" db:"total_study_seconds"`
	CurrentStreak     int  `json:"current_streak" db:"current_streak"`
	HasStudied        bool `json:"has_studied" db:"has_studied"`
}

package models

import "time"

// Writing prompt types accepted by the grading service
const (
	PromptEssay   = "essay"
	PromptEmail   = "email"
	PromptSummary = "summary"
)

// WritingSubmission is a graded essay, e-mail or summary
type WritingSubmission struct {
	ID                int64     `json:"id" db:"id"`
	LearnerID         string    `json:"user_id" db:"user_id"`
	Level             Level     `json:"level" db:"level"`
	PromptType        string    `json:"prompt_type" db:"prompt_type"`
	PromptText        string    `json:"prompt_text" db:"prompt_text"`
	Content           string    `json:"content" db:"content"`
	VocabularyScore   int       `json:"vocabulary_score" db:"vocabulary_score"`
	GrammarScore      int       `json:"grammar_score" db:"grammar_score"`
	ContentScore      int       `json:"content_score" db:"content_score"`
	OrganizationScore int       `json:"organization_score" db:"organization_score"`
	InstructionScore  int       `json:"instruction_score" db:"instruction_score"`
	OverallScore      float64   `json:"overall_score" db:"overall_score"`
	CorrectedText     string    `json:"corrected_text" db:"corrected_text"`
	Feedback          string    `json:"feedback" db:"feedback"`
	TimeSeconds       int       `json:"time_seconds" db:"time_seconds"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

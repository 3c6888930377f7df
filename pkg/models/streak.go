package models

import "time"

// DateLayout is the storage format of calendar dates
const DateLayout = "2006-01-02"

// StreakRecord holds a learner's consecutive-day engagement
type StreakRecord struct {
	LearnerID      string `json:"user_id" db:"user_id"`
	Current        int    `json:"current_streak" db:"current_streak"`
	Longest        int    `json:"longest_streak" db:"longest_streak"`
	LastActiveDate string `json:"last_active_date" db:"last_active_date"`
}

// LastActive parses LastActiveDate as midnight in loc
func (s StreakRecord) LastActive(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DateLayout, s.LastActiveDate, loc)
}

package spaced_repetition

import (
	"math"
	"sort"
	"time"

	"github.com/example/engcoach/pkg/models"
)

const (
	// InitialEase is the ease factor of a card reviewed for the first time
	InitialEase = 2.5
	// MinEase is the floor of the ease factor
	MinEase = 1.3
)

// SM2 implements the SuperMemo-2 algorithm for spaced repetition
type SM2 struct {
	// Ratings at or above this count as recalled
	PassThreshold int
	// Cards at or beyond these values count as mastered
	MasteredRepetitions int
	MasteredInterval    int
}

// NewSM2 creates an SM2 with the default settings
func NewSM2() *SM2 {
	return &SM2{
		PassThreshold:       3,
		MasteredRepetitions: 5,
		MasteredInterval:    30,
	}
}

// QualityResponse represents the quality of response in SM-2
type QualityResponse int

const (
	// Complete blackout, unable to recall
	QualityBlackout QualityResponse = 0
	// Incorrect response but remembered upon seeing the correct answer
	QualityIncorrect QualityResponse = 1
	// Incorrect response but the correct answer felt familiar
	QualityIncorrectFamiliar QualityResponse = 2
	// Correct response but required significant effort
	QualityCorrectDifficult QualityResponse = 3
	// Correct response after some hesitation
	QualityCorrectHesitation QualityResponse = 4
	// Perfect response with no hesitation
	QualityPerfect QualityResponse = 5
)

// Clamp limits any integer rating to the 0..5 scale
func Clamp(rating int) QualityResponse {
	if rating < int(QualityBlackout) {
		return QualityBlackout
	}
	if rating > int(QualityPerfect) {
		return QualityPerfect
	}
	return QualityResponse(rating)
}

// QualityFromAnswer maps a multiple-choice outcome to a rating
func QualityFromAnswer(correct, hesitated bool) QualityResponse {
	switch {
	case !correct:
		return QualityIncorrect
	case hesitated:
		return QualityCorrectHesitation
	default:
		return QualityPerfect
	}
}

// Process returns the schedule that follows prev after a review with the
// given rating. A nil prev is a card that was never reviewed. Ratings
// outside 0..5 are clamped.
func (sm *SM2) Process(prev *models.SRSState, rating int, now time.Time) models.SRSState {
	q := int(Clamp(rating))
	passed := q >= sm.PassThreshold

	if prev == nil {
		next := models.SRSState{EaseFactor: InitialEase, LastReviewedAt: now}
		if passed {
			next.Interval = 1
			next.Repetitions = 1
		}
		return next
	}

	next := *prev
	next.LastReviewedAt = now

	if !passed {
		next.Repetitions = 0
		next.Interval = 1
	} else {
		next.Repetitions++
		switch next.Repetitions {
		case 1:
			next.Interval = 1
		case 2:
			next.Interval = 6
		default:
			next.Interval = int(math.Round(float64(prev.Interval) * prev.EaseFactor))
		}
	}

	// Interval uses the ease from before this review
	ef := prev.EaseFactor + (0.1 - float64(5-q)*(0.08+float64(5-q)*0.02))
	if ef < MinEase {
		ef = MinEase
	}
	next.EaseFactor = ef
	return next
}

// DueCards returns up to limit cards due at now, most urgent first:
// never-recalled cards, then the hardest, then the most overdue.
// A non-positive limit returns every due card.
func (sm *SM2) DueCards(cards []models.SRSState, now time.Time, limit int) []models.SRSState {
	var due []models.SRSState
	for _, c := range cards {
		if !c.NextReviewAt().After(now) {
			due = append(due, c)
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		if (due[i].Repetitions == 0) != (due[j].Repetitions == 0) {
			return due[i].Repetitions == 0
		}
		if due[i].EaseFactor != due[j].EaseFactor {
			return due[i].EaseFactor < due[j].EaseFactor
		}
		return due[i].NextReviewAt().Before(due[j].NextReviewAt())
	})

	if limit > 0 && len(due) > limit {
		return due[:limit]
	}
	return due
}

// IsMastered reports whether the card left the short-term schedule
func (sm *SM2) IsMastered(s models.SRSState) bool {
	return s.Repetitions >= sm.MasteredRepetitions && s.Interval >= sm.MasteredInterval
}

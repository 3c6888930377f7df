package spaced_repetition

import (
	"testing"
	"time"

	"github.com/example/engcoach/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reviewTime = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

func TestProcessFreshCard(t *testing.T) {
	sm := NewSM2()

	tests := []struct {
		rating   int
		interval int
		reps     int
	}{
		{0, 0, 0},
		{2, 0, 0},
		{3, 1, 1},
		{5, 1, 1},
	}
	for _, tt := range tests {
		got := sm.Process(nil, tt.rating, reviewTime)
		assert.Equal(t, tt.interval, got.Interval, "rating %d", tt.rating)
		assert.Equal(t, tt.reps, got.Repetitions, "rating %d", tt.rating)
		assert.Equal(t, InitialEase, got.EaseFactor, "rating %d", tt.rating)
		assert.Equal(t, reviewTime, got.LastReviewedAt)
	}
}

func TestProcessLapseResets(t *testing.T) {
	sm := NewSM2()
	priors := []models.SRSState{
		{Interval: 0, Repetitions: 0, EaseFactor: 2.5},
		{Interval: 6, Repetitions: 2, EaseFactor: 2.36},
		{Interval: 120, Repetitions: 9, EaseFactor: 1.3},
	}
	for _, prev := range priors {
		got := sm.Process(&prev, 2, reviewTime)
		assert.Equal(t, 0, got.Repetitions)
		assert.Equal(t, 1, got.Interval)
		assert.GreaterOrEqual(t, got.EaseFactor, MinEase)
	}
}

func TestProcessIntervals(t *testing.T) {
	sm := NewSM2()

	s := sm.Process(nil, 5, reviewTime)
	require.Equal(t, 1, s.Repetitions)

	s = sm.Process(&s, 5, reviewTime.AddDate(0, 0, 1))
	assert.Equal(t, 2, s.Repetitions)
	assert.Equal(t, 6, s.Interval)
	assert.InDelta(t, 2.6, s.EaseFactor, 1e-9)

	s = sm.Process(&s, 4, reviewTime.AddDate(0, 0, 7))
	assert.Equal(t, 3, s.Repetitions)
	// round(6 * 2.6)
	assert.Equal(t, 16, s.Interval)
	assert.InDelta(t, 2.6, s.EaseFactor, 1e-9)
}

func TestEaseFloor(t *testing.T) {
	sm := NewSM2()
	s := sm.Process(nil, 0, reviewTime)
	for i := 0; i < 50; i++ {
		s = sm.Process(&s, 0, reviewTime.AddDate(0, 0, i))
		require.GreaterOrEqual(t, s.EaseFactor, MinEase)
	}
	assert.Equal(t, MinEase, s.EaseFactor)
}

func TestProcessClampsRating(t *testing.T) {
	sm := NewSM2()
	prev := models.SRSState{Interval: 6, Repetitions: 2, EaseFactor: 2.5}

	assert.Equal(t, sm.Process(&prev, 5, reviewTime), sm.Process(&prev, 42, reviewTime))
	assert.Equal(t, sm.Process(&prev, 0, reviewTime), sm.Process(&prev, -3, reviewTime))
}

func TestDueCards(t *testing.T) {
	sm := NewSM2()
	now := reviewTime
	cards := []models.SRSState{
		{VocabularyID: "future", Interval: 10, Repetitions: 3, EaseFactor: 2.5, LastReviewedAt: now},
		{VocabularyID: "easy", Interval: 1, Repetitions: 2, EaseFactor: 2.7, LastReviewedAt: now.AddDate(0, 0, -5)},
		{VocabularyID: "hard", Interval: 1, Repetitions: 2, EaseFactor: 1.4, LastReviewedAt: now.AddDate(0, 0, -2)},
		{VocabularyID: "lapsed", Interval: 1, Repetitions: 0, EaseFactor: 2.5, LastReviewedAt: now.AddDate(0, 0, -1)},
	}

	due := sm.DueCards(cards, now, 0)
	ids := make([]string, len(due))
	for i, c := range due {
		ids[i] = c.VocabularyID
	}
	assert.Equal(t, []string{"lapsed", "hard", "easy"}, ids)

	assert.Len(t, sm.DueCards(cards, now, 2), 2)
}

func TestQualityFromAnswer(t *testing.T) {
	assert.Equal(t, QualityIncorrect, QualityFromAnswer(false, false))
	assert.Equal(t, QualityCorrectHesitation, QualityFromAnswer(true, true))
	assert.Equal(t, QualityPerfect, QualityFromAnswer(true, false))
}

func TestIsMastered(t *testing.T) {
	sm := NewSM2()
	assert.True(t, sm.IsMastered(models.SRSState{Repetitions: 5, Interval: 30}))
	assert.False(t, sm.IsMastered(models.SRSState{Repetitions: 5, Interval: 16}))
}

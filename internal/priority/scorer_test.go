package priority

import (
	"testing"

	"github.com/example/engcoach/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func answers(level models.Level, id string, outcomes ...bool) []models.AnswerRecord {
	recs := make([]models.AnswerRecord, len(outcomes))
	for i, ok := range outcomes {
		recs[i] = models.AnswerRecord{LearnerID: "u1", VocabularyID: id, Level: level, Correct: ok}
	}
	return recs
}

func history(parts ...[]models.AnswerRecord) []models.AnswerRecord {
	var all []models.AnswerRecord
	for _, p := range parts {
		all = append(all, p...)
	}
	return all
}

func TestScore(t *testing.T) {
	h := history(
		answers(models.Level5, "a", false, false, true),        // +1
		answers(models.Level5, "b", false, true, true),         // -1
		answers(models.Level5, "c", false, false, false),       // +3
		answers(models.Level5, "d", true, false),               // 0
		answers(models.Level4, "e", false, false),              // +2, other level
		answers(models.Level5, "f", false, false, false, true), // +2
	)

	got := Score(h, models.Level5)
	assert.Equal(t, Scores{
		{VocabularyID: "c", Score: 3},
		{VocabularyID: "f", Score: 2},
		{VocabularyID: "a", Score: 1},
	}, got)

	all := Score(h, models.LevelAll)
	require.Len(t, all, 4)
	assert.Equal(t, ItemScore{VocabularyID: "e", Score: 2}, all[1], "ties break by ID")

	set := got.Set()
	assert.True(t, set["a"])
	assert.False(t, set["b"])
}

func TestScoreNeverNonPositive(t *testing.T) {
	h := history(
		answers(models.Level3, "x", true),
		answers(models.Level3, "y", true, false),
		answers(models.Level3, "z", false),
	)
	for _, level := range []models.Level{models.Level3, models.LevelAll, models.Level1} {
		for _, s := range Score(h, level) {
			assert.Positive(t, s.Score)
		}
	}
	assert.Empty(t, Score(nil, models.LevelAll))
}

func TestWrongWords(t *testing.T) {
	catalog := []models.VocabularyItem{
		{ID: "a", Word: "apple", Meaning: "りんご", Level: models.Level5},
		{ID: "b", Word: "book", Meaning: "本", Level: models.Level5},
	}
	h := history(
		answers(models.Level5, "a", false, true),
		answers(models.Level5, "b", false, false),
		answers(models.Level5, "gone", false),
	)

	got := WrongWords(h, catalog)
	assert.Equal(t, []WrongWord{
		{VocabularyID: "b", Word: "book", Meaning: "本", Level: models.Level5, WrongCount: 2},
		{VocabularyID: "a", Word: "apple", Meaning: "りんご", Level: models.Level5, WrongCount: 1},
	}, got)
}

func TestProficiency(t *testing.T) {
	h := history(
		answers(models.Level5, "a", true),
		answers(models.Level5, "b", true, true, false),
		answers(models.Level5, "c", true, false),
		answers(models.Level4, "d", true),
	)

	got := Proficiency(h, 3, models.Level5)
	assert.Equal(t, ProficiencyReport{Level: models.Level5, Percentage: 67, Mastered: 2, Total: 3}, got)

	assert.Equal(t, ProficiencyReport{Level: models.Level2}, Proficiency(h, 0, models.Level2))
}

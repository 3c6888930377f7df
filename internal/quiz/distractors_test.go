package quiz

import (
	"math/rand"
	"testing"

	"github.com/example/engcoach/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(id, meaning, pos, category string) models.VocabularyItem {
	return models.VocabularyItem{ID: id, Word: id, Meaning: meaning, PartOfSpeech: pos, Category: category, Level: models.Level5}
}

func meanings(items []models.VocabularyItem) []string {
	out := make([]string, len(items))
	for i, v := range items {
		out[i] = v.Meaning
	}
	return out
}

func TestDistractorsPreferCategory(t *testing.T) {
	correct := item("dog", "犬", "名詞", "動物")
	pool := []models.VocabularyItem{
		correct,
		item("cat", "猫", "名詞", "動物"),
		item("cow", "牛", "名詞", "動物"),
		item("bird", "鳥", "名詞", "動物"),
		item("desk", "机", "名詞", "もの"),
		item("run", "走る", "動詞", ""),
	}

	for seed := int64(0); seed < 10; seed++ {
		got := NewSelector(rand.New(rand.NewSource(seed))).Distractors(correct, pool)
		assert.ElementsMatch(t, []string{"猫", "牛", "鳥"}, meanings(got))
	}
}

func TestDistractorsFallBackToPartOfSpeech(t *testing.T) {
	correct := item("quickly", "速く", "副詞", "")
	pool := []models.VocabularyItem{
		item("today", "今日", "名詞・副詞", ""),
		item("often", "よく", "副詞", ""),
		item("slow", "遅い", "形容詞", ""),
		item("he", "彼", "代名詞", ""),
		item("go", "行く", "動詞", ""),
	}

	for seed := int64(0); seed < 10; seed++ {
		got := NewSelector(rand.New(rand.NewSource(seed))).Distractors(correct, pool)
		require.Len(t, got, DistractorCount)
		assert.ElementsMatch(t, []string{"今日", "よく"}, meanings(got[:2]))
	}
}

func TestMatchesPartOfSpeechUsesTags(t *testing.T) {
	assert.True(t, matchesPartOfSpeech("名詞", "名詞"))
	assert.True(t, matchesPartOfSpeech(" 副詞・名詞 ", "名詞"))
	assert.True(t, matchesPartOfSpeech("noun/verb", "verb"))
	assert.False(t, matchesPartOfSpeech("代名詞", "名詞"))
	assert.False(t, matchesPartOfSpeech("", "名詞"))
}

func TestDistractorsDedupeMeanings(t *testing.T) {
	correct := item("big", "大きい", "形容詞", "")
	pool := []models.VocabularyItem{
		item("large", "大きい", "形容詞", ""),
		item("huge", "巨大な", "形容詞", ""),
		item("giant", "巨大な", "形容詞", ""),
		item("small", "小さい", "形容詞", ""),
	}

	for seed := int64(0); seed < 20; seed++ {
		got := NewSelector(rand.New(rand.NewSource(seed))).Distractors(correct, pool)
		assert.ElementsMatch(t, []string{"巨大な", "小さい"}, meanings(got), "only two distinct wrong meanings exist")
	}
}

func TestDistractorsEmptyPool(t *testing.T) {
	correct := item("a", "あ", "", "")
	got := NewSelector(nil).Distractors(correct, []models.VocabularyItem{correct})
	assert.Empty(t, got)

	q := NewSelector(nil).Build(correct, nil)
	require.Len(t, q.Options, 1)
	assert.Equal(t, 0, q.CorrectIndex)
}

func TestBuildTracksCorrectIndex(t *testing.T) {
	pool := makeCatalog(20, models.Level5)
	correct := pool[3]

	positions := map[int]bool{}
	for seed := int64(0); seed < 40; seed++ {
		q := NewSelector(rand.New(rand.NewSource(seed))).Build(correct, pool)
		require.Len(t, q.Options, DistractorCount+1)

		opt := q.Options[q.CorrectIndex]
		assert.True(t, opt.Correct)
		assert.Equal(t, correct.Meaning, opt.Text)
		assert.Equal(t, correct.ID, opt.VocabularyID)

		texts := map[string]bool{}
		for i, o := range q.Options {
			assert.False(t, texts[o.Text], "duplicate option %q", o.Text)
			texts[o.Text] = true
			if i != q.CorrectIndex {
				assert.False(t, o.Correct)
			}
		}
		positions[q.CorrectIndex] = true
	}
	assert.Greater(t, len(positions), 1, "correct answer position should vary")
}

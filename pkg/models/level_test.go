package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"", Level5},
		{"2級", Level2},
		{"準2級", LevelPre2},
		{"英検準2級", LevelPre2},
		{"英検准1級", LevelPre1},
		{"英検1級", Level1},
		{"jun2kyu", LevelPre2},
		{"3KYU", Level3},
		{"all", LevelAll},
		{"全レベル", LevelAll},
		{"nonsense", Level5},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestLevelMatches(t *testing.T) {
	assert.True(t, LevelAll.Matches(Level3))
	assert.True(t, Level("").Matches(Level1))
	assert.True(t, Level3.Matches(Level3))
	assert.False(t, Level3.Matches(LevelPre2))
	assert.Less(t, Level5.Rank(), Level1.Rank())
	assert.Equal(t, -1, LevelAll.Rank())
}

func TestParsePartsOfSpeech(t *testing.T) {
	tags := ParsePartsOfSpeech("名詞・副詞")
	assert.Len(t, tags, 2)
	assert.Contains(t, tags, "名詞")
	assert.Contains(t, tags, "副詞")

	tags = ParsePartsOfSpeech(" noun · adverb ")
	assert.Contains(t, tags, "noun")
	assert.Contains(t, tags, "adverb")

	assert.Empty(t, ParsePartsOfSpeech(""))
	assert.Len(t, ParsePartsOfSpeech("動詞"), 1)
}

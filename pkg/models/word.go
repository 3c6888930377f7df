package models

import "strings"

// posSeparators split compound part-of-speech strings such as "名詞・副詞"
var posSeparators = []string{"・", "·", "/", ",", "、"}

// VocabularyItem represents a catalog word with its Japanese meaning
type VocabularyItem struct {
	ID            string `json:"id" db:"id"`
	Word          string `json:"word" db:"word"`
	Meaning       string `json:"meaning_ja" db:"meaning_ja"`
	Level         Level  `json:"level" db:"level"`
	PartOfSpeech  string `json:"part_of_speech,omitempty" db:"part_of_speech"`
	Category      string `json:"category,omitempty" db:"category"`
	Pronunciation string `json:"pronunciation,omitempty" db:"pronunciation"`
	ExampleEN     string `json:"example_en,omitempty" db:"example_en"`
	ExampleJA     string `json:"example_ja,omitempty" db:"example_ja"`
}

// PartsOfSpeech returns the set of tags in the item's part-of-speech string
func (v VocabularyItem) PartsOfSpeech() map[string]struct{} {
	return ParsePartsOfSpeech(v.PartOfSpeech)
}

// ParsePartsOfSpeech splits a compound part-of-speech string into tags
func ParsePartsOfSpeech(pos string) map[string]struct{} {
	tags := make(map[string]struct{})
	parts := []string{pos}
	for _, sep := range posSeparators {
		var next []string
		for _, p := range parts {
			next = append(next, strings.Split(p, sep)...)
		}
		parts = next
	}
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags[p] = struct{}{}
		}
	}
	return tags
}

package quiz

import (
	"strings"

	"github.com/example/engcoach/pkg/models"
)

// DistractorCount is the number of wrong options per question
const DistractorCount = 3

// Option is one answer choice of a multiple-choice question
type Option struct {
	Text         string `json:"text"`
	VocabularyID string `json:"vocabulary_id"`
	Correct      bool   `json:"is_correct"`
}

// Question represents a single multiple-choice question
type Question struct {
	Item         models.VocabularyItem `json:"item"`
	Options      []Option              `json:"options"`
	CorrectIndex int                   `json:"correct_index"`
}

// Selector picks plausible wrong meanings for a question
type Selector struct {
	rnd Random
}

// NewSelector creates a selector drawing from rnd
func NewSelector(rnd Random) *Selector {
	if rnd == nil {
		rnd = NewRandom()
	}
	return &Selector{rnd: rnd}
}

// Distractors returns up to DistractorCount items from pool with distinct
// meanings, none equal to the correct meaning. Same-category candidates are
// preferred, then same part of speech, then anything else.
func (s *Selector) Distractors(correct models.VocabularyItem, pool []models.VocabularyItem) []models.VocabularyItem {
	category := strings.TrimSpace(correct.Category)
	pos := strings.TrimSpace(correct.PartOfSpeech)

	var sameCategory, samePOS, rest []models.VocabularyItem
	for _, v := range pool {
		if v.ID == correct.ID || v.Meaning == correct.Meaning {
			continue
		}
		switch {
		case category != "" && strings.TrimSpace(v.Category) == category:
			sameCategory = append(sameCategory, v)
		case pos != "" && matchesPartOfSpeech(v.PartOfSpeech, pos):
			samePOS = append(samePOS, v)
		default:
			rest = append(rest, v)
		}
	}

	picked := make([]models.VocabularyItem, 0, DistractorCount)
	seen := map[string]bool{correct.Meaning: true}
	for _, tier := range [][]models.VocabularyItem{sameCategory, samePOS, rest} {
		for _, v := range shuffled(s.rnd, tier) {
			if len(picked) == DistractorCount {
				return picked
			}
			if seen[v.Meaning] {
				continue
			}
			seen[v.Meaning] = true
			picked = append(picked, v)
		}
	}
	return picked
}

// Build creates a question for correct with options in random order
func (s *Selector) Build(correct models.VocabularyItem, pool []models.VocabularyItem) Question {
	wrong := s.Distractors(correct, pool)

	options := make([]Option, 0, len(wrong)+1)
	for _, v := range wrong {
		options = append(options, Option{Text: v.Meaning, VocabularyID: v.ID})
	}
	options = append(options, Option{Text: correct.Meaning, VocabularyID: correct.ID, Correct: true})
	correctIndex := len(options) - 1

	s.rnd.Shuffle(len(options), func(i, j int) {
		if i == correctIndex {
			correctIndex = j
		} else if j == correctIndex {
			correctIndex = i
		}
		options[i], options[j] = options[j], options[i]
	})

	return Question{Item: correct, Options: options, CorrectIndex: correctIndex}
}

// matchesPartOfSpeech reports whether a candidate tagged candidatePOS shares
// the correct item's part of speech. A compound candidate such as
// "名詞・副詞" matches "名詞" by tag, never by substring.
func matchesPartOfSpeech(candidatePOS, correctPOS string) bool {
	if strings.TrimSpace(candidatePOS) == correctPOS {
		return true
	}
	_, ok := models.ParsePartsOfSpeech(candidatePOS)[correctPOS]
	return ok
}

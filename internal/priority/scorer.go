// Package priority ranks vocabulary items by how often a learner gets them
// wrong. Scores are always recomputed from the answer history.
package priority

import (
	"math"
	"sort"

	"github.com/example/engcoach/pkg/models"
)

// ItemScore is wrong minus correct answers for one item
type ItemScore struct {
	VocabularyID string `json:"vocabulary_id"`
	Score        int    `json:"score"`
}

// Scores is a ranking produced by Score, highest first
type Scores []ItemScore

// Set returns the scored item IDs
func (s Scores) Set() map[string]bool {
	set := make(map[string]bool, len(s))
	for _, sc := range s {
		set[sc.VocabularyID] = true
	}
	return set
}

type tally struct {
	correct int
	wrong   int
}

func countAnswers(history []models.AnswerRecord, level models.Level) map[string]*tally {
	counts := make(map[string]*tally)
	for _, rec := range history {
		if !level.Matches(rec.Level) {
			continue
		}
		t, ok := counts[rec.VocabularyID]
		if !ok {
			t = &tally{}
			counts[rec.VocabularyID] = t
		}
		if rec.Correct {
			t.correct++
		} else {
			t.wrong++
		}
	}
	return counts
}

// Score returns the items that need review under the level filter. Items
// answered correctly at least as often as wrongly are left out. Ties are
// broken by ID so the order is stable.
func Score(history []models.AnswerRecord, level models.Level) Scores {
	scores := Scores{}
	for id, t := range countAnswers(history, level) {
		if s := t.wrong - t.correct; s > 0 {
			scores = append(scores, ItemScore{VocabularyID: id, Score: s})
		}
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].VocabularyID < scores[j].VocabularyID
	})
	return scores
}

// WrongWord is an item with the number of times it was missed
type WrongWord struct {
	VocabularyID string       `json:"vocabulary_id"`
	Word         string       `json:"word"`
	Meaning      string       `json:"meaning_ja"`
	Level        models.Level `json:"level"`
	WrongCount   int          `json:"wrong_count"`
}

// WrongWords counts misses per item, most missed first. Items absent from
// the catalog are skipped.
func WrongWords(history []models.AnswerRecord, catalog []models.VocabularyItem) []WrongWord {
	byID := make(map[string]models.VocabularyItem, len(catalog))
	for _, v := range catalog {
		byID[v.ID] = v
	}

	counts := make(map[string]int)
	for _, rec := range history {
		if !rec.Correct {
			counts[rec.VocabularyID]++
		}
	}

	words := []WrongWord{}
	for id, n := range counts {
		v, ok := byID[id]
		if !ok {
			continue
		}
		words = append(words, WrongWord{
			VocabularyID: id,
			Word:         v.Word,
			Meaning:      v.Meaning,
			Level:        v.Level,
			WrongCount:   n,
		})
	}
	sort.Slice(words, func(i, j int) bool {
		if words[i].WrongCount != words[j].WrongCount {
			return words[i].WrongCount > words[j].WrongCount
		}
		return words[i].VocabularyID < words[j].VocabularyID
	})
	return words
}

// ProficiencyReport is the share of a level the learner has mastered
type ProficiencyReport struct {
	Level      models.Level `json:"level"`
	Percentage int          `json:"percentage"`
	Mastered   int          `json:"mastered"`
	Total      int          `json:"total"`
}

// Proficiency counts items answered correctly more often than wrongly
// within the level, out of total catalog entries for it.
func Proficiency(history []models.AnswerRecord, total int, level models.Level) ProficiencyReport {
	report := ProficiencyReport{Level: level, Total: total}
	if total <= 0 {
		report.Total = 0
		return report
	}
	for _, t := range countAnswers(history, level) {
		if t.correct > t.wrong {
			report.Mastered++
		}
	}
	report.Percentage = int(math.Round(float64(report.Mastered) / float64(total) * 100))
	return report
}

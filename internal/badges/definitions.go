package badges

import "github.com/example/engcoach/pkg/models"

const secondsPerHour = 3600

type rule struct {
	def     models.BadgeDefinition
	qualify func(models.BadgeStats) bool
}

func quizzes(n int) func(models.BadgeStats) bool {
	return func(s models.BadgeStats) bool { return s.VocabQuizCount >= n }
}

func writings(n int) func(models.BadgeStats) bool {
	return func(s models.BadgeStats) bool { return s.WritingCount >= n }
}

func hours(n int) func(models.BadgeStats) bool {
	return func(s models.BadgeStats) bool { return s.TotalStudySeconds >= n*secondsPerHour }
}

func streakDays(n int) func(models.BadgeStats) bool {
	return func(s models.BadgeStats) bool { return s.CurrentStreak >= n }
}

// rules are checked in this order
var rules = []rule{
	{models.BadgeDefinition{Key: "account_created", Title: "アカウント開設", Description: "アカウントを作成しました", Tier: models.TierBronze},
		func(models.BadgeStats) bool { return true }},
	{models.BadgeDefinition{Key: "vocab_first", Title: "初めての単語テスト", Description: "初めて単語テストに挑戦しました", Tier: models.TierBronze},
		quizzes(1)},
	{models.BadgeDefinition{Key: "vocab_10", Title: "単語テスト10回", Description: "単語テストを10回完了しました", Tier: models.TierBronze},
		quizzes(10)},
	{models.BadgeDefinition{Key: "vocab_25", Title: "単語テスト25回", Description: "単語テストを25回完了しました", Tier: models.TierBronze},
		quizzes(25)},
	{models.BadgeDefinition{Key: "vocab_50", Title: "単語テスト50回", Description: "単語テストを50回完了しました", Tier: models.TierSilver},
		quizzes(50)},
	{models.BadgeDefinition{Key: "writing_first", Title: "初めてのライティング添削", Description: "初めてライティングを添削してもらいました", Tier: models.TierBronze},
		writings(1)},
	{models.BadgeDefinition{Key: "writing_10", Title: "ライティング添削10回", Description: "ライティング添削を10回受けました", Tier: models.TierBronze},
		writings(10)},
	{models.BadgeDefinition{Key: "writing_20", Title: "ライティング添削20回", Description: "ライティング添削を20回受けました", Tier: models.TierBronze},
		writings(20)},
	{models.BadgeDefinition{Key: "writing_30", Title: "ライティング添削30回", Description: "ライティング添削を30回受けました", Tier: models.TierSilver},
		writings(30)},
	{models.BadgeDefinition{Key: "study_1h", Title: "学習時間1時間", Description: "累計学習時間が1時間に達しました", Tier: models.TierBronze},
		hours(1)},
	{models.BadgeDefinition{Key: "study_5h", Title: "学習時間5時間", Description: "累計学習時間が5時間に達しました", Tier: models.TierBronze},
		hours(5)},
	{models.BadgeDefinition{Key: "study_10h", Title: "学習時間10時間", Description: "累計学習時間が10時間に達しました", Tier: models.TierSilver},
		hours(10)},
	{models.BadgeDefinition{Key: "study_first_day", Title: "初めての学習", Description: "1日達成！初めて学習を記録しました", Tier: models.TierBronze},
		func(s models.BadgeStats) bool { return s.HasStudied }},
	{models.BadgeDefinition{Key: "streak_3", Title: "3日間連続学習", Description: "3日連続で学習を続けました", Tier: models.TierBronze},
		streakDays(3)},
	{models.BadgeDefinition{Key: "streak_7", Title: "1週間連続学習", Description: "7日連続で学習を続けました", Tier: models.TierBronze},
		streakDays(7)},
	{models.BadgeDefinition{Key: "streak_14", Title: "2週間連続学習", Description: "14日連続で学習を続けました", Tier: models.TierSilver},
		streakDays(14)},
}

var byKey = func() map[string]*models.BadgeDefinition {
	m := make(map[string]*models.BadgeDefinition, len(rules))
	for i := range rules {
		m[rules[i].def.Key] = &rules[i].def
	}
	return m
}()

// Definitions returns the badge catalog in evaluation order
func Definitions() []models.BadgeDefinition {
	defs := make([]models.BadgeDefinition, len(rules))
	for i, r := range rules {
		defs[i] = r.def
	}
	return defs
}

// Lookup returns the definition for key
func Lookup(key string) (models.BadgeDefinition, bool) {
	def, ok := byKey[key]
	if !ok {
		return models.BadgeDefinition{}, false
	}
	return *def, true
}

// Qualifying returns the keys whose thresholds stats meet, whether or not
// they were already earned
func Qualifying(stats models.BadgeStats) []string {
	var keys []string
	for _, r := range rules {
		if r.qualify(stats) {
			keys = append(keys, r.def.Key)
		}
	}
	return keys
}

package badges

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/example/engcoach/internal/database"
	"github.com/example/engcoach/internal/logger"
	"github.com/example/engcoach/pkg/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	db, err := database.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	e := NewEvaluator(database.NewBadgeRepository(db), logger.Nop())
	e.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return e
}

func TestDefinitions(t *testing.T) {
	defs := Definitions()
	require.Len(t, defs, 16)

	keys := map[string]bool{}
	for _, d := range defs {
		assert.False(t, keys[d.Key], "duplicate key %s", d.Key)
		keys[d.Key] = true
		assert.NotEmpty(t, d.Title)
		assert.Positive(t, d.Tier.Rank())
	}

	def, ok := Lookup("streak_14")
	require.True(t, ok)
	assert.Equal(t, models.TierSilver, def.Tier)
	_, ok = Lookup("nope")
	assert.False(t, ok)
}

func TestQualifying(t *testing.T) {
	tests := []struct {
		name  string
		stats models.BadgeStats
		want  []string
	}{
		{"new account", models.BadgeStats{}, []string{"account_created"}},
		{"nine quizzes", models.BadgeStats{VocabQuizCount: 9, HasStudied: true},
			[]string{"account_created", "vocab_first", "study_first_day"}},
		{"tenth quiz", models.BadgeStats{VocabQuizCount: 10, HasStudied: true},
			[]string{"account_created", "vocab_first", "vocab_10", "study_first_day"}},
		{"just under an hour", models.BadgeStats{TotalStudySeconds: 3599}, []string{"account_created"}},
		{"one hour", models.BadgeStats{TotalStudySeconds: 3600}, []string{"account_created", "study_1h"}},
		{"writing and streak", models.BadgeStats{WritingCount: 20, CurrentStreak: 7},
			[]string{"account_created", "writing_first", "writing_10", "writing_20", "streak_3", "streak_7"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Qualifying(tt.stats))
		})
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	e := newEvaluator(t)
	stats := models.BadgeStats{VocabQuizCount: 1, HasStudied: true, TotalStudySeconds: 120, CurrentStreak: 1}

	first, err := e.Evaluate(ctx, "u1", stats)
	require.NoError(t, err)
	assert.Equal(t, []string{"account_created", "vocab_first", "study_first_day"}, first)

	second, err := e.Evaluate(ctx, "u1", stats)
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestEvaluateVocabTenThreshold(t *testing.T) {
	ctx := context.Background()
	e := newEvaluator(t)

	for n := 1; n <= 10; n++ {
		got, err := e.Evaluate(ctx, "u1", models.BadgeStats{VocabQuizCount: n, HasStudied: true})
		require.NoError(t, err)
		if n < 10 {
			assert.NotContains(t, got, "vocab_10", "quiz %d", n)
		} else {
			assert.Equal(t, []string{"vocab_10"}, got)
		}
	}
}

func TestEvaluateConcurrentCallsAwardOnce(t *testing.T) {
	ctx := context.Background()
	e := newEvaluator(t)
	stats := models.BadgeStats{VocabQuizCount: 10, HasStudied: true}

	var (
		mu  sync.Mutex
		all []string
		wg  sync.WaitGroup
	)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := e.Evaluate(ctx, "u1", stats)
			assert.NoError(t, err)
			mu.Lock()
			all = append(all, got...)
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.ElementsMatch(t, []string{"account_created", "vocab_first", "vocab_10", "study_first_day"}, all)
}

// flakyStore fails inserts for one key and reads of the earned set
type flakyStore struct {
	Store
	failKey  string
	inserted map[string]bool
}

func (s *flakyStore) EarnedKeys(context.Context, string) (map[string]bool, error) {
	return nil, errors.New("timeout")
}

func (s *flakyStore) InsertIfAbsent(_ context.Context, _, key string, _ time.Time) (bool, error) {
	if key == s.failKey {
		return false, errors.New("transient")
	}
	if s.inserted[key] {
		return false, nil
	}
	s.inserted[key] = true
	return true, nil
}

func TestEvaluateSkipsFailedBadges(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	store := &flakyStore{failKey: "vocab_first", inserted: map[string]bool{"account_created": true}}
	e := NewEvaluator(store, &logger.Logger{SugaredLogger: zap.New(core).Sugar()})

	got, err := e.Evaluate(context.Background(), "u1", models.BadgeStats{VocabQuizCount: 1, HasStudied: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"study_first_day"}, got, "existing row is not re-emitted, failed key is skipped")
	assert.Equal(t, 2, logs.Len())
}

func TestEvaluateRequiresLearner(t *testing.T) {
	_, err := newEvaluator(t).Evaluate(context.Background(), "", models.BadgeStats{})
	assert.Error(t, err)
}

func TestNoticeFlow(t *testing.T) {
	ctx := context.Background()
	e := newEvaluator(t)

	none, err := e.NextUnshown(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = e.Evaluate(ctx, "u1", models.BadgeStats{})
	require.NoError(t, err)

	b, err := e.NextUnshown(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "account_created", b.BadgeKey)
	require.NotNil(t, b.Def)
	assert.Equal(t, "アカウント開設", b.Def.Title)

	require.NoError(t, e.MarkShown(ctx, "u1", b.BadgeKey))
	b, err = e.NextUnshown(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, b)

	list, err := e.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Shown)
	assert.NotNil(t, list[0].Def)
}

package streak

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
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDay(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// 23:30 UTC on Mar 1 is already Mar 2 in Tokyo
	at := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-01", Day(at, time.UTC).Format(models.DateLayout))
	assert.Equal(t, "2026-03-02", Day(at, tokyo).Format(models.DateLayout))
	assert.Equal(t, Day(at, nil), Day(at, time.UTC))
}

func TestAdvanceSequence(t *testing.T) {
	var rec *models.StreakRecord
	steps := []struct {
		day     time.Time
		current int
		longest int
		changed bool
	}{
		{date(2026, 3, 1), 1, 1, true},
		{date(2026, 3, 2), 2, 2, true},
		{date(2026, 3, 3), 3, 3, true},
		{date(2026, 3, 3), 3, 3, false},
		{date(2026, 3, 5), 1, 3, true},
		{date(2026, 3, 6), 2, 3, true},
	}
	for _, s := range steps {
		next, changed := Advance(rec, "u1", s.day)
		assert.Equal(t, s.changed, changed, s.day)
		assert.Equal(t, s.current, next.Current, s.day)
		assert.Equal(t, s.longest, next.Longest, s.day)
		assert.Equal(t, s.day.Format(models.DateLayout), next.LastActiveDate)
		assert.LessOrEqual(t, next.Current, next.Longest)
		rec = &next
	}
}

func TestAdvanceEdgeCases(t *testing.T) {
	today := date(2026, 3, 10)

	future := &models.StreakRecord{LearnerID: "u1", Current: 2, Longest: 4, LastActiveDate: "2026-03-11"}
	next, changed := Advance(future, "u1", today)
	assert.False(t, changed)
	assert.Equal(t, *future, next)

	broken := &models.StreakRecord{LearnerID: "u1", Current: 5, Longest: 5, LastActiveDate: "garbage"}
	next, changed = Advance(broken, "u1", today)
	assert.True(t, changed)
	assert.Equal(t, 1, next.Current)
	assert.Equal(t, 5, next.Longest)

	// time of day does not matter
	next, _ = Advance(&models.StreakRecord{Current: 1, Longest: 1, LastActiveDate: "2026-03-09"}, "u1", today.Add(23*time.Hour))
	assert.Equal(t, 2, next.Current)
}

func TestAdvanceAcrossMonthAndDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	rec := &models.StreakRecord{Current: 3, Longest: 3, LastActiveDate: "2026-03-07"}
	// DST starts on 2026-03-08 in New York; that day has 23 hours
	next, _ := Advance(rec, "u1", Day(time.Date(2026, 3, 8, 22, 0, 0, 0, ny), ny))
	assert.Equal(t, 4, next.Current)

	rec = &models.StreakRecord{Current: 1, Longest: 1, LastActiveDate: "2026-02-28"}
	next, _ = Advance(rec, "u1", date(2026, 3, 1))
	assert.Equal(t, 2, next.Current)
}

func newTracker(t *testing.T) *Tracker {
	t.Helper()
	db, err := database.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewTracker(database.NewStreakRepository(db), time.UTC, logger.Nop())
}

func TestTrackerTouch(t *testing.T) {
	ctx := context.Background()
	tr := newTracker(t)

	empty, err := tr.Current(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Current)

	for i, want := range []int{1, 2, 3} {
		rec, err := tr.Touch(ctx, "u1", date(2026, 3, 1+i).Add(9*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, want, rec.Current)
		assert.Equal(t, want, rec.Longest)
	}

	again, err := tr.Touch(ctx, "u1", date(2026, 3, 3).Add(20*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 3, again.Current)

	gap, err := tr.Touch(ctx, "u1", date(2026, 3, 5))
	require.NoError(t, err)
	assert.Equal(t, 1, gap.Current)
	assert.Equal(t, 3, gap.Longest)

	stored, err := tr.Current(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, gap, stored)
}

func TestTrackerConcurrentFirstActivity(t *testing.T) {
	ctx := context.Background()
	tr := newTracker(t)

	_, err := tr.Touch(ctx, "u1", date(2026, 3, 1))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tr.Touch(ctx, "u1", date(2026, 3, 2).Add(time.Hour))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rec, err := tr.Current(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Current, "a day is counted once")
}

// racingStore loses the first write to a competing update
type racingStore struct {
	rec   *models.StreakRecord
	raced bool
}

func (s *racingStore) Get(_ context.Context, _ string) (*models.StreakRecord, error) {
	if s.rec == nil {
		return nil, errors.Wrap(database.ErrNotFound, "streak")
	}
	r := *s.rec
	return &r, nil
}

func (s *racingStore) Insert(_ context.Context, rec models.StreakRecord) (bool, error) {
	if s.rec != nil {
		return false, nil
	}
	s.rec = &rec
	return true, nil
}

func (s *racingStore) CompareAndSwap(_ context.Context, expected string, rec models.StreakRecord) (bool, error) {
	if !s.raced {
		s.raced = true
		// another request already counted today
		winner := rec
		s.rec = &winner
		return false, nil
	}
	if s.rec.LastActiveDate != expected {
		return false, nil
	}
	s.rec = &rec
	return true, nil
}

func TestTrackerRetriesAfterLostRace(t *testing.T) {
	store := &racingStore{rec: &models.StreakRecord{LearnerID: "u1", Current: 4, Longest: 6, LastActiveDate: "2026-03-01"}}
	tr := NewTracker(store, time.UTC, nil)

	rec, err := tr.Touch(context.Background(), "u1", date(2026, 3, 2))
	require.NoError(t, err)
	assert.Equal(t, 5, rec.Current, "the reload sees today already counted")
	assert.Equal(t, 5, store.rec.Current)
}

type failingStore struct{ racingStore }

func (s *failingStore) CompareAndSwap(context.Context, string, models.StreakRecord) (bool, error) {
	return false, nil
}

func TestTrackerGivesUp(t *testing.T) {
	store := &failingStore{racingStore{rec: &models.StreakRecord{LearnerID: "u1", Current: 1, Longest: 1, LastActiveDate: "2026-03-01"}}}
	tr := NewTracker(store, time.UTC, nil)

	_, err := tr.Touch(context.Background(), "u1", date(2026, 3, 2))
	assert.True(t, errors.Is(err, ErrConflict))
}

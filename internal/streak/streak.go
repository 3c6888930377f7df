// Package streak tracks consecutive days of study per learner
package streak

import (
	"context"
	"time"

	"github.com/example/engcoach/internal/database"
	"github.com/example/engcoach/internal/logger"
	"github.com/example/engcoach/pkg/models"
	"github.com/pkg/errors"
)

// maxAttempts bounds reload-and-retry after losing an update race
const maxAttempts = 3

// ErrConflict is returned when concurrent updates kept winning
var ErrConflict = errors.New("streak update conflict")

// Day returns midnight of t's calendar day in loc
func Day(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// Advance applies one day of activity to prev. It reports false when the
// record is unchanged because today was already counted.
//
// A last-active date after today is treated as already counted. An
// unparseable date is treated as a gap.
func Advance(prev *models.StreakRecord, learnerID string, today time.Time) (models.StreakRecord, bool) {
	today = Day(today, today.Location())
	todayStr := today.Format(models.DateLayout)
	if prev == nil {
		return models.StreakRecord{LearnerID: learnerID, Current: 1, Longest: 1, LastActiveDate: todayStr}, true
	}

	next := *prev
	next.LearnerID = learnerID
	last, err := prev.LastActive(today.Location())
	switch {
	case err == nil && !last.Before(today):
		return *prev, false
	case err == nil && last.Equal(today.AddDate(0, 0, -1)):
		next.Current++
	default:
		next.Current = 1
	}
	if next.Current > next.Longest {
		next.Longest = next.Current
	}
	next.LastActiveDate = todayStr
	return next, true
}

// Store persists streak records. Get returns database.ErrNotFound for a
// learner without one.
type Store interface {
	Get(ctx context.Context, learnerID string) (*models.StreakRecord, error)
	Insert(ctx context.Context, rec models.StreakRecord) (bool, error)
	CompareAndSwap(ctx context.Context, expectedLastActive string, rec models.StreakRecord) (bool, error)
}

// Tracker applies activity to stored streaks
type Tracker struct {
	store Store
	loc   *time.Location
	log   *logger.Logger
}

// NewTracker creates a tracker counting days in loc
func NewTracker(store Store, loc *time.Location, log *logger.Logger) *Tracker {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Tracker{store: store, loc: loc, log: log}
}

// Touch counts activity at now. Writes are guarded by the stored
// last-active date so two first-of-the-day calls cannot both increment.
func (t *Tracker) Touch(ctx context.Context, learnerID string, now time.Time) (models.StreakRecord, error) {
	today := Day(now, t.loc)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		prev, err := t.load(ctx, learnerID)
		if err != nil {
			return models.StreakRecord{}, err
		}

		next, changed := Advance(prev, learnerID, today)
		if !changed {
			return next, nil
		}

		var won bool
		if prev == nil {
			won, err = t.store.Insert(ctx, next)
		} else {
			won, err = t.store.CompareAndSwap(ctx, prev.LastActiveDate, next)
		}
		if err != nil {
			return models.StreakRecord{}, errors.Wrap(err, "failed to save streak")
		}
		if won {
			return next, nil
		}
		t.log.Debug("streak update lost race, retrying", "learner", learnerID, "attempt", attempt)
	}
	return models.StreakRecord{}, errors.Wrapf(ErrConflict, "learner %s", learnerID)
}

// Current returns the stored streak, or a zero record for a new learner
func (t *Tracker) Current(ctx context.Context, learnerID string) (models.StreakRecord, error) {
	rec, err := t.load(ctx, learnerID)
	if err != nil {
		return models.StreakRecord{}, err
	}
	if rec == nil {
		return models.StreakRecord{LearnerID: learnerID}, nil
	}
	return *rec, nil
}

func (t *Tracker) load(ctx context.Context, learnerID string) (*models.StreakRecord, error) {
	rec, err := t.store.Get(ctx, learnerID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load streak")
	}
	return rec, nil
}

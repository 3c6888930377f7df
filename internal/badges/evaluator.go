// Package badges awards achievements from aggregate study statistics
package badges

import (
	"context"
	"time"

	"github.com/example/engcoach/internal/database"
	"github.com/example/engcoach/internal/logger"
	"github.com/example/engcoach/pkg/models"
	"github.com/pkg/errors"
)

// Store persists earned badges. InsertIfAbsent reports whether the call
// created the row.
type Store interface {
	EarnedKeys(ctx context.Context, learnerID string) (map[string]bool, error)
	InsertIfAbsent(ctx context.Context, learnerID, badgeKey string, earnedAt time.Time) (bool, error)
	List(ctx context.Context, learnerID string) ([]models.EarnedBadge, error)
	NextUnshown(ctx context.Context, learnerID string) (*models.EarnedBadge, error)
	MarkShown(ctx context.Context, learnerID, badgeKey string) error
}

// Evaluator unlocks badges for a learner
type Evaluator struct {
	store Store
	log   *logger.Logger
	now   func() time.Time
}

// NewEvaluator creates an evaluator
func NewEvaluator(store Store, log *logger.Logger) *Evaluator {
	if log == nil {
		log = logger.Nop()
	}
	return &Evaluator{store: store, log: log, now: time.Now}
}

// Evaluate awards every qualifying badge the learner lacks and returns the
// keys this call newly earned. A badge counts as new only if this call's
// insert created it. Failures on a single badge are logged and skipped.
func (e *Evaluator) Evaluate(ctx context.Context, learnerID string, stats models.BadgeStats) ([]string, error) {
	if learnerID == "" {
		return nil, errors.New("learner ID is required")
	}

	earned, err := e.store.EarnedKeys(ctx, learnerID)
	if err != nil {
		// the insert still guards against duplicates
		e.log.Warn("failed to read earned badges", "learner", learnerID, "error", err)
		earned = map[string]bool{}
	}

	newly := []string{}
	now := e.now()
	for _, key := range Qualifying(stats) {
		if earned[key] {
			continue
		}
		created, err := e.store.InsertIfAbsent(ctx, learnerID, key, now)
		if err != nil {
			if ctx.Err() != nil {
				return newly, errors.Wrap(ctx.Err(), "badge evaluation interrupted")
			}
			e.log.Warn("failed to award badge", "learner", learnerID, "badge", key, "error", err)
			continue
		}
		if created {
			newly = append(newly, key)
			e.log.Info("badge earned", "learner", learnerID, "badge", key)
		}
	}
	return newly, nil
}

// List returns the learner's badges with their definitions, newest first
func (e *Evaluator) List(ctx context.Context, learnerID string) ([]models.EarnedBadge, error) {
	list, err := e.store.List(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Def = definition(list[i].BadgeKey)
	}
	return list, nil
}

// NextUnshown returns the newest badge whose notice has not been shown, or
// nil when there is none
func (e *Evaluator) NextUnshown(ctx context.Context, learnerID string) (*models.EarnedBadge, error) {
	b, err := e.store.NextUnshown(ctx, learnerID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	b.Def = definition(b.BadgeKey)
	return b, nil
}

func definition(key string) *models.BadgeDefinition {
	if def, ok := Lookup(key); ok {
		return &def
	}
	return nil
}

// MarkShown records that the badge notice was displayed
func (e *Evaluator) MarkShown(ctx context.Context, learnerID, badgeKey string) error {
	return e.store.MarkShown(ctx, learnerID, badgeKey)
}

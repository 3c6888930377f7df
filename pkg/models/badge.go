package models

import "time"

// BadgeTier is a purely descriptive prestige class
type BadgeTier string

const (
	TierBronze BadgeTier = "bronze"
	TierSilver BadgeTier = "silver"
	TierGold   BadgeTier = "gold"
)

// Rank orders tiers bronze < silver < gold
func (t BadgeTier) Rank() int {
	switch t {
	case TierBronze:
		return 1
	case TierSilver:
		return 2
	case TierGold:
		return 3
	}
	return 0
}

// BadgeDefinition is a static catalog entry
type BadgeDefinition struct {
	Key         string    `json:"key"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tier        BadgeTier `json:"tier"`
}

// EarnedBadge is unique per (learner, badge key)
type EarnedBadge struct {
	LearnerID string           `json:"user_id" db:"user_id"`
	BadgeKey  string           `json:"badge_key" db:"badge_key"`
	EarnedAt  time.Time        `json:"earned_at" db:"earned_at"`
	Shown     bool             `json:"popup_shown" db:"popup_shown"`
	Def       *BadgeDefinition `json:"def,omitempty" db:"-"`
}

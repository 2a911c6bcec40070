package models

import "time"

// Achievement unlock condition kinds. The threshold is compared against the
// statistic the kind names, using >=.
const (
	ConditionStreak    = "streak"
	ConditionSessions  = "sessions"
	ConditionXP        = "xp"
	ConditionQuizScore = "quiz_score"
	ConditionCombo     = "combo"
)

// Achievement display tiers.
const (
	TierBronze   = "bronze"
	TierSilver   = "silver"
	TierGold     = "gold"
	TierPlatinum = "platinum"
)

// Achievement is an admin-seeded definition. Immutable once referenced by an
// unlock record except via administrative edit.
type Achievement struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Condition   string    `json:"condition"`
	Threshold   int       `json:"threshold"`
	XPReward    int       `json:"xp_reward"`
	Tier        string    `json:"tier"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserAchievement records a one-time unlock. An achievement ID appears at
// most once per user.
type UserAchievement struct {
	AchievementID int64        `json:"achievement_id"`
	UnlockedAt    time.Time    `json:"unlocked_at"`
	Achievement   *Achievement `json:"achievement,omitempty"`
}

type AchievementCheckResponse struct {
	Message       string            `json:"message"`
	NewlyUnlocked int               `json:"newly_unlocked"`
	Achievements  []UserAchievement `json:"achievements"`
}

package models

import "time"

// Reward ledger entry types. Entries are append-only; corrections are
// modeled as new offsetting entries, never in-place edits.
const (
	RewardDailyLogin      = "daily_login"
	RewardQuizComplete    = "quiz_complete"
	RewardSessionComplete = "session_complete"
	RewardAchievement     = "achievement"
	RewardComboBonus      = "combo_bonus"
	RewardStreakBonus     = "streak_bonus"
	RewardSpeedBonus      = "speed_bonus"
	RewardAccuracyBonus   = "accuracy_bonus"
	RewardDifficultyBonus = "difficulty_bonus"
	RewardManual          = "manual"
	RewardEventBonus      = "event_bonus"
)

type RewardEntry struct {
	ID          int64                  `json:"id"`
	UserID      int64                  `json:"user_id"`
	Amount      int                    `json:"amount"`
	Type        string                 `json:"type"`
	Description string                 `json:"description"`
	Detail      map[string]interface{} `json:"detail,omitempty"`
	CreatedAt   time.Time              `json:"timestamp"`
}

// ── Request Types ─────────────────────────────────────────

type ManualRewardRequest struct {
	UserID      int64  `json:"user_id"`
	Amount      int    `json:"amount"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

// ── Response Types ────────────────────────────────────────

type RewardSummaryResponse struct {
	TotalXP       int64             `json:"total_xp"`
	Level         int               `json:"level"`
	LevelProgress float64           `json:"level_progress"`
	DailyStreak   int               `json:"daily_streak"`
	Coins         int               `json:"coins"`
	Achievements  []UserAchievement `json:"achievements"`
	RecentRewards []RewardEntry     `json:"recent_rewards"`
}

type DailyLoginResponse struct {
	Message        string `json:"message"`
	AlreadyClaimed bool   `json:"already_claimed"`
	XPEarned       int    `json:"xp_earned,omitempty"`
	Streak         int    `json:"streak"`
	TotalXP        int64  `json:"total_xp"`
}

type RewardHistoryResponse struct {
	Rewards []RewardEntry `json:"rewards"`
	Total   int           `json:"total"`
	Limit   int           `json:"limit"`
	Offset  int           `json:"offset"`
}

type CompletionRewards struct {
	XPGained        int  `json:"xp_gained"`
	NewTotalXP      int64 `json:"new_total_xp"`
	NewLevel        int  `json:"new_level"`
	LeveledUp       bool `json:"leveled_up"`
	DailyStreak     int  `json:"daily_streak"`
	StreakIncreased bool `json:"streak_increased"`
}

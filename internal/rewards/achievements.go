package rewards

import "github.com/studyquest/backend/internal/models"

// Stats are the aggregated lifetime statistics achievement conditions are
// evaluated against. DailyStreak and TotalXP come from the just-updated user
// aggregate; the rest are derived from completion records.
type Stats struct {
	SuccessfulSessions int
	MaxCombo           int
	MaxQuizScore       int
	DailyStreak        int
	TotalXP            int64
}

// Evaluate returns the achievement definitions newly satisfied by stats.
// Definitions already in unlocked are skipped unconditionally, which keeps
// evaluation idempotent under replay. Conditions compare stat >= threshold.
func Evaluate(defs []models.Achievement, unlocked map[int64]bool, stats Stats) []models.Achievement {
	var earned []models.Achievement

	for _, def := range defs {
		if unlocked[def.ID] {
			continue
		}

		satisfied := false
		switch def.Condition {
		case models.ConditionStreak:
			satisfied = stats.DailyStreak >= def.Threshold
		case models.ConditionSessions:
			satisfied = stats.SuccessfulSessions >= def.Threshold
		case models.ConditionXP:
			satisfied = stats.TotalXP >= int64(def.Threshold)
		case models.ConditionCombo:
			satisfied = stats.MaxCombo >= def.Threshold
		case models.ConditionQuizScore:
			satisfied = stats.MaxQuizScore >= def.Threshold
		}

		if satisfied {
			earned = append(earned, def)
		}
	}

	return earned
}

// SeedAchievements is the default achievement set installed by the admin
// seed endpoint.
var SeedAchievements = []models.Achievement{
	{Name: "First Steps", Description: "Complete your first study session", Icon: "🎯", Condition: models.ConditionSessions, Threshold: 1, XPReward: 50, Tier: models.TierBronze},
	{Name: "Dedicated Student", Description: "Complete 10 study sessions", Icon: "📚", Condition: models.ConditionSessions, Threshold: 10, XPReward: 200, Tier: models.TierSilver},
	{Name: "Study Master", Description: "Complete 50 study sessions", Icon: "🏆", Condition: models.ConditionSessions, Threshold: 50, XPReward: 1000, Tier: models.TierGold},
	{Name: "Streak Beginner", Description: "Maintain a 3-day study streak", Icon: "🔥", Condition: models.ConditionStreak, Threshold: 3, XPReward: 100, Tier: models.TierBronze},
	{Name: "Streak Warrior", Description: "Maintain a 7-day study streak", Icon: "⚡", Condition: models.ConditionStreak, Threshold: 7, XPReward: 300, Tier: models.TierSilver},
	{Name: "Streak Legend", Description: "Maintain a 30-day study streak", Icon: "💎", Condition: models.ConditionStreak, Threshold: 30, XPReward: 1500, Tier: models.TierPlatinum},
	{Name: "Combo Starter", Description: "Achieve a 5-question combo streak", Icon: "🎯", Condition: models.ConditionCombo, Threshold: 5, XPReward: 100, Tier: models.TierBronze},
	{Name: "Combo Expert", Description: "Achieve a 10-question combo streak", Icon: "🌟", Condition: models.ConditionCombo, Threshold: 10, XPReward: 300, Tier: models.TierGold},
	{Name: "XP Collector", Description: "Earn 1000 total XP", Icon: "💰", Condition: models.ConditionXP, Threshold: 1000, XPReward: 200, Tier: models.TierSilver},
	{Name: "XP Master", Description: "Earn 10000 total XP", Icon: "👑", Condition: models.ConditionXP, Threshold: 10000, XPReward: 2000, Tier: models.TierPlatinum},
}

package rewards

import (
	"testing"

	"github.com/studyquest/backend/internal/models"
)

func testDefs() []models.Achievement {
	return []models.Achievement{
		{ID: 1, Name: "First Steps", Condition: models.ConditionSessions, Threshold: 1, XPReward: 50},
		{ID: 2, Name: "Dedicated", Condition: models.ConditionSessions, Threshold: 10, XPReward: 200},
		{ID: 3, Name: "Streak Beginner", Condition: models.ConditionStreak, Threshold: 3, XPReward: 100},
		{ID: 4, Name: "Combo Starter", Condition: models.ConditionCombo, Threshold: 5, XPReward: 100},
		{ID: 5, Name: "XP Collector", Condition: models.ConditionXP, Threshold: 1000, XPReward: 200},
		{ID: 6, Name: "Perfect Score", Condition: models.ConditionQuizScore, Threshold: 10, XPReward: 150},
	}
}

func names(defs []models.Achievement) []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.Name
	}
	return out
}

func TestEvaluateConditions(t *testing.T) {
	tests := []struct {
		name  string
		stats Stats
		want  []string
	}{
		{"nothing yet", Stats{}, nil},
		{"one session", Stats{SuccessfulSessions: 1}, []string{"First Steps"}},
		{"at streak threshold", Stats{DailyStreak: 3}, []string{"Streak Beginner"}},
		{"below streak threshold", Stats{DailyStreak: 2}, nil},
		{"combo", Stats{MaxCombo: 7}, []string{"Combo Starter"}},
		{"xp", Stats{TotalXP: 1500}, []string{"XP Collector"}},
		{"quiz score", Stats{MaxQuizScore: 10}, []string{"Perfect Score"}},
		{
			"several at once",
			Stats{SuccessfulSessions: 12, DailyStreak: 5, TotalXP: 2000},
			[]string{"First Steps", "Dedicated", "Streak Beginner", "XP Collector"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(testDefs(), map[int64]bool{}, tt.stats)
			if len(got) != len(tt.want) {
				t.Fatalf("Evaluate = %v, want %v", names(got), tt.want)
			}
			for i, name := range tt.want {
				if got[i].Name != name {
					t.Errorf("Evaluate[%d] = %q, want %q", i, got[i].Name, name)
				}
			}
		})
	}
}

func TestEvaluateSkipsUnlocked(t *testing.T) {
	stats := Stats{SuccessfulSessions: 12}
	unlocked := map[int64]bool{1: true}

	got := Evaluate(testDefs(), unlocked, stats)
	if len(got) != 1 || got[0].Name != "Dedicated" {
		t.Errorf("Evaluate with ID 1 unlocked = %v, want [Dedicated]", names(got))
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	// Re-running with everything already unlocked yields nothing, no matter
	// how large the stats grow.
	stats := Stats{SuccessfulSessions: 100, DailyStreak: 50, MaxCombo: 20, MaxQuizScore: 10, TotalXP: 50000}
	unlocked := map[int64]bool{}
	for _, def := range Evaluate(testDefs(), unlocked, stats) {
		unlocked[def.ID] = true
	}

	if got := Evaluate(testDefs(), unlocked, stats); len(got) != 0 {
		t.Errorf("second Evaluate returned %v, want none", names(got))
	}
}

func TestEvaluateMonotonic(t *testing.T) {
	// Growing stats never lose a previously satisfied achievement.
	small := Stats{SuccessfulSessions: 1, TotalXP: 1000}
	large := Stats{SuccessfulSessions: 20, TotalXP: 5000, DailyStreak: 7}

	smallSet := map[string]bool{}
	for _, def := range Evaluate(testDefs(), map[int64]bool{}, small) {
		smallSet[def.Name] = true
	}

	largeSet := map[string]bool{}
	for _, def := range Evaluate(testDefs(), map[int64]bool{}, large) {
		largeSet[def.Name] = true
	}

	for name := range smallSet {
		if !largeSet[name] {
			t.Errorf("achievement %q satisfied by smaller stats but not larger", name)
		}
	}
}

package sessions

import (
	"testing"

	"github.com/studyquest/backend/internal/models"
)

func TestProgressInSync(t *testing.T) {
	user := &models.User{TotalXP: 250, Level: 2, DailyStreak: 4}

	tests := []struct {
		name string
		req  models.SyncProgressRequest
		want bool
	}{
		{"matching client", models.SyncProgressRequest{TotalXP: 250, Level: 2, DailyStreak: 4}, true},
		{"stale XP", models.SyncProgressRequest{TotalXP: 200, Level: 2, DailyStreak: 4}, false},
		{"stale level", models.SyncProgressRequest{TotalXP: 250, Level: 1, DailyStreak: 4}, false},
		{"stale streak", models.SyncProgressRequest{TotalXP: 250, Level: 2, DailyStreak: 3}, false},
		// Inflated client values never get written; they just report drift.
		{"inflated client", models.SyncProgressRequest{TotalXP: 99999, Level: 30, DailyStreak: 365}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ProgressInSync(tt.req, user); got != tt.want {
				t.Errorf("ProgressInSync = %v, want %v", got, tt.want)
			}
		})
	}

	// TotalStudyTime is informational only and never affects sync state.
	req := models.SyncProgressRequest{TotalXP: 250, Level: 2, DailyStreak: 4, TotalStudyTime: 123456}
	if !ProgressInSync(req, user) {
		t.Error("TotalStudyTime mismatch should not count as drift")
	}
}

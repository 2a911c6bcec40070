package rewards

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

func TestAdvanceStreak(t *testing.T) {
	now := date(2026, 3, 10, 14)

	tests := []struct {
		name        string
		last        *time.Time
		current     int
		wantStreak  int
		wantExt     bool
		wantAlready bool
	}{
		{"first ever event", nil, 0, 1, true, false},
		{"same day", ptr(date(2026, 3, 10, 2)), 4, 4, false, true},
		{"consecutive day", ptr(date(2026, 3, 9, 23)), 4, 5, true, false},
		{"two day gap", ptr(date(2026, 3, 8, 10)), 4, 1, false, false},
		{"long gap", ptr(date(2026, 2, 1, 10)), 30, 1, false, false},
		{"backdated event", ptr(date(2026, 3, 12, 10)), 4, 4, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AdvanceStreak(tt.last, now, tt.current)
			if got.Streak != tt.wantStreak {
				t.Errorf("Streak = %d, want %d", got.Streak, tt.wantStreak)
			}
			if got.Extended != tt.wantExt {
				t.Errorf("Extended = %v, want %v", got.Extended, tt.wantExt)
			}
			if got.AlreadyToday != tt.wantAlready {
				t.Errorf("AlreadyToday = %v, want %v", got.AlreadyToday, tt.wantAlready)
			}
		})
	}
}

func TestAdvanceStreakMidnightBoundary(t *testing.T) {
	// 23:59 yesterday then 00:01 today is a consecutive-day extension even
	// though barely two minutes passed.
	last := date(2026, 3, 9, 23).Add(59 * time.Minute)
	now := date(2026, 3, 10, 0).Add(time.Minute)

	got := AdvanceStreak(&last, now, 2)
	if got.Streak != 3 || !got.Extended {
		t.Errorf("AdvanceStreak across midnight = %+v, want streak 3 extended", got)
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		a, b time.Time
		want int
	}{
		{date(2026, 3, 10, 1), date(2026, 3, 10, 23), 0},
		{date(2026, 3, 9, 23), date(2026, 3, 10, 1), 1},
		{date(2026, 3, 1, 12), date(2026, 3, 10, 12), 9},
		{date(2026, 3, 10, 1), date(2026, 3, 9, 23), -1},
	}

	for _, tt := range tests {
		got := DaysBetween(tt.a, tt.b)
		if got != tt.want {
			t.Errorf("DaysBetween(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func ptr(t time.Time) *time.Time { return &t }

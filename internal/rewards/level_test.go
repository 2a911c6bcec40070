package rewards

import "testing"

func TestLevel(t *testing.T) {
	tests := []struct {
		totalXP int64
		want    int
	}{
		{0, 1},
		{50, 1},
		{99, 1},
		{100, 2},
		{399, 2},
		{400, 3},
		{900, 4},
		{10000, 11},
		{-50, 1}, // negative totals clamp to level 1
	}

	for _, tt := range tests {
		got := Level(tt.totalXP)
		if got != tt.want {
			t.Errorf("Level(%d) = %d, want %d", tt.totalXP, got, tt.want)
		}
	}
}

func TestLevelMonotonic(t *testing.T) {
	prev := Level(0)
	for xp := int64(0); xp <= 20000; xp += 37 {
		got := Level(xp)
		if got < prev {
			t.Fatalf("Level(%d) = %d dropped below previous %d", xp, got, prev)
		}
		prev = got
	}
}

func TestLevelProgress(t *testing.T) {
	// Exactly at a level floor → 0
	got := LevelProgress(100, Level(100))
	if got != 0 {
		t.Errorf("LevelProgress(100) = %f, want 0", got)
	}

	// Halfway through level 1 (floor 0, ceiling 100)
	got = LevelProgress(50, Level(50))
	if got != 0.5 {
		t.Errorf("LevelProgress(50) = %f, want 0.5", got)
	}

	// Always within [0, 1]
	for xp := int64(0); xp <= 5000; xp += 13 {
		p := LevelProgress(xp, Level(xp))
		if p < 0 || p > 1 {
			t.Fatalf("LevelProgress(%d) = %f outside [0, 1]", xp, p)
		}
	}
}

func TestEarnedXP(t *testing.T) {
	tests := []struct {
		base, bonus, combo int
		want               int
	}{
		{50, 0, 0, 50},
		{50, 0, 3, 80},
		{50, 10, 3, 90},
		{0, 0, 0, 0},
		{20, 0, 0, 20},
		{50, 0, -2, 50}, // negative combo contributes nothing
	}

	for _, tt := range tests {
		got := EarnedXP(tt.base, tt.bonus, tt.combo)
		if got != tt.want {
			t.Errorf("EarnedXP(%d, %d, %d) = %d, want %d", tt.base, tt.bonus, tt.combo, got, tt.want)
		}
	}
}

func TestDailyLoginXP(t *testing.T) {
	// First ever claim: base only
	if got := DailyLoginXP(1, false); got != 25 {
		t.Errorf("DailyLoginXP(1, false) = %d, want 25", got)
	}

	// Extended streak adds 5 per day of streak
	if got := DailyLoginXP(4, true); got != 45 {
		t.Errorf("DailyLoginXP(4, true) = %d, want 45", got)
	}

	// Reset streak: back to base
	if got := DailyLoginXP(1, false); got != 25 {
		t.Errorf("DailyLoginXP(1, false) = %d, want 25", got)
	}
}

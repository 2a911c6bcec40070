package rewards

import "math"

// Level maps cumulative XP to a level number: floor(sqrt(totalXP/100)) + 1.
// XP cost per level grows quadratically — level 2 at 100 XP, level 3 at 400,
// level 4 at 900.
func Level(totalXP int64) int {
	if totalXP < 0 {
		totalXP = 0
	}
	return int(math.Floor(math.Sqrt(float64(totalXP)/100))) + 1
}

// LevelProgress returns the fractional progress from the given level's XP
// floor toward the next level, clamped to [0, 1].
func LevelProgress(totalXP int64, level int) float64 {
	xpFloor := float64(level-1) * float64(level-1) * 100
	xpCeil := float64(level) * float64(level) * 100
	progress := (float64(totalXP) - xpFloor) / (xpCeil - xpFloor)
	if progress < 0 {
		return 0
	}
	if progress > 1 {
		return 1
	}
	return progress
}

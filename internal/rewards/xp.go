package rewards

// comboRate is the XP awarded per combo point on any completion. The same
// rate applies to study sessions and quizzes; combo bonuses are always
// computed server-side.
const comboRate = 10

// dailyLoginBaseXP is the flat bonus for the first login claim of a day.
const dailyLoginBaseXP = 25

// ComboBonus returns the XP bonus for a completion's max combo streak.
func ComboBonus(comboStreak int) int {
	if comboStreak <= 0 {
		return 0
	}
	return comboStreak * comboRate
}

// EarnedXP computes the XP awarded for one completion event.
func EarnedXP(baseXP, bonusXP, comboStreak int) int {
	return baseXP + bonusXP + ComboBonus(comboStreak)
}

// DailyLoginXP returns the bonus for a daily-login claim. A continued streak
// earns +5 XP per streak day on top of the base.
func DailyLoginXP(streak int, extended bool) int {
	xp := dailyLoginBaseXP
	if extended {
		xp += streak * 5
	}
	return xp
}

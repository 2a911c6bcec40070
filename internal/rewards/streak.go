package rewards

import "time"

// StreakUpdate is the outcome of advancing a consecutive-day streak.
type StreakUpdate struct {
	Streak       int
	Extended     bool // streak grew (first event or consecutive day)
	AlreadyToday bool // a qualifying event was already counted today
}

// AdvanceStreak decides a streak transition from the last qualifying date to
// now. Calendar days are compared in UTC:
//
//	no previous date        → streak becomes 1
//	same day                → unchanged, AlreadyToday
//	exactly one day later   → streak + 1
//	more than one day later → reset to 1
//
// A backdated event (now before last) is treated the same as a same-day
// event: it cannot be told apart from a replay, so nothing changes.
func AdvanceStreak(last *time.Time, now time.Time, current int) StreakUpdate {
	if last == nil {
		return StreakUpdate{Streak: 1, Extended: true}
	}

	days := DaysBetween(*last, now)
	switch {
	case days <= 0:
		return StreakUpdate{Streak: current, AlreadyToday: true}
	case days == 1:
		return StreakUpdate{Streak: current + 1, Extended: true}
	default:
		return StreakUpdate{Streak: 1}
	}
}

// DaysBetween returns the whole calendar days from a to b in UTC. Negative
// when b's day precedes a's.
func DaysBetween(a, b time.Time) int {
	return int(TruncateDay(b).Sub(TruncateDay(a)).Hours() / 24)
}

// TruncateDay drops the time-of-day component in UTC.
func TruncateDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

package models

import "time"

// Study session difficulty ranks.
var SessionDifficulties = []string{"E-Rank", "D-Rank", "C-Rank", "B-Rank", "A-Rank", "S-Rank"}

// StudySession is an immutable snapshot of one completed study session.
type StudySession struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	DungeonName   string    `json:"dungeon_name"`
	Difficulty    string    `json:"difficulty"`
	Duration      int       `json:"duration"` // seconds
	BaseXP        int       `json:"base_xp"`
	BonusXP       int       `json:"bonus_xp"`
	TotalXP       int       `json:"total_xp"`
	WasSuccessful bool      `json:"was_successful"`
	StartedAt     time.Time `json:"started_at"`
	CompletedAt   time.Time `json:"completed_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// QuizSession is an immutable snapshot of one completed quiz.
type QuizSession struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	Topic          string    `json:"topic"`
	Difficulty     string    `json:"difficulty"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	ComboStreak    int       `json:"combo_streak"`
	XPEarned       int       `json:"xp_earned"`
	HintsUsed      int       `json:"hints_used"`
	AvgTimeToAnswer float64  `json:"avg_time_to_answer"` // seconds
	Duration       int       `json:"duration"`           // seconds
	CompletedAt    time.Time `json:"completed_at"`
	CreatedAt      time.Time `json:"created_at"`
}

// QuizQuestion is a seeded question served by the quiz endpoint.
type QuizQuestion struct {
	ID            int64        `json:"id"`
	Topic         string       `json:"topic"`
	Difficulty    string       `json:"difficulty"`
	Question      string       `json:"question"`
	Answers       []QuizAnswer `json:"answers"`
	CorrectAnswer string       `json:"correct_answer"`
	Explanation   string       `json:"explanation"`
}

type QuizAnswer struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// UserActivity is an audit-log row written alongside significant events.
type UserActivity struct {
	ID           int64                  `json:"id"`
	UserID       int64                  `json:"user_id"`
	ActivityType string                 `json:"activity_type"`
	Description  string                 `json:"description"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt    time.Time              `json:"timestamp"`
}

// Activity types.
const (
	ActivityRegistration        = "registration"
	ActivityLogin               = "login"
	ActivitySessionComplete     = "session_complete"
	ActivityQuizComplete        = "quiz_complete"
	ActivityAchievementUnlocked = "achievement_unlocked"
)

// ── Request Types ─────────────────────────────────────────

type CompleteSessionRequest struct {
	DungeonName   string `json:"dungeon_name"`
	Difficulty    string `json:"difficulty"`
	Duration      int    `json:"duration"`
	BaseXP        int    `json:"base_xp"`
	BonusXP       int    `json:"bonus_xp"`
	ComboStreak   int    `json:"combo_streak"`
	WasSuccessful bool   `json:"was_successful"`
}

// CompleteQuizRequest carries the same XP breakdown as study sessions; the
// combo bonus is computed server-side from ComboStreak.
type CompleteQuizRequest struct {
	Topic          string  `json:"topic"`
	Difficulty     string  `json:"difficulty"`
	Score          int     `json:"score"`
	TotalQuestions int     `json:"total_questions"`
	Accuracy       float64 `json:"accuracy"`
	ComboStreak    int     `json:"combo_streak"`
	BaseXP         int     `json:"base_xp"`
	BonusXP        int     `json:"bonus_xp"`
	HintsUsed      int     `json:"hints_used"`
	AvgTimeToAnswer float64 `json:"avg_time_to_answer"`
	Duration       int     `json:"duration"`
}

// SyncProgressRequest is the client's view of its own aggregate. The server
// never applies these values — XP, level, and streak are server-authoritative
// — the response carries the real state so the client can reconcile.
type SyncProgressRequest struct {
	TotalXP        int64 `json:"total_xp"`
	Level          int   `json:"level"`
	DailyStreak    int   `json:"daily_streak"`
	TotalStudyTime int   `json:"total_study_time"`
}

// ── Response Types ────────────────────────────────────────

type CompleteSessionResponse struct {
	Message string            `json:"message"`
	Rewards CompletionRewards `json:"rewards"`
	Session *StudySession     `json:"session"`

	AchievementsUnlocked []UserAchievement `json:"achievements_unlocked"`
}

type CompleteQuizResponse struct {
	Message string            `json:"message"`
	Rewards CompletionRewards `json:"rewards"`
	Quiz    *QuizSession      `json:"quiz"`

	AchievementsUnlocked []UserAchievement `json:"achievements_unlocked"`
}

type SessionStats struct {
	TotalSessions      int `json:"total_sessions"`
	TotalDuration      int `json:"total_duration"`
	TotalXP            int `json:"total_xp"`
	SuccessfulSessions int `json:"successful_sessions"`
}

type PopularQuiz struct {
	Topic        string  `json:"topic"`
	AttemptCount int     `json:"attempt_count"`
	AverageScore float64 `json:"average_score"`
	TotalXP      int     `json:"total_xp"`
}

type ProgressWindow struct {
	TimeSpent         int `json:"time_spent"`
	GoalsCompleted    int `json:"goals_completed"`
	XPEarned          int `json:"xp_earned"`
	SessionsCompleted int `json:"sessions_completed"`
}

type ProgressSummaryResponse struct {
	Daily   ProgressWindow `json:"daily"`
	Weekly  ProgressWindow `json:"weekly"`
	Monthly ProgressWindow `json:"monthly"`
}

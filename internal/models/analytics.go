package models

import "time"

// DailyReport is one persisted analytics snapshot covering a single UTC
// calendar day. Exactly one report exists per date; re-runs upsert.
type DailyReport struct {
	ID           int64          `json:"id"`
	ReportDate   time.Time      `json:"report_date"`
	TopicMastery []TopicMastery `json:"topic_mastery"`
	UserActivity ActivityMetrics `json:"user_activity"`
	QuizMetrics  QuizMetrics    `json:"quiz_metrics"`
	CreatedAt    time.Time      `json:"created_at"`
}

type TopicMastery struct {
	Topic         string  `json:"topic"`
	AverageScore  float64 `json:"average_score"`
	TotalAttempts int     `json:"total_attempts"`
	UniqueUsers   int     `json:"unique_users"`
}

type ActivityMetrics struct {
	TotalSessions          int     `json:"total_sessions"`
	TotalUsers             int     `json:"total_users"`
	AverageSessionDuration float64 `json:"average_session_duration"`
	TotalXPAwarded         int     `json:"total_xp_awarded"`
}

type QuizMetrics struct {
	TotalQuizzes   int     `json:"total_quizzes"`
	AverageScore   float64 `json:"average_score"`
	AverageCombo   float64 `json:"average_combo"`
	TotalQuestions int     `json:"total_questions"`
}

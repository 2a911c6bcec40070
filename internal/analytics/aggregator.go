package analytics

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/studyquest/backend/internal/models"
)

// Aggregator computes the daily report for the previous UTC day. It runs
// from the midnight cron; re-runs for the same date overwrite the stored
// report instead of duplicating it.
type Aggregator struct {
	db *sql.DB
}

func NewAggregator(db *sql.DB) *Aggregator {
	return &Aggregator{db: db}
}

// ReportWindow returns the UTC day covered by a run at now: yesterday's
// midnight-to-midnight.
func ReportWindow(now time.Time) (start, end time.Time) {
	u := now.UTC()
	end = time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	start = end.AddDate(0, 0, -1)
	return start, end
}

// Run builds and stores yesterday's report. Any aggregation failure aborts
// the run and stores nothing: a report with a zeroed section would be
// indistinguishable from a quiet day, and since the next run covers a
// different date it would never be repaired. A later run (or a manual one)
// for the same date upserts cleanly.
func (a *Aggregator) Run(now time.Time) error {
	start, end := ReportWindow(now)
	log.Printf("[analytics] generating daily report for %s", start.Format("2006-01-02"))

	report := models.DailyReport{ReportDate: start}

	mastery, err := a.topicMastery(start, end)
	if err != nil {
		return fmt.Errorf("topic mastery: %w", err)
	}
	report.TopicMastery = mastery

	activity, err := a.activityMetrics(start, end)
	if err != nil {
		return fmt.Errorf("activity metrics: %w", err)
	}
	report.UserActivity = *activity

	quiz, err := a.quizMetrics(start, end)
	if err != nil {
		return fmt.Errorf("quiz metrics: %w", err)
	}
	report.QuizMetrics = *quiz

	if err := a.store(&report); err != nil {
		return fmt.Errorf("store daily report: %w", err)
	}

	log.Printf("[analytics] daily report stored: %d topics, %d sessions, %d quizzes",
		len(report.TopicMastery), report.UserActivity.TotalSessions, report.QuizMetrics.TotalQuizzes)
	return nil
}

func (a *Aggregator) topicMastery(start, end time.Time) ([]models.TopicMastery, error) {
	rows, err := a.db.Query(
		`SELECT topic,
		        AVG(score::float / NULLIF(total_questions, 0)) * 100,
		        COUNT(*),
		        COUNT(DISTINCT user_id)
		 FROM quiz_sessions
		 WHERE completed_at >= $1 AND completed_at < $2
		 GROUP BY topic
		 ORDER BY COUNT(*) DESC`,
		start, end,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	mastery := []models.TopicMastery{}
	for rows.Next() {
		var m models.TopicMastery
		var avg sql.NullFloat64
		if err := rows.Scan(&m.Topic, &avg, &m.TotalAttempts, &m.UniqueUsers); err != nil {
			return nil, err
		}
		m.AverageScore = avg.Float64
		mastery = append(mastery, m)
	}
	return mastery, rows.Err()
}

func (a *Aggregator) activityMetrics(start, end time.Time) (*models.ActivityMetrics, error) {
	var m models.ActivityMetrics
	var avgDuration sql.NullFloat64
	err := a.db.QueryRow(
		`SELECT COUNT(*), COUNT(DISTINCT user_id), AVG(duration), COALESCE(SUM(total_xp), 0)
		 FROM study_sessions
		 WHERE completed_at >= $1 AND completed_at < $2`,
		start, end,
	).Scan(&m.TotalSessions, &m.TotalUsers, &avgDuration, &m.TotalXPAwarded)
	if err != nil {
		return nil, err
	}
	m.AverageSessionDuration = avgDuration.Float64
	return &m, nil
}

func (a *Aggregator) quizMetrics(start, end time.Time) (*models.QuizMetrics, error) {
	var m models.QuizMetrics
	var avgScore, avgCombo sql.NullFloat64
	err := a.db.QueryRow(
		`SELECT COUNT(*),
		        AVG(score::float / NULLIF(total_questions, 0)) * 100,
		        AVG(combo_streak),
		        COALESCE(SUM(total_questions), 0)
		 FROM quiz_sessions
		 WHERE completed_at >= $1 AND completed_at < $2`,
		start, end,
	).Scan(&m.TotalQuizzes, &avgScore, &avgCombo, &m.TotalQuestions)
	if err != nil {
		return nil, err
	}
	m.AverageScore = avgScore.Float64
	m.AverageCombo = avgCombo.Float64
	return &m, nil
}

func (a *Aggregator) store(report *models.DailyReport) error {
	mastery, err := json.Marshal(report.TopicMastery)
	if err != nil {
		return err
	}
	if report.TopicMastery == nil {
		mastery = []byte("[]")
	}
	activity, err := json.Marshal(report.UserActivity)
	if err != nil {
		return err
	}
	quiz, err := json.Marshal(report.QuizMetrics)
	if err != nil {
		return err
	}

	_, err = a.db.Exec(
		`INSERT INTO daily_analytics (report_date, topic_mastery, user_activity, quiz_metrics)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (report_date) DO UPDATE SET
		    topic_mastery = EXCLUDED.topic_mastery,
		    user_activity = EXCLUDED.user_activity,
		    quiz_metrics  = EXCLUDED.quiz_metrics`,
		report.ReportDate, mastery, activity, quiz,
	)
	return err
}

// Reports returns stored reports, newest first.
func (a *Aggregator) Reports(limit int) ([]models.DailyReport, error) {
	if limit <= 0 || limit > 90 {
		limit = 30
	}

	rows, err := a.db.Query(
		`SELECT id, report_date, topic_mastery, user_activity, quiz_metrics, created_at
		 FROM daily_analytics
		 ORDER BY report_date DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("get reports: %w", err)
	}
	defer rows.Close()

	reports := []models.DailyReport{}
	for rows.Next() {
		var r models.DailyReport
		var mastery, activity, quiz []byte
		if err := rows.Scan(&r.ID, &r.ReportDate, &mastery, &activity, &quiz, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		json.Unmarshal(mastery, &r.TopicMastery)
		json.Unmarshal(activity, &r.UserActivity)
		json.Unmarshal(quiz, &r.QuizMetrics)
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

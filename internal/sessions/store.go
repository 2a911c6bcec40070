package sessions

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/studyquest/backend/internal/models"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ── Session History & Stats ─────────────────────────────

func (s *Store) SessionHistory(userID int64, limit, offset int) ([]models.StudySession, int, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, dungeon_name, difficulty, duration, base_xp, bonus_xp,
		        total_xp, was_successful, started_at, completed_at, created_at
		 FROM study_sessions WHERE user_id = $1
		 ORDER BY completed_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("session history: %w", err)
	}
	defer rows.Close()

	sessions := []models.StudySession{}
	for rows.Next() {
		var sess models.StudySession
		if err := rows.Scan(&sess.ID, &sess.UserID, &sess.DungeonName, &sess.Difficulty,
			&sess.Duration, &sess.BaseXP, &sess.BonusXP, &sess.TotalXP,
			&sess.WasSuccessful, &sess.StartedAt, &sess.CompletedAt, &sess.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM study_sessions WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}

	return sessions, total, nil
}

func (s *Store) SessionStats(userID int64) (*models.SessionStats, error) {
	var stats models.SessionStats
	err := s.db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(duration), 0),
		        COALESCE(SUM(total_xp), 0),
		        COUNT(*) FILTER (WHERE was_successful)
		 FROM study_sessions WHERE user_id = $1`,
		userID,
	).Scan(&stats.TotalSessions, &stats.TotalDuration, &stats.TotalXP, &stats.SuccessfulSessions)
	if err != nil {
		return nil, fmt.Errorf("session stats: %w", err)
	}
	return &stats, nil
}

// ── Quiz ────────────────────────────────────────────────

func (s *Store) QuizHistory(userID int64, limit, offset int) ([]models.QuizSession, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, topic, difficulty, score, total_questions, combo_streak,
		        xp_earned, hints_used, avg_time_to_answer, duration, completed_at, created_at
		 FROM quiz_sessions WHERE user_id = $1
		 ORDER BY completed_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("quiz history: %w", err)
	}
	defer rows.Close()

	quizzes := []models.QuizSession{}
	for rows.Next() {
		var q models.QuizSession
		if err := rows.Scan(&q.ID, &q.UserID, &q.Topic, &q.Difficulty, &q.Score,
			&q.TotalQuestions, &q.ComboStreak, &q.XPEarned, &q.HintsUsed,
			&q.AvgTimeToAnswer, &q.Duration, &q.CompletedAt, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, rows.Err()
}

// RecordQuizSession saves a practice run that grants no rewards.
func (s *Store) RecordQuizSession(q *models.QuizSession) error {
	return s.db.QueryRow(
		`INSERT INTO quiz_sessions (user_id, topic, difficulty, score, total_questions,
		    combo_streak, xp_earned, hints_used, avg_time_to_answer, duration, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at`,
		q.UserID, q.Topic, q.Difficulty, q.Score, q.TotalQuestions,
		q.ComboStreak, q.XPEarned, q.HintsUsed, q.AvgTimeToAnswer,
		q.Duration, q.CompletedAt,
	).Scan(&q.ID, &q.CreatedAt)
}

func (s *Store) PopularQuizzes(since time.Time, limit int) ([]models.PopularQuiz, error) {
	rows, err := s.db.Query(
		`SELECT topic, COUNT(*), AVG(score::float / NULLIF(total_questions, 0)) * 100,
		        COALESCE(SUM(xp_earned), 0)
		 FROM quiz_sessions
		 WHERE completed_at >= $1
		 GROUP BY topic
		 ORDER BY COUNT(*) DESC
		 LIMIT $2`,
		since, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("popular quizzes: %w", err)
	}
	defer rows.Close()

	popular := []models.PopularQuiz{}
	for rows.Next() {
		var p models.PopularQuiz
		var avg sql.NullFloat64
		if err := rows.Scan(&p.Topic, &p.AttemptCount, &avg, &p.TotalXP); err != nil {
			return nil, fmt.Errorf("scan popular quiz: %w", err)
		}
		p.AverageScore = avg.Float64
		popular = append(popular, p)
	}
	return popular, rows.Err()
}

func (s *Store) QuizTopics() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT topic FROM quiz_questions ORDER BY topic`)
	if err != nil {
		return nil, fmt.Errorf("quiz topics: %w", err)
	}
	defer rows.Close()

	topics := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

// excludedIDs normalizes the exclusion list for ANY(). A nil slice would
// encode as SQL NULL, and NOT (id = ANY(NULL)) is NULL for every row — the
// query would return nothing. An empty (non-nil) array matches no IDs, so
// nothing is excluded.
func excludedIDs(ids []int64) pq.Int64Array {
	if ids == nil {
		ids = []int64{}
	}
	return pq.Int64Array(ids)
}

// RandomQuestion picks a seeded question for the topic, excluding recently
// served IDs so users don't see immediate repeats. Returns nil when the
// topic has no (unserved) questions.
func (s *Store) RandomQuestion(topic, difficulty string, exclude []int64) (*models.QuizQuestion, error) {
	var q models.QuizQuestion
	var answers []byte
	err := s.db.QueryRow(
		`SELECT id, topic, difficulty, question, answers, correct_answer, explanation
		 FROM quiz_questions
		 WHERE topic = $1
		   AND ($2 = '' OR difficulty = $2)
		   AND NOT (id = ANY($3))
		 ORDER BY random()
		 LIMIT 1`,
		topic, difficulty, excludedIDs(exclude),
	).Scan(&q.ID, &q.Topic, &q.Difficulty, &q.Question, &answers, &q.CorrectAnswer, &q.Explanation)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("random question: %w", err)
	}

	if err := json.Unmarshal(answers, &q.Answers); err != nil {
		return nil, fmt.Errorf("unmarshal answers: %w", err)
	}
	return &q, nil
}

// ── Progress ────────────────────────────────────────────

func (s *Store) ProgressWindow(userID int64, since time.Time) (*models.ProgressWindow, error) {
	var w models.ProgressWindow
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(duration), 0),
		        COUNT(*) FILTER (WHERE was_successful),
		        COALESCE(SUM(total_xp), 0),
		        COUNT(*)
		 FROM study_sessions
		 WHERE user_id = $1 AND completed_at >= $2`,
		userID, since,
	).Scan(&w.TimeSpent, &w.GoalsCompleted, &w.XPEarned, &w.SessionsCompleted)
	if err != nil {
		return nil, fmt.Errorf("progress window: %w", err)
	}
	return &w, nil
}

func (s *Store) RecentActivity(userID int64, limit int) ([]models.UserActivity, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, activity_type, description, metadata, created_at
		 FROM user_activity WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent activity: %w", err)
	}
	defer rows.Close()

	return scanActivityRows(rows)
}

func scanActivityRows(rows *sql.Rows) ([]models.UserActivity, error) {
	activities := []models.UserActivity{}
	for rows.Next() {
		var a models.UserActivity
		var meta *string
		if err := rows.Scan(&a.ID, &a.UserID, &a.ActivityType, &a.Description, &meta, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		if meta != nil {
			json.Unmarshal([]byte(*meta), &a.Metadata)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

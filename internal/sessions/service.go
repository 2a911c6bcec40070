package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/studyquest/backend/internal/cache"
	"github.com/studyquest/backend/internal/models"
	"github.com/studyquest/backend/internal/rewards"
)

// servedWindow caps how many question IDs we remember per user/topic before
// allowing repeats again.
const servedWindow = 20

type Service struct {
	store   *Store
	rewards *rewards.Service
	cache   *cache.Cache
	now     func() time.Time
}

func NewService(store *Store, rewardsSvc *rewards.Service, c *cache.Cache) *Service {
	return &Service{store: store, rewards: rewardsSvc, cache: c, now: time.Now}
}

func statsKey(userID int64) string { return fmt.Sprintf("user_stats:%d", userID) }
func servedKey(userID int64, topic string) string {
	return fmt.Sprintf("quiz_served:%d:%s", userID, topic)
}

const popularKey = "popular_quizzes"

// ── Completions ─────────────────────────────────────────

// CompleteSession applies the completion through the rewards engine and
// invalidates the user's cached stats.
func (s *Service) CompleteSession(ctx context.Context, userID int64, req models.CompleteSessionRequest) (*models.CompleteSessionResponse, error) {
	resp, err := s.rewards.CompleteStudySession(userID, req)
	if err != nil {
		return nil, err
	}
	s.cache.Delete(ctx, statsKey(userID))
	return resp, nil
}

func (s *Service) CompleteQuiz(ctx context.Context, userID int64, req models.CompleteQuizRequest) (*models.CompleteQuizResponse, error) {
	resp, err := s.rewards.CompleteQuiz(userID, req)
	if err != nil {
		return nil, err
	}
	s.cache.Delete(ctx, statsKey(userID), popularKey)
	return resp, nil
}

// RecordQuizSession saves a practice quiz run without granting XP.
func (s *Service) RecordQuizSession(ctx context.Context, userID int64, req models.CompleteQuizRequest) (*models.QuizSession, error) {
	quiz := &models.QuizSession{
		UserID:          userID,
		Topic:           req.Topic,
		Difficulty:      req.Difficulty,
		Score:           req.Score,
		TotalQuestions:  req.TotalQuestions,
		ComboStreak:     req.ComboStreak,
		HintsUsed:       req.HintsUsed,
		AvgTimeToAnswer: req.AvgTimeToAnswer,
		Duration:        req.Duration,
		CompletedAt:     s.now().UTC(),
	}
	if err := s.store.RecordQuizSession(quiz); err != nil {
		return nil, fmt.Errorf("record quiz session: %w", err)
	}
	s.cache.Delete(ctx, popularKey)
	return quiz, nil
}

// ── History & Stats ─────────────────────────────────────

func (s *Service) History(userID int64, limit, offset int) ([]models.StudySession, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.SessionHistory(userID, limit, offset)
}

func (s *Service) QuizHistory(userID int64, limit, offset int) ([]models.QuizSession, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.QuizHistory(userID, limit, offset)
}

func (s *Service) Stats(ctx context.Context, userID int64) (*models.SessionStats, error) {
	var stats models.SessionStats
	if s.cache.Get(ctx, statsKey(userID), &stats) {
		return &stats, nil
	}

	fresh, err := s.store.SessionStats(userID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, statsKey(userID), fresh, cache.UserStatsTTL)
	return fresh, nil
}

// ── Quiz Questions ──────────────────────────────────────

// NextQuestion serves a question for the topic, avoiding recently served
// ones. Falls back to the built-in bank when the database has nothing for
// the topic.
func (s *Service) NextQuestion(ctx context.Context, userID int64, topic, difficulty string) (*models.QuizQuestion, error) {
	var served []int64
	s.cache.Get(ctx, servedKey(userID, topic), &served)

	q, err := s.store.RandomQuestion(topic, difficulty, served)
	if err != nil {
		return nil, err
	}
	if q == nil && len(served) > 0 {
		// Everything served recently; allow repeats.
		q, err = s.store.RandomQuestion(topic, difficulty, nil)
		if err != nil {
			return nil, err
		}
		served = nil
	}
	if q == nil {
		q = fallbackQuestion(topic, difficulty)
		if q == nil {
			return nil, nil
		}
	}

	if q.ID > 0 {
		served = append(served, q.ID)
		if len(served) > servedWindow {
			served = served[len(served)-servedWindow:]
		}
		s.cache.Set(ctx, servedKey(userID, topic), served, time.Hour)
	}
	return q, nil
}

func (s *Service) Topics() ([]string, error) {
	topics, err := s.store.QuizTopics()
	if err != nil {
		return nil, err
	}
	// Merge in fallback topics so a fresh install still offers quizzes.
	seen := map[string]bool{}
	for _, t := range topics {
		seen[t] = true
	}
	for _, t := range fallbackTopics() {
		if !seen[t] {
			topics = append(topics, t)
		}
	}
	return topics, nil
}

func (s *Service) Popular(ctx context.Context) ([]models.PopularQuiz, error) {
	var popular []models.PopularQuiz
	if s.cache.Get(ctx, popularKey, &popular) {
		return popular, nil
	}

	thirtyDaysAgo := s.now().UTC().AddDate(0, 0, -30)
	fresh, err := s.store.PopularQuizzes(thirtyDaysAgo, 10)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, popularKey, fresh, cache.PopularQuizTTL)
	return fresh, nil
}

// ── Progress ────────────────────────────────────────────

func (s *Service) ProgressSummary(userID int64) (*models.ProgressSummaryResponse, error) {
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	daily, err := s.store.ProgressWindow(userID, today)
	if err != nil {
		return nil, err
	}
	weekly, err := s.store.ProgressWindow(userID, today.AddDate(0, 0, -6))
	if err != nil {
		return nil, err
	}
	monthly, err := s.store.ProgressWindow(userID, today.AddDate(0, 0, -29))
	if err != nil {
		return nil, err
	}

	return &models.ProgressSummaryResponse{
		Daily:   *daily,
		Weekly:  *weekly,
		Monthly: *monthly,
	}, nil
}

// SyncProgress reconciles a client's local aggregate with the server's.
// Client values are never written back — XP, level, and streak only change
// through completions and claims — so sync is a read returning the
// authoritative state plus whether the client had drifted.
func (s *Service) SyncProgress(userID int64, req models.SyncProgressRequest) (*models.User, bool, error) {
	user, err := s.rewards.GetUser(userID)
	if err != nil {
		return nil, false, err
	}
	return user, ProgressInSync(req, user), nil
}

// ProgressInSync reports whether the client's aggregate matches the server's.
func ProgressInSync(req models.SyncProgressRequest, user *models.User) bool {
	return req.TotalXP == user.TotalXP &&
		req.Level == user.Level &&
		req.DailyStreak == user.DailyStreak
}

func (s *Service) RecentActivity(userID int64, limit int) ([]models.UserActivity, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.store.RecentActivity(userID, limit)
}

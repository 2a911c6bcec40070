package rewards

import (
	"errors"
	"fmt"
	"time"

	"github.com/studyquest/backend/internal/models"
)

// ErrUserNotFound is returned when an operation references a missing user.
var ErrUserNotFound = errors.New("user not found")

// CompletionOutcome is the result of atomically applying one completion
// event to a user aggregate.
type CompletionOutcome struct {
	User     *models.User
	Streak   StreakUpdate
	OldLevel int
}

// LoginOutcome is the result of a daily-login claim.
type LoginOutcome struct {
	AlreadyClaimed bool
	XPEarned       int
	Streak         int
	TotalXP        int64
}

// Store persists the user aggregate, the reward ledger, and achievement
// unlocks. Completion and claim methods are atomic: the aggregate update,
// the completion record, and the ledger entry commit together, serialized
// per user.
type Store interface {
	GetUser(userID int64) (*models.User, error)

	ApplyStudyCompletion(userID int64, earnedXP int, sess *models.StudySession) (*CompletionOutcome, error)
	ApplyQuizCompletion(userID int64, earnedXP int, quiz *models.QuizSession) (*CompletionOutcome, error)
	ClaimDailyLogin(userID int64, now time.Time) (*LoginOutcome, error)

	// AddXP atomically adds XP (recomputing level) and appends the given
	// ledger entry. Used for manual corrections.
	AddXP(userID int64, amount int, entry *models.RewardEntry) (*models.User, error)

	ListRewards(userID int64, limit, offset int) ([]models.RewardEntry, int, error)
	RecentRewards(userID int64, since time.Time, limit int) ([]models.RewardEntry, error)

	LifetimeStats(userID int64) (*Stats, error)
	AchievementDefs() ([]models.Achievement, error)
	UnlockedAchievementIDs(userID int64) (map[int64]bool, error)
	// UnlockAchievement conditionally records an unlock. When the unlock
	// landed (first time for this user/achievement) it also adds the XP
	// reward and the ledger entry, and reports true.
	UnlockAchievement(userID int64, def *models.Achievement, now time.Time) (bool, error)
	UserAchievements(userID int64) ([]models.UserAchievement, error)
	ReplaceAchievementDefs(defs []models.Achievement) ([]models.Achievement, error)

	UpdateStreak(userID int64, now time.Time) (*models.User, error)
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// GetUser returns the current user aggregate.
func (s *Service) GetUser(userID int64) (*models.User, error) {
	return s.store.GetUser(userID)
}

// ── Completion Handling ─────────────────────────────────

// CompleteStudySession applies a study-session completion: XP computation,
// streak advance, level recompute, completion record, ledger entry, then
// achievement evaluation.
func (s *Service) CompleteStudySession(userID int64, req models.CompleteSessionRequest) (*models.CompleteSessionResponse, error) {
	now := s.now().UTC()
	earned := EarnedXP(req.BaseXP, req.BonusXP, req.ComboStreak)

	sess := &models.StudySession{
		UserID:        userID,
		DungeonName:   req.DungeonName,
		Difficulty:    req.Difficulty,
		Duration:      req.Duration,
		BaseXP:        req.BaseXP,
		BonusXP:       req.BonusXP + ComboBonus(req.ComboStreak),
		TotalXP:       earned,
		WasSuccessful: req.WasSuccessful,
		StartedAt:     now.Add(-time.Duration(req.Duration) * time.Second),
		CompletedAt:   now,
	}

	outcome, err := s.store.ApplyStudyCompletion(userID, earned, sess)
	if err != nil {
		return nil, err
	}

	unlocked, err := s.CheckAchievements(userID)
	if err != nil {
		return nil, fmt.Errorf("check achievements: %w", err)
	}
	user := outcome.User
	if len(unlocked) > 0 {
		// Re-read so the response reflects achievement XP.
		if refreshed, err := s.store.GetUser(userID); err == nil {
			user = refreshed
		}
	}

	return &models.CompleteSessionResponse{
		Message:              "Session completed successfully",
		Rewards:              completionRewards(earned, user, outcome),
		Session:              sess,
		AchievementsUnlocked: unlocked,
	}, nil
}

// CompleteQuiz applies a quiz completion. The XP breakdown is computed
// server-side with the same formula as study sessions.
func (s *Service) CompleteQuiz(userID int64, req models.CompleteQuizRequest) (*models.CompleteQuizResponse, error) {
	now := s.now().UTC()
	earned := EarnedXP(req.BaseXP, req.BonusXP, req.ComboStreak)

	quiz := &models.QuizSession{
		UserID:          userID,
		Topic:           req.Topic,
		Difficulty:      req.Difficulty,
		Score:           req.Score,
		TotalQuestions:  req.TotalQuestions,
		ComboStreak:     req.ComboStreak,
		XPEarned:        earned,
		HintsUsed:       req.HintsUsed,
		AvgTimeToAnswer: req.AvgTimeToAnswer,
		Duration:        req.Duration,
		CompletedAt:     now,
	}

	outcome, err := s.store.ApplyQuizCompletion(userID, earned, quiz)
	if err != nil {
		return nil, err
	}

	unlocked, err := s.CheckAchievements(userID)
	if err != nil {
		return nil, fmt.Errorf("check achievements: %w", err)
	}
	user := outcome.User
	if len(unlocked) > 0 {
		if refreshed, err := s.store.GetUser(userID); err == nil {
			user = refreshed
		}
	}

	return &models.CompleteQuizResponse{
		Message:              "Quiz completed successfully",
		Rewards:              completionRewards(earned, user, outcome),
		Quiz:                 quiz,
		AchievementsUnlocked: unlocked,
	}, nil
}

func completionRewards(earned int, user *models.User, outcome *CompletionOutcome) models.CompletionRewards {
	return models.CompletionRewards{
		XPGained:        earned,
		NewTotalXP:      user.TotalXP,
		NewLevel:        user.Level,
		LeveledUp:       user.Level > outcome.OldLevel,
		DailyStreak:     user.DailyStreak,
		StreakIncreased: outcome.Streak.Extended,
	}
}

// ── Daily Login ─────────────────────────────────────────

func (s *Service) ClaimDailyLogin(userID int64) (*models.DailyLoginResponse, error) {
	outcome, err := s.store.ClaimDailyLogin(userID, s.now().UTC())
	if err != nil {
		return nil, err
	}

	if outcome.AlreadyClaimed {
		return &models.DailyLoginResponse{
			Message:        "Daily login bonus already claimed today",
			AlreadyClaimed: true,
			Streak:         outcome.Streak,
			TotalXP:        outcome.TotalXP,
		}, nil
	}

	return &models.DailyLoginResponse{
		Message:  "Daily login bonus awarded",
		XPEarned: outcome.XPEarned,
		Streak:   outcome.Streak,
		TotalXP:  outcome.TotalXP,
	}, nil
}

// ── Achievement Evaluation ──────────────────────────────

// CheckAchievements evaluates all definitions against the user's current
// stats and applies every newly satisfied unlock. Safe to call repeatedly:
// already-unlocked achievements are never re-granted.
func (s *Service) CheckAchievements(userID int64) ([]models.UserAchievement, error) {
	user, err := s.store.GetUser(userID)
	if err != nil {
		return nil, err
	}

	defs, err := s.store.AchievementDefs()
	if err != nil {
		return nil, fmt.Errorf("get achievement definitions: %w", err)
	}
	unlockedIDs, err := s.store.UnlockedAchievementIDs(userID)
	if err != nil {
		return nil, fmt.Errorf("get unlocked achievements: %w", err)
	}
	stats, err := s.store.LifetimeStats(userID)
	if err != nil {
		return nil, fmt.Errorf("get lifetime stats: %w", err)
	}
	stats.DailyStreak = user.DailyStreak
	stats.TotalXP = user.TotalXP

	now := s.now().UTC()
	newlyUnlocked := []models.UserAchievement{}
	for _, def := range Evaluate(defs, unlockedIDs, *stats) {
		def := def
		inserted, err := s.store.UnlockAchievement(userID, &def, now)
		if err != nil {
			return nil, fmt.Errorf("unlock achievement %q: %w", def.Name, err)
		}
		if inserted {
			newlyUnlocked = append(newlyUnlocked, models.UserAchievement{
				AchievementID: def.ID,
				UnlockedAt:    now,
				Achievement:   &def,
			})
		}
	}

	return newlyUnlocked, nil
}

func (s *Service) AllAchievements() ([]models.Achievement, error) {
	return s.store.AchievementDefs()
}

func (s *Service) UserAchievements(userID int64) ([]models.UserAchievement, error) {
	return s.store.UserAchievements(userID)
}

func (s *Service) SeedAchievements() ([]models.Achievement, error) {
	return s.store.ReplaceAchievementDefs(SeedAchievements)
}

// ── Reward Summary & History ────────────────────────────

func (s *Service) GetSummary(userID int64) (*models.RewardSummaryResponse, error) {
	user, err := s.store.GetUser(userID)
	if err != nil {
		return nil, err
	}

	level := Level(user.TotalXP)
	thirtyDaysAgo := s.now().UTC().AddDate(0, 0, -30)
	recent, err := s.store.RecentRewards(userID, thirtyDaysAgo, 50)
	if err != nil {
		return nil, fmt.Errorf("get recent rewards: %w", err)
	}
	achievements, err := s.store.UserAchievements(userID)
	if err != nil {
		return nil, fmt.Errorf("get achievements: %w", err)
	}

	return &models.RewardSummaryResponse{
		TotalXP:       user.TotalXP,
		Level:         level,
		LevelProgress: LevelProgress(user.TotalXP, level),
		DailyStreak:   user.DailyStreak,
		Coins:         user.Coins,
		Achievements:  achievements,
		RecentRewards: recent,
	}, nil
}

func (s *Service) History(userID int64, limit, offset int) (*models.RewardHistoryResponse, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rewards, total, err := s.store.ListRewards(userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return &models.RewardHistoryResponse{
		Rewards: rewards,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	}, nil
}

// ── Manual Awards ───────────────────────────────────────

// ManualAward lets an admin grant (or, with a negative amount, offset) XP.
// The correction is a new ledger entry; existing entries are never edited.
func (s *Service) ManualAward(adminID int64, req models.ManualRewardRequest) (*models.User, *models.RewardEntry, error) {
	if req.UserID == 0 || req.Amount == 0 {
		return nil, nil, errors.New("user_id and amount are required")
	}

	rewardType := req.Type
	if rewardType == "" {
		rewardType = models.RewardManual
	}
	description := req.Description
	if description == "" {
		description = "Manual reward from admin"
	}

	entry := &models.RewardEntry{
		UserID:      req.UserID,
		Amount:      req.Amount,
		Type:        rewardType,
		Description: description,
		Detail: map[string]interface{}{
			"awarded_by": adminID,
			"reason":     req.Description,
		},
	}

	user, err := s.store.AddXP(req.UserID, req.Amount, entry)
	if err != nil {
		return nil, nil, err
	}
	return user, entry, nil
}

// ── Streak ──────────────────────────────────────────────

func (s *Service) GetStreak(userID int64) (int, error) {
	user, err := s.store.GetUser(userID)
	if err != nil {
		return 0, err
	}
	return user.DailyStreak, nil
}

func (s *Service) UpdateStreak(userID int64) (int, error) {
	user, err := s.store.UpdateStreak(userID, s.now().UTC())
	if err != nil {
		return 0, err
	}
	return user.DailyStreak, nil
}

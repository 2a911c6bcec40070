package rewards

import (
	"testing"
	"time"

	"github.com/studyquest/backend/internal/models"
)

// fakeStore is an in-memory Store with the same transition semantics as the
// Postgres implementation: completions advance the streak, recompute the
// level, and append exactly one ledger entry.
type fakeStore struct {
	users    map[int64]*models.User
	ledger   []models.RewardEntry
	sessions []models.StudySession
	quizzes  []models.QuizSession
	defs     []models.Achievement
	unlocks  map[int64]map[int64]time.Time
	nextID   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:   map[int64]*models.User{},
		unlocks: map[int64]map[int64]time.Time{},
		nextID:  1,
	}
}

func (f *fakeStore) addUser(id int64) *models.User {
	u := &models.User{ID: id, Level: 1}
	f.users[id] = u
	return u
}

func (f *fakeStore) GetUser(userID int64) (*models.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeStore) appendLedger(e *models.RewardEntry) {
	e.ID = f.nextID
	f.nextID++
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	f.ledger = append(f.ledger, *e)
}

func (f *fakeStore) applyCompletion(userID int64, earnedXP int, completedAt time.Time, entry *models.RewardEntry) (*CompletionOutcome, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}

	upd := AdvanceStreak(u.LastSessionDate, completedAt, u.DailyStreak)
	oldLevel := u.Level
	u.TotalXP += int64(earnedXP)
	u.Level = Level(u.TotalXP)
	u.DailyStreak = upd.Streak
	at := completedAt
	u.LastSessionDate = &at

	entry.CreatedAt = completedAt
	f.appendLedger(entry)

	copied := *u
	return &CompletionOutcome{User: &copied, Streak: upd, OldLevel: oldLevel}, nil
}

func (f *fakeStore) ApplyStudyCompletion(userID int64, earnedXP int, sess *models.StudySession) (*CompletionOutcome, error) {
	f.sessions = append(f.sessions, *sess)
	return f.applyCompletion(userID, earnedXP, sess.CompletedAt, &models.RewardEntry{
		UserID: userID, Amount: earnedXP, Type: models.RewardSessionComplete,
	})
}

func (f *fakeStore) ApplyQuizCompletion(userID int64, earnedXP int, quiz *models.QuizSession) (*CompletionOutcome, error) {
	f.quizzes = append(f.quizzes, *quiz)
	return f.applyCompletion(userID, earnedXP, quiz.CompletedAt, &models.RewardEntry{
		UserID: userID, Amount: earnedXP, Type: models.RewardQuizComplete,
	})
}

func (f *fakeStore) ClaimDailyLogin(userID int64, now time.Time) (*LoginOutcome, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}

	upd := AdvanceStreak(u.LastLoginReward, now, u.DailyStreak)
	if upd.AlreadyToday {
		return &LoginOutcome{AlreadyClaimed: true, Streak: u.DailyStreak, TotalXP: u.TotalXP}, nil
	}

	xp := DailyLoginXP(upd.Streak, upd.Extended && u.LastLoginReward != nil)
	u.TotalXP += int64(xp)
	u.Level = Level(u.TotalXP)
	u.DailyStreak = upd.Streak
	at := now
	u.LastLoginReward = &at

	f.appendLedger(&models.RewardEntry{
		UserID: userID, Amount: xp, Type: models.RewardDailyLogin, CreatedAt: now,
	})

	return &LoginOutcome{XPEarned: xp, Streak: upd.Streak, TotalXP: u.TotalXP}, nil
}

func (f *fakeStore) AddXP(userID int64, amount int, entry *models.RewardEntry) (*models.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	u.TotalXP += int64(amount)
	if u.TotalXP < 0 {
		u.TotalXP = 0
	}
	u.Level = Level(u.TotalXP)
	f.appendLedger(entry)
	copied := *u
	return &copied, nil
}

func (f *fakeStore) ListRewards(userID int64, limit, offset int) ([]models.RewardEntry, int, error) {
	var all []models.RewardEntry
	for _, e := range f.ledger {
		if e.UserID == userID {
			all = append(all, e)
		}
	}
	total := len(all)
	if offset > len(all) {
		offset = len(all)
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

func (f *fakeStore) RecentRewards(userID int64, since time.Time, limit int) ([]models.RewardEntry, error) {
	var out []models.RewardEntry
	for _, e := range f.ledger {
		if e.UserID == userID && !e.CreatedAt.Before(since) && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) LifetimeStats(userID int64) (*Stats, error) {
	var stats Stats
	for _, s := range f.sessions {
		if s.UserID == userID && s.WasSuccessful {
			stats.SuccessfulSessions++
		}
	}
	for _, q := range f.quizzes {
		if q.UserID != userID {
			continue
		}
		if q.ComboStreak > stats.MaxCombo {
			stats.MaxCombo = q.ComboStreak
		}
		if q.Score > stats.MaxQuizScore {
			stats.MaxQuizScore = q.Score
		}
	}
	return &stats, nil
}

func (f *fakeStore) AchievementDefs() ([]models.Achievement, error) {
	return f.defs, nil
}

func (f *fakeStore) UnlockedAchievementIDs(userID int64) (map[int64]bool, error) {
	out := map[int64]bool{}
	for id := range f.unlocks[userID] {
		out[id] = true
	}
	return out, nil
}

func (f *fakeStore) UnlockAchievement(userID int64, def *models.Achievement, now time.Time) (bool, error) {
	u, ok := f.users[userID]
	if !ok {
		return false, ErrUserNotFound
	}
	if f.unlocks[userID] == nil {
		f.unlocks[userID] = map[int64]time.Time{}
	}
	if _, done := f.unlocks[userID][def.ID]; done {
		return false, nil
	}
	f.unlocks[userID][def.ID] = now
	if def.XPReward > 0 {
		u.TotalXP += int64(def.XPReward)
		u.Level = Level(u.TotalXP)
	}
	f.appendLedger(&models.RewardEntry{
		UserID: userID, Amount: def.XPReward, Type: models.RewardAchievement, CreatedAt: now,
	})
	return true, nil
}

func (f *fakeStore) UserAchievements(userID int64) ([]models.UserAchievement, error) {
	var out []models.UserAchievement
	for _, def := range f.defs {
		if at, ok := f.unlocks[userID][def.ID]; ok {
			def := def
			out = append(out, models.UserAchievement{AchievementID: def.ID, UnlockedAt: at, Achievement: &def})
		}
	}
	return out, nil
}

func (f *fakeStore) ReplaceAchievementDefs(defs []models.Achievement) ([]models.Achievement, error) {
	created := make([]models.Achievement, 0, len(defs))
	for _, def := range defs {
		def.ID = f.nextID
		f.nextID++
		created = append(created, def)
	}
	f.defs = created
	f.unlocks = map[int64]map[int64]time.Time{}
	return created, nil
}

func (f *fakeStore) UpdateStreak(userID int64, now time.Time) (*models.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	upd := AdvanceStreak(u.LastSessionDate, now, u.DailyStreak)
	if !upd.AlreadyToday {
		u.DailyStreak = upd.Streak
		at := now
		u.LastSessionDate = &at
	}
	copied := *u
	return &copied, nil
}

// ── Tests ───────────────────────────────────────────────

func newTestService(store *fakeStore, now time.Time) *Service {
	svc := NewService(store)
	svc.now = func() time.Time { return now }
	return svc
}

func TestCompleteStudySession(t *testing.T) {
	store := newFakeStore()
	store.addUser(1)
	day1 := date(2026, 3, 10, 12)
	svc := newTestService(store, day1)

	resp, err := svc.CompleteStudySession(1, models.CompleteSessionRequest{
		DungeonName: "Algebra Dungeon",
		Difficulty:  "C-Rank",
		Duration:    1800,
		BaseXP:      50,
		ComboStreak: 3,
	})
	if err != nil {
		t.Fatalf("CompleteStudySession: %v", err)
	}

	// 50 base + 3 combo * 10
	if resp.Rewards.XPGained != 80 {
		t.Errorf("XPGained = %d, want 80", resp.Rewards.XPGained)
	}
	if resp.Rewards.NewTotalXP != 80 {
		t.Errorf("NewTotalXP = %d, want 80", resp.Rewards.NewTotalXP)
	}
	if resp.Rewards.NewLevel != 1 || resp.Rewards.LeveledUp {
		t.Errorf("level = %d leveledUp = %v, want 1 false", resp.Rewards.NewLevel, resp.Rewards.LeveledUp)
	}
	if resp.Rewards.DailyStreak != 1 || !resp.Rewards.StreakIncreased {
		t.Errorf("streak = %d increased = %v, want 1 true", resp.Rewards.DailyStreak, resp.Rewards.StreakIncreased)
	}
}

func TestCompletionNextDayLevelsUp(t *testing.T) {
	store := newFakeStore()
	store.addUser(1)
	day1 := date(2026, 3, 10, 12)

	svc := newTestService(store, day1)
	if _, err := svc.CompleteStudySession(1, models.CompleteSessionRequest{
		DungeonName: "Algebra Dungeon", Difficulty: "C-Rank", BaseXP: 50, ComboStreak: 3,
	}); err != nil {
		t.Fatalf("day 1 completion: %v", err)
	}

	svc = newTestService(store, day1.AddDate(0, 0, 1))
	resp, err := svc.CompleteQuiz(1, models.CompleteQuizRequest{
		Topic: "Fractions", Difficulty: "easy", Score: 8, TotalQuestions: 10, BaseXP: 20,
	})
	if err != nil {
		t.Fatalf("day 2 quiz: %v", err)
	}

	// 80 + 20 = 100 crosses the level 2 boundary
	if resp.Rewards.NewTotalXP != 100 {
		t.Errorf("NewTotalXP = %d, want 100", resp.Rewards.NewTotalXP)
	}
	if resp.Rewards.NewLevel != 2 || !resp.Rewards.LeveledUp {
		t.Errorf("level = %d leveledUp = %v, want 2 true", resp.Rewards.NewLevel, resp.Rewards.LeveledUp)
	}
	if resp.Rewards.DailyStreak != 2 || !resp.Rewards.StreakIncreased {
		t.Errorf("streak = %d increased = %v, want 2 true", resp.Rewards.DailyStreak, resp.Rewards.StreakIncreased)
	}
}

func TestSameDayCompletionKeepsStreak(t *testing.T) {
	store := newFakeStore()
	store.addUser(1)
	day1 := date(2026, 3, 10, 9)
	svc := newTestService(store, day1)

	if _, err := svc.CompleteStudySession(1, models.CompleteSessionRequest{
		DungeonName: "Algebra Dungeon", Difficulty: "C-Rank", BaseXP: 50,
	}); err != nil {
		t.Fatalf("first completion: %v", err)
	}

	svc = newTestService(store, day1.Add(6*time.Hour))
	resp, err := svc.CompleteStudySession(1, models.CompleteSessionRequest{
		DungeonName: "Geometry Dungeon", Difficulty: "B-Rank", BaseXP: 60,
	})
	if err != nil {
		t.Fatalf("second completion: %v", err)
	}

	if resp.Rewards.DailyStreak != 1 || resp.Rewards.StreakIncreased {
		t.Errorf("streak = %d increased = %v, want 1 false", resp.Rewards.DailyStreak, resp.Rewards.StreakIncreased)
	}
	// XP still accumulates
	if resp.Rewards.NewTotalXP != 110 {
		t.Errorf("NewTotalXP = %d, want 110", resp.Rewards.NewTotalXP)
	}
}

func TestClaimDailyLoginTwice(t *testing.T) {
	store := newFakeStore()
	store.addUser(1)
	svc := newTestService(store, date(2026, 3, 10, 8))

	first, err := svc.ClaimDailyLogin(1)
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if first.AlreadyClaimed {
		t.Fatal("first claim reported AlreadyClaimed")
	}
	if first.XPEarned != 25 || first.Streak != 1 {
		t.Errorf("first claim = %d XP streak %d, want 25 XP streak 1", first.XPEarned, first.Streak)
	}

	second, err := svc.ClaimDailyLogin(1)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if !second.AlreadyClaimed {
		t.Error("second same-day claim not rejected")
	}
	if second.TotalXP != first.TotalXP {
		t.Errorf("second claim changed TotalXP: %d -> %d", first.TotalXP, second.TotalXP)
	}

	// Exactly one ledger entry
	entries, total, _ := store.ListRewards(1, 50, 0)
	if total != 1 || entries[0].Type != models.RewardDailyLogin {
		t.Errorf("ledger has %d entries, want 1 daily_login", total)
	}
}

func TestDailyLoginStreakBonus(t *testing.T) {
	store := newFakeStore()
	store.addUser(1)
	day1 := date(2026, 3, 10, 8)

	svc := newTestService(store, day1)
	if _, err := svc.ClaimDailyLogin(1); err != nil {
		t.Fatalf("day 1: %v", err)
	}

	svc = newTestService(store, day1.AddDate(0, 0, 1))
	resp, err := svc.ClaimDailyLogin(1)
	if err != nil {
		t.Fatalf("day 2: %v", err)
	}

	// 25 base + 2-day streak * 5
	if resp.XPEarned != 35 || resp.Streak != 2 {
		t.Errorf("day 2 claim = %d XP streak %d, want 35 XP streak 2", resp.XPEarned, resp.Streak)
	}
}

func TestAchievementUnlockOnCompletion(t *testing.T) {
	store := newFakeStore()
	store.addUser(1)
	store.ReplaceAchievementDefs([]models.Achievement{
		{Name: "First Steps", Condition: models.ConditionSessions, Threshold: 1, XPReward: 50},
	})
	svc := newTestService(store, date(2026, 3, 10, 12))

	resp, err := svc.CompleteStudySession(1, models.CompleteSessionRequest{
		DungeonName: "Algebra Dungeon", Difficulty: "C-Rank", BaseXP: 50, WasSuccessful: true,
	})
	if err != nil {
		t.Fatalf("CompleteStudySession: %v", err)
	}

	if len(resp.AchievementsUnlocked) != 1 {
		t.Fatalf("unlocked %d achievements, want 1", len(resp.AchievementsUnlocked))
	}
	if resp.AchievementsUnlocked[0].Achievement.Name != "First Steps" {
		t.Errorf("unlocked %q, want First Steps", resp.AchievementsUnlocked[0].Achievement.Name)
	}
	// Response totals include the achievement's XP reward
	if resp.Rewards.NewTotalXP != 100 {
		t.Errorf("NewTotalXP = %d, want 100 (50 session + 50 achievement)", resp.Rewards.NewTotalXP)
	}

	// A second completion does not re-unlock
	svc = newTestService(store, date(2026, 3, 11, 12))
	resp, err = svc.CompleteStudySession(1, models.CompleteSessionRequest{
		DungeonName: "Algebra Dungeon", Difficulty: "C-Rank", BaseXP: 50, WasSuccessful: true,
	})
	if err != nil {
		t.Fatalf("second completion: %v", err)
	}
	if len(resp.AchievementsUnlocked) != 0 {
		t.Errorf("second completion unlocked %d achievements, want 0", len(resp.AchievementsUnlocked))
	}
}

func TestLedgerReconciliation(t *testing.T) {
	store := newFakeStore()
	store.addUser(1)
	store.ReplaceAchievementDefs(SeedAchievements)
	day := date(2026, 3, 10, 9)

	for i := 0; i < 12; i++ {
		svc := newTestService(store, day.AddDate(0, 0, i))
		if _, err := svc.ClaimDailyLogin(1); err != nil {
			t.Fatalf("day %d login: %v", i, err)
		}
		if _, err := svc.CompleteStudySession(1, models.CompleteSessionRequest{
			DungeonName: "Algebra Dungeon", Difficulty: "C-Rank", BaseXP: 50, ComboStreak: i, WasSuccessful: true,
		}); err != nil {
			t.Fatalf("day %d session: %v", i, err)
		}
	}

	user, err := store.GetUser(1)
	if err != nil {
		t.Fatal(err)
	}

	var sum int64
	for _, e := range store.ledger {
		sum += int64(e.Amount)
	}
	if sum != user.TotalXP {
		t.Errorf("ledger sum %d != total XP %d", sum, user.TotalXP)
	}
	if user.Level != Level(user.TotalXP) {
		t.Errorf("stored level %d != derived level %d", user.Level, Level(user.TotalXP))
	}
}

func TestManualAward(t *testing.T) {
	store := newFakeStore()
	store.addUser(1)
	svc := newTestService(store, date(2026, 3, 10, 9))

	user, entry, err := svc.ManualAward(99, models.ManualRewardRequest{
		UserID: 1, Amount: 500, Description: "Contest winner",
	})
	if err != nil {
		t.Fatalf("ManualAward: %v", err)
	}
	if user.TotalXP != 500 || user.Level != Level(500) {
		t.Errorf("user after award = %d XP level %d", user.TotalXP, user.Level)
	}
	if entry.Type != models.RewardManual {
		t.Errorf("entry type = %q, want manual", entry.Type)
	}

	// Negative correction cannot push the total below zero
	user, _, err = svc.ManualAward(99, models.ManualRewardRequest{
		UserID: 1, Amount: -1000, Description: "Correction",
	})
	if err != nil {
		t.Fatalf("negative award: %v", err)
	}
	if user.TotalXP != 0 || user.Level != 1 {
		t.Errorf("user after correction = %d XP level %d, want 0 XP level 1", user.TotalXP, user.Level)
	}

	// Missing fields rejected
	if _, _, err := svc.ManualAward(99, models.ManualRewardRequest{Amount: 10}); err == nil {
		t.Error("missing user_id not rejected")
	}
	if _, _, err := svc.ManualAward(99, models.ManualRewardRequest{UserID: 1}); err == nil {
		t.Error("zero amount not rejected")
	}
}

func TestGetSummary(t *testing.T) {
	store := newFakeStore()
	store.addUser(1)
	svc := newTestService(store, date(2026, 3, 10, 9))

	if _, err := svc.CompleteStudySession(1, models.CompleteSessionRequest{
		DungeonName: "Algebra Dungeon", Difficulty: "C-Rank", BaseXP: 250,
	}); err != nil {
		t.Fatal(err)
	}

	resp, err := svc.GetSummary(1)
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}
	if resp.TotalXP != 250 || resp.Level != 2 {
		t.Errorf("summary = %d XP level %d, want 250 XP level 2", resp.TotalXP, resp.Level)
	}
	if resp.LevelProgress < 0 || resp.LevelProgress > 1 {
		t.Errorf("LevelProgress = %f outside [0, 1]", resp.LevelProgress)
	}
	if len(resp.RecentRewards) != 1 {
		t.Errorf("recent rewards = %d, want 1", len(resp.RecentRewards))
	}
}

package rewards

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/studyquest/backend/internal/models"
)

// PostgresStore implements Store on database/sql. Completion and claim
// methods run in a single transaction with the user row locked
// (SELECT ... FOR UPDATE), which serializes concurrent updates per user.
type PostgresStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const userColumns = `id, email, username, user_type, total_xp, level, daily_streak,
	last_session_date, last_login_reward, coins,
	COALESCE(grade, ''), COALESCE(qualifications, ''), bio, is_verified,
	last_login, created_at, updated_at`

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.UserType, &u.TotalXP, &u.Level,
		&u.DailyStreak, &u.LastSessionDate, &u.LastLoginReward, &u.Coins,
		&u.Grade, &u.Qualifications, &u.Bio, &u.IsVerified,
		&u.LastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUser(userID int64) (*models.User, error) {
	return scanUser(s.db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE id = $1`, userID,
	))
}

// lockedAggregate is the slice of the user row the completion paths mutate.
type lockedAggregate struct {
	totalXP         int64
	level           int
	dailyStreak     int
	lastSessionDate *time.Time
	lastLoginReward *time.Time
	coins           int
}

func lockUser(tx *sql.Tx, userID int64) (*lockedAggregate, error) {
	var agg lockedAggregate
	err := tx.QueryRow(
		`SELECT total_xp, level, daily_streak, last_session_date, last_login_reward, coins
		 FROM users WHERE id = $1 FOR UPDATE`,
		userID,
	).Scan(&agg.totalXP, &agg.level, &agg.dailyStreak,
		&agg.lastSessionDate, &agg.lastLoginReward, &agg.coins)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock user: %w", err)
	}
	return &agg, nil
}

func appendLedgerTx(tx *sql.Tx, e *models.RewardEntry) error {
	var detail *string
	if e.Detail != nil {
		if b, err := json.Marshal(e.Detail); err == nil {
			s := string(b)
			detail = &s
		}
	}
	return tx.QueryRow(
		`INSERT INTO reward_history (user_id, amount, type, description, detail)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`,
		e.UserID, e.Amount, e.Type, e.Description, detail,
	).Scan(&e.ID, &e.CreatedAt)
}

func logActivityTx(tx *sql.Tx, userID int64, activityType, description string, metadata map[string]interface{}) error {
	var meta *string
	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			s := string(b)
			meta = &s
		}
	}
	_, err := tx.Exec(
		`INSERT INTO user_activity (user_id, activity_type, description, metadata)
		 VALUES ($1, $2, $3, $4)`,
		userID, activityType, description, meta,
	)
	return err
}

// ── Completion ──────────────────────────────────────────

func (s *PostgresStore) ApplyStudyCompletion(userID int64, earnedXP int, sess *models.StudySession) (*CompletionOutcome, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	agg, err := lockUser(tx, userID)
	if err != nil {
		return nil, err
	}

	upd := AdvanceStreak(agg.lastSessionDate, sess.CompletedAt, agg.dailyStreak)
	newTotal := agg.totalXP + int64(earnedXP)
	newLevel := Level(newTotal)

	_, err = tx.Exec(
		`UPDATE users SET total_xp = $2, level = $3, daily_streak = $4,
		    last_session_date = $5, updated_at = NOW()
		 WHERE id = $1`,
		userID, newTotal, newLevel, upd.Streak, sess.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update user aggregate: %w", err)
	}

	err = tx.QueryRow(
		`INSERT INTO study_sessions (user_id, dungeon_name, difficulty, duration,
		    base_xp, bonus_xp, total_xp, was_successful, started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at`,
		sess.UserID, sess.DungeonName, sess.Difficulty, sess.Duration,
		sess.BaseXP, sess.BonusXP, sess.TotalXP, sess.WasSuccessful,
		sess.StartedAt, sess.CompletedAt,
	).Scan(&sess.ID, &sess.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert study session: %w", err)
	}

	entry := &models.RewardEntry{
		UserID:      userID,
		Amount:      earnedXP,
		Type:        models.RewardSessionComplete,
		Description: fmt.Sprintf("Completed %s (%s)", sess.DungeonName, sess.Difficulty),
		Detail: map[string]interface{}{
			"base_xp":     sess.BaseXP,
			"bonus_xp":    sess.BonusXP,
			"session_id":  sess.ID,
			"duration":    sess.Duration,
		},
	}
	if err := appendLedgerTx(tx, entry); err != nil {
		return nil, fmt.Errorf("append ledger entry: %w", err)
	}

	if err := logActivityTx(tx, userID, models.ActivitySessionComplete,
		fmt.Sprintf("Completed %s (%s)", sess.DungeonName, sess.Difficulty),
		map[string]interface{}{
			"dungeon_name": sess.DungeonName,
			"difficulty":   sess.Difficulty,
			"duration":     sess.Duration,
			"xp_gained":    earnedXP,
		}); err != nil {
		return nil, fmt.Errorf("log activity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}
	return &CompletionOutcome{User: user, Streak: upd, OldLevel: agg.level}, nil
}

func (s *PostgresStore) ApplyQuizCompletion(userID int64, earnedXP int, quiz *models.QuizSession) (*CompletionOutcome, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	agg, err := lockUser(tx, userID)
	if err != nil {
		return nil, err
	}

	upd := AdvanceStreak(agg.lastSessionDate, quiz.CompletedAt, agg.dailyStreak)
	newTotal := agg.totalXP + int64(earnedXP)
	newLevel := Level(newTotal)

	_, err = tx.Exec(
		`UPDATE users SET total_xp = $2, level = $3, daily_streak = $4,
		    last_session_date = $5, updated_at = NOW()
		 WHERE id = $1`,
		userID, newTotal, newLevel, upd.Streak, quiz.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update user aggregate: %w", err)
	}

	err = tx.QueryRow(
		`INSERT INTO quiz_sessions (user_id, topic, difficulty, score, total_questions,
		    combo_streak, xp_earned, hints_used, avg_time_to_answer, duration, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at`,
		quiz.UserID, quiz.Topic, quiz.Difficulty, quiz.Score, quiz.TotalQuestions,
		quiz.ComboStreak, quiz.XPEarned, quiz.HintsUsed, quiz.AvgTimeToAnswer,
		quiz.Duration, quiz.CompletedAt,
	).Scan(&quiz.ID, &quiz.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert quiz session: %w", err)
	}

	entry := &models.RewardEntry{
		UserID:      userID,
		Amount:      earnedXP,
		Type:        models.RewardQuizComplete,
		Description: fmt.Sprintf("Completed quiz: %s (%s) - Score: %d/%d", quiz.Topic, quiz.Difficulty, quiz.Score, quiz.TotalQuestions),
		Detail: map[string]interface{}{
			"topic":        quiz.Topic,
			"score":        quiz.Score,
			"combo_streak": quiz.ComboStreak,
			"quiz_id":      quiz.ID,
		},
	}
	if err := appendLedgerTx(tx, entry); err != nil {
		return nil, fmt.Errorf("append ledger entry: %w", err)
	}

	if err := logActivityTx(tx, userID, models.ActivityQuizComplete,
		fmt.Sprintf("Completed quiz: %s (%s) - Score: %d/%d", quiz.Topic, quiz.Difficulty, quiz.Score, quiz.TotalQuestions),
		map[string]interface{}{
			"topic":           quiz.Topic,
			"difficulty":      quiz.Difficulty,
			"score":           quiz.Score,
			"total_questions": quiz.TotalQuestions,
			"combo_streak":    quiz.ComboStreak,
			"xp_earned":       earnedXP,
		}); err != nil {
		return nil, fmt.Errorf("log activity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}
	return &CompletionOutcome{User: user, Streak: upd, OldLevel: agg.level}, nil
}

// ── Daily Login ─────────────────────────────────────────

func (s *PostgresStore) ClaimDailyLogin(userID int64, now time.Time) (*LoginOutcome, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	agg, err := lockUser(tx, userID)
	if err != nil {
		return nil, err
	}

	upd := AdvanceStreak(agg.lastLoginReward, now, agg.dailyStreak)
	if upd.AlreadyToday {
		return &LoginOutcome{
			AlreadyClaimed: true,
			Streak:         agg.dailyStreak,
			TotalXP:        agg.totalXP,
		}, nil
	}

	xp := DailyLoginXP(upd.Streak, upd.Extended && agg.lastLoginReward != nil)
	newTotal := agg.totalXP + int64(xp)
	newLevel := Level(newTotal)

	_, err = tx.Exec(
		`UPDATE users SET total_xp = $2, level = $3, daily_streak = $4,
		    last_login_reward = $5, updated_at = NOW()
		 WHERE id = $1`,
		userID, newTotal, newLevel, upd.Streak, now,
	)
	if err != nil {
		return nil, fmt.Errorf("update user aggregate: %w", err)
	}

	entry := &models.RewardEntry{
		UserID:      userID,
		Amount:      xp,
		Type:        models.RewardDailyLogin,
		Description: fmt.Sprintf("Daily login bonus (%d day streak)", upd.Streak),
	}
	if err := appendLedgerTx(tx, entry); err != nil {
		return nil, fmt.Errorf("append ledger entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return &LoginOutcome{XPEarned: xp, Streak: upd.Streak, TotalXP: newTotal}, nil
}

// ── Manual XP ───────────────────────────────────────────

func (s *PostgresStore) AddXP(userID int64, amount int, entry *models.RewardEntry) (*models.User, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	agg, err := lockUser(tx, userID)
	if err != nil {
		return nil, err
	}

	newTotal := agg.totalXP + int64(amount)
	if newTotal < 0 {
		newTotal = 0
	}
	newLevel := Level(newTotal)

	_, err = tx.Exec(
		`UPDATE users SET total_xp = $2, level = $3, updated_at = NOW() WHERE id = $1`,
		userID, newTotal, newLevel,
	)
	if err != nil {
		return nil, fmt.Errorf("update user aggregate: %w", err)
	}

	if err := appendLedgerTx(tx, entry); err != nil {
		return nil, fmt.Errorf("append ledger entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return s.GetUser(userID)
}

// ── Ledger Queries ──────────────────────────────────────

func scanRewardRows(rows *sql.Rows) ([]models.RewardEntry, error) {
	entries := []models.RewardEntry{}
	for rows.Next() {
		var e models.RewardEntry
		var detail *string
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount, &e.Type, &e.Description, &detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reward entry: %w", err)
		}
		if detail != nil {
			json.Unmarshal([]byte(*detail), &e.Detail)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *PostgresStore) ListRewards(userID int64, limit, offset int) ([]models.RewardEntry, int, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, amount, type, description, detail, created_at
		 FROM reward_history WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list rewards: %w", err)
	}
	defer rows.Close()

	entries, err := scanRewardRows(rows)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM reward_history WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count rewards: %w", err)
	}

	return entries, total, nil
}

func (s *PostgresStore) RecentRewards(userID int64, since time.Time, limit int) ([]models.RewardEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, amount, type, description, detail, created_at
		 FROM reward_history WHERE user_id = $1 AND created_at >= $2
		 ORDER BY created_at DESC LIMIT $3`,
		userID, since, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent rewards: %w", err)
	}
	defer rows.Close()

	return scanRewardRows(rows)
}

// ── Achievements ────────────────────────────────────────

func (s *PostgresStore) LifetimeStats(userID int64) (*Stats, error) {
	var stats Stats
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM study_sessions WHERE user_id = $1 AND was_successful`,
		userID,
	).Scan(&stats.SuccessfulSessions)
	if err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}

	err = s.db.QueryRow(
		`SELECT COALESCE(MAX(combo_streak), 0), COALESCE(MAX(score), 0)
		 FROM quiz_sessions WHERE user_id = $1`,
		userID,
	).Scan(&stats.MaxCombo, &stats.MaxQuizScore)
	if err != nil {
		return nil, fmt.Errorf("quiz stats: %w", err)
	}

	return &stats, nil
}

func scanAchievement(rows *sql.Rows) (models.Achievement, error) {
	var a models.Achievement
	err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.Icon, &a.Condition,
		&a.Threshold, &a.XPReward, &a.Tier, &a.CreatedAt)
	return a, err
}

func (s *PostgresStore) AchievementDefs() ([]models.Achievement, error) {
	rows, err := s.db.Query(
		`SELECT id, name, description, icon, condition, threshold, xp_reward, tier, created_at
		 FROM achievements ORDER BY threshold`,
	)
	if err != nil {
		return nil, fmt.Errorf("get achievements: %w", err)
	}
	defer rows.Close()

	defs := []models.Achievement{}
	for rows.Next() {
		a, err := scanAchievement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan achievement: %w", err)
		}
		defs = append(defs, a)
	}
	return defs, rows.Err()
}

func (s *PostgresStore) UnlockedAchievementIDs(userID int64) (map[int64]bool, error) {
	rows, err := s.db.Query(
		`SELECT achievement_id FROM user_achievements WHERE user_id = $1`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("get unlocked achievements: %w", err)
	}
	defer rows.Close()

	unlocked := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		unlocked[id] = true
	}
	return unlocked, rows.Err()
}

func (s *PostgresStore) UnlockAchievement(userID int64, def *models.Achievement, now time.Time) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	agg, err := lockUser(tx, userID)
	if err != nil {
		return false, err
	}

	// Conditional insert guarantees at-most-once even under concurrent
	// evaluations of the same stats.
	res, err := tx.Exec(
		`INSERT INTO user_achievements (user_id, achievement_id, unlocked_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, achievement_id) DO NOTHING`,
		userID, def.ID, now,
	)
	if err != nil {
		return false, fmt.Errorf("insert unlock: %w", err)
	}
	inserted, _ := res.RowsAffected()
	if inserted == 0 {
		return false, nil
	}

	if def.XPReward > 0 {
		newTotal := agg.totalXP + int64(def.XPReward)
		_, err = tx.Exec(
			`UPDATE users SET total_xp = $2, level = $3, updated_at = NOW() WHERE id = $1`,
			userID, newTotal, Level(newTotal),
		)
		if err != nil {
			return false, fmt.Errorf("award achievement XP: %w", err)
		}
	}

	entry := &models.RewardEntry{
		UserID:      userID,
		Amount:      def.XPReward,
		Type:        models.RewardAchievement,
		Description: fmt.Sprintf("Achievement unlocked: %s", def.Name),
		Detail: map[string]interface{}{
			"achievement_id": def.ID,
			"tier":           def.Tier,
		},
	}
	if err := appendLedgerTx(tx, entry); err != nil {
		return false, fmt.Errorf("append ledger entry: %w", err)
	}

	if err := logActivityTx(tx, userID, models.ActivityAchievementUnlocked,
		fmt.Sprintf("Unlocked achievement: %s", def.Name),
		map[string]interface{}{"achievement_id": def.ID, "xp_reward": def.XPReward},
	); err != nil {
		return false, fmt.Errorf("log activity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

func (s *PostgresStore) UserAchievements(userID int64) ([]models.UserAchievement, error) {
	rows, err := s.db.Query(
		`SELECT ua.achievement_id, ua.unlocked_at,
		        a.id, a.name, a.description, a.icon, a.condition, a.threshold, a.xp_reward, a.tier, a.created_at
		 FROM user_achievements ua
		 JOIN achievements a ON a.id = ua.achievement_id
		 WHERE ua.user_id = $1
		 ORDER BY ua.unlocked_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("get user achievements: %w", err)
	}
	defer rows.Close()

	unlocks := []models.UserAchievement{}
	for rows.Next() {
		var ua models.UserAchievement
		var a models.Achievement
		if err := rows.Scan(&ua.AchievementID, &ua.UnlockedAt,
			&a.ID, &a.Name, &a.Description, &a.Icon, &a.Condition,
			&a.Threshold, &a.XPReward, &a.Tier, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user achievement: %w", err)
		}
		ua.Achievement = &a
		unlocks = append(unlocks, ua)
	}
	return unlocks, rows.Err()
}

func (s *PostgresStore) ReplaceAchievementDefs(defs []models.Achievement) ([]models.Achievement, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM achievements`); err != nil {
		return nil, fmt.Errorf("clear achievements: %w", err)
	}

	created := make([]models.Achievement, 0, len(defs))
	for _, def := range defs {
		err := tx.QueryRow(
			`INSERT INTO achievements (name, description, icon, condition, threshold, xp_reward, tier)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING id, created_at`,
			def.Name, def.Description, def.Icon, def.Condition,
			def.Threshold, def.XPReward, def.Tier,
		).Scan(&def.ID, &def.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("insert achievement %q: %w", def.Name, err)
		}
		created = append(created, def)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return created, nil
}

// ── Streak ──────────────────────────────────────────────

func (s *PostgresStore) UpdateStreak(userID int64, now time.Time) (*models.User, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	agg, err := lockUser(tx, userID)
	if err != nil {
		return nil, err
	}

	upd := AdvanceStreak(agg.lastSessionDate, now, agg.dailyStreak)
	if !upd.AlreadyToday {
		_, err = tx.Exec(
			`UPDATE users SET daily_streak = $2, last_session_date = $3, updated_at = NOW()
			 WHERE id = $1`,
			userID, upd.Streak, now,
		)
		if err != nil {
			return nil, fmt.Errorf("update streak: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return s.GetUser(userID)
}

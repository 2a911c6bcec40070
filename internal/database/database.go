package database

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
)

func Connect() (*sql.DB, error) {
	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "studyquest_user")
	password := getEnv("DB_PASSWORD", "studyquest_password")
	dbname := getEnv("DB_NAME", "studyquest")
	sslmode := getEnv("DB_SSLMODE", "disable")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

func Migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id                BIGSERIAL PRIMARY KEY,
		email             VARCHAR(255) UNIQUE NOT NULL,
		username          VARCHAR(100) NOT NULL,
		password          VARCHAR(255) NOT NULL,
		user_type         VARCHAR(20) NOT NULL CHECK (user_type IN ('student', 'teacher')),
		total_xp          BIGINT NOT NULL DEFAULT 0,
		level             INT NOT NULL DEFAULT 1,
		daily_streak      INT NOT NULL DEFAULT 0,
		last_session_date TIMESTAMP WITH TIME ZONE,
		last_login_reward TIMESTAMP WITH TIME ZONE,
		coins             INT NOT NULL DEFAULT 0,
		grade             VARCHAR(50),
		qualifications    TEXT,
		bio               TEXT NOT NULL DEFAULT '',
		is_verified       BOOLEAN NOT NULL DEFAULT FALSE,
		last_login        TIMESTAMP WITH TIME ZONE,
		created_at        TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at        TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

	CREATE TABLE IF NOT EXISTS admins (
		id         BIGSERIAL PRIMARY KEY,
		email      VARCHAR(255) UNIQUE NOT NULL,
		name       VARCHAR(255) NOT NULL,
		password   VARCHAR(255) NOT NULL,
		last_login TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS achievements (
		id          BIGSERIAL PRIMARY KEY,
		name        VARCHAR(100) UNIQUE NOT NULL,
		description TEXT NOT NULL,
		icon        VARCHAR(20) NOT NULL DEFAULT '🏆',
		condition   VARCHAR(20) NOT NULL CHECK (condition IN ('streak', 'sessions', 'xp', 'quiz_score', 'combo')),
		threshold   INT NOT NULL,
		xp_reward   INT NOT NULL DEFAULT 0,
		tier        VARCHAR(20) NOT NULL DEFAULT 'bronze' CHECK (tier IN ('bronze', 'silver', 'gold', 'platinum')),
		created_at  TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS user_achievements (
		id             BIGSERIAL PRIMARY KEY,
		user_id        BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		achievement_id BIGINT NOT NULL REFERENCES achievements(id) ON DELETE CASCADE,
		unlocked_at    TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(user_id, achievement_id)
	);

	CREATE INDEX IF NOT EXISTS idx_user_achievements_user ON user_achievements(user_id);

	CREATE TABLE IF NOT EXISTS reward_history (
		id          BIGSERIAL PRIMARY KEY,
		user_id     BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		amount      INT NOT NULL,
		type        VARCHAR(30) NOT NULL CHECK (type IN (
			'daily_login', 'quiz_complete', 'session_complete', 'achievement',
			'combo_bonus', 'streak_bonus', 'speed_bonus', 'accuracy_bonus',
			'difficulty_bonus', 'manual', 'event_bonus'
		)),
		description TEXT NOT NULL DEFAULT '',
		detail      JSONB,
		created_at  TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_reward_history_user ON reward_history(user_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_reward_history_type ON reward_history(type);

	CREATE TABLE IF NOT EXISTS study_sessions (
		id             BIGSERIAL PRIMARY KEY,
		user_id        BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		dungeon_name   VARCHAR(255) NOT NULL,
		difficulty     VARCHAR(20) NOT NULL,
		duration       INT NOT NULL,
		base_xp        INT NOT NULL,
		bonus_xp       INT NOT NULL DEFAULT 0,
		total_xp       INT NOT NULL,
		was_successful BOOLEAN NOT NULL DEFAULT TRUE,
		started_at     TIMESTAMP WITH TIME ZONE NOT NULL,
		completed_at   TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		created_at     TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_study_sessions_user ON study_sessions(user_id, completed_at DESC);
	CREATE INDEX IF NOT EXISTS idx_study_sessions_completed ON study_sessions(completed_at);

	CREATE TABLE IF NOT EXISTS quiz_sessions (
		id                 BIGSERIAL PRIMARY KEY,
		user_id            BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		topic              VARCHAR(100) NOT NULL,
		difficulty         VARCHAR(20) NOT NULL,
		score              INT NOT NULL,
		total_questions    INT NOT NULL,
		combo_streak       INT NOT NULL DEFAULT 0,
		xp_earned          INT NOT NULL DEFAULT 0,
		hints_used         INT NOT NULL DEFAULT 0,
		avg_time_to_answer REAL NOT NULL DEFAULT 0,
		duration           INT NOT NULL DEFAULT 0,
		completed_at       TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		created_at         TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_quiz_sessions_user ON quiz_sessions(user_id, completed_at DESC);
	CREATE INDEX IF NOT EXISTS idx_quiz_sessions_topic ON quiz_sessions(topic);
	CREATE INDEX IF NOT EXISTS idx_quiz_sessions_created ON quiz_sessions(created_at);

	CREATE TABLE IF NOT EXISTS quiz_questions (
		id             BIGSERIAL PRIMARY KEY,
		topic          VARCHAR(100) NOT NULL,
		difficulty     VARCHAR(20) NOT NULL,
		question       TEXT NOT NULL,
		answers        JSONB NOT NULL,
		correct_answer TEXT NOT NULL,
		explanation    TEXT NOT NULL DEFAULT '',
		created_at     TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_quiz_questions_topic ON quiz_questions(topic, difficulty);

	CREATE TABLE IF NOT EXISTS user_activity (
		id            BIGSERIAL PRIMARY KEY,
		user_id       BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		activity_type VARCHAR(30) NOT NULL,
		description   TEXT NOT NULL,
		metadata      JSONB,
		created_at    TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_user_activity_user ON user_activity(user_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_user_activity_type ON user_activity(activity_type, created_at DESC);

	CREATE TABLE IF NOT EXISTS messages (
		id              BIGSERIAL PRIMARY KEY,
		from_admin_id   BIGINT NOT NULL REFERENCES admins(id),
		to_user_id      BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		subject         VARCHAR(255) NOT NULL,
		content         TEXT NOT NULL,
		is_read         BOOLEAN NOT NULL DEFAULT FALSE,
		read_at         TIMESTAMP WITH TIME ZONE,
		is_announcement BOOLEAN NOT NULL DEFAULT FALSE,
		created_at      TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_messages_to ON messages(to_user_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_messages_unread ON messages(to_user_id, is_read);

	CREATE TABLE IF NOT EXISTS daily_analytics (
		id            BIGSERIAL PRIMARY KEY,
		report_date   DATE UNIQUE NOT NULL,
		topic_mastery JSONB NOT NULL DEFAULT '[]',
		user_activity JSONB NOT NULL DEFAULT '{}',
		quiz_metrics  JSONB NOT NULL DEFAULT '{}',
		created_at    TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_daily_analytics_date ON daily_analytics(report_date);
	`

	_, err := db.Exec(query)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

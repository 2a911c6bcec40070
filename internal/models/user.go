package models

import "time"

// User account types.
const (
	UserTypeStudent = "student"
	UserTypeTeacher = "teacher"
)

type User struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"-"`
	UserType string `json:"user_type"`

	// Gamification aggregate. Level is stored denormalized but is always
	// recomputed from TotalXP on every XP change.
	TotalXP         int64      `json:"total_xp"`
	Level           int        `json:"level"`
	DailyStreak     int        `json:"daily_streak"`
	LastSessionDate *time.Time `json:"last_session_date"`
	LastLoginReward *time.Time `json:"last_login_reward"`
	Coins           int        `json:"coins"`

	// Role-specific fields.
	Grade          string `json:"grade,omitempty"`
	Qualifications string `json:"qualifications,omitempty"`

	Bio        string     `json:"bio,omitempty"`
	IsVerified bool       `json:"is_verified"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type RegisterRequest struct {
	Email          string `json:"email"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	UserType       string `json:"user_type"`
	Grade          string `json:"grade,omitempty"`
	Qualifications string `json:"qualifications,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

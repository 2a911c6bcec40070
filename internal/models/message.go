package models

import "time"

// Message is an admin-to-user message. Announcements fan out to every user
// as individual rows.
type Message struct {
	ID             int64      `json:"id"`
	FromAdminID    int64      `json:"from_admin_id"`
	FromAdminName  string     `json:"from_admin_name,omitempty"`
	ToUserID       int64      `json:"to_user_id"`
	ToUsername     string     `json:"to_username,omitempty"`
	Subject        string     `json:"subject"`
	Content        string     `json:"content"`
	IsRead         bool       `json:"is_read"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	IsAnnouncement bool       `json:"is_announcement"`
	CreatedAt      time.Time  `json:"created_at"`
}

type Admin struct {
	ID        int64      `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Password  string     `json:"-"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ── Request Types ─────────────────────────────────────────

type SendMessageRequest struct {
	To             []int64 `json:"to,omitempty"`
	Subject        string  `json:"subject"`
	Content        string  `json:"content"`
	IsAnnouncement bool    `json:"is_announcement"`
}

type AdminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ── Response Types ────────────────────────────────────────

type MessagesResponse struct {
	Messages    []Message `json:"messages"`
	UnreadCount int       `json:"unread_count"`
}

type AdminAuthResponse struct {
	Token string `json:"token"`
	Admin Admin  `json:"admin"`
}

type DashboardStats struct {
	TotalUsers       int `json:"total_users"`
	TotalMessages    int `json:"total_messages"`
	RecentActivities int `json:"recent_activities"`
}

type AdminUserEntry struct {
	User
	IsOnline bool `json:"is_online"`
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type AdminUsersResponse struct {
	Users      []AdminUserEntry `json:"users"`
	Pagination Pagination       `json:"pagination"`
}

type AdminActivitiesResponse struct {
	Activities []UserActivity `json:"activities"`
	Pagination Pagination     `json:"pagination"`
}

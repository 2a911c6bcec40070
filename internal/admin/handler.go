package admin

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/studyquest/backend/internal/auth"
	"github.com/studyquest/backend/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// onlineWindow is how recently a user must have logged in to count as
// online on the dashboard.
const onlineWindow = 30 * time.Minute

type Handler struct {
	db *sql.DB
}

func NewHandler(db *sql.DB) *Handler {
	return &Handler{db: db}
}

func getAdminID(r *http.Request) (int64, bool) {
	uid, ok := r.Context().Value("admin_id").(int64)
	return uid, ok
}

// ── Auth ────────────────────────────────────────────────

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.AdminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Email and password are required"})
		return
	}

	var admin models.Admin
	var hashedPassword string
	err := h.db.QueryRow(
		`SELECT id, email, name, password, last_login, created_at FROM admins WHERE email = $1`,
		req.Email,
	).Scan(&admin.ID, &admin.Email, &admin.Name, &hashedPassword, &admin.LastLogin, &admin.CreatedAt)

	if err == sql.ErrNoRows {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid email or password"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Internal server error"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(req.Password)); err != nil {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid email or password"})
		return
	}

	now := time.Now()
	admin.LastLogin = &now
	h.db.Exec(`UPDATE admins SET last_login = $2 WHERE id = $1`, admin.ID, now)

	token, err := auth.GenerateAdminToken(admin.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to generate token"})
		return
	}

	writeJSON(w, http.StatusOK, models.AdminAuthResponse{Token: token, Admin: admin})
}

// ── Dashboard ───────────────────────────────────────────

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if _, ok := getAdminID(r); !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Admin authentication required"})
		return
	}

	var stats models.DashboardStats
	if err := h.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&stats.TotalUsers); err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to get dashboard stats"})
		return
	}
	if err := h.db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&stats.TotalMessages); err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to get dashboard stats"})
		return
	}
	if err := h.db.QueryRow(
		`SELECT COUNT(*) FROM user_activity WHERE created_at >= $1`,
		time.Now().Add(-24*time.Hour),
	).Scan(&stats.RecentActivities); err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to get dashboard stats"})
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := getAdminID(r); !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Admin authentication required"})
		return
	}

	page := intQueryParam(r.URL.Query(), "page", 1)
	if page < 1 {
		page = 1
	}
	limit := intQueryParam(r.URL.Query(), "limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	onlineCutoff := time.Now().Add(-onlineWindow)
	pattern := "%" + search + "%"

	rows, err := h.db.Query(
		`SELECT id, email, username, user_type, total_xp, level, daily_streak, coins,
		        is_verified, last_login, created_at,
		        (last_login IS NOT NULL AND last_login >= $1) AS is_online
		 FROM users
		 WHERE ($2 = '' OR email ILIKE $3 OR username ILIKE $3)
		 ORDER BY created_at DESC
		 LIMIT $4 OFFSET $5`,
		onlineCutoff, search, pattern, limit, (page-1)*limit,
	)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to get users"})
		return
	}
	defer rows.Close()

	users := []models.AdminUserEntry{}
	for rows.Next() {
		var u models.AdminUserEntry
		if err := rows.Scan(&u.ID, &u.Email, &u.Username, &u.UserType, &u.TotalXP,
			&u.Level, &u.DailyStreak, &u.Coins, &u.IsVerified, &u.LastLogin,
			&u.CreatedAt, &u.IsOnline); err != nil {
			writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to get users"})
			return
		}
		users = append(users, u)
	}

	var total int
	if err := h.db.QueryRow(
		`SELECT COUNT(*) FROM users WHERE ($1 = '' OR email ILIKE $2 OR username ILIKE $2)`,
		search, pattern,
	).Scan(&total); err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to get users"})
		return
	}

	writeJSON(w, http.StatusOK, models.AdminUsersResponse{
		Users:      users,
		Pagination: paginate(page, limit, total),
	})
}

func (h *Handler) ListActivities(w http.ResponseWriter, r *http.Request) {
	if _, ok := getAdminID(r); !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Admin authentication required"})
		return
	}

	page := intQueryParam(r.URL.Query(), "page", 1)
	if page < 1 {
		page = 1
	}
	limit := intQueryParam(r.URL.Query(), "limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	activityType := r.URL.Query().Get("type")

	rows, err := h.db.Query(
		`SELECT id, user_id, activity_type, description, metadata, created_at
		 FROM user_activity
		 WHERE ($1 = '' OR activity_type = $1)
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		activityType, limit, (page-1)*limit,
	)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to get activities"})
		return
	}
	defer rows.Close()

	activities := []models.UserActivity{}
	for rows.Next() {
		var a models.UserActivity
		var meta *string
		if err := rows.Scan(&a.ID, &a.UserID, &a.ActivityType, &a.Description, &meta, &a.CreatedAt); err != nil {
			writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to get activities"})
			return
		}
		if meta != nil {
			json.Unmarshal([]byte(*meta), &a.Metadata)
		}
		activities = append(activities, a)
	}

	var total int
	if err := h.db.QueryRow(
		`SELECT COUNT(*) FROM user_activity WHERE ($1 = '' OR activity_type = $1)`,
		activityType,
	).Scan(&total); err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to get activities"})
		return
	}

	writeJSON(w, http.StatusOK, models.AdminActivitiesResponse{
		Activities: activities,
		Pagination: paginate(page, limit, total),
	})
}

// OnlineUsers lists users with a login activity inside the online window.
func (h *Handler) OnlineUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := getAdminID(r); !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Admin authentication required"})
		return
	}

	rows, err := h.db.Query(
		`SELECT DISTINCT u.id, u.username, u.email, u.last_login, u.created_at
		 FROM users u
		 JOIN user_activity a ON a.user_id = u.id
		 WHERE a.activity_type = $1 AND a.created_at >= $2
		 ORDER BY u.id`,
		models.ActivityLogin, time.Now().Add(-onlineWindow),
	)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to get online users"})
		return
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.LastLogin, &u.CreatedAt); err != nil {
			writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to get online users"})
			return
		}
		users = append(users, u)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"online_users": users,
		"count":        len(users),
	})
}

// ── Messaging ───────────────────────────────────────────

// ListMessages returns the most recent messages across all users.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	if _, ok := getAdminID(r); !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Admin authentication required"})
		return
	}

	rows, err := h.db.Query(
		`SELECT m.id, m.from_admin_id, a.name, m.to_user_id, u.username,
		        m.subject, m.content, m.is_read, m.read_at, m.is_announcement, m.created_at
		 FROM messages m
		 JOIN admins a ON a.id = m.from_admin_id
		 JOIN users u ON u.id = m.to_user_id
		 ORDER BY m.created_at DESC
		 LIMIT 100`,
	)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to get messages"})
		return
	}
	defer rows.Close()

	msgs := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.FromAdminID, &m.FromAdminName, &m.ToUserID, &m.ToUsername,
			&m.Subject, &m.Content, &m.IsRead, &m.ReadAt, &m.IsAnnouncement, &m.CreatedAt); err != nil {
			writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to get messages"})
			return
		}
		msgs = append(msgs, m)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": msgs})
}

// SendMessage delivers to the listed users, or fans out to every user when
// is_announcement is set.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	adminID, ok := getAdminID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Admin authentication required"})
		return
	}

	var req models.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	req.Subject = strings.TrimSpace(req.Subject)
	req.Content = strings.TrimSpace(req.Content)
	if req.Subject == "" || req.Content == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Subject and content are required"})
		return
	}
	if !req.IsAnnouncement && len(req.To) == 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Recipient list is required for non-announcements"})
		return
	}

	recipients := req.To
	if req.IsAnnouncement {
		rows, err := h.db.Query(`SELECT id FROM users`)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to send message"})
			return
		}
		defer rows.Close()
		recipients = recipients[:0]
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to send message"})
				return
			}
			recipients = append(recipients, id)
		}
	}

	tx, err := h.db.Begin()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to send message"})
		return
	}
	defer tx.Rollback()

	sent := 0
	for _, userID := range recipients {
		res, err := tx.Exec(
			`INSERT INTO messages (from_admin_id, to_user_id, subject, content, is_announcement)
			 SELECT $1, id, $3, $4, $5 FROM users WHERE id = $2`,
			adminID, userID, req.Subject, req.Content, req.IsAnnouncement,
		)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to send message"})
			return
		}
		if n, _ := res.RowsAffected(); n > 0 {
			sent++
		}
	}

	if sent == 0 {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "No valid recipients"})
		return
	}

	if err := tx.Commit(); err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to send message"})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Message sent",
		"sent_to": sent,
	})
}

// ── Helpers ─────────────────────────────────────────────

func paginate(page, limit, total int) models.Pagination {
	pages := (total + limit - 1) / limit
	if pages < 1 {
		pages = 1
	}
	return models.Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func intQueryParam(query url.Values, key string, defaultVal int) int {
	s := query.Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	return v
}

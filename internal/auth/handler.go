package auth

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/studyquest/backend/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// JWTSecret is the HMAC signing key for auth tokens.
// This is a server-side secret — it never leaves the backend.
var JWTSecret = []byte("studyquest-staging-signing-key-2026")

type Handler struct {
	db *sql.DB
}

func NewHandler(db *sql.DB) *Handler {
	return &Handler{db: db}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Username = strings.TrimSpace(req.Username)

	if req.Email == "" || req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Email, username, and password are required"})
		return
	}

	if len(req.Password) < 8 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Password must be at least 8 characters"})
		return
	}

	if req.UserType == "" {
		req.UserType = models.UserTypeStudent
	}
	if req.UserType != models.UserTypeStudent && req.UserType != models.UserTypeTeacher {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "user_type must be 'student' or 'teacher'"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Internal server error"})
		return
	}

	var user models.User
	err = h.db.QueryRow(
		`INSERT INTO users (email, username, password, user_type, grade, qualifications)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))
		 RETURNING id, email, username, user_type, total_xp, level, daily_streak, coins,
		           COALESCE(grade, ''), COALESCE(qualifications, ''), created_at, updated_at`,
		req.Email, req.Username, string(hashedPassword), req.UserType, req.Grade, req.Qualifications,
	).Scan(&user.ID, &user.Email, &user.Username, &user.UserType, &user.TotalXP, &user.Level,
		&user.DailyStreak, &user.Coins, &user.Grade, &user.Qualifications,
		&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: "An account with this email already exists"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to create account"})
		return
	}

	h.db.Exec(
		`INSERT INTO user_activity (user_id, activity_type, description)
		 VALUES ($1, $2, $3)`,
		user.ID, models.ActivityRegistration, "Account created",
	)

	token, err := generateToken(user.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to generate token"})
		return
	}

	writeJSON(w, http.StatusCreated, models.AuthResponse{Token: token, User: user})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Email and password are required"})
		return
	}

	var user models.User
	var hashedPassword string
	err := h.db.QueryRow(
		`SELECT id, email, username, password, user_type, total_xp, level, daily_streak,
		        last_session_date, last_login_reward, coins,
		        COALESCE(grade, ''), COALESCE(qualifications, ''), bio, is_verified,
		        created_at, updated_at
		 FROM users WHERE email = $1`,
		req.Email,
	).Scan(&user.ID, &user.Email, &user.Username, &hashedPassword, &user.UserType,
		&user.TotalXP, &user.Level, &user.DailyStreak,
		&user.LastSessionDate, &user.LastLoginReward, &user.Coins,
		&user.Grade, &user.Qualifications, &user.Bio, &user.IsVerified,
		&user.CreatedAt, &user.UpdatedAt)

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
	user.LastLogin = &now
	h.db.Exec(`UPDATE users SET last_login = $2 WHERE id = $1`, user.ID, now)
	h.db.Exec(
		`INSERT INTO user_activity (user_id, activity_type, description)
		 VALUES ($1, $2, $3)`,
		user.ID, models.ActivityLogin, "Logged in",
	)

	token, err := generateToken(user.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to generate token"})
		return
	}

	writeJSON(w, http.StatusOK, models.AuthResponse{Token: token, User: user})
}

func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("user_id").(int64)

	var user models.User
	err := h.db.QueryRow(
		`SELECT id, email, username, user_type, total_xp, level, daily_streak,
		        last_session_date, last_login_reward, coins,
		        COALESCE(grade, ''), COALESCE(qualifications, ''), bio, is_verified,
		        last_login, created_at, updated_at
		 FROM users WHERE id = $1`,
		userID,
	).Scan(&user.ID, &user.Email, &user.Username, &user.UserType,
		&user.TotalXP, &user.Level, &user.DailyStreak,
		&user.LastSessionDate, &user.LastLoginReward, &user.Coins,
		&user.Grade, &user.Qualifications, &user.Bio, &user.IsVerified,
		&user.LastLogin, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "User not found"})
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func generateToken(userID int64) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(72 * time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(JWTSecret)
}

// GenerateAdminToken issues a token carrying the admin claim. Admin tokens
// expire faster than user tokens.
func GenerateAdminToken(adminID int64) (string, error) {
	claims := jwt.MapClaims{
		"admin_id": adminID,
		"is_admin": true,
		"exp":      time.Now().Add(12 * time.Hour).Unix(),
		"iat":      time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(JWTSecret)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

package messages

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/studyquest/backend/internal/models"
)

// Handler serves the user-facing inbox. Sending lives in the admin package;
// users can only read and mark read.
type Handler struct {
	db *sql.DB
}

func NewHandler(db *sql.DB) *Handler {
	return &Handler{db: db}
}

func getUserID(r *http.Request) (int64, bool) {
	uid, ok := r.Context().Value("user_id").(int64)
	return uid, ok
}

func (h *Handler) Inbox(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	rows, err := h.db.Query(
		`SELECT m.id, m.from_admin_id, a.name, m.to_user_id, m.subject, m.content,
		        m.is_read, m.read_at, m.is_announcement, m.created_at
		 FROM messages m
		 JOIN admins a ON a.id = m.from_admin_id
		 WHERE m.to_user_id = $1
		 ORDER BY m.created_at DESC
		 LIMIT 100`,
		userID,
	)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to get messages"})
		return
	}
	defer rows.Close()

	msgs := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.FromAdminID, &m.FromAdminName, &m.ToUserID,
			&m.Subject, &m.Content, &m.IsRead, &m.ReadAt, &m.IsAnnouncement, &m.CreatedAt); err != nil {
			writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to get messages"})
			return
		}
		msgs = append(msgs, m)
	}

	var unread int
	if err := h.db.QueryRow(
		`SELECT COUNT(*) FROM messages WHERE to_user_id = $1 AND NOT is_read`, userID,
	).Scan(&unread); err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to get messages"})
		return
	}

	writeJSON(w, http.StatusOK, models.MessagesResponse{Messages: msgs, UnreadCount: unread})
}

func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	var unread int
	if err := h.db.QueryRow(
		`SELECT COUNT(*) FROM messages WHERE to_user_id = $1 AND NOT is_read`, userID,
	).Scan(&unread); err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to get unread count"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"unread_count": unread})
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	vars := mux.Vars(r)
	messageID, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid message ID"})
		return
	}

	res, err := h.db.Exec(
		`UPDATE messages SET is_read = TRUE, read_at = $3
		 WHERE id = $1 AND to_user_id = $2 AND NOT is_read`,
		messageID, userID, time.Now(),
	)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to mark message read"})
		return
	}

	if n, _ := res.RowsAffected(); n == 0 {
		// Either the message doesn't belong to this user or it is already read.
		var exists bool
		h.db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM messages WHERE id = $1 AND to_user_id = $2)`,
			messageID, userID,
		).Scan(&exists)
		if !exists {
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Message not found"})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "read"})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

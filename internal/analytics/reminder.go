package analytics

import (
	"database/sql"
	"fmt"
	"log"
	"time"
)

// Reminder messages users whose streak is about to break: they have an
// active streak but no qualifying session yesterday or today. Runs from
// the 8AM cron and delivers through the in-app inbox.
type Reminder struct {
	db *sql.DB
}

func NewReminder(db *sql.DB) *Reminder {
	return &Reminder{db: db}
}

// systemAdminID resolves the admin account reminders are sent from. The
// first admin doubles as the system sender.
func (r *Reminder) systemAdminID() (int64, error) {
	var id int64
	err := r.db.QueryRow(`SELECT id FROM admins ORDER BY id LIMIT 1`).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("no admin account to send reminders from")
	}
	return id, err
}

func (r *Reminder) Run(now time.Time) error {
	adminID, err := r.systemAdminID()
	if err != nil {
		log.Printf("[analytics] streak reminders skipped: %v", err)
		return nil
	}

	u := now.UTC()
	today := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)

	// At risk: streak >= 2 and the last qualifying session was yesterday
	// (no session yet today). A same-subject reminder today is not repeated.
	rows, err := r.db.Query(
		`SELECT id, daily_streak FROM users
		 WHERE daily_streak >= 2
		   AND last_session_date >= $1
		   AND last_session_date < $2
		   AND NOT EXISTS (
		       SELECT 1 FROM messages
		       WHERE to_user_id = users.id
		         AND subject = $3
		         AND created_at >= $2
		   )`,
		yesterday, today, reminderSubject,
	)
	if err != nil {
		return fmt.Errorf("find at-risk streaks: %w", err)
	}
	defer rows.Close()

	type atRisk struct {
		userID int64
		streak int
	}
	var users []atRisk
	for rows.Next() {
		var u atRisk
		if err := rows.Scan(&u.userID, &u.streak); err != nil {
			return fmt.Errorf("scan at-risk user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	sent := 0
	for _, u := range users {
		_, err := r.db.Exec(
			`INSERT INTO messages (from_admin_id, to_user_id, subject, content)
			 VALUES ($1, $2, $3, $4)`,
			adminID, u.userID, reminderSubject,
			fmt.Sprintf("Your %d-day streak is on the line! Complete a study session today to keep it going.", u.streak),
		)
		if err != nil {
			log.Printf("[analytics] reminder to user %d failed: %v", u.userID, err)
			continue
		}
		sent++
	}

	if sent > 0 {
		log.Printf("[analytics] sent %d streak reminders", sent)
	}
	return nil
}

const reminderSubject = "Don't lose your streak!"

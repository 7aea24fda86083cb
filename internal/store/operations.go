package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrReminderLimit is returned by CreateReminder when the per-user cap is hit.
var ErrReminderLimit = errors.New("reminder limit reached")

// ErrNotFound is returned when a reminder id does not exist or belongs to
// another user.
var ErrNotFound = errors.New("reminder not found")

// UpsertUser creates the user on first /start and refreshes the profile and
// last-activity timestamp on every later one. Returns the stored row.
func (d *DB) UpsertUser(telegramID int64, username, firstName string) (*User, error) {
	now := time.Now().UTC()
	_, err := d.Exec(`
		INSERT INTO users (telegram_id, username, first_name, created_at, last_activity)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(telegram_id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			last_activity = excluded.last_activity`,
		telegramID, username, firstName, now, now)
	if err != nil {
		return nil, fmt.Errorf("upsert user %d: %w", telegramID, err)
	}

	var u User
	if err := d.Get(&u, `SELECT * FROM users WHERE telegram_id = ?`, telegramID); err != nil {
		return nil, err
	}
	return &u, nil
}

// UserByTelegramID returns nil, nil when the user never ran /start.
func (d *DB) UserByTelegramID(telegramID int64) (*User, error) {
	var u User
	err := d.Get(&u, `SELECT * FROM users WHERE telegram_id = ?`, telegramID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UserByID resolves an internal user id, e.g. to find the chat a reminder
// must be delivered to.
func (d *DB) UserByID(id int64) (*User, error) {
	var u User
	err := d.Get(&u, `SELECT * FROM users WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateReminder inserts a reminder, enforcing the per-user cap (maxPerUser
// counts pending reminders only; sent ones don't block new work). The cap
// lives in the INSERT itself so concurrent messages from one user cannot
// slip past it.
func (d *DB) CreateReminder(r *Reminder, maxPerUser int) (int64, error) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	res, err := d.NamedExec(`
		INSERT INTO reminders (user_id, text, description, original_input, scheduled_time, created_at)
		SELECT :user_id, :text, :description, :original_input, :scheduled_time, :created_at
		WHERE :max_per_user <= 0
		   OR (SELECT COUNT(*) FROM reminders WHERE user_id = :user_id AND is_sent = 0) < :max_per_user`,
		map[string]interface{}{
			"user_id":        r.UserID,
			"text":           r.Text,
			"description":    r.Description,
			"original_input": r.OriginalInput,
			"scheduled_time": r.ScheduledTime,
			"created_at":     r.CreatedAt,
			"max_per_user":   maxPerUser,
		})
	if err != nil {
		return 0, fmt.Errorf("create reminder: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return 0, fmt.Errorf("%w: %d pending", ErrReminderLimit, maxPerUser)
	}
	return res.LastInsertId()
}

// ReminderByID fetches one reminder.
func (d *DB) ReminderByID(id int64) (*Reminder, error) {
	var r Reminder
	err := d.Get(&r, `SELECT * FROM reminders WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// UserReminders lists all of a user's reminders ordered by scheduled time.
func (d *DB) UserReminders(userID int64) ([]Reminder, error) {
	var rs []Reminder
	err := d.Select(&rs,
		`SELECT * FROM reminders WHERE user_id = ? ORDER BY scheduled_time`, userID)
	return rs, err
}

// PendingReminders returns every unsent reminder, oldest first. The scheduler
// reloads these on boot.
func (d *DB) PendingReminders() ([]Reminder, error) {
	var rs []Reminder
	err := d.Select(&rs,
		`SELECT * FROM reminders WHERE is_sent = 0 ORDER BY scheduled_time`)
	return rs, err
}

// MarkSent flips is_sent exactly once; a second call reports ErrNotFound.
func (d *DB) MarkSent(id int64, at time.Time) error {
	res, err := d.Exec(
		`UPDATE reminders SET is_sent = 1, sent_at = ? WHERE id = ? AND is_sent = 0`,
		at.UTC(), id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteReminder removes a reminder owned by userID.
func (d *DB) DeleteReminder(id, userID int64) error {
	res, err := d.Exec(`DELETE FROM reminders WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearReminders deletes everything a user has and reports how many rows went.
func (d *DB) ClearReminders(userID int64) (int64, error) {
	res, err := d.Exec(`DELETE FROM reminders WHERE user_id = ?`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Stats aggregates the counters shown by /stats.
func (d *DB) Stats(userID int64) (*UserStats, error) {
	var s UserStats
	err := d.Get(&s, `
		SELECT COUNT(*)                                            AS created,
		       COALESCE(SUM(is_sent), 0)                           AS sent,
		       COALESCE(SUM(CASE WHEN is_sent = 0 THEN 1 END), 0)  AS pending
		FROM reminders WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Log appends a row to system_logs. userID/reminderID of 0 mean "no context".
func (d *DB) Log(level, module, message string, userID, reminderID int64) error {
	_, err := d.Exec(`
		INSERT INTO system_logs (level, message, module, user_id, reminder_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		level, message, module, nullable(userID), nullable(reminderID), time.Now().UTC())
	return err
}

// CleanupLogs drops system_logs rows older than keep.
func (d *DB) CleanupLogs(keep time.Duration) (int64, error) {
	res, err := d.Exec(`DELETE FROM system_logs WHERE created_at < ?`,
		time.Now().UTC().Add(-keep))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func nullable(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}

package store

import (
	"database/sql"
	"time"
)

type User struct {
	ID           int64     `db:"id"`
	TelegramID   int64     `db:"telegram_id"`
	Username     string    `db:"username"`
	FirstName    string    `db:"first_name"`
	Timezone     string    `db:"timezone"`
	CreatedAt    time.Time `db:"created_at"`
	LastActivity time.Time `db:"last_activity"`
}

type Reminder struct {
	ID            int64        `db:"id"`
	UserID        int64        `db:"user_id"`
	Text          string       `db:"text"`
	Description   string       `db:"description"`
	OriginalInput string       `db:"original_input"`
	ScheduledTime time.Time    `db:"scheduled_time"`
	CreatedAt     time.Time    `db:"created_at"`
	IsSent        bool         `db:"is_sent"`
	SentAt        sql.NullTime `db:"sent_at"`
}

type SystemLog struct {
	ID         int64         `db:"id"`
	Level      string        `db:"level"`
	Message    string        `db:"message"`
	Module     string        `db:"module"`
	UserID     sql.NullInt64 `db:"user_id"`
	ReminderID sql.NullInt64 `db:"reminder_id"`
	CreatedAt  time.Time     `db:"created_at"`
}

// UserStats is the aggregate shown by /stats.
type UserStats struct {
	Created int `db:"created"`
	Sent    int `db:"sent"`
	Pending int `db:"pending"`
}

// Package format renders timestamps and reminders for Telegram messages.
package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/dkrasnov/reminderbot/internal/store"
)

// Datetime renders "сегодня в 15:04", "завтра в 15:04" or "02.01.2006 в 15:04"
// in the given location.
func Datetime(t time.Time, loc *time.Location) string {
	t = t.In(loc)
	now := time.Now().In(loc)

	var datePart string
	switch {
	case sameDate(t, now):
		datePart = "сегодня"
	case sameDate(t, now.AddDate(0, 0, 1)):
		datePart = "завтра"
	default:
		datePart = t.Format("02.01.2006")
	}

	return fmt.Sprintf("%s в %s", datePart, t.Format("15:04"))
}

func sameDate(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// TimeUntil renders the remaining time: "через 2 дн. 3 ч.", "через 5 мин.",
// "менее минуты", or "просрочено" when already past.
func TimeUntil(target, now time.Time) string {
	d := target.Sub(now)
	if d < 0 {
		return "просрочено"
	}

	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("через %d дн. %d ч.", days, hours)
	case hours > 0:
		return fmt.Sprintf("через %d ч. %d мин.", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("через %d мин.", minutes)
	default:
		return "менее минуты"
	}
}

// Delivery is the message the user receives when a reminder fires.
func Delivery(r *store.Reminder, loc *time.Location) string {
	var b strings.Builder
	b.WriteString("🔔 *НАПОМИНАНИЕ!*\n\n")
	fmt.Fprintf(&b, "📝 %s\n\n", r.Text)
	if r.Description != "" {
		fmt.Fprintf(&b, "📄 %s\n\n", r.Description)
	}
	fmt.Fprintf(&b, "⏰ %s\n", time.Now().In(loc).Format("15:04"))
	fmt.Fprintf(&b, "🆔 #%d", r.ID)
	return b.String()
}

// Preview is shown before the user confirms a new reminder.
func Preview(text string, at time.Time, originalInput string, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*📝 Текст:* %s\n", text)
	fmt.Fprintf(&b, "*⏰ Время:* %s\n", Datetime(at, loc))
	if until := TimeUntil(at, time.Now()); until != "просрочено" {
		fmt.Fprintf(&b, "*⏳ Осталось:* %s\n", until)
	}
	if originalInput != "" {
		fmt.Fprintf(&b, "\n_Ваш ввод: «%s»_", originalInput)
	}
	return b.String()
}

// List renders a user's reminders for /list.
func List(rs []store.Reminder, loc *time.Location) string {
	if len(rs) == 0 {
		return "📭 *У вас пока нет напоминаний*\n\nСоздайте первое напоминание!"
	}

	var b strings.Builder
	b.WriteString("📋 *Ваши напоминания:*\n\n")
	for i, r := range rs {
		status := "⏳ Ожидает"
		if r.IsSent {
			status = "✅ Отправлено"
		}
		fmt.Fprintf(&b, "%d. *%s*\n", i+1, r.Text)
		fmt.Fprintf(&b, "   ⏰ %s\n", Datetime(r.ScheduledTime, loc))
		fmt.Fprintf(&b, "   %s  ·  🆔 #%d\n\n", status, r.ID)
	}
	b.WriteString("Удалить: `/delete <id>`")
	return b.String()
}

// Stats renders the /stats block.
func Stats(s *store.UserStats) string {
	var b strings.Builder
	b.WriteString("📊 *Ваша статистика:*\n\n")
	fmt.Fprintf(&b, "• Создано напоминаний: *%d*\n", s.Created)
	fmt.Fprintf(&b, "• Отправлено: *%d*\n", s.Sent)
	fmt.Fprintf(&b, "• Ожидает: *%d*\n", s.Pending)
	if s.Created > 0 {
		fmt.Fprintf(&b, "• Доставлено: *%.0f%%*\n", float64(s.Sent)/float64(s.Created)*100)
	}
	return b.String()
}

package format

import (
	"strings"
	"testing"
	"time"

	"github.com/dkrasnov/reminderbot/internal/store"
)

func TestDatetime(t *testing.T) {
	now := time.Now().UTC()

	today := Datetime(now.Add(time.Minute), time.UTC)
	if !strings.HasPrefix(today, "сегодня в ") {
		t.Errorf("today = %q", today)
	}

	// A timestamp far away renders the full date
	far := time.Date(2030, 6, 1, 9, 30, 0, 0, time.UTC)
	if got := Datetime(far, time.UTC); got != "01.06.2030 в 09:30" {
		t.Errorf("far = %q", got)
	}

	// Past days get no shorthand, only the full date
	yesterday := now.AddDate(0, 0, -1)
	if got := Datetime(yesterday, time.UTC); !strings.HasSuffix(got, yesterday.Format("15:04")) ||
		!strings.HasPrefix(got, yesterday.Format("02.01.2006")) {
		t.Errorf("yesterday = %q", got)
	}
}

func TestTimeUntil(t *testing.T) {
	now := time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		target time.Time
		want   string
	}{
		{now.Add(-time.Minute), "просрочено"},
		{now.Add(30 * time.Second), "менее минуты"},
		{now.Add(5 * time.Minute), "через 5 мин."},
		{now.Add(2*time.Hour + 10*time.Minute), "через 2 ч. 10 мин."},
		{now.Add(49 * time.Hour), "через 2 дн. 1 ч."},
	}

	for _, tc := range cases {
		if got := TimeUntil(tc.target, now); got != tc.want {
			t.Errorf("TimeUntil(%v) = %q, want %q", tc.target, got, tc.want)
		}
	}
}

func TestDelivery(t *testing.T) {
	r := &store.Reminder{ID: 7, Text: "Купить молоко", Description: "в магазине у дома"}
	msg := Delivery(r, time.UTC)

	for _, want := range []string{"НАПОМИНАНИЕ", "Купить молоко", "в магазине у дома", "#7"} {
		if !strings.Contains(msg, want) {
			t.Errorf("delivery message missing %q:\n%s", want, msg)
		}
	}
}

func TestList(t *testing.T) {
	if got := List(nil, time.UTC); !strings.Contains(got, "пока нет напоминаний") {
		t.Errorf("empty list = %q", got)
	}

	rs := []store.Reminder{
		{ID: 1, Text: "первое", ScheduledTime: time.Now().Add(time.Hour)},
		{ID: 2, Text: "второе", ScheduledTime: time.Now().Add(2 * time.Hour), IsSent: true},
	}
	got := List(rs, time.UTC)
	for _, want := range []string{"первое", "второе", "⏳ Ожидает", "✅ Отправлено", "#1", "#2"} {
		if !strings.Contains(got, want) {
			t.Errorf("list missing %q:\n%s", want, got)
		}
	}
}

func TestStats(t *testing.T) {
	got := Stats(&store.UserStats{Created: 4, Sent: 2, Pending: 2})
	for _, want := range []string{"*4*", "*2*", "50%"} {
		if !strings.Contains(got, want) {
			t.Errorf("stats missing %q:\n%s", want, got)
		}
	}
}

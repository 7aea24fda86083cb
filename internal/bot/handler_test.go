package bot

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dkrasnov/reminderbot/internal/scheduler"
	"github.com/dkrasnov/reminderbot/internal/store"
	"github.com/dkrasnov/reminderbot/internal/timeparse"
	tele "gopkg.in/telebot.v3"
)

// MockContext definition for internal use
type MockContext struct {
	tele.Context
	ChatID     int64
	User       *tele.User
	TextVal    string
	PayloadVal string
	SentMsg    string
}

func (m *MockContext) Chat() *tele.Chat   { return &tele.Chat{ID: m.ChatID} }
func (m *MockContext) Sender() *tele.User { return m.User }
func (m *MockContext) Text() string       { return m.TextVal }
func (m *MockContext) Message() *tele.Message {
	return &tele.Message{Text: m.TextVal, Payload: m.PayloadVal}
}
func (m *MockContext) Send(what interface{}, opts ...interface{}) error {
	m.SentMsg = fmt.Sprint(what)
	return nil
}
func (m *MockContext) EditOrSend(what interface{}, opts ...interface{}) error {
	return m.Send(what, opts...)
}

type noopNotifier struct{}

func (noopNotifier) Notify(*store.Reminder) error { return nil }

func testBot(t *testing.T) *Bot {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	parser, err := timeparse.New("UTC")
	if err != nil {
		t.Fatal(err)
	}

	b := &Bot{
		db:     db,
		parser: parser,
		sess:   newSessions(),
		cfg:    Config{MaxRemindersPerUser: 100},
	}
	sched := scheduler.New(db, noopNotifier{})
	sched.Start(time.Hour)
	t.Cleanup(sched.Stop)
	b.AttachScheduler(sched)
	return b
}

func ctx(chatID int64, text string) *MockContext {
	return &MockContext{
		ChatID:  chatID,
		User:    &tele.User{ID: chatID, Username: "tester", FirstName: "Тест"},
		TextVal: text,
	}
}

func TestCreateDialog(t *testing.T) {
	b := testBot(t)
	const chat = int64(100)

	// Step 0: press "create"
	c := ctx(chat, "")
	if err := b.cbCreate(c); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(c.SentMsg, "Введите текст") {
		t.Errorf("expected text prompt, got: %s", c.SentMsg)
	}

	// Step 1: too-short text re-prompts, state stays
	c = ctx(chat, "ab")
	if err := b.onText(c); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(c.SentMsg, "Слишком короткий") {
		t.Errorf("expected length complaint, got: %s", c.SentMsg)
	}

	// Step 1 again: proper text advances to time
	c = ctx(chat, "Купить молоко")
	if err := b.onText(c); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(c.SentMsg, "Когда напомнить") {
		t.Errorf("expected time prompt, got: %s", c.SentMsg)
	}

	// Step 2: unparseable time keeps the state
	c = ctx(chat, "когда-нибудь")
	if err := b.onText(c); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(c.SentMsg, "Не понял формат") {
		t.Errorf("expected parse complaint, got: %s", c.SentMsg)
	}

	// Step 2 again: valid time shows the preview
	c = ctx(chat, "через 30 минут")
	if err := b.onText(c); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(c.SentMsg, "Создать напоминание?") {
		t.Errorf("expected confirmation, got: %s", c.SentMsg)
	}

	// Step 3: confirm writes the row and arms the timer
	c = ctx(chat, "")
	if err := b.cbConfirmCreate(c); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(c.SentMsg, "✅ *Напоминание создано!*") {
		t.Errorf("expected success, got: %s", c.SentMsg)
	}

	u, _ := b.db.UserByTelegramID(chat)
	rs, _ := b.db.UserReminders(u.ID)
	if len(rs) != 1 || rs[0].Text != "Купить молоко" {
		t.Fatalf("unexpected reminders: %+v", rs)
	}
	if b.sched.Jobs() != 1 {
		t.Errorf("jobs = %d, want 1", b.sched.Jobs())
	}
}

func TestQuickCreate(t *testing.T) {
	b := testBot(t)
	const chat = int64(200)

	c := ctx(chat, "Позвонить маме через 2 часа")
	if err := b.onText(c); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(c.SentMsg, "Создать напоминание?") {
		t.Errorf("expected confirmation, got: %s", c.SentMsg)
	}
	if !strings.Contains(c.SentMsg, "Позвонить маме") {
		t.Errorf("expected extracted text, got: %s", c.SentMsg)
	}

	c = ctx(chat, "")
	if err := b.cbConfirmCreate(c); err != nil {
		t.Fatal(err)
	}

	u, _ := b.db.UserByTelegramID(chat)
	rs, _ := b.db.UserReminders(u.ID)
	if len(rs) != 1 || rs[0].Text != "Позвонить маме" {
		t.Fatalf("unexpected reminders: %+v", rs)
	}
}

func TestQuickCreateWithoutTime(t *testing.T) {
	b := testBot(t)

	c := ctx(300, "просто сообщение")
	if err := b.onText(c); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(c.SentMsg, "Не нашёл время") {
		t.Errorf("expected hint, got: %s", c.SentMsg)
	}
}

func TestCancelResetsDialog(t *testing.T) {
	b := testBot(t)
	const chat = int64(400)

	b.cbCreate(ctx(chat, ""))

	c := ctx(chat, "/cancel")
	if err := b.cmdCancel(c); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(c.SentMsg, "отменено") {
		t.Errorf("expected cancel ack, got: %s", c.SentMsg)
	}

	// Next free text is treated as quick create, not dialog step
	c = ctx(chat, "без времени тут")
	b.onText(c)
	if !strings.Contains(c.SentMsg, "Не нашёл время") {
		t.Errorf("dialog state survived cancel: %s", c.SentMsg)
	}
}

func TestDeleteCommand(t *testing.T) {
	b := testBot(t)
	const chat = int64(500)

	u, _ := b.db.UpsertUser(chat, "tester", "Тест")
	id, _ := b.db.CreateReminder(&store.Reminder{
		UserID:        u.ID,
		Text:          "удалить меня",
		ScheduledTime: time.Now().Add(time.Hour),
	}, 0)
	b.sched.Schedule(id, time.Now().Add(time.Hour))

	c := ctx(chat, "/delete")
	c.PayloadVal = fmt.Sprintf("%d", id)
	if err := b.cmdDelete(c); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(c.SentMsg, "удалено") {
		t.Errorf("expected delete ack, got: %s", c.SentMsg)
	}
	if b.sched.Jobs() != 0 {
		t.Errorf("timer survived delete")
	}

	// Unknown id
	c = ctx(chat, "/delete")
	c.PayloadVal = "9999"
	b.cmdDelete(c)
	if !strings.Contains(c.SentMsg, "не найдено") {
		t.Errorf("expected not-found, got: %s", c.SentMsg)
	}

	// Garbage payload
	c = ctx(chat, "/delete")
	c.PayloadVal = "abc"
	b.cmdDelete(c)
	if !strings.Contains(c.SentMsg, "Использование") {
		t.Errorf("expected usage, got: %s", c.SentMsg)
	}
}

func TestClearAll(t *testing.T) {
	b := testBot(t)
	const chat = int64(600)

	u, _ := b.db.UpsertUser(chat, "tester", "Тест")
	for i := 0; i < 3; i++ {
		id, _ := b.db.CreateReminder(&store.Reminder{
			UserID:        u.ID,
			Text:          "тест",
			ScheduledTime: time.Now().Add(time.Hour),
		}, 0)
		b.sched.Schedule(id, time.Now().Add(time.Hour))
	}

	c := ctx(chat, "")
	if err := b.cbConfirmClear(c); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(c.SentMsg, "Удалено напоминаний: *3*") {
		t.Errorf("expected 3 deleted, got: %s", c.SentMsg)
	}
	if b.sched.Jobs() != 0 {
		t.Errorf("timers survived clear: %d", b.sched.Jobs())
	}
}

func TestStatsCommand(t *testing.T) {
	b := testBot(t)
	const chat = int64(700)

	u, _ := b.db.UpsertUser(chat, "tester", "Тест")
	id, _ := b.db.CreateReminder(&store.Reminder{
		UserID:        u.ID,
		Text:          "тест",
		ScheduledTime: time.Now().Add(time.Hour),
	}, 0)
	b.db.MarkSent(id, time.Now())

	c := ctx(chat, "/stats")
	if err := b.cmdStats(c); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(c.SentMsg, "Создано напоминаний: *1*") {
		t.Errorf("unexpected stats: %s", c.SentMsg)
	}
}

func TestListCommand(t *testing.T) {
	b := testBot(t)
	const chat = int64(800)

	c := ctx(chat, "/list")
	if err := b.cmdList(c); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(c.SentMsg, "пока нет напоминаний") {
		t.Errorf("expected empty list, got: %s", c.SentMsg)
	}

	u, _ := b.db.UserByTelegramID(chat)
	b.db.CreateReminder(&store.Reminder{
		UserID:        u.ID,
		Text:          "встреча",
		ScheduledTime: time.Now().Add(time.Hour),
	}, 0)

	c = ctx(chat, "/list")
	b.cmdList(c)
	if !strings.Contains(c.SentMsg, "встреча") {
		t.Errorf("expected reminder in list, got: %s", c.SentMsg)
	}
}

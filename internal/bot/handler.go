// Package bot wires the Telegram surface: commands, inline menus and the
// create-reminder dialog.
package bot

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dkrasnov/reminderbot/internal/format"
	"github.com/dkrasnov/reminderbot/internal/scheduler"
	"github.com/dkrasnov/reminderbot/internal/store"
	"github.com/dkrasnov/reminderbot/internal/timeparse"
	tele "gopkg.in/telebot.v3"
)

type Bot struct {
	api    *tele.Bot
	db     *store.DB
	sched  *scheduler.Scheduler
	parser *timeparse.Parser
	sess   *sessions
	cfg    Config
}

type Config struct {
	Token               string
	MaxRemindersPerUser int
}

func New(cfg Config, db *store.DB, parser *timeparse.Parser) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	api, err := tele.NewBot(pref)
	if err != nil {
		return nil, err
	}

	b := &Bot{api: api, db: db, parser: parser, sess: newSessions(), cfg: cfg}
	b.register()
	return b, nil
}

// AttachScheduler breaks the bot↔scheduler construction cycle: the scheduler
// needs the bot as Notifier, the bot needs the scheduler for cancel/schedule.
func (b *Bot) AttachScheduler(s *scheduler.Scheduler) {
	b.sched = s
}

func (b *Bot) Start() {
	log.Printf("🤖 Bot started: @%s", b.api.Me.Username)
	b.api.Start()
}

func (b *Bot) Stop() {
	b.api.Stop()
}

func (b *Bot) register() {
	b.api.Handle("/start", b.cmdStart)
	b.api.Handle("/help", b.cmdHelp)
	b.api.Handle("/list", b.cmdList)
	b.api.Handle("/delete", b.cmdDelete)
	b.api.Handle("/stats", b.cmdStats)
	b.api.Handle("/cancel", b.cmdCancel)

	b.api.Handle(&btnCreate, b.cbCreate)
	b.api.Handle(&btnList, b.cbMyReminders)
	b.api.Handle(&btnClearAll, b.cbClearAll)
	b.api.Handle(&btnClearYes, b.cbConfirmClear)
	b.api.Handle(&btnHelp, b.cbHelp)
	b.api.Handle(&btnBack, b.cbBack)
	b.api.Handle(&btnConfirm, b.cbConfirmCreate)
	b.api.Handle(&btnCancelOp, b.cbCancelOp)

	// Free text is either a dialog step or a quick create.
	b.api.Handle(tele.OnText, b.onText)
}

// Notify implements scheduler.Notifier: deliver a due reminder to its owner.
func (b *Bot) Notify(r *store.Reminder) error {
	u, err := b.db.UserByID(r.UserID)
	if err != nil {
		return err
	}
	_, err = b.api.Send(tele.ChatID(u.TelegramID),
		format.Delivery(r, b.parser.Location()), tele.ModeMarkdown)
	return err
}

// -- Commands --

func (b *Bot) cmdStart(c tele.Context) error {
	b.sess.clear(c.Chat().ID)

	u, err := b.ensureUser(c)
	if err != nil {
		log.Printf("❌ /start failed: %v", err)
		return c.Send("❌ *Ошибка запуска*\n\nПопробуйте еще раз.", tele.ModeMarkdown)
	}

	name := u.FirstName
	if name == "" {
		name = "друг"
	}
	welcome := fmt.Sprintf(
		"👋 *Привет, %s!*\n\n"+
			"🤖 Я бот-напоминалка! Помогу тебе не забыть важные дела.\n\n"+
			"🎯 *Что я умею:*\n"+
			"• Создавать напоминания на любое время\n"+
			"• Отправлять уведомления точно в срок\n"+
			"• Показывать список всех напоминаний\n\n"+
			"🚀 *Быстрый старт:* просто напиши `Купить хлеб через 2 часа`\n\n"+
			"Выбери действие:", name)
	return c.Send(welcome, mainMenu, tele.ModeMarkdown)
}

const helpText = "❓ *Справка по боту*\n\n" +
	"🔸 *Форматы времени:*\n" +
	"• `через 5 минут` / `in 5 minutes`\n" +
	"• `сегодня в 18:30`\n" +
	"• `завтра в 9:00` / `tomorrow at 9:00`\n" +
	"• `в понедельник в 10:00`\n" +
	"• `25.12 в 12:00`\n" +
	"• `вечером`, `утром`, `скоро`\n\n" +
	"🔸 *Команды:*\n" +
	"• /list — список напоминаний\n" +
	"• /delete <id> — удалить напоминание\n" +
	"• /stats — статистика\n" +
	"• /cancel — прервать создание\n\n" +
	"💡 Бот работает 24/7 и никогда не забудет напомнить!"

func (b *Bot) cmdHelp(c tele.Context) error {
	return c.Send(helpText, backMenu, tele.ModeMarkdown)
}

func (b *Bot) cmdList(c tele.Context) error {
	u, err := b.ensureUser(c)
	if err != nil {
		return err
	}
	rs, err := b.db.UserReminders(u.ID)
	if err != nil {
		return err
	}
	return c.Send(format.List(rs, b.parser.Location()), backMenu, tele.ModeMarkdown)
}

func (b *Bot) cmdDelete(c tele.Context) error {
	payload := strings.TrimSpace(strings.TrimPrefix(c.Message().Payload, "#"))
	id, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		return c.Send("Использование: `/delete <id>` (id виден в /list)", tele.ModeMarkdown)
	}

	u, err := b.ensureUser(c)
	if err != nil {
		return err
	}

	if err := b.db.DeleteReminder(id, u.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Send(fmt.Sprintf("🔍 Напоминание #%d не найдено.", id))
		}
		return err
	}
	b.sched.Cancel(id)
	return c.Send(fmt.Sprintf("🗑 Напоминание #%d удалено.", id))
}

func (b *Bot) cmdStats(c tele.Context) error {
	u, err := b.ensureUser(c)
	if err != nil {
		return err
	}
	s, err := b.db.Stats(u.ID)
	if err != nil {
		return err
	}
	return c.Send(format.Stats(s), backMenu, tele.ModeMarkdown)
}

func (b *Bot) cmdCancel(c tele.Context) error {
	b.sess.clear(c.Chat().ID)
	return c.Send("Действие отменено. Выбери, что дальше:", mainMenu)
}

// -- Dialog and quick create --

func (b *Bot) onText(c tele.Context) error {
	sess := b.sess.get(c.Chat().ID)
	switch sess.state {
	case stateAwaitText:
		return b.stepText(c, sess)
	case stateAwaitTime:
		return b.stepTime(c, sess)
	case stateAwaitConfirm:
		return c.Send("Подтвердите или отмените напоминание кнопками выше 👆", confirmMenu)
	default:
		return b.quickCreate(c)
	}
}

func (b *Bot) stepText(c tele.Context, sess session) error {
	text := strings.TrimSpace(c.Text())

	if utf8.RuneCountInString(text) < 3 {
		return c.Send("⚠️ *Слишком короткий текст*\n\nВведите описание подробнее (минимум 3 символа):",
			cancelMenu, tele.ModeMarkdown)
	}
	if utf8.RuneCountInString(text) > 255 {
		return c.Send("⚠️ *Слишком длинный текст*\n\nСократите до 255 символов:",
			cancelMenu, tele.ModeMarkdown)
	}

	sess.text = text
	sess.state = stateAwaitTime
	b.sess.set(c.Chat().ID, sess)

	return c.Send("⏰ *Когда напомнить?*\n\n"+
		"Примеры:\n"+
		"• `через 30 минут`\n"+
		"• `завтра в 9:00`\n"+
		"• `в понедельник в 10:00`",
		cancelMenu, tele.ModeMarkdown)
}

func (b *Bot) stepTime(c tele.Context, sess session) error {
	input := c.Text()

	at, err := b.parser.Parse(input)
	if err != nil {
		return c.Send("❌ *Не понял формат времени*\n\n"+
			"Попробуйте:\n"+
			"• `через 30 минут`\n"+
			"• `завтра в 9:00`\n"+
			"• `25.12 в 12:00`",
			cancelMenu, tele.ModeMarkdown)
	}
	if err := b.parser.Validate(at); err != nil {
		return c.Send(fmt.Sprintf("⚠️ *Ошибка!* %s. Попробуйте еще раз:", err),
			cancelMenu, tele.ModeMarkdown)
	}

	sess.at = at
	sess.original = input
	sess.state = stateAwaitConfirm
	b.sess.set(c.Chat().ID, sess)

	return c.Send("Создать напоминание?\n\n"+
		format.Preview(sess.text, at, input, b.parser.Location()),
		confirmMenu, tele.ModeMarkdown)
}

// quickCreate parses "<текст> <время>" out of a single idle message.
func (b *Bot) quickCreate(c tele.Context) error {
	text, at, err := b.parser.Extract(c.Text())
	if err != nil {
		return c.Send("🤔 Не нашёл время в сообщении.\n\n"+
			"Напишите, например, `Купить хлеб через 2 часа` — или создайте напоминание через меню:",
			mainMenu, tele.ModeMarkdown)
	}
	if utf8.RuneCountInString(text) < 3 {
		return c.Send("⚠️ Время понял, а текст — нет. Напишите, о чём напомнить, вместе со временем.")
	}
	if err := b.parser.Validate(at); err != nil {
		return c.Send(fmt.Sprintf("⚠️ *Ошибка!* %s.", err), tele.ModeMarkdown)
	}

	b.sess.set(c.Chat().ID, session{
		state:    stateAwaitConfirm,
		text:     text,
		at:       at,
		original: c.Text(),
	})

	return c.Send("Создать напоминание?\n\n"+
		format.Preview(text, at, c.Text(), b.parser.Location()),
		confirmMenu, tele.ModeMarkdown)
}

// -- Callbacks --

func (b *Bot) cbCreate(c tele.Context) error {
	b.sess.set(c.Chat().ID, session{state: stateAwaitText})
	return c.EditOrSend("📝 *Создание напоминания*\n\n"+
		"Введите текст напоминания:\n"+
		"_(например: «Купить молоко» или «Встреча с клиентом»)_",
		cancelMenu, tele.ModeMarkdown)
}

func (b *Bot) cbConfirmCreate(c tele.Context) error {
	chatID := c.Chat().ID
	sess := b.sess.get(chatID)
	if sess.state != stateAwaitConfirm {
		return c.EditOrSend("Нечего подтверждать. Выбери действие:", mainMenu)
	}

	u, err := b.ensureUser(c)
	if err != nil {
		return err
	}

	id, err := b.db.CreateReminder(&store.Reminder{
		UserID:        u.ID,
		Text:          sess.text,
		OriginalInput: sess.original,
		ScheduledTime: sess.at.UTC(),
	}, b.cfg.MaxRemindersPerUser)
	if err != nil {
		if errors.Is(err, store.ErrReminderLimit) {
			b.sess.clear(chatID)
			return c.EditOrSend("⚠️ *Лимит напоминаний исчерпан*\n\nУдалите старые через /list и /delete.",
				mainMenu, tele.ModeMarkdown)
		}
		return err
	}

	if err := b.sched.Schedule(id, sess.at); err != nil {
		log.Printf("❌ Failed to schedule reminder %d: %v", id, err)
	}
	b.sess.clear(chatID)

	log.Printf("✅ Reminder %d created for user %d at %s", id, u.TelegramID, sess.at.Format(time.RFC3339))
	return c.EditOrSend(fmt.Sprintf(
		"✅ *Напоминание создано!*\n\n"+
			"📝 *Текст:* %s\n"+
			"⏰ *Время:* %s\n\n"+
			"🔔 Я напомню точно в срок! (#%d)",
		sess.text, format.Datetime(sess.at, b.parser.Location()), id),
		mainMenu, tele.ModeMarkdown)
}

func (b *Bot) cbCancelOp(c tele.Context) error {
	b.sess.clear(c.Chat().ID)
	return c.EditOrSend("Действие отменено. Выбери, что дальше:", mainMenu)
}

func (b *Bot) cbMyReminders(c tele.Context) error {
	u, err := b.ensureUser(c)
	if err != nil {
		return err
	}
	rs, err := b.db.UserReminders(u.ID)
	if err != nil {
		return err
	}
	return c.EditOrSend(format.List(rs, b.parser.Location()), backMenu, tele.ModeMarkdown)
}

func (b *Bot) cbClearAll(c tele.Context) error {
	return c.EditOrSend("🗑 *Очистка всех напоминаний*\n\n"+
		"Вы уверены, что хотите удалить ВСЕ свои напоминания?",
		clearMenu, tele.ModeMarkdown)
}

func (b *Bot) cbConfirmClear(c tele.Context) error {
	u, err := b.ensureUser(c)
	if err != nil {
		return err
	}

	// Disarm timers before the rows go away.
	rs, err := b.db.UserReminders(u.ID)
	if err != nil {
		return err
	}
	for _, r := range rs {
		if !r.IsSent {
			b.sched.Cancel(r.ID)
		}
	}

	n, err := b.db.ClearReminders(u.ID)
	if err != nil {
		return err
	}
	return c.EditOrSend(fmt.Sprintf("✅ *Готово!*\n\nУдалено напоминаний: *%d*", n),
		backMenu, tele.ModeMarkdown)
}

func (b *Bot) cbHelp(c tele.Context) error {
	return c.EditOrSend(helpText, backMenu, tele.ModeMarkdown)
}

func (b *Bot) cbBack(c tele.Context) error {
	b.sess.clear(c.Chat().ID)
	return c.EditOrSend("🤖 Я бот-напоминалка! Выбери действие:", mainMenu)
}

// ensureUser upserts the sender so every handler works even if the user
// never ran /start on this database.
func (b *Bot) ensureUser(c tele.Context) (*store.User, error) {
	sender := c.Sender()
	if sender == nil {
		return nil, errors.New("update without sender")
	}
	return b.db.UpsertUser(sender.ID, sender.Username, sender.FirstName)
}

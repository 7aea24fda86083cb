package bot

import tele "gopkg.in/telebot.v3"

// Inline keyboards. Buttons sharing a unique string land on the same
// callback endpoint, so each unique is registered exactly once.
var (
	mainMenu    = &tele.ReplyMarkup{}
	btnCreate   = mainMenu.Data("➕ Создать напоминание", "create_reminder")
	btnList     = mainMenu.Data("📋 Мои напоминания", "my_reminders")
	btnClearAll = mainMenu.Data("🗑 Очистить все", "clear_all")
	btnHelp     = mainMenu.Data("❓ Помощь", "help")

	confirmMenu = &tele.ReplyMarkup{}
	btnConfirm  = confirmMenu.Data("✅ Создать", "confirm_create")
	btnCancelOp = confirmMenu.Data("❌ Отмена", "cancel_op")

	clearMenu   = &tele.ReplyMarkup{}
	btnClearYes = clearMenu.Data("✅ Да, удалить все", "confirm_clear")
	btnClearNo  = clearMenu.Data("❌ Отмена", "back_to_menu")

	backMenu = &tele.ReplyMarkup{}
	btnBack  = backMenu.Data("🔙 В главное меню", "back_to_menu")

	cancelMenu  = &tele.ReplyMarkup{}
	btnCancelIn = cancelMenu.Data("❌ Отмена", "cancel_op")
)

func init() {
	mainMenu.Inline(
		mainMenu.Row(btnCreate),
		mainMenu.Row(btnList),
		mainMenu.Row(btnClearAll),
		mainMenu.Row(btnHelp),
	)
	confirmMenu.Inline(confirmMenu.Row(btnConfirm, btnCancelOp))
	clearMenu.Inline(clearMenu.Row(btnClearYes), clearMenu.Row(btnClearNo))
	backMenu.Inline(backMenu.Row(btnBack))
	cancelMenu.Inline(cancelMenu.Row(btnCancelIn))
}

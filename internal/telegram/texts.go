package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// UI texts in English
const (
	welcomeConnectedText = "👋 Welcome to the Facebook auto-posting bot!\n\n" +
		"Use the buttons below to control your publications:"
	welcomeConnectText = "👋 Welcome to the Facebook auto-posting bot!\n\n" +
		"To get started, connect your Facebook account so the bot can publish on your pages."
	helpText = "Commands:\n" +
		"/start — main menu\n" +
		"/status — current settings and token state\n" +
		"/help — this message\n\n" +
		"Everything else is driven by the menu buttons: publish now, " +
		"start/stop auto-posting, change the theme or the interval, reconnect Facebook."
	needConnectText = "❌ You need to connect Facebook first."
	statusFmt       = "📊 Bot status\n\n" +
		"• Facebook page: %s\n" +
		"• Theme: %s\n" +
		"• Interval: %d minutes\n" +
		"• Auto-posting: %s\n" +
		"• Published posts: %d\n\n" +
		"Facebook connection:\n" +
		"• Token expires: %s"
)

// mainMenuKeyboard is the inline menu shown to a connected user.
func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Status", "status"),
			tgbotapi.NewInlineKeyboardButtonData("🔄 Post now", "post_now"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("▶️ Start auto", "start_auto"),
			tgbotapi.NewInlineKeyboardButtonData("⏹️ Stop auto", "stop_auto"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔧 Settings", "settings"),
		),
	)
}

func connectKeyboard(authURL string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🔑 Connect Facebook", authURL),
		),
	)
}

func settingsKeyboard(authURL string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏷️ Change theme", "change_theme"),
			tgbotapi.NewInlineKeyboardButtonData("⏱️ Change interval", "change_interval"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🔑 Reconnect Facebook", authURL),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("↩️ Back to menu", "back_to_menu"),
		),
	)
}

func backKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("↩️ Back to menu", "back_to_menu"),
		),
	)
}

func pagePickerKeyboard(pages []pageOption) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(pages))
	for _, p := range pages {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(p.Name, "select_page:"+p.ID),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Callback data prefixes understood by the callback router.
const (
	callbackCheckJoin   = "check_join_"
	callbackVerifyCheck = "verify_check_"
	callbackHome        = "home"
	callbackAbout       = "about"
	callbackCommands    = "commands"
	callbackSupport     = "support"
)

func menuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("ℹ️ About", callbackAbout),
			tgbotapi.NewInlineKeyboardButtonData("📖 Commands", callbackCommands),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🛠 Support", callbackSupport),
		),
	)
}

func subMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏠 Home", callbackHome),
		),
	)
}

// joinKeyboard links to the required channel and offers a re-check that
// resumes the original request.
func joinKeyboard(channelUsername, uniqueID string) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{}
	if channelUsername != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("📢 Join Channel", "https://t.me/"+channelUsername),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔄 Try Again", callbackCheckJoin+uniqueID),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// verificationKeyboard carries the (possibly shortened) verification link and
// a re-check that resumes the original request after redemption.
func verificationKeyboard(verifyURL, uniqueID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🔐 Verify Now", verifyURL),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ I'm Verified", callbackVerifyCheck+uniqueID),
		),
	)
}

// downloadKeyboard is attached to generated movie/TV posts.
func downloadKeyboard(url string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("⬇️ Download", url),
		),
	)
}

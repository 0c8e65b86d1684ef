package telegram

import (
	"fmt"
	"time"

	"github.com/shred03/filestore-bot/internal/service"
)

const (
	welcomeText = "👋 *Welcome, %s!*\n\n" +
		"I keep files safe and hand them out through share links.\n" +
		"Got a link? Just tap it and I will send the files right here.\n\n" +
		"Use the buttons below to look around."

	aboutText = "ℹ️ *About*\n\n" +
		"This bot archives files posted to a private channel and serves them " +
		"through deep links. Access can require joining a channel and, after a " +
		"daily quota, a quick verification step."

	commandsText = "📖 *Commands*\n\n" +
		"/start — open this menu\n" +
		"/start <code> — fetch a stored file set\n\n" +
		"That's all a regular user needs. Admins have more; ask them."

	supportText = "🛠 *Support*\n\n" +
		"Something broken? Contact the channel admins and include the link " +
		"you tried to open."

	joinPromptText = "🔒 *Hold on!*\n\n" +
		"You need to join our channel before I can send you files.\n" +
		"Join, then tap *Try Again*."

	fileSetMissingText = "😕 This link doesn't point to any stored files. " +
		"It may have been removed."

	tokenIssueFailedText = "⚠️ Could not prepare your verification link. " +
		"Please try again in a moment."

	genericErrorText = "⚠️ Something went wrong. Please try again in a moment."

	invalidTokenText = "❌ This verification link is invalid or was already used.\n" +
		"Request the file again to get a fresh one."

	verifiedGeneralText = "✅ *Verification complete!*\n\n" +
		"You are verified for the next %d hours."

	verifiedQuotaText = "✅ *Verification complete!*\n\n" +
		"Your file quota has been reset. Happy downloading!"
)

// verificationPromptText renders the detour message for both verification
// contexts.
func verificationPromptText(decision *service.Decision, verificationHours int, now time.Time) string {
	if decision.Outcome == service.OutcomeRequireQuotaVerification {
		text := "📊 *Daily limit reached!*\n\n"
		if decision.Limit != nil {
			text += fmt.Sprintf("You have retrieved %d files this cycle.\n", decision.Limit.FilesRetrieved)
			text += fmt.Sprintf("Counters reset in: %s\n\n", service.TimeUntil(decision.Limit.NextResetAt, now))
		}
		text += "Verify now to unlock a fresh quota immediately, or wait for the reset."
		return text
	}
	return fmt.Sprintf(
		"🔐 *Verification required*\n\n"+
			"Complete a quick verification to access files for the next %d hours.",
		verificationHours,
	)
}

// autoDeleteNoticeText warns that delivered files will disappear.
func autoDeleteNoticeText(minutes int) string {
	return fmt.Sprintf(
		"⏳ These files will be deleted in %d minutes. Save them somewhere else!",
		minutes,
	)
}

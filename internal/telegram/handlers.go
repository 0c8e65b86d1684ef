package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/shred03/filestore-bot/internal/domain/entity"
	"github.com/shred03/filestore-bot/internal/service"
)

const verifyPayloadPrefix = "verify_"

// handleStart routes the /start deep link: no payload opens the menu, a
// verify_ payload runs the redemption flow, anything else is treated as a
// file set id and goes through the gating pipeline.
func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	b.registerUser(msg.From)

	payload := strings.TrimSpace(msg.CommandArguments())
	switch {
	case payload == "":
		b.reply(msg.Chat.ID, fmt.Sprintf(welcomeText, msg.From.FirstName), menuKeyboard())
	case strings.HasPrefix(payload, verifyPayloadPrefix):
		b.handleVerifyPayload(ctx, msg.Chat.ID, strings.TrimPrefix(payload, verifyPayloadPrefix))
	default:
		b.deliverFileSet(ctx, msg.Chat.ID, msg.From.ID, payload)
	}
}

// registerUser upserts the user for broadcast targeting. Failures are logged
// only; registration must never block a retrieval.
func (b *Bot) registerUser(from *tgbotapi.User) {
	if from == nil || b.deps.UserRepo == nil {
		return
	}
	user := &entity.User{
		UserID:    from.ID,
		Username:  from.UserName,
		FirstName: from.FirstName,
		LastName:  from.LastName,
	}
	if err := b.deps.UserRepo.Upsert(user); err != nil {
		log.Printf("[Bot] failed to register user %d: %v", from.ID, err)
	}
}

// handleVerifyPayload redeems a verification token and, when the token
// carried a subject, resumes the interrupted retrieval.
func (b *Bot) handleVerifyPayload(ctx context.Context, chatID int64, token string) {
	now := time.Now()

	result, err := b.deps.Verification.RedeemToken(token, now)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			b.reply(chatID, invalidTokenText)
		} else {
			b.reply(chatID, genericErrorText)
		}
		return
	}

	if err := b.deps.Limits.HandleVerificationSuccess(result.UserID, result.Context, now); err != nil {
		log.Printf("[Bot] failed to apply verification effect for user %d: %v", result.UserID, err)
	}

	if result.Context == entity.VerificationContextLimitExceeded {
		b.reply(chatID, verifiedQuotaText)
	} else {
		b.reply(chatID, fmt.Sprintf(verifiedGeneralText, b.verificationHours()))
	}

	if result.SubjectID != "" {
		b.deliverFileSet(ctx, chatID, result.UserID, result.SubjectID)
	}
}

// deliverFileSet runs the gating pipeline for one retrieval request and acts
// on the decision.
func (b *Bot) deliverFileSet(ctx context.Context, chatID, userID int64, uniqueID string) {
	now := time.Now()

	decision, err := b.deps.Gating.Evaluate(ctx, userID, uniqueID, now)
	if err != nil {
		log.Printf("[Bot] gating evaluation failed for user %d: %v", userID, err)
		b.reply(chatID, genericErrorText)
		return
	}

	switch decision.Outcome {
	case service.OutcomeRequireJoin:
		b.reply(chatID, joinPromptText, joinKeyboard(b.cfg.ForceChannelUsername, uniqueID))

	case service.OutcomeRequireQuotaVerification, service.OutcomeRequireVerification:
		if decision.Token == "" {
			b.reply(chatID, tokenIssueFailedText)
			return
		}
		verifyURL := b.deepLink(verifyPayloadPrefix + decision.Token)
		if b.deps.Shortener != nil {
			if short, err := b.deps.Shortener.Shorten(ctx, verifyURL, ""); err == nil {
				verifyURL = short
			} else {
				log.Printf("[Bot] shortener failed, using long URL: %v", err)
			}
		}
		b.reply(chatID, verificationPromptText(decision, b.verificationHours(), now),
			verificationKeyboard(verifyURL, uniqueID))

	case service.OutcomeServe:
		b.serveFileSet(ctx, chatID, userID, uniqueID, decision.Limit, now)
	}
}

// serveFileSet delivers the files and settles the quota charge.
func (b *Bot) serveFileSet(ctx context.Context, chatID, userID int64, uniqueID string, limit *service.LimitCheck, now time.Time) {
	files, err := b.deps.Files.GetFileSet(uniqueID)
	if err != nil {
		if errors.Is(err, service.ErrFileSetNotFound) {
			b.reply(chatID, fileSetMissingText)
		} else {
			log.Printf("[Bot] failed to load file set %s: %v", uniqueID, err)
			b.reply(chatID, genericErrorText)
		}
		return
	}

	if len(files) > 1 {
		b.reply(chatID, fmt.Sprintf("📦 Sending %d files...", len(files)))
	}

	result := b.deps.Files.Deliver(ctx, b.sender, chatID, files, nil)

	// Charge the requested count, delivered or not: the retrieval is one
	// user-visible action.
	if err := b.deps.Gating.RecordServed(userID, result.Requested, now); err != nil {
		log.Printf("[Bot] failed to record retrieval for user %d: %v", userID, err)
	}

	if limit != nil && !limit.Unlimited {
		remaining := limit.Remaining - result.Requested
		if remaining < 0 {
			remaining = 0
		}
		b.reply(chatID, fmt.Sprintf("📥 Files left this cycle: %d", remaining))
	}

	if b.cfg.AutoDeleteFiles && len(result.MessageIDs) > 0 {
		b.scheduleAutoDelete(ctx, chatID, result.MessageIDs)
	}
}

// scheduleAutoDelete warns the user and removes the delivered messages after
// the configured delay.
func (b *Bot) scheduleAutoDelete(ctx context.Context, chatID int64, messageIDs []int) {
	minutes := b.cfg.AutoDeleteMinutes
	if minutes <= 0 {
		minutes = 30
	}
	b.reply(chatID, autoDeleteNoticeText(minutes))

	go func() {
		select {
		case <-time.After(time.Duration(minutes) * time.Minute):
			b.sender.DeleteMessages(chatID, messageIDs)
		case <-ctx.Done():
		}
	}()
}

// handleCallback routes inline keyboard presses.
func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("[Bot] failed to answer callback: %v", err)
	}
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID

	switch data := cb.Data; {
	case strings.HasPrefix(data, callbackCheckJoin):
		uniqueID := strings.TrimPrefix(data, callbackCheckJoin)
		_, _ = b.api.Request(tgbotapi.NewDeleteMessage(chatID, cb.Message.MessageID))
		b.deliverFileSet(ctx, chatID, cb.From.ID, uniqueID)

	case strings.HasPrefix(data, callbackVerifyCheck):
		uniqueID := strings.TrimPrefix(data, callbackVerifyCheck)
		_, _ = b.api.Request(tgbotapi.NewDeleteMessage(chatID, cb.Message.MessageID))
		b.deliverFileSet(ctx, chatID, cb.From.ID, uniqueID)

	case data == callbackHome:
		b.editTo(chatID, cb.Message.MessageID, fmt.Sprintf(welcomeText, cb.From.FirstName), menuKeyboard())
	case data == callbackAbout:
		b.editTo(chatID, cb.Message.MessageID, aboutText, subMenuKeyboard())
	case data == callbackCommands:
		b.editTo(chatID, cb.Message.MessageID, commandsText, subMenuKeyboard())
	case data == callbackSupport:
		b.editTo(chatID, cb.Message.MessageID, supportText, subMenuKeyboard())
	}
}

func (b *Bot) editTo(chatID int64, messageID int, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, keyboard)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(edit); err != nil {
		log.Printf("[Bot] failed to edit message: %v", err)
	}
}

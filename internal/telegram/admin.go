package telegram

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/shred03/filestore-bot/internal/domain/entity"
	"github.com/shred03/filestore-bot/internal/service"
)

// maxBatchFiles caps how many channel posts one /batch command may archive.
const maxBatchFiles = 100

const adminHelpText = "🔧 *Admin commands*\n\n" +
	"/link <post\\_url> — store one channel post\n" +
	"/batch <first\\_url> <last\\_url> — store a post range (max 100)\n" +
	"/broadcast — reply to a message to fan it out\n" +
	"/toggleverify — flip the verification system\n" +
	"/togglelimit — flip the retrieval limit system\n" +
	"/setlimit <n> — set the per-cycle file limit\n" +
	"/resetlimit <user\\_id|all> — reset quota counters\n" +
	"/limitstats — quota aggregates\n" +
	"/report — xlsx quota usage export\n" +
	"/verify <user\\_id> — force-verify a user\n" +
	"/movie <query> — TMDB movie post\n" +
	"/tv <query> — TMDB TV post\n" +
	"/setcaption <text> — custom caption for stored files\n" +
	"/togglecaption — flip custom caption usage\n" +
	"/addadmin <user\\_id> — grant admin commands\n" +
	"/search <query> — find stored files by name\n" +
	"/stats — bot counters"

func (b *Bot) handleAdminCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "admin":
		b.reply(msg.Chat.ID, adminHelpText)
	case "link":
		b.handleLink(msg)
	case "batch":
		b.handleBatch(msg)
	case "broadcast":
		b.handleBroadcast(ctx, msg)
	case "toggleverify":
		enabled := b.deps.Settings.ToggleVerification()
		b.reply(msg.Chat.ID, fmt.Sprintf("🔐 Verification system: *%s*", onOff(enabled)))
	case "togglelimit":
		enabled := b.deps.Settings.ToggleLimit()
		b.reply(msg.Chat.ID, fmt.Sprintf("📊 Retrieval limit system: *%s*", onOff(enabled)))
	case "setlimit":
		b.handleSetLimit(msg)
	case "resetlimit":
		b.handleResetLimit(msg)
	case "limitstats":
		b.handleLimitStats(msg)
	case "report":
		b.handleReport(msg)
	case "verify":
		b.handleForceVerify(msg)
	case "movie":
		b.handleMetadataPost(ctx, msg, false)
	case "tv":
		b.handleMetadataPost(ctx, msg, true)
	case "setcaption":
		b.handleSetCaption(msg)
	case "togglecaption":
		b.handleToggleCaption(msg)
	case "addadmin":
		b.handleAddAdmin(msg)
	case "search":
		b.handleSearch(msg)
	case "stats":
		b.handleStats(msg)
	}
}

func onOff(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

// parsePostLink extracts the channel id and message id from a private
// channel post link (https://t.me/c/<internal_id>/<message_id>).
func parsePostLink(link string) (int64, int, error) {
	link = strings.TrimPrefix(strings.TrimPrefix(link, "https://"), "http://")
	parts := strings.Split(strings.Trim(link, "/"), "/")
	if len(parts) != 4 || parts[0] != "t.me" || parts[1] != "c" {
		return 0, 0, fmt.Errorf("expected a private channel post link like https://t.me/c/123456/789")
	}
	chatID, err := strconv.ParseInt("-100"+parts[2], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid channel id in link: %w", err)
	}
	messageID, err := strconv.Atoi(parts[3])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid message id in link: %w", err)
	}
	return chatID, messageID, nil
}

// buildStoredFile assembles the archive record for one channel post,
// enriched from the channel post cache when the payload is still known.
func (b *Bot) buildStoredFile(chatID int64, messageID int, uniqueID string, multiple bool, adminID int64) entity.StoredFile {
	record := entity.StoredFile{
		FileType:   entity.FileTypeDocument,
		ChannelID:  strconv.FormatInt(chatID, 10),
		StoredBy:   adminID,
		IsMultiple: multiple,
		UniqueID:   uniqueID,
		MessageID:  messageID,
	}

	if cached := b.lookupChannelPost(chatID, messageID); cached != nil {
		record.FileID = cached.FileID
		record.FileName = cached.FileName
		record.FileType = cached.FileType
		record.OriginalCaption = cached.Caption
	}

	if caption := b.adminCaption(adminID); caption != "" {
		record.OriginalCaption = caption
	}
	return record
}

// adminCaption returns the admin's custom caption when enabled, or empty.
func (b *Bot) adminCaption(adminID int64) string {
	if b.deps.AdminRepo == nil {
		return ""
	}
	admin, err := b.deps.AdminRepo.GetByAdminID(adminID)
	if err != nil || !admin.CaptionEnabled {
		return ""
	}
	return admin.CustomCaption
}

func (b *Bot) handleLink(msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 1 {
		b.reply(msg.Chat.ID, "Usage: /link <post\\_url>")
		return
	}
	chatID, messageID, err := parsePostLink(args[0])
	if err != nil {
		b.reply(msg.Chat.ID, "❌ "+err.Error())
		return
	}

	uniqueID, err := b.deps.Files.GenerateUniqueID()
	if err != nil {
		b.reply(msg.Chat.ID, "❌ Failed to generate a link id, try again.")
		return
	}
	record := b.buildStoredFile(chatID, messageID, uniqueID, false, msg.From.ID)
	if err := b.deps.Files.Store(&record); err != nil {
		log.Printf("[Bot] failed to store file: %v", err)
		b.reply(msg.Chat.ID, "❌ Failed to store the file, try again.")
		return
	}

	b.reply(msg.Chat.ID, fmt.Sprintf("✅ File stored!\n\n🔗 Share link:\n%s", b.deepLink(uniqueID)))
}

func (b *Bot) handleBatch(msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 2 {
		b.reply(msg.Chat.ID, "Usage: /batch <first\\_post\\_url> <last\\_post\\_url>")
		return
	}
	firstChat, firstID, err := parsePostLink(args[0])
	if err != nil {
		b.reply(msg.Chat.ID, "❌ "+err.Error())
		return
	}
	lastChat, lastID, err := parsePostLink(args[1])
	if err != nil {
		b.reply(msg.Chat.ID, "❌ "+err.Error())
		return
	}
	if firstChat != lastChat {
		b.reply(msg.Chat.ID, "❌ Both links must point to the same channel.")
		return
	}
	if lastID < firstID {
		firstID, lastID = lastID, firstID
	}
	count := lastID - firstID + 1
	if count > maxBatchFiles {
		b.reply(msg.Chat.ID, fmt.Sprintf("❌ A batch may hold at most %d posts, got %d.", maxBatchFiles, count))
		return
	}

	uniqueID, err := b.deps.Files.GenerateUniqueID()
	if err != nil {
		b.reply(msg.Chat.ID, "❌ Failed to generate a link id, try again.")
		return
	}
	records := make([]entity.StoredFile, 0, count)
	for messageID := firstID; messageID <= lastID; messageID++ {
		records = append(records, b.buildStoredFile(firstChat, messageID, uniqueID, true, msg.From.ID))
	}
	if err := b.deps.Files.StoreBatch(records); err != nil {
		log.Printf("[Bot] failed to store batch: %v", err)
		b.reply(msg.Chat.ID, "❌ Failed to store the batch, try again.")
		return
	}

	b.reply(msg.Chat.ID, fmt.Sprintf("✅ Stored %d files!\n\n🔗 Share link:\n%s", count, b.deepLink(uniqueID)))
}

func (b *Bot) handleBroadcast(ctx context.Context, msg *tgbotapi.Message) {
	if b.deps.Broadcast == nil || msg.ReplyToMessage == nil {
		b.reply(msg.Chat.ID, "Reply to the message you want to broadcast with /broadcast.")
		return
	}

	status, err := b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, "📣 Broadcasting..."))
	if err != nil {
		log.Printf("[Bot] failed to send broadcast status: %v", err)
		return
	}

	fromChatID := msg.Chat.ID
	replyID := msg.ReplyToMessage.MessageID
	go func() {
		progress := func(done, total int) {
			edit := tgbotapi.NewEditMessageText(fromChatID, status.MessageID,
				fmt.Sprintf("📣 Broadcasting... %d/%d", done, total))
			_, _ = b.api.Send(edit)
		}
		report, err := b.deps.Broadcast.Run(ctx, b.sender, fromChatID, replyID, progress)
		text := fmt.Sprintf("📣 Broadcast finished.\n✅ Sent: %d\n❌ Failed: %d", report.Success, report.Failed)
		if err != nil {
			text += fmt.Sprintf("\n⚠️ Aborted: %v", err)
		}
		edit := tgbotapi.NewEditMessageText(fromChatID, status.MessageID, text)
		_, _ = b.api.Send(edit)
	}()
}

func (b *Bot) handleSetLimit(msg *tgbotapi.Message) {
	n, err := strconv.Atoi(strings.TrimSpace(msg.CommandArguments()))
	if err != nil {
		b.reply(msg.Chat.ID, "Usage: /setlimit <number>")
		return
	}
	effective := b.deps.Settings.SetFileLimit(n)
	b.reply(msg.Chat.ID, fmt.Sprintf("📊 File limit set to *%d* per cycle.", effective))
}

func (b *Bot) handleResetLimit(msg *tgbotapi.Message) {
	arg := strings.TrimSpace(msg.CommandArguments())
	now := time.Now()

	if arg == "all" {
		affected, err := b.deps.Limits.ResetAllCounters(now)
		if err != nil {
			b.reply(msg.Chat.ID, "❌ Failed to reset counters.")
			return
		}
		b.reply(msg.Chat.ID, fmt.Sprintf("♻️ Reset counters for *%d* users.", affected))
		return
	}

	userID, err := parseUserID(arg)
	if err != nil {
		b.reply(msg.Chat.ID, "Usage: /resetlimit <user\\_id|all>")
		return
	}
	if err := b.deps.Limits.ResetUserCounters(userID, now); err != nil {
		b.reply(msg.Chat.ID, "❌ Failed to reset counters for that user.")
		return
	}
	b.reply(msg.Chat.ID, fmt.Sprintf("♻️ Counters reset for user `%d`.", userID))
}

func (b *Bot) handleLimitStats(msg *tgbotapi.Message) {
	stats, err := b.deps.Limits.Stats()
	if err != nil {
		b.reply(msg.Chat.ID, "❌ Failed to load quota stats.")
		return
	}
	b.reply(msg.Chat.ID, fmt.Sprintf(
		"📊 *Quota stats*\n\n"+
			"System: %s\n"+
			"File limit: %d\n"+
			"Tracked users: %d\n"+
			"Needing verification: %d\n"+
			"Average retrieved: %.1f",
		onOff(stats.SystemEnabled), stats.CurrentFileLimit, stats.TotalUsers,
		stats.UsersNeedingVerification, stats.AverageFilesRetrieved,
	))
}

func (b *Bot) handleReport(msg *tgbotapi.Message) {
	if b.deps.Reports == nil {
		return
	}
	buf, err := b.deps.Reports.BuildQuotaReport(time.Now())
	if err != nil {
		log.Printf("[Bot] failed to build quota report: %v", err)
		b.reply(msg.Chat.ID, "❌ Failed to build the report.")
		return
	}
	doc := tgbotapi.NewDocument(msg.Chat.ID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("quota_report_%s.xlsx", time.Now().Format("2006-01-02")),
		Bytes: buf.Bytes(),
	})
	doc.Caption = "📊 Quota usage report"
	if _, err := b.api.Send(doc); err != nil {
		log.Printf("[Bot] failed to send quota report: %v", err)
	}
}

func (b *Bot) handleForceVerify(msg *tgbotapi.Message) {
	userID, err := parseUserID(strings.TrimSpace(msg.CommandArguments()))
	if err != nil {
		b.reply(msg.Chat.ID, "Usage: /verify <user\\_id>")
		return
	}
	now := time.Now()

	// An unverified record must exist before it can be marked.
	if _, err := b.deps.Verification.CreateRecord(userID, entity.VerificationContextGeneral, ""); err != nil {
		b.reply(msg.Chat.ID, "❌ Failed to verify the user.")
		return
	}
	if err := b.deps.Verification.MarkVerified(userID, now); err != nil {
		b.reply(msg.Chat.ID, "❌ Failed to verify the user.")
		return
	}
	if err := b.deps.Limits.ClearVerificationRequirement(userID); err != nil {
		log.Printf("[Bot] failed to clear verification flag for user %d: %v", userID, err)
	}
	b.reply(msg.Chat.ID, fmt.Sprintf("✅ User `%d` verified for %d hours.", userID, b.verificationHours()))
}

// handleMetadataPost builds a movie/TV post. An optional trailing file set id
// (separated by |) attaches a download button with the retrieval deep link.
func (b *Bot) handleMetadataPost(ctx context.Context, msg *tgbotapi.Message, tv bool) {
	if b.deps.Metadata == nil {
		b.reply(msg.Chat.ID, "🎬 Metadata posts are disabled: no TMDB API key configured.")
		return
	}
	query := strings.TrimSpace(msg.CommandArguments())
	fileSetID := ""
	if idx := strings.LastIndex(query, "|"); idx >= 0 {
		fileSetID = strings.TrimSpace(query[idx+1:])
		query = strings.TrimSpace(query[:idx])
	}
	if query == "" {
		b.reply(msg.Chat.ID, "Usage: /movie <title> [| file\\_set\\_id]")
		return
	}

	details, err := b.lookupMetadata(ctx, query, tv)
	if err != nil {
		log.Printf("[Bot] metadata lookup failed for %q: %v", query, err)
		b.reply(msg.Chat.ID, "❌ Nothing found for that title.")
		return
	}

	caption := b.deps.Metadata.BuildMovieCaption(details)
	if tv {
		caption = b.deps.Metadata.BuildTVCaption(details)
	}

	targetChat := msg.Chat.ID
	if b.cfg.TargetChannel != 0 {
		targetChat = b.cfg.TargetChannel
	}

	var chattable tgbotapi.Chattable
	if poster := details.PosterURL(); poster != "" {
		photo := tgbotapi.NewPhoto(targetChat, tgbotapi.FileURL(poster))
		photo.Caption = caption
		photo.ParseMode = tgbotapi.ModeMarkdown
		if fileSetID != "" {
			photo.ReplyMarkup = downloadKeyboard(b.deepLink(fileSetID))
		}
		chattable = photo
	} else {
		text := tgbotapi.NewMessage(targetChat, caption)
		text.ParseMode = tgbotapi.ModeMarkdown
		if fileSetID != "" {
			text.ReplyMarkup = downloadKeyboard(b.deepLink(fileSetID))
		}
		chattable = text
	}

	if _, err := b.api.Send(chattable); err != nil {
		log.Printf("[Bot] failed to send metadata post: %v", err)
		b.reply(msg.Chat.ID, "❌ Failed to publish the post.")
		return
	}
	if targetChat != msg.Chat.ID {
		b.reply(msg.Chat.ID, "✅ Post published to the channel.")
	}
}

// lookupMetadata searches and resolves the first hit's details.
func (b *Bot) lookupMetadata(ctx context.Context, query string, tv bool) (*service.MovieDetails, error) {
	if tv {
		hits, err := b.deps.Metadata.SearchTV(ctx, query)
		if err != nil {
			return nil, err
		}
		if len(hits) == 0 {
			return nil, fmt.Errorf("no results")
		}
		return b.deps.Metadata.TVDetails(ctx, hits[0].ID)
	}
	hits, err := b.deps.Metadata.SearchMovie(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, fmt.Errorf("no results")
	}
	return b.deps.Metadata.MovieDetails(ctx, hits[0].ID)
}

func (b *Bot) handleSetCaption(msg *tgbotapi.Message) {
	if b.deps.AdminRepo == nil {
		return
	}
	caption := strings.TrimSpace(msg.CommandArguments())
	if caption == "" {
		b.reply(msg.Chat.ID, "Usage: /setcaption <text>")
		return
	}
	admin := &entity.Admin{AdminID: msg.From.ID, CustomCaption: caption, CaptionEnabled: true}
	if err := b.deps.AdminRepo.Upsert(admin); err != nil {
		b.reply(msg.Chat.ID, "❌ Failed to save the caption.")
		return
	}
	b.reply(msg.Chat.ID, "✅ Custom caption saved and enabled.")
}

func (b *Bot) handleToggleCaption(msg *tgbotapi.Message) {
	if b.deps.AdminRepo == nil {
		return
	}
	admin, err := b.deps.AdminRepo.GetByAdminID(msg.From.ID)
	if err != nil {
		b.reply(msg.Chat.ID, "Set a caption first with /setcaption.")
		return
	}
	admin.CaptionEnabled = !admin.CaptionEnabled
	if err := b.deps.AdminRepo.Upsert(admin); err != nil {
		b.reply(msg.Chat.ID, "❌ Failed to update the caption setting.")
		return
	}
	b.reply(msg.Chat.ID, fmt.Sprintf("✅ Custom caption: *%s*", onOff(admin.CaptionEnabled)))
}

func (b *Bot) handleAddAdmin(msg *tgbotapi.Message) {
	if b.deps.AdminRepo == nil {
		return
	}
	userID, err := parseUserID(strings.TrimSpace(msg.CommandArguments()))
	if err != nil {
		b.reply(msg.Chat.ID, "Usage: /addadmin <user\\_id>")
		return
	}
	admin := &entity.Admin{AdminID: userID, CaptionEnabled: true}
	if err := b.deps.AdminRepo.Upsert(admin); err != nil {
		b.reply(msg.Chat.ID, "❌ Failed to add the admin.")
		return
	}
	b.reply(msg.Chat.ID, fmt.Sprintf("✅ User `%d` can now use admin commands.", userID))
}

func (b *Bot) handleSearch(msg *tgbotapi.Message) {
	query := strings.TrimSpace(msg.CommandArguments())
	if query == "" {
		b.reply(msg.Chat.ID, "Usage: /search <query>")
		return
	}

	results, err := b.deps.Files.Search(query, 10)
	if err != nil {
		log.Printf("[Bot] search failed for %q: %v", query, err)
		b.reply(msg.Chat.ID, "❌ Search failed, try again.")
		return
	}
	if len(results) == 0 {
		b.reply(msg.Chat.ID, "🔍 Nothing found for that query.")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔍 *Results for* %s:\n\n", query))
	for i, result := range results {
		name := result.File.FileName
		if name == "" {
			name = "(unnamed file)"
		}
		sb.WriteString(fmt.Sprintf("%d. %s\n%s\n\n", i+1, name, b.deepLink(result.File.UniqueID)))
	}
	b.reply(msg.Chat.ID, sb.String())
}

func (b *Bot) handleStats(msg *tgbotapi.Message) {
	var userCount, fileCount int64
	if b.deps.UserRepo != nil {
		userCount, _ = b.deps.UserRepo.Count()
	}
	fileCount, _ = b.deps.Files.Count()

	b.reply(msg.Chat.ID, fmt.Sprintf(
		"📈 *Bot stats*\n\n"+
			"Users: %d\n"+
			"Stored files: %d\n"+
			"Verification: %s\n"+
			"Retrieval limit: %s (%d per cycle)",
		userCount, fileCount,
		onOff(b.deps.Settings.VerificationEnabled()),
		onOff(b.deps.Settings.LimitEnabled()), b.deps.Settings.FileLimit(),
	))
}

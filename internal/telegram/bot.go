// Package telegram is the messaging transport adapter: it owns the Bot API
// session, the update loop and every handler, and translates between
// Telegram updates and the domain services.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/shred03/filestore-bot/internal/config"
	"github.com/shred03/filestore-bot/internal/domain/entity"
	"github.com/shred03/filestore-bot/internal/domain/repository"
	"github.com/shred03/filestore-bot/internal/service"
	"github.com/shred03/filestore-bot/internal/shortener"
)

// channelPostCacheTTL bounds how long observed channel post payloads stay
// resolvable for /link and /batch.
const channelPostCacheTTL = 72 * time.Hour

// Deps collects everything the bot needs. Metadata may be nil when no TMDB
// key is configured; the related commands then answer with a notice.
type Deps struct {
	Settings     *service.AccessSettings
	Gating       *service.GatingService
	Files        *service.FileService
	Verification *service.VerificationService
	Limits       *service.RetrievalLimitService
	Broadcast    *service.BroadcastService
	Reports      *service.ReportService
	Metadata     *service.MetadataService
	Shortener    *shortener.Client
	UserRepo     repository.UserRepository
	AdminRepo    repository.AdminRepository
	Cache        repository.CacheRepository
}

// Bot ведет сессию Telegram Bot API и распределяет обновления по обработчикам
type Bot struct {
	api    *tgbotapi.BotAPI
	cfg    config.TelegramConfig
	sender *Sender
	deps   Deps
}

// NewBot authorizes against the Bot API and builds the adapter.
func NewBot(cfg config.TelegramConfig, deps Deps) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize bot: %w", err)
	}
	log.Printf("[Bot] authorized as @%s", api.Self.UserName)

	if deps.Files == nil || deps.Verification == nil || deps.Limits == nil {
		return nil, fmt.Errorf("file, verification and limit services are required")
	}

	return &Bot{
		api:    api,
		cfg:    cfg,
		sender: NewSender(api),
		deps:   deps,
	}, nil
}

// API exposes the authorized Bot API session, needed to build the membership
// checker.
func (b *Bot) API() *tgbotapi.BotAPI {
	return b.api
}

// SetGating injects the gating service. The gating pipeline depends on the
// membership checker, which in turn needs the authorized API session, so it
// cannot be passed at construction. Must be called before Run.
func (b *Bot) SetGating(gating *service.GatingService) {
	b.deps.Gating = gating
}

// Username returns the authorized bot account name, used in deep links.
func (b *Bot) Username() string {
	return b.api.Self.UserName
}

// Run polls for updates until the context is cancelled. Each update is
// handled in its own goroutine so a slow delivery never stalls the loop.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	log.Println("[Bot] update loop started")
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			log.Println("[Bot] update loop stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Bot] recovered from panic in update handler: %v", r)
		}
	}()

	switch {
	case update.ChannelPost != nil:
		b.cacheChannelPost(update.ChannelPost)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	b.logCommand(msg)

	switch msg.Command() {
	case "start":
		b.handleStart(ctx, msg)
	case "help":
		b.reply(msg.Chat.ID, commandsText, subMenuKeyboard())
	default:
		if b.isAdmin(msg.From.ID) {
			b.handleAdminCommand(ctx, msg)
		}
	}
}

// isAdmin admits the configured ids plus anyone promoted via /addadmin.
func (b *Bot) isAdmin(userID int64) bool {
	if b.deps.Gating.IsAdmin(userID) {
		return true
	}
	if b.deps.AdminRepo != nil {
		if _, err := b.deps.AdminRepo.GetByAdminID(userID); err == nil {
			return true
		}
	}
	return false
}

// cachedChannelFile is the redis payload kept per observed channel post so
// /link and /batch can resolve post links into file records.
type cachedChannelFile struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
	FileType string `json:"file_type"`
	Caption  string `json:"caption"`
}

func channelPostCacheKey(chatID int64, messageID int) string {
	return fmt.Sprintf("chpost:%d:%d", chatID, messageID)
}

// cacheChannelPost remembers the file payload of a channel post from the
// archive channel.
func (b *Bot) cacheChannelPost(post *tgbotapi.Message) {
	if b.deps.Cache == nil {
		return
	}
	if b.cfg.TargetChannel != 0 && post.Chat.ID != b.cfg.TargetChannel {
		return
	}

	cached := extractFilePayload(post)
	if cached == nil {
		return
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return
	}
	key := channelPostCacheKey(post.Chat.ID, post.MessageID)
	if err := b.deps.Cache.Set(key, data, channelPostCacheTTL); err != nil {
		log.Printf("[Bot] failed to cache channel post %d: %v", post.MessageID, err)
	}
}

// extractFilePayload pulls the sendable file out of a message, or nil when
// the message holds no supported file.
func extractFilePayload(msg *tgbotapi.Message) *cachedChannelFile {
	switch {
	case msg.Document != nil:
		return &cachedChannelFile{
			FileID:   msg.Document.FileID,
			FileName: msg.Document.FileName,
			FileType: entity.FileTypeDocument,
			Caption:  msg.Caption,
		}
	case len(msg.Photo) > 0:
		return &cachedChannelFile{
			FileID:   msg.Photo[len(msg.Photo)-1].FileID,
			FileType: entity.FileTypePhoto,
			Caption:  msg.Caption,
		}
	case msg.Video != nil:
		return &cachedChannelFile{
			FileID:   msg.Video.FileID,
			FileName: msg.Video.FileName,
			FileType: entity.FileTypeVideo,
			Caption:  msg.Caption,
		}
	case msg.Animation != nil:
		return &cachedChannelFile{
			FileID:   msg.Animation.FileID,
			FileName: msg.Animation.FileName,
			FileType: entity.FileTypeAnimation,
			Caption:  msg.Caption,
		}
	case msg.Sticker != nil:
		return &cachedChannelFile{
			FileID:   msg.Sticker.FileID,
			FileType: entity.FileTypeSticker,
		}
	}
	return nil
}

// lookupChannelPost resolves a cached channel post payload, if still known.
func (b *Bot) lookupChannelPost(chatID int64, messageID int) *cachedChannelFile {
	if b.deps.Cache == nil {
		return nil
	}
	raw, err := b.deps.Cache.Get(channelPostCacheKey(chatID, messageID))
	if err != nil {
		return nil
	}
	var cached cachedChannelFile
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return nil
	}
	return &cached
}

// reply sends a Markdown message with an optional keyboard.
func (b *Bot) reply(chatID int64, text string, keyboard ...tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if len(keyboard) > 0 {
		msg.ReplyMarkup = keyboard[0]
	}
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("[Bot] failed to send message to %d: %v", chatID, err)
	}
}

// logCommand mirrors executed commands into the log channel, if configured.
func (b *Bot) logCommand(msg *tgbotapi.Message) {
	if b.cfg.LogChannelID == 0 || msg.From == nil {
		return
	}
	entry := fmt.Sprintf(
		"📋 Command: /%s\n👤 User: %s (%d)\n💬 Chat: %d",
		msg.Command(), msg.From.UserName, msg.From.ID, msg.Chat.ID,
	)
	if _, err := b.api.Send(tgbotapi.NewMessage(b.cfg.LogChannelID, entry)); err != nil {
		log.Printf("[Bot] failed to log command: %v", err)
	}
}

// deepLink builds the bot deep link for a start payload.
func (b *Bot) deepLink(payload string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", b.api.Self.UserName, payload)
}

// verificationHours reports the configured verification validity in whole
// hours, for user-facing texts.
func (b *Bot) verificationHours() int {
	return int(b.deps.Settings.VerificationWindow() / time.Hour)
}

// parseUserID parses a user id command argument.
func parseUserID(arg string) (int64, error) {
	return strconv.ParseInt(arg, 10, 64)
}

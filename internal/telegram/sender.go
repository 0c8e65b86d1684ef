package telegram

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/shred03/filestore-bot/internal/domain/entity"
)

// Sender is the outbound messaging adapter. It implements both
// service.FileSender and service.MessageCopier.
type Sender struct {
	api *tgbotapi.BotAPI
}

// NewSender создает новый адаптер отправки сообщений
func NewSender(api *tgbotapi.BotAPI) *Sender {
	return &Sender{api: api}
}

// SendStoredFile delivers one archived file to the chat. Files with a known
// file id are re-sent directly; the rest are copied from the source channel.
func (s *Sender) SendStoredFile(ctx context.Context, chatID int64, file *entity.StoredFile) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if file.FileID == "" {
		return s.copyFromChannel(chatID, file)
	}

	var chattable tgbotapi.Chattable
	switch file.FileType {
	case entity.FileTypePhoto:
		msg := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(file.FileID))
		msg.Caption = file.OriginalCaption
		chattable = msg
	case entity.FileTypeVideo:
		msg := tgbotapi.NewVideo(chatID, tgbotapi.FileID(file.FileID))
		msg.Caption = file.OriginalCaption
		chattable = msg
	case entity.FileTypeAnimation:
		msg := tgbotapi.NewAnimation(chatID, tgbotapi.FileID(file.FileID))
		msg.Caption = file.OriginalCaption
		chattable = msg
	case entity.FileTypeSticker:
		chattable = tgbotapi.NewSticker(chatID, tgbotapi.FileID(file.FileID))
	default:
		msg := tgbotapi.NewDocument(chatID, tgbotapi.FileID(file.FileID))
		msg.Caption = file.OriginalCaption
		chattable = msg
	}

	sent, err := s.api.Send(chattable)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

// copyFromChannel falls back to copyMessage when the archived record carries
// only the source coordinates.
func (s *Sender) copyFromChannel(chatID int64, file *entity.StoredFile) (int, error) {
	channelID, err := strconv.ParseInt(file.ChannelID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid stored channel id %q: %w", file.ChannelID, err)
	}
	copied, err := s.api.CopyMessage(tgbotapi.NewCopyMessage(chatID, channelID, file.MessageID))
	if err != nil {
		return 0, err
	}
	return copied.MessageID, nil
}

// CopyTo copies an arbitrary message between chats, used by the broadcast
// fan-out.
func (s *Sender) CopyTo(ctx context.Context, toChatID, fromChatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.api.CopyMessage(tgbotapi.NewCopyMessage(toChatID, fromChatID, messageID))
	return err
}

// DeleteMessages removes delivered messages, used by the auto-delete timer.
// Per-message failures are ignored; the messages may already be gone.
func (s *Sender) DeleteMessages(chatID int64, messageIDs []int) {
	for _, id := range messageIDs {
		_, _ = s.api.Request(tgbotapi.NewDeleteMessage(chatID, id))
	}
}

package telegram

import (
	"context"
	"fmt"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/shred03/filestore-bot/internal/domain/repository"
	"github.com/shred03/filestore-bot/internal/service"
)

// membershipCacheTTL bounds how long a positive membership result is reused
// before asking Telegram again. Negative results are never cached, so a user
// who just joined is admitted on the next check.
const membershipCacheTTL = 5 * time.Minute

// MembershipChecker answers channel membership questions against the Bot API,
// with a short positive-result cache in front of it.
type MembershipChecker struct {
	api   *tgbotapi.BotAPI
	cache repository.CacheRepository
}

// NewMembershipChecker создает новый проверщик членства в каналах
func NewMembershipChecker(api *tgbotapi.BotAPI, cache repository.CacheRepository) *MembershipChecker {
	return &MembershipChecker{api: api, cache: cache}
}

func membershipCacheKey(channelID, userID int64) string {
	return fmt.Sprintf("member:%d:%d", channelID, userID)
}

// CheckMembership resolves the user's standing in the channel. Lookup
// failures are reported as Unknown; the gating layer fails closed on that.
func (c *MembershipChecker) CheckMembership(ctx context.Context, channelID, userID int64) service.MembershipStatus {
	key := membershipCacheKey(channelID, userID)
	if c.cache != nil {
		if ok, err := c.cache.Exists(key); err == nil && ok {
			return service.MembershipMember
		}
	}

	member, err := c.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: channelID,
			UserID: userID,
		},
	})
	if err != nil {
		log.Printf("[MembershipChecker] GetChatMember failed for user %d in %d: %v", userID, channelID, err)
		return service.MembershipUnknown
	}

	switch member.Status {
	case "left", "kicked":
		return service.MembershipNonMember
	case "restricted":
		if !member.IsMember {
			return service.MembershipNonMember
		}
	}

	if c.cache != nil {
		if err := c.cache.Set(key, "1", membershipCacheTTL); err != nil {
			log.Printf("[MembershipChecker] failed to cache membership for user %d: %v", userID, err)
		}
	}
	return service.MembershipMember
}

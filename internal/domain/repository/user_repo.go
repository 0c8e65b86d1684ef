package repository

import "github.com/shred03/filestore-bot/internal/domain/entity"

// UserRepository tracks everyone who has started the bot.
type UserRepository interface {
	// Upsert records the user, refreshing names on every contact.
	Upsert(user *entity.User) error

	GetByUserID(userID int64) (*entity.User, error)

	// List returns users in id order with pagination, for broadcast fan-out.
	List(limit, offset int) ([]entity.User, error)

	Count() (int64, error)
}

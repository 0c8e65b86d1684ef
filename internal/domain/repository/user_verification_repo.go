package repository

import (
	"time"

	"github.com/shred03/filestore-bot/internal/domain/entity"
)

// UserVerificationRepository persists verification records. There is at most
// one record per user: Replace overwrites any existing row for the user.
type UserVerificationRepository interface {
	// Replace creates the record for the user, or overwrites the existing one
	// (create-or-replace, never append).
	Replace(record *entity.UserVerification) error

	// GetActiveByUserID returns the record for the user only if it is
	// verified and not yet expired at the given time.
	GetActiveByUserID(userID int64, now time.Time) (*entity.UserVerification, error)

	// GetPendingByToken returns the unverified record carrying the token.
	// Verified records never match, which makes redemption exactly-once.
	GetPendingByToken(token string) (*entity.UserVerification, error)

	// MarkVerified flips the user's record to verified with the given
	// timestamps.
	MarkVerified(userID int64, verifiedAt, expiresAt time.Time) error

	// DeleteExpired removes all records whose expiry is before now and
	// returns the number of rows removed.
	DeleteExpired(now time.Time) (int64, error)
}

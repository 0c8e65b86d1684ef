package postgres

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shred03/filestore-bot/internal/domain/entity"
	apperrors "github.com/shred03/filestore-bot/internal/pkg/errors"
)

// UserVerificationRepo реализует repository.UserVerificationRepository
type UserVerificationRepo struct {
	db *gorm.DB
}

// NewUserVerificationRepo создает новый репозиторий записей верификации
func NewUserVerificationRepo(db *gorm.DB) *UserVerificationRepo {
	return &UserVerificationRepo{db: db}
}

// Replace creates or fully overwrites the user's verification record.
// Only one pending or active verification exists per user by design.
func (r *UserVerificationRepo) Replace(record *entity.UserVerification) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"token", "is_verified", "verified_at", "expires_at",
			"context", "subject_id", "created_at",
		}),
	}).Create(record).Error
}

// GetActiveByUserID returns the record only when it is verified and unexpired.
func (r *UserVerificationRepo) GetActiveByUserID(userID int64, now time.Time) (*entity.UserVerification, error) {
	var record entity.UserVerification
	err := r.db.
		Where("user_id = ? AND is_verified = ? AND expires_at > ?", userID, true, now).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get active verification: %w", err)
	}
	return &record, nil
}

// GetPendingByToken looks up an unverified record by token. A token that was
// already redeemed no longer matches, so a second redemption fails.
func (r *UserVerificationRepo) GetPendingByToken(token string) (*entity.UserVerification, error) {
	var record entity.UserVerification
	err := r.db.
		Where("token = ? AND is_verified = ?", token, false).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get pending verification: %w", err)
	}
	return &record, nil
}

// MarkVerified flips the user's record to verified state.
func (r *UserVerificationRepo) MarkVerified(userID int64, verifiedAt, expiresAt time.Time) error {
	result := r.db.Model(&entity.UserVerification{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"is_verified": true,
			"verified_at": verifiedAt,
			"expires_at":  expiresAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteExpired removes records whose expiry has passed.
func (r *UserVerificationRepo) DeleteExpired(now time.Time) (int64, error) {
	result := r.db.
		Where("expires_at IS NOT NULL AND expires_at < ?", now).
		Delete(&entity.UserVerification{})
	return result.RowsAffected, result.Error
}

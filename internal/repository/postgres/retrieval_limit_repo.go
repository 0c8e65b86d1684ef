package postgres

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/shred03/filestore-bot/internal/domain/entity"
	"github.com/shred03/filestore-bot/internal/domain/repository"
)

// RetrievalLimitRepo реализует repository.RetrievalLimitRepository
type RetrievalLimitRepo struct {
	db *gorm.DB
}

// NewRetrievalLimitRepo создает новый репозиторий лимитов
func NewRetrievalLimitRepo(db *gorm.DB) *RetrievalLimitRepo {
	return &RetrievalLimitRepo{db: db}
}

// GetOrCreate loads the user's quota record, lazily creating the zero state.
func (r *RetrievalLimitRepo) GetOrCreate(userID int64, now time.Time) (*entity.RetrievalLimit, error) {
	var record entity.RetrievalLimit
	err := r.db.Where("user_id = ?", userID).First(&record).Error
	if err == nil {
		return &record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to get retrieval limit record: %w", err)
	}

	record = entity.RetrievalLimit{
		UserID:         userID,
		FilesRetrieved: 0,
		LastReset:      now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := r.db.Create(&record).Error; err != nil {
		return nil, fmt.Errorf("failed to create retrieval limit record: %w", err)
	}
	return &record, nil
}

// ResetCounters zeroes the counter and clears the verification flag for one user.
func (r *RetrievalLimitRepo) ResetCounters(userID int64, now time.Time) error {
	return r.db.Model(&entity.RetrievalLimit{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"files_retrieved":       0,
			"verification_required": false,
			"last_reset":            now,
			"updated_at":            now,
		}).Error
}

// ResetAllCounters resets every record, for the admin "reset all" path.
func (r *RetrievalLimitRepo) ResetAllCounters(now time.Time) (int64, error) {
	result := r.db.Model(&entity.RetrievalLimit{}).
		Where("1 = 1").
		Updates(map[string]interface{}{
			"files_retrieved":       0,
			"verification_required": false,
			"last_reset":            now,
			"updated_at":            now,
		})
	return result.RowsAffected, result.Error
}

// IncrementFilesRetrieved bumps the counter in SQL to avoid a
// read-modify-write race between concurrent deliveries.
func (r *RetrievalLimitRepo) IncrementFilesRetrieved(userID int64, count int) (int, error) {
	err := r.db.Model(&entity.RetrievalLimit{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"files_retrieved": gorm.Expr("files_retrieved + ?", count),
			"updated_at":      time.Now(),
		}).Error
	if err != nil {
		return 0, err
	}

	var record entity.RetrievalLimit
	if err := r.db.Where("user_id = ?", userID).First(&record).Error; err != nil {
		return 0, err
	}
	return record.FilesRetrieved, nil
}

// SetVerificationRequired sets or clears the verification flag.
func (r *RetrievalLimitRepo) SetVerificationRequired(userID int64, required bool) error {
	return r.db.Model(&entity.RetrievalLimit{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"verification_required": required,
			"updated_at":            time.Now(),
		}).Error
}

// Stats returns the aggregate counters for the admin surface.
func (r *RetrievalLimitRepo) Stats() (*repository.RetrievalLimitStats, error) {
	var stats repository.RetrievalLimitStats

	if err := r.db.Model(&entity.RetrievalLimit{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&entity.RetrievalLimit{}).
		Where("verification_required = ?", true).
		Count(&stats.UsersNeedingVerification).Error; err != nil {
		return nil, err
	}

	var avg *float64
	if err := r.db.Model(&entity.RetrievalLimit{}).
		Select("AVG(files_retrieved)").
		Scan(&avg).Error; err != nil {
		return nil, err
	}
	if avg != nil {
		stats.AverageFilesRetrieved = *avg
	}
	return &stats, nil
}

// ListRecords returns records in id order with pagination.
func (r *RetrievalLimitRepo) ListRecords(limit, offset int) ([]entity.RetrievalLimit, error) {
	var records []entity.RetrievalLimit
	err := r.db.Limit(limit).Offset(offset).Order("id").Find(&records).Error
	return records, err
}

// DeleteStale removes old zero-count records to bound table growth.
func (r *RetrievalLimitRepo) DeleteStale(cutoff time.Time) (int64, error) {
	result := r.db.
		Where("last_reset < ? AND files_retrieved = 0", cutoff).
		Delete(&entity.RetrievalLimit{})
	return result.RowsAffected, result.Error
}

package postgres

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shred03/filestore-bot/internal/domain/entity"
	apperrors "github.com/shred03/filestore-bot/internal/pkg/errors"
)

// AdminRepo реализует repository.AdminRepository
type AdminRepo struct {
	db *gorm.DB
}

// NewAdminRepo создает новый репозиторий настроек администраторов
func NewAdminRepo(db *gorm.DB) *AdminRepo {
	return &AdminRepo{db: db}
}

// GetByAdminID возвращает настройки администратора
func (r *AdminRepo) GetByAdminID(adminID int64) (*entity.Admin, error) {
	var admin entity.Admin
	err := r.db.Where("admin_id = ?", adminID).First(&admin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &admin, nil
}

// Upsert сохраняет настройки администратора
func (r *AdminRepo) Upsert(admin *entity.Admin) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "admin_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"custom_caption", "caption_enabled",
		}),
	}).Create(admin).Error
}

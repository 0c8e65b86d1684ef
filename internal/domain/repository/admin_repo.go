package repository

import "github.com/shred03/filestore-bot/internal/domain/entity"

// AdminRepository stores per-admin posting preferences.
type AdminRepository interface {
	GetByAdminID(adminID int64) (*entity.Admin, error)
	Upsert(admin *entity.Admin) error
}

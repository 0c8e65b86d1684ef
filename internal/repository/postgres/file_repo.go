package postgres

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/shred03/filestore-bot/internal/domain/entity"
)

// FileRepo реализует repository.FileRepository
type FileRepo struct {
	db *gorm.DB
}

// NewFileRepo создает новый репозиторий файлов
func NewFileRepo(db *gorm.DB) *FileRepo {
	return &FileRepo{db: db}
}

// Create stores one archived file.
func (r *FileRepo) Create(file *entity.StoredFile) error {
	return r.db.Create(file).Error
}

// CreateBatch bulk-inserts the files collected by a batch command.
func (r *FileRepo) CreateBatch(files []entity.StoredFile) error {
	if len(files) == 0 {
		return nil
	}
	return r.db.Create(&files).Error
}

// GetByUniqueID returns a file set ordered by the source channel message id,
// so delivery preserves the original posting order.
func (r *FileRepo) GetByUniqueID(uniqueID string) ([]entity.StoredFile, error) {
	var files []entity.StoredFile
	err := r.db.
		Where("unique_id = ?", uniqueID).
		Order("message_id ASC").
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get files for set %s: %w", uniqueID, err)
	}
	return files, nil
}

// SearchByName returns files whose name contains the query, newest first.
func (r *FileRepo) SearchByName(query string, limit int) ([]entity.StoredFile, error) {
	var files []entity.StoredFile
	err := r.db.
		Where("file_name ILIKE ?", "%"+query+"%").
		Order("created_at DESC").
		Limit(limit).
		Find(&files).Error
	return files, err
}

// Count returns the total number of archived files.
func (r *FileRepo) Count() (int64, error) {
	var total int64
	err := r.db.Model(&entity.StoredFile{}).Count(&total).Error
	return total, err
}

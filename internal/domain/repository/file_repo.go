package repository

import "github.com/shred03/filestore-bot/internal/domain/entity"

// FileRepository persists archived files grouped into retrievable sets.
type FileRepository interface {
	Create(file *entity.StoredFile) error
	CreateBatch(files []entity.StoredFile) error

	// GetByUniqueID returns all files of a set ordered by source message id.
	GetByUniqueID(uniqueID string) ([]entity.StoredFile, error)

	// SearchByName returns files whose name matches the query fragment.
	SearchByName(query string, limit int) ([]entity.StoredFile, error)

	Count() (int64, error)
}

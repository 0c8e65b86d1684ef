package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shred03/filestore-bot/internal/domain/entity"
	"github.com/shred03/filestore-bot/internal/domain/repository"
)

// deliveryBatchSize bounds how many files are in flight against the
// messaging transport at once.
const deliveryBatchSize = 10

// FileSender delivers one stored file to a chat and returns the resulting
// message id.
type FileSender interface {
	SendStoredFile(ctx context.Context, chatID int64, file *entity.StoredFile) (int, error)
}

// DeliveryResult summarizes one file-set delivery.
type DeliveryResult struct {
	Requested  int
	Delivered  int
	MessageIDs []int
}

// SearchResult is one ranked hit of a file name search.
type SearchResult struct {
	File  entity.StoredFile
	Score int
}

// FileService stores and retrieves archived file sets and runs the batched
// delivery loop.
type FileService struct {
	fileRepo repository.FileRepository
}

// NewFileService создает новый сервис файлов
func NewFileService(fileRepo repository.FileRepository) (*FileService, error) {
	if fileRepo == nil {
		return nil, fmt.Errorf("file repository is required")
	}
	return &FileService{fileRepo: fileRepo}, nil
}

// GenerateUniqueID returns a fresh 8-byte hex id for a new file set.
func (s *FileService) GenerateUniqueID() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Store persists one archived file.
func (s *FileService) Store(file *entity.StoredFile) error {
	return s.fileRepo.Create(file)
}

// StoreBatch persists the files collected by a batch command.
func (s *FileService) StoreBatch(files []entity.StoredFile) error {
	return s.fileRepo.CreateBatch(files)
}

// GetFileSet returns the files of a set in original posting order, or
// ErrFileSetNotFound when the id resolves to nothing.
func (s *FileService) GetFileSet(uniqueID string) ([]entity.StoredFile, error) {
	files, err := s.fileRepo.GetByUniqueID(uniqueID)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrFileSetNotFound
	}
	return files, nil
}

// Count returns the total number of archived files.
func (s *FileService) Count() (int64, error) {
	return s.fileRepo.Count()
}

// Deliver sends every file of the set to the chat in bounded batches.
// Individual send failures are logged and skipped; they do not abort the
// rest of the set. progress, if non-nil, is called after each batch.
func (s *FileService) Deliver(
	ctx context.Context,
	sender FileSender,
	chatID int64,
	files []entity.StoredFile,
	progress func(sent, total int),
) *DeliveryResult {
	result := &DeliveryResult{Requested: len(files)}

	for start := 0; start < len(files); start += deliveryBatchSize {
		end := start + deliveryBatchSize
		if end > len(files) {
			end = len(files)
		}
		batch := files[start:end]

		var mu sync.Mutex
		var wg sync.WaitGroup
		for i := range batch {
			wg.Add(1)
			go func(file *entity.StoredFile) {
				defer wg.Done()
				messageID, err := sender.SendStoredFile(ctx, chatID, file)
				if err != nil {
					log.Printf("[FileService] error sending file %s: %v", file.FileName, err)
					return
				}
				mu.Lock()
				result.Delivered++
				result.MessageIDs = append(result.MessageIDs, messageID)
				mu.Unlock()
			}(&batch[i])
		}
		wg.Wait()

		if progress != nil {
			progress(end, len(files))
		}
	}

	return result
}

// Search ranks archived files against a query: exact name matches first,
// then prefix matches, then per-word overlap, newer files breaking ties.
func (s *FileService) Search(query string, limit int) ([]SearchResult, error) {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return nil, nil
	}

	candidates, err := s.fileRepo.SearchByName(query, limit*5)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(candidates))
	words := strings.Fields(query)
	for _, file := range candidates {
		name := strings.ToLower(file.FileName)
		score := 0
		switch {
		case name == query:
			score = 100
		case strings.HasPrefix(name, query):
			score = 50
		default:
			for _, w := range words {
				if strings.Contains(name, w) {
					score += 10
				}
			}
		}
		if score > 0 {
			results = append(results, SearchResult{File: file, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].File.CreatedAt.After(results[j].File.CreatedAt)
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// TimeUntil formats the remaining time before a reset for user messages.
func TimeUntil(target, now time.Time) string {
	left := target.Sub(now)
	if left <= 0 {
		return "Available now"
	}
	hours := int(left.Hours())
	minutes := int(left.Minutes()) % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

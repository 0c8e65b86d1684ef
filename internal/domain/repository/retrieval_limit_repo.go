package repository

import (
	"time"

	"github.com/shred03/filestore-bot/internal/domain/entity"
)

// RetrievalLimitStats is the aggregate view used by the admin surface.
type RetrievalLimitStats struct {
	TotalUsers               int64   `json:"total_users"`
	UsersNeedingVerification int64   `json:"users_needing_verification"`
	AverageFilesRetrieved    float64 `json:"average_files_retrieved"`
}

// RetrievalLimitRepository persists per-user quota records, keyed by the
// Telegram user id. Records are created lazily and mutated last-write-wins;
// the counter increment is the one operation pushed down to SQL.
type RetrievalLimitRepository interface {
	// GetOrCreate loads the user's record, creating a zero-state one if the
	// user has never been seen.
	GetOrCreate(userID int64, now time.Time) (*entity.RetrievalLimit, error)

	// ResetCounters zeroes the counter, clears the verification flag and
	// advances last_reset for the user.
	ResetCounters(userID int64, now time.Time) error

	// ResetAllCounters does the same for every record and returns the number
	// of rows touched.
	ResetAllCounters(now time.Time) (int64, error)

	// IncrementFilesRetrieved adds count to the user's counter atomically and
	// returns the new total.
	IncrementFilesRetrieved(userID int64, count int) (int, error)

	// SetVerificationRequired sets or clears the verification flag.
	SetVerificationRequired(userID int64, required bool) error

	// Stats returns the aggregate counters for the admin surface.
	Stats() (*RetrievalLimitStats, error)

	// ListRecords returns records in id order with pagination, for the admin
	// usage report.
	ListRecords(limit, offset int) ([]entity.RetrievalLimit, error)

	// DeleteStale removes records that are both older than cutoff (by
	// last_reset) and zero-count, returning the number of rows removed.
	DeleteStale(cutoff time.Time) (int64, error)
}

package service

import (
	"fmt"
	"log"
	"time"

	"github.com/shred03/filestore-bot/internal/domain/entity"
	"github.com/shred03/filestore-bot/internal/domain/repository"
)

// LimitCheck is the outcome of a quota evaluation.
type LimitCheck struct {
	Allowed           bool
	Unlimited         bool
	Remaining         int
	NeedsVerification bool
	FilesRetrieved    int
	NextResetAt       time.Time
}

// SystemStats extends the store aggregates with the live toggles for the
// admin surface.
type SystemStats struct {
	repository.RetrievalLimitStats
	SystemEnabled    bool `json:"system_enabled"`
	CurrentFileLimit int  `json:"current_file_limit"`
}

// RetrievalLimitService is the quota policy: it decides whether a user may
// retrieve more files and owns every mutation of the quota records.
type RetrievalLimitService struct {
	limitRepo repository.RetrievalLimitRepository
	settings  *AccessSettings
}

// NewRetrievalLimitService создает новый сервис лимитов
func NewRetrievalLimitService(
	limitRepo repository.RetrievalLimitRepository,
	settings *AccessSettings,
) (*RetrievalLimitService, error) {
	if limitRepo == nil {
		return nil, fmt.Errorf("retrieval limit repository is required")
	}
	if settings == nil {
		return nil, fmt.Errorf("access settings are required")
	}
	return &RetrievalLimitService{
		limitRepo: limitRepo,
		settings:  settings,
	}, nil
}

// CheckAndMaybeReset evaluates the user's quota at the given time. It is not
// a pure read: when the reset window has elapsed the counters are reset in
// storage before the evaluation, so a call can mutate state.
func (s *RetrievalLimitService) CheckAndMaybeReset(userID int64, now time.Time) (*LimitCheck, error) {
	if !s.settings.LimitEnabled() {
		return &LimitCheck{Allowed: true, Unlimited: true}, nil
	}

	record, err := s.limitRepo.GetOrCreate(userID, now)
	if err != nil {
		log.Printf("[RetrievalLimitService] failed to load record for user %d: %v", userID, err)
		return nil, err
	}

	if record.ResetDue(now, s.settings.ResetWindow()) {
		if err := s.limitRepo.ResetCounters(userID, now); err != nil {
			log.Printf("[RetrievalLimitService] failed to reset counters for user %d: %v", userID, err)
			return nil, err
		}
		record.FilesRetrieved = 0
		record.LastReset = now
		record.VerificationRequired = false
	}

	limit := s.settings.FileLimit()
	remaining := limit - record.FilesRetrieved
	if remaining < 0 {
		remaining = 0
	}
	needsVerification := record.VerificationRequired || record.FilesRetrieved >= limit

	return &LimitCheck{
		Allowed:           !needsVerification,
		Remaining:         remaining,
		NeedsVerification: needsVerification,
		FilesRetrieved:    record.FilesRetrieved,
		NextResetAt:       record.LastReset.Add(s.settings.ResetWindow()),
	}, nil
}

// RecordRetrieval counts delivered files against the user's quota and raises
// the verification requirement once the limit is reached. No-op while the
// subsystem is disabled.
func (s *RetrievalLimitService) RecordRetrieval(userID int64, count int, now time.Time) error {
	if !s.settings.LimitEnabled() || count <= 0 {
		return nil
	}

	if _, err := s.limitRepo.GetOrCreate(userID, now); err != nil {
		log.Printf("[RetrievalLimitService] failed to ensure record for user %d: %v", userID, err)
		return err
	}

	total, err := s.limitRepo.IncrementFilesRetrieved(userID, count)
	if err != nil {
		log.Printf("[RetrievalLimitService] failed to increment counter for user %d: %v", userID, err)
		return err
	}

	if total >= s.settings.FileLimit() {
		if err := s.limitRepo.SetVerificationRequired(userID, true); err != nil {
			log.Printf("[RetrievalLimitService] failed to flag user %d for verification: %v", userID, err)
			return err
		}
	}
	return nil
}

// ClearVerificationRequirement lifts the verification flag but keeps the
// counter, for verifications issued in the general context.
func (s *RetrievalLimitService) ClearVerificationRequirement(userID int64) error {
	return s.limitRepo.SetVerificationRequired(userID, false)
}

// ResetUserCounters zeroes the user's counter, clears the flag and advances
// the reset time.
func (s *RetrievalLimitService) ResetUserCounters(userID int64, now time.Time) error {
	return s.limitRepo.ResetCounters(userID, now)
}

// ResetAllCounters resets every user, returning how many records were touched.
func (s *RetrievalLimitService) ResetAllCounters(now time.Time) (int64, error) {
	return s.limitRepo.ResetAllCounters(now)
}

// HandleVerificationSuccess applies the context-dependent quota effect of a
// successful verification: a limit_exceeded verification buys a fresh cycle,
// a general one only lifts the flag.
func (s *RetrievalLimitService) HandleVerificationSuccess(userID int64, context string, now time.Time) error {
	if context == entity.VerificationContextLimitExceeded {
		if err := s.ResetUserCounters(userID, now); err != nil {
			return err
		}
		log.Printf("[RetrievalLimitService] file count and verification reset for user %d after limit exceeded verification", userID)
		return nil
	}
	if err := s.ClearVerificationRequirement(userID); err != nil {
		return err
	}
	log.Printf("[RetrievalLimitService] verification requirement cleared for user %d", userID)
	return nil
}

// Stats returns the aggregate counters together with the live settings.
func (s *RetrievalLimitService) Stats() (*SystemStats, error) {
	stats, err := s.limitRepo.Stats()
	if err != nil {
		return nil, err
	}
	return &SystemStats{
		RetrievalLimitStats: *stats,
		SystemEnabled:       s.settings.LimitEnabled(),
		CurrentFileLimit:    s.settings.FileLimit(),
	}, nil
}

// ListRecords exposes the raw records for the admin usage report.
func (s *RetrievalLimitService) ListRecords(limit, offset int) ([]entity.RetrievalLimit, error) {
	return s.limitRepo.ListRecords(limit, offset)
}

// CleanupStale deletes records that have been idle (zero count) since before
// the cutoff.
func (s *RetrievalLimitService) CleanupStale(cutoff time.Time) (int64, error) {
	deleted, err := s.limitRepo.DeleteStale(cutoff)
	if err != nil {
		log.Printf("[RetrievalLimitService] stale record cleanup failed: %v", err)
		return 0, err
	}
	if deleted > 0 {
		log.Printf("[RetrievalLimitService] cleaned up %d stale retrieval records", deleted)
	}
	return deleted, nil
}

package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shred03/filestore-bot/internal/domain/entity"
	"github.com/shred03/filestore-bot/internal/domain/repository"
	apperrors "github.com/shred03/filestore-bot/internal/pkg/errors"
)

// RedemptionResult carries the verified user's identity and the context the
// token was issued under, so the caller can resume the original retrieval.
type RedemptionResult struct {
	UserID    int64
	Context   string
	SubjectID string
}

// VerificationService issues and redeems the opaque bearer tokens that gate
// file access. Persistence failures never escape as panics; they surface as
// errors the callers translate into "please retry" messages.
type VerificationService struct {
	verificationRepo repository.UserVerificationRepository
	settings         *AccessSettings
}

// NewVerificationService создает новый сервис верификации
func NewVerificationService(
	verificationRepo repository.UserVerificationRepository,
	settings *AccessSettings,
) (*VerificationService, error) {
	if verificationRepo == nil {
		return nil, fmt.Errorf("verification repository is required")
	}
	if settings == nil {
		return nil, fmt.Errorf("access settings are required")
	}
	return &VerificationService{
		verificationRepo: verificationRepo,
		settings:         settings,
	}, nil
}

// GenerateToken derives a short opaque token from the user, the issuing
// context, the current time and fresh randomness. It is a bearer token
// looked up in storage, not a self-validating credential.
func (s *VerificationService) GenerateToken(userID int64, context string) string {
	nonce := make([]byte, 8)
	if _, err := rand.Read(nonce); err != nil {
		// crypto/rand failing is effectively fatal elsewhere; the timestamp
		// still keeps tokens unique enough to proceed.
		log.Printf("[VerificationService] crypto/rand failed: %v", err)
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d_%s_%d_%s",
		userID, context, time.Now().UnixNano(), hex.EncodeToString(nonce))))
	return hex.EncodeToString(sum[:])[:16]
}

// CreateRecord upserts a fresh unverified record for the user, replacing any
// prior pending one, and returns the new token for link construction.
func (s *VerificationService) CreateRecord(userID int64, context, subjectID string) (string, error) {
	token := s.GenerateToken(userID, context)

	record := &entity.UserVerification{
		UserID:     userID,
		Token:      token,
		IsVerified: false,
		Context:    context,
		CreatedAt:  time.Now(),
	}
	if subjectID != "" {
		record.SubjectID = &subjectID
	}

	if err := s.verificationRepo.Replace(record); err != nil {
		log.Printf("[VerificationService] failed to create verification record for user %d: %v", userID, err)
		return "", fmt.Errorf("%w: create verification record", apperrors.ErrStore)
	}
	return token, nil
}

// IsUserVerified reports whether the user holds an unexpired verification.
// Store errors are logged and reported as not-verified.
func (s *VerificationService) IsUserVerified(userID int64, now time.Time) bool {
	record, err := s.verificationRepo.GetActiveByUserID(userID, now)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[VerificationService] error checking verification for user %d: %v", userID, err)
		}
		return false
	}
	return record.IsActive(now)
}

// RedeemToken marks the pending record behind the token as verified and
// returns the carried context. Redemption is exactly-once: the lookup only
// matches unverified records, so a second redemption of the same token fails
// with ErrInvalidToken.
func (s *VerificationService) RedeemToken(token string, now time.Time) (*RedemptionResult, error) {
	record, err := s.verificationRepo.GetPendingByToken(token)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		log.Printf("[VerificationService] error looking up token: %v", err)
		return nil, fmt.Errorf("%w: redeem token", apperrors.ErrStore)
	}

	expiresAt := now.Add(s.settings.VerificationWindow())
	if err := s.verificationRepo.MarkVerified(record.UserID, now, expiresAt); err != nil {
		log.Printf("[VerificationService] error marking user %d verified: %v", record.UserID, err)
		return nil, fmt.Errorf("%w: mark verified", apperrors.ErrStore)
	}

	result := &RedemptionResult{
		UserID:  record.UserID,
		Context: record.Context,
	}
	if record.SubjectID != nil {
		result.SubjectID = *record.SubjectID
	}
	return result, nil
}

// MarkVerified grants verified state directly, without a token. Used by the
// administrative bypass path.
func (s *VerificationService) MarkVerified(userID int64, now time.Time) error {
	expiresAt := now.Add(s.settings.VerificationWindow())
	if err := s.verificationRepo.MarkVerified(userID, now, expiresAt); err != nil {
		log.Printf("[VerificationService] error force-verifying user %d: %v", userID, err)
		return err
	}
	return nil
}

// CleanupExpired deletes records whose expiry has passed. The rows are dead
// weight once expired (IsUserVerified already ignores them), so this is a
// maintenance sweep, not a correctness requirement.
func (s *VerificationService) CleanupExpired(now time.Time) (int64, error) {
	deleted, err := s.verificationRepo.DeleteExpired(now)
	if err != nil {
		log.Printf("[VerificationService] cleanup failed: %v", err)
		return 0, err
	}
	if deleted > 0 {
		log.Printf("[VerificationService] cleaned up %d expired verifications", deleted)
	}
	return deleted, nil
}

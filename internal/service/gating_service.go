package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shred03/filestore-bot/internal/domain/entity"
)

// MembershipStatus is the three-way outcome of a channel membership lookup.
// Unknown (lookup failed) collapses to non-member at the pipeline boundary:
// the gate fails closed rather than leaking access.
type MembershipStatus int

const (
	MembershipMember MembershipStatus = iota
	MembershipNonMember
	MembershipUnknown
)

// MembershipChecker answers whether a user belongs to a channel.
type MembershipChecker interface {
	CheckMembership(ctx context.Context, channelID, userID int64) MembershipStatus
}

// Outcome is the terminal state of one gating evaluation.
type Outcome int

const (
	OutcomeServe Outcome = iota
	OutcomeRequireJoin
	OutcomeRequireQuotaVerification
	OutcomeRequireVerification
)

func (o Outcome) String() string {
	switch o {
	case OutcomeServe:
		return "serve"
	case OutcomeRequireJoin:
		return "require_join"
	case OutcomeRequireQuotaVerification:
		return "require_quota_verification"
	case OutcomeRequireVerification:
		return "require_verification"
	default:
		return "unknown"
	}
}

// Decision is the result of running the gate chain for one retrieval request.
// Token is set for the verification outcomes; an empty token there means the
// record could not be persisted and the user should retry.
type Decision struct {
	Outcome             Outcome
	Token               string
	VerificationContext string
	Limit               *LimitCheck
}

// GatingService runs the ordered access checks applied to every file
// retrieval: admin bypass, channel membership, quota, verification. Each
// gate is a hard stop; later gates are not evaluated (and their stores not
// touched) once an earlier one blocks.
type GatingService struct {
	membership       MembershipChecker
	limits           *RetrievalLimitService
	verification     *VerificationService
	settings         *AccessSettings
	adminIDs         map[int64]struct{}
	requiredChannels []int64
}

// NewGatingService создает новый сервис контроля доступа
func NewGatingService(
	membership MembershipChecker,
	limits *RetrievalLimitService,
	verification *VerificationService,
	settings *AccessSettings,
	adminIDs []int64,
	requiredChannels []int64,
) (*GatingService, error) {
	if membership == nil {
		return nil, fmt.Errorf("membership checker is required")
	}
	if limits == nil {
		return nil, fmt.Errorf("retrieval limit service is required")
	}
	if verification == nil {
		return nil, fmt.Errorf("verification service is required")
	}
	if settings == nil {
		return nil, fmt.Errorf("access settings are required")
	}

	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &GatingService{
		membership:       membership,
		limits:           limits,
		verification:     verification,
		settings:         settings,
		adminIDs:         admins,
		requiredChannels: requiredChannels,
	}, nil
}

// IsAdmin reports whether the user is a privileged identity.
func (s *GatingService) IsAdmin(userID int64) bool {
	_, ok := s.adminIDs[userID]
	return ok
}

// Evaluate runs the gate chain for a retrieval request. subjectID is the file
// set being requested; it is carried into any issued verification record so
// the flow can resume after the detour. The pipeline itself is stateless
// across invocations.
func (s *GatingService) Evaluate(ctx context.Context, userID int64, subjectID string, now time.Time) (*Decision, error) {
	// 1. Администраторы обходят все проверки.
	if s.IsAdmin(userID) {
		return &Decision{Outcome: OutcomeServe}, nil
	}

	// 2. Membership: all required channels, fail closed on unknown.
	for _, channelID := range s.requiredChannels {
		if status := s.membership.CheckMembership(ctx, channelID, userID); status != MembershipMember {
			if status == MembershipUnknown {
				log.Printf("[GatingService] membership check for user %d in channel %d failed, treating as non-member", userID, channelID)
			}
			return &Decision{Outcome: OutcomeRequireJoin}, nil
		}
	}

	// 3. Quota. A blocked quota issues a limit_exceeded token immediately.
	limit, err := s.limits.CheckAndMaybeReset(userID, now)
	if err != nil {
		return nil, err
	}
	if limit.NeedsVerification {
		token, err := s.verification.CreateRecord(userID, entity.VerificationContextLimitExceeded, subjectID)
		if err != nil {
			token = ""
		}
		return &Decision{
			Outcome:             OutcomeRequireQuotaVerification,
			Token:               token,
			VerificationContext: entity.VerificationContextLimitExceeded,
			Limit:               limit,
		}, nil
	}

	// 4. Verification.
	if s.settings.VerificationEnabled() && !s.verification.IsUserVerified(userID, now) {
		token, err := s.verification.CreateRecord(userID, entity.VerificationContextGeneral, subjectID)
		if err != nil {
			token = ""
		}
		return &Decision{
			Outcome:             OutcomeRequireVerification,
			Token:               token,
			VerificationContext: entity.VerificationContextGeneral,
			Limit:               limit,
		}, nil
	}

	// 5. Serve.
	return &Decision{Outcome: OutcomeServe, Limit: limit}, nil
}

// RecordServed counts a completed delivery against the user's quota. The
// requested file count is charged even when individual sends failed, matching
// the retrieval being one user-visible action. Admins are never charged.
func (s *GatingService) RecordServed(userID int64, requested int, now time.Time) error {
	if s.IsAdmin(userID) {
		return nil
	}
	return s.limits.RecordRetrieval(userID, requested, now)
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shred03/filestore-bot/internal/config"
	"github.com/shred03/filestore-bot/internal/domain/entity"
)

type gatingFixture struct {
	limitRepo        *MockRetrievalLimitRepository
	verificationRepo *MockUserVerificationRepository
	membership       *stubMembership
	settings         *AccessSettings
	gating           *GatingService
}

func newGatingFixture(t *testing.T, settings *AccessSettings, admins, channels []int64) *gatingFixture {
	t.Helper()

	f := &gatingFixture{
		limitRepo:        new(MockRetrievalLimitRepository),
		verificationRepo: new(MockUserVerificationRepository),
		membership:       &stubMembership{statuses: map[int64]MembershipStatus{}},
		settings:         settings,
	}

	verification, err := NewVerificationService(f.verificationRepo, settings)
	require.NoError(t, err)
	limits, err := NewRetrievalLimitService(f.limitRepo, settings)
	require.NoError(t, err)

	f.gating, err = NewGatingService(f.membership, limits, verification, settings, admins, channels)
	require.NoError(t, err)
	return f
}

// ============================================================================
// Gate ordering
// ============================================================================

func TestEvaluate_AdminBypassesEverything(t *testing.T) {
	f := newGatingFixture(t, testSettings(10), []int64{99}, []int64{-100500})
	f.membership.statuses[-100500] = MembershipNonMember

	decision, err := f.gating.Evaluate(context.Background(), 99, "set1", time.Now())
	require.NoError(t, err)
	assert.Equal(t, OutcomeServe, decision.Outcome)

	// Ни квоты, ни верификации для администратора
	f.limitRepo.AssertNotCalled(t, "GetOrCreate", mock.Anything, mock.Anything)
	f.verificationRepo.AssertNotCalled(t, "Replace", mock.Anything)
}

// Отказ по членству должен останавливать конвейер до обращения к квотам.
func TestEvaluate_MembershipFailureStopsBeforeQuota(t *testing.T) {
	f := newGatingFixture(t, testSettings(10), nil, []int64{-100500})
	f.membership.statuses[-100500] = MembershipNonMember

	decision, err := f.gating.Evaluate(context.Background(), 42, "set1", time.Now())
	require.NoError(t, err)
	assert.Equal(t, OutcomeRequireJoin, decision.Outcome)

	f.limitRepo.AssertNotCalled(t, "GetOrCreate", mock.Anything, mock.Anything)
	f.verificationRepo.AssertNotCalled(t, "Replace", mock.Anything)
}

// Неизвестный статус (ошибка API) трактуется как не-участник: fail closed.
func TestEvaluate_UnknownMembershipFailsClosed(t *testing.T) {
	f := newGatingFixture(t, testSettings(10), nil, []int64{-100500})
	f.membership.statuses[-100500] = MembershipUnknown

	decision, err := f.gating.Evaluate(context.Background(), 42, "set1", time.Now())
	require.NoError(t, err)
	assert.Equal(t, OutcomeRequireJoin, decision.Outcome)
}

func TestEvaluate_QuotaBlockIssuesLimitExceededToken(t *testing.T) {
	f := newGatingFixture(t, testSettings(10), nil, nil)

	now := time.Now()
	f.limitRepo.On("GetOrCreate", int64(42), now).Return(&entity.RetrievalLimit{
		UserID:               42,
		FilesRetrieved:       10,
		VerificationRequired: true,
		LastReset:            now.Add(-time.Hour),
	}, nil)

	var saved *entity.UserVerification
	f.verificationRepo.On("Replace", mock.AnythingOfType("*entity.UserVerification")).Run(func(args mock.Arguments) {
		saved = args.Get(0).(*entity.UserVerification)
	}).Return(nil)

	decision, err := f.gating.Evaluate(context.Background(), 42, "set1", now)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRequireQuotaVerification, decision.Outcome)
	assert.NotEmpty(t, decision.Token)
	assert.Equal(t, entity.VerificationContextLimitExceeded, decision.VerificationContext)

	require.NotNil(t, saved)
	assert.Equal(t, entity.VerificationContextLimitExceeded, saved.Context)
	require.NotNil(t, saved.SubjectID)
	assert.Equal(t, "set1", *saved.SubjectID, "subject id must be carried for flow resumption")
}

func TestEvaluate_UnverifiedUserGetsGeneralToken(t *testing.T) {
	f := newGatingFixture(t, testSettings(10), nil, nil)

	now := time.Now()
	f.limitRepo.On("GetOrCreate", int64(42), now).Return(&entity.RetrievalLimit{
		UserID:    42,
		LastReset: now.Add(-time.Hour),
	}, nil)
	f.verificationRepo.On("GetActiveByUserID", int64(42), now).Return(nil, assert.AnError)
	f.verificationRepo.On("Replace", mock.Anything).Return(nil)

	decision, err := f.gating.Evaluate(context.Background(), 42, "set1", now)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRequireVerification, decision.Outcome)
	assert.Equal(t, entity.VerificationContextGeneral, decision.VerificationContext)
	assert.NotEmpty(t, decision.Token)
}

func TestEvaluate_VerifiedUserUnderQuotaIsServed(t *testing.T) {
	f := newGatingFixture(t, testSettings(10), nil, nil)

	now := time.Now()
	expires := now.Add(6 * time.Hour)
	f.limitRepo.On("GetOrCreate", int64(42), now).Return(&entity.RetrievalLimit{
		UserID:         42,
		FilesRetrieved: 2,
		LastReset:      now.Add(-time.Hour),
	}, nil)
	f.verificationRepo.On("GetActiveByUserID", int64(42), now).Return(&entity.UserVerification{
		UserID:     42,
		IsVerified: true,
		ExpiresAt:  &expires,
	}, nil)

	decision, err := f.gating.Evaluate(context.Background(), 42, "set1", now)
	require.NoError(t, err)
	assert.Equal(t, OutcomeServe, decision.Outcome)
	require.NotNil(t, decision.Limit)
	assert.Equal(t, 8, decision.Limit.Remaining)
}

// Сценарий B: верификация выключена, квота включена. Верификационный шаг
// пропускается целиком, но квота продолжает действовать.
func TestScenarioB_VerificationDisabledQuotaStillApplies(t *testing.T) {
	settings := NewAccessSettings(config.AccessConfig{
		VerificationEnabled: false,
		LimitEnabled:        true,
		FileLimit:           10,
		VerificationHours:   12,
		ResetHours:          24,
	})
	f := newGatingFixture(t, settings, nil, nil)

	now := time.Now()
	f.limitRepo.On("GetOrCreate", int64(42), now).Return(&entity.RetrievalLimit{
		UserID:         42,
		FilesRetrieved: 3,
		LastReset:      now.Add(-time.Hour),
	}, nil)

	decision, err := f.gating.Evaluate(context.Background(), 42, "set1", now)
	require.NoError(t, err)
	assert.Equal(t, OutcomeServe, decision.Outcome)
	f.verificationRepo.AssertNotCalled(t, "GetActiveByUserID", mock.Anything, mock.Anything)

	// Квота при этом исчерпывается как обычно
	f.limitRepo.ExpectedCalls = nil
	f.limitRepo.On("GetOrCreate", int64(42), mock.Anything).Return(&entity.RetrievalLimit{
		UserID:               42,
		FilesRetrieved:       10,
		VerificationRequired: true,
		LastReset:            now.Add(-time.Hour),
	}, nil)
	f.verificationRepo.On("Replace", mock.Anything).Return(nil)

	decision, err = f.gating.Evaluate(context.Background(), 42, "set1", now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, OutcomeRequireQuotaVerification, decision.Outcome)
}

// Сбой записи токена не роняет конвейер: исход тот же, токен пустой.
func TestEvaluate_TokenPersistFailureYieldsEmptyToken(t *testing.T) {
	f := newGatingFixture(t, testSettings(10), nil, nil)

	now := time.Now()
	f.limitRepo.On("GetOrCreate", int64(42), now).Return(&entity.RetrievalLimit{
		UserID:               42,
		FilesRetrieved:       10,
		VerificationRequired: true,
		LastReset:            now.Add(-time.Hour),
	}, nil)
	f.verificationRepo.On("Replace", mock.Anything).Return(assert.AnError)

	decision, err := f.gating.Evaluate(context.Background(), 42, "set1", now)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRequireQuotaVerification, decision.Outcome)
	assert.Empty(t, decision.Token)
}

// ============================================================================
// RecordServed
// ============================================================================

func TestRecordServed_ChargesRequestedCount(t *testing.T) {
	f := newGatingFixture(t, testSettings(10), nil, nil)

	now := time.Now()
	f.limitRepo.On("GetOrCreate", int64(42), now).Return(&entity.RetrievalLimit{UserID: 42, LastReset: now}, nil)
	f.limitRepo.On("IncrementFilesRetrieved", int64(42), 5).Return(5, nil)

	require.NoError(t, f.gating.RecordServed(42, 5, now))
	f.limitRepo.AssertCalled(t, "IncrementFilesRetrieved", int64(42), 5)
}

func TestRecordServed_SkipsAdmins(t *testing.T) {
	f := newGatingFixture(t, testSettings(10), []int64{99}, nil)

	require.NoError(t, f.gating.RecordServed(99, 5, time.Now()))
	f.limitRepo.AssertNotCalled(t, "IncrementFilesRetrieved", mock.Anything, mock.Anything)
}

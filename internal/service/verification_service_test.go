package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shred03/filestore-bot/internal/domain/entity"
	apperrors "github.com/shred03/filestore-bot/internal/pkg/errors"
)

func newVerificationService(t *testing.T, repo *MockUserVerificationRepository) *VerificationService {
	t.Helper()
	svc, err := NewVerificationService(repo, testSettings(10))
	require.NoError(t, err)
	return svc
}

// ============================================================================
// Token generation / record creation
// ============================================================================

func TestGenerateToken_ShapeAndUniqueness(t *testing.T) {
	svc := newVerificationService(t, new(MockUserVerificationRepository))

	a := svc.GenerateToken(42, entity.VerificationContextGeneral)
	b := svc.GenerateToken(42, entity.VerificationContextGeneral)

	assert.Len(t, a, 16)
	assert.Regexp(t, "^[0-9a-f]{16}$", a)
	assert.NotEqual(t, a, b, "tokens must differ even for the same user and context")
}

func TestCreateRecord_ReplacesAndCarriesSubject(t *testing.T) {
	repo := new(MockUserVerificationRepository)
	svc := newVerificationService(t, repo)

	var saved *entity.UserVerification
	repo.On("Replace", mock.AnythingOfType("*entity.UserVerification")).Run(func(args mock.Arguments) {
		saved = args.Get(0).(*entity.UserVerification)
	}).Return(nil)

	token, err := svc.CreateRecord(42, entity.VerificationContextLimitExceeded, "abc123")
	require.NoError(t, err)
	require.NotNil(t, saved)

	assert.Equal(t, token, saved.Token)
	assert.Equal(t, int64(42), saved.UserID)
	assert.False(t, saved.IsVerified)
	assert.Equal(t, entity.VerificationContextLimitExceeded, saved.Context)
	require.NotNil(t, saved.SubjectID)
	assert.Equal(t, "abc123", *saved.SubjectID)
}

func TestCreateRecord_StoreFailureReturnsEmptyToken(t *testing.T) {
	repo := new(MockUserVerificationRepository)
	svc := newVerificationService(t, repo)

	repo.On("Replace", mock.Anything).Return(assert.AnError)

	token, err := svc.CreateRecord(42, entity.VerificationContextGeneral, "")
	assert.Empty(t, token)
	assert.ErrorIs(t, err, apperrors.ErrStore)
}

// ============================================================================
// IsUserVerified
// ============================================================================

func TestIsUserVerified_ActiveRecord(t *testing.T) {
	repo := new(MockUserVerificationRepository)
	svc := newVerificationService(t, repo)

	now := time.Now()
	expires := now.Add(6 * time.Hour)
	repo.On("GetActiveByUserID", int64(42), now).Return(&entity.UserVerification{
		UserID:     42,
		IsVerified: true,
		ExpiresAt:  &expires,
	}, nil)

	assert.True(t, svc.IsUserVerified(42, now))
}

// Истекшая запись эквивалентна отсутствующей, даже если строка еще не удалена.
func TestIsUserVerified_ExpiredRecordIsNotVerified(t *testing.T) {
	repo := new(MockUserVerificationRepository)
	svc := newVerificationService(t, repo)

	now := time.Now()
	expired := now.Add(-time.Minute)
	repo.On("GetActiveByUserID", int64(42), now).Return(&entity.UserVerification{
		UserID:     42,
		IsVerified: true,
		ExpiresAt:  &expired,
	}, nil)

	assert.False(t, svc.IsUserVerified(42, now))
}

// Ошибка хранилища трактуется как "не верифицирован", без паники.
func TestIsUserVerified_StoreErrorFailsClosed(t *testing.T) {
	repo := new(MockUserVerificationRepository)
	svc := newVerificationService(t, repo)

	now := time.Now()
	repo.On("GetActiveByUserID", int64(42), now).Return(nil, assert.AnError)

	assert.False(t, svc.IsUserVerified(42, now))
}

// ============================================================================
// RedeemToken
// ============================================================================

// Сценарий C: первое погашение успешно, повторное тем же токеном — ошибка.
func TestRedeemToken_ExactlyOnce(t *testing.T) {
	repo := new(MockUserVerificationRepository)
	svc := newVerificationService(t, repo)

	now := time.Now()
	subject := "set42"
	repo.On("GetPendingByToken", "deadbeef00112233").Return(&entity.UserVerification{
		UserID:    42,
		Token:     "deadbeef00112233",
		Context:   entity.VerificationContextLimitExceeded,
		SubjectID: &subject,
	}, nil).Once()
	repo.On("MarkVerified", int64(42), now, now.Add(12*time.Hour)).Return(nil)

	result, err := svc.RedeemToken("deadbeef00112233", now)
	require.NoError(t, err)
	assert.Equal(t, int64(42), result.UserID)
	assert.Equal(t, entity.VerificationContextLimitExceeded, result.Context)
	assert.Equal(t, "set42", result.SubjectID)

	// Погашенный токен больше не находится среди pending-записей
	repo.On("GetPendingByToken", "deadbeef00112233").Return(nil, apperrors.ErrNotFound)

	_, err = svc.RedeemToken("deadbeef00112233", now.Add(time.Second))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRedeemToken_UnknownTokenIsInvalid(t *testing.T) {
	repo := new(MockUserVerificationRepository)
	svc := newVerificationService(t, repo)

	repo.On("GetPendingByToken", "nope").Return(nil, apperrors.ErrNotFound)

	_, err := svc.RedeemToken("nope", time.Now())
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRedeemToken_StoreErrorIsNotInvalidToken(t *testing.T) {
	repo := new(MockUserVerificationRepository)
	svc := newVerificationService(t, repo)

	repo.On("GetPendingByToken", "abc").Return(nil, assert.AnError)

	_, err := svc.RedeemToken("abc", time.Now())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, apperrors.ErrStore)
}

// ============================================================================
// Cleanup
// ============================================================================

func TestCleanupExpired_ReportsCount(t *testing.T) {
	repo := new(MockUserVerificationRepository)
	svc := newVerificationService(t, repo)

	now := time.Now()
	repo.On("DeleteExpired", now).Return(int64(5), nil)

	deleted, err := svc.CleanupExpired(now)
	require.NoError(t, err)
	assert.Equal(t, int64(5), deleted)
}

package service

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/shred03/filestore-bot/internal/config"
	"github.com/shred03/filestore-bot/internal/domain/entity"
	"github.com/shred03/filestore-bot/internal/domain/repository"
)

// ============================================================================
// Моки репозиториев, общие для тестов сервисов
// ============================================================================

// MockUserVerificationRepository реализует repository.UserVerificationRepository
type MockUserVerificationRepository struct {
	mock.Mock
}

func (m *MockUserVerificationRepository) Replace(record *entity.UserVerification) error {
	args := m.Called(record)
	return args.Error(0)
}

func (m *MockUserVerificationRepository) GetActiveByUserID(userID int64, now time.Time) (*entity.UserVerification, error) {
	args := m.Called(userID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.UserVerification), args.Error(1)
}

func (m *MockUserVerificationRepository) GetPendingByToken(token string) (*entity.UserVerification, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.UserVerification), args.Error(1)
}

func (m *MockUserVerificationRepository) MarkVerified(userID int64, verifiedAt, expiresAt time.Time) error {
	args := m.Called(userID, verifiedAt, expiresAt)
	return args.Error(0)
}

func (m *MockUserVerificationRepository) DeleteExpired(now time.Time) (int64, error) {
	args := m.Called(now)
	return args.Get(0).(int64), args.Error(1)
}

// MockRetrievalLimitRepository реализует repository.RetrievalLimitRepository
type MockRetrievalLimitRepository struct {
	mock.Mock
}

func (m *MockRetrievalLimitRepository) GetOrCreate(userID int64, now time.Time) (*entity.RetrievalLimit, error) {
	args := m.Called(userID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RetrievalLimit), args.Error(1)
}

func (m *MockRetrievalLimitRepository) ResetCounters(userID int64, now time.Time) error {
	args := m.Called(userID, now)
	return args.Error(0)
}

func (m *MockRetrievalLimitRepository) ResetAllCounters(now time.Time) (int64, error) {
	args := m.Called(now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRetrievalLimitRepository) IncrementFilesRetrieved(userID int64, count int) (int, error) {
	args := m.Called(userID, count)
	return args.Int(0), args.Error(1)
}

func (m *MockRetrievalLimitRepository) SetVerificationRequired(userID int64, required bool) error {
	args := m.Called(userID, required)
	return args.Error(0)
}

func (m *MockRetrievalLimitRepository) Stats() (*repository.RetrievalLimitStats, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.RetrievalLimitStats), args.Error(1)
}

func (m *MockRetrievalLimitRepository) ListRecords(limit, offset int) ([]entity.RetrievalLimit, error) {
	args := m.Called(limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.RetrievalLimit), args.Error(1)
}

func (m *MockRetrievalLimitRepository) DeleteStale(cutoff time.Time) (int64, error) {
	args := m.Called(cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockFileRepository реализует repository.FileRepository
type MockFileRepository struct {
	mock.Mock
}

func (m *MockFileRepository) Create(file *entity.StoredFile) error {
	args := m.Called(file)
	return args.Error(0)
}

func (m *MockFileRepository) CreateBatch(files []entity.StoredFile) error {
	args := m.Called(files)
	return args.Error(0)
}

func (m *MockFileRepository) GetByUniqueID(uniqueID string) ([]entity.StoredFile, error) {
	args := m.Called(uniqueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.StoredFile), args.Error(1)
}

func (m *MockFileRepository) SearchByName(query string, limit int) ([]entity.StoredFile, error) {
	args := m.Called(query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.StoredFile), args.Error(1)
}

func (m *MockFileRepository) Count() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

// MockUserRepository реализует repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Upsert(user *entity.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByUserID(userID int64) (*entity.User, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) List(limit, offset int) ([]entity.User, error) {
	args := m.Called(limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.User), args.Error(1)
}

func (m *MockUserRepository) Count() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

// ============================================================================
// Простые стабы для интерфейсов транспорта
// ============================================================================

// stubMembership returns a fixed status per channel, defaulting to member.
type stubMembership struct {
	statuses map[int64]MembershipStatus
}

func (s *stubMembership) CheckMembership(ctx context.Context, channelID, userID int64) MembershipStatus {
	if status, ok := s.statuses[channelID]; ok {
		return status
	}
	return MembershipMember
}

// stubSender records delivered files and can fail selected file names.
// Deliver sends batches concurrently, so the stub is mutex-guarded.
type stubSender struct {
	mu      sync.Mutex
	sent    []string
	failFor map[string]bool
	nextID  int
}

func (s *stubSender) SendStoredFile(ctx context.Context, chatID int64, file *entity.StoredFile) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFor[file.FileName] {
		return 0, context.DeadlineExceeded
	}
	s.sent = append(s.sent, file.FileName)
	s.nextID++
	return s.nextID, nil
}

// stubCopier counts broadcast copies and can fail selected chat ids.
type stubCopier struct {
	copied  []int64
	failFor map[int64]bool
}

func (s *stubCopier) CopyTo(ctx context.Context, toChatID, fromChatID int64, messageID int) error {
	if s.failFor[toChatID] {
		return context.DeadlineExceeded
	}
	s.copied = append(s.copied, toChatID)
	return nil
}

// testSettings builds AccessSettings with both subsystems on and the given
// file limit.
func testSettings(fileLimit int) *AccessSettings {
	return NewAccessSettings(config.AccessConfig{
		VerificationEnabled: true,
		LimitEnabled:        true,
		FileLimit:           fileLimit,
		VerificationHours:   12,
		ResetHours:          24,
	})
}

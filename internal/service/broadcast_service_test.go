package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shred03/filestore-bot/internal/domain/entity"
)

func TestBroadcastRun_CountsFailuresAndContinues(t *testing.T) {
	userRepo := new(MockUserRepository)
	svc, err := NewBroadcastService(userRepo)
	require.NoError(t, err)

	users := []entity.User{{UserID: 1}, {UserID: 2}, {UserID: 3}}
	userRepo.On("Count").Return(int64(3), nil)
	userRepo.On("List", broadcastPageSize, 0).Return(users, nil)
	userRepo.On("List", broadcastPageSize, 3).Return([]entity.User{}, nil)

	copier := &stubCopier{failFor: map[int64]bool{2: true}}
	report, err := svc.Run(context.Background(), copier, 500, 77, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Success)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, []int64{1, 3}, copier.copied)
	assert.NotEmpty(t, report.JobID)
}

func TestBroadcastRun_CancelledContextAborts(t *testing.T) {
	userRepo := new(MockUserRepository)
	svc, err := NewBroadcastService(userRepo)
	require.NoError(t, err)

	userRepo.On("Count").Return(int64(2), nil)
	userRepo.On("List", broadcastPageSize, 0).Return([]entity.User{{UserID: 1}, {UserID: 2}}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := svc.Run(ctx, &stubCopier{}, 500, 77, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, report.Success)
}

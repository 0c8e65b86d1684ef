package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shred03/filestore-bot/internal/domain/entity"
)

func newFileService(t *testing.T, repo *MockFileRepository) *FileService {
	t.Helper()
	svc, err := NewFileService(repo)
	require.NoError(t, err)
	return svc
}

func TestGenerateUniqueID_Shape(t *testing.T) {
	svc := newFileService(t, new(MockFileRepository))

	a, err := svc.GenerateUniqueID()
	require.NoError(t, err)
	b, err := svc.GenerateUniqueID()
	require.NoError(t, err)

	assert.Len(t, a, 16)
	assert.Regexp(t, "^[0-9a-f]{16}$", a)
	assert.NotEqual(t, a, b)
}

func TestGetFileSet_EmptyIsNotFound(t *testing.T) {
	repo := new(MockFileRepository)
	svc := newFileService(t, repo)

	repo.On("GetByUniqueID", "missing").Return([]entity.StoredFile{}, nil)

	_, err := svc.GetFileSet("missing")
	assert.ErrorIs(t, err, ErrFileSetNotFound)
}

func TestDeliver_SoftFailsPerFile(t *testing.T) {
	svc := newFileService(t, new(MockFileRepository))

	files := []entity.StoredFile{
		{FileName: "a.mkv", FileID: "f1"},
		{FileName: "broken.mkv", FileID: "f2"},
		{FileName: "c.mkv", FileID: "f3"},
	}
	sender := &stubSender{failFor: map[string]bool{"broken.mkv": true}}

	result := svc.Deliver(context.Background(), sender, 100, files, nil)

	assert.Equal(t, 3, result.Requested, "requested counts every file, delivered or not")
	assert.Equal(t, 2, result.Delivered)
	assert.Len(t, result.MessageIDs, 2)
}

func TestDeliver_ProgressPerBatch(t *testing.T) {
	svc := newFileService(t, new(MockFileRepository))

	files := make([]entity.StoredFile, 25)
	for i := range files {
		files[i] = entity.StoredFile{FileName: "f", FileID: "id"}
	}
	sender := &stubSender{}

	var checkpoints []int
	result := svc.Deliver(context.Background(), sender, 100, files, func(sent, total int) {
		checkpoints = append(checkpoints, sent)
		assert.Equal(t, 25, total)
	})

	assert.Equal(t, 25, result.Delivered)
	assert.Equal(t, []int{10, 20, 25}, checkpoints)
}

func TestSearch_RankingOrder(t *testing.T) {
	repo := new(MockFileRepository)
	svc := newFileService(t, repo)

	now := time.Now()
	repo.On("SearchByName", "dune", 50).Return([]entity.StoredFile{
		{FileName: "Dune Part Two", CreatedAt: now},
		{FileName: "dune", CreatedAt: now},
		{FileName: "Making of Dune", CreatedAt: now},
	}, nil)

	results, err := svc.Search("Dune", 10)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "dune", results[0].File.FileName, "exact match ranks first")
	assert.Equal(t, "Dune Part Two", results[1].File.FileName, "prefix match ranks second")
	assert.Equal(t, "Making of Dune", results[2].File.FileName)
}

func TestSearch_EmptyQueryReturnsNothing(t *testing.T) {
	repo := new(MockFileRepository)
	svc := newFileService(t, repo)

	results, err := svc.Search("   ", 10)
	require.NoError(t, err)
	assert.Nil(t, results)
	repo.AssertNotCalled(t, "SearchByName", "", 50)
}

func TestTimeUntil_Formats(t *testing.T) {
	now := time.Now()

	assert.Equal(t, "Available now", TimeUntil(now.Add(-time.Minute), now))
	assert.Equal(t, "45m", TimeUntil(now.Add(45*time.Minute), now))
	assert.Equal(t, "3h 30m", TimeUntil(now.Add(3*time.Hour+30*time.Minute), now))
}

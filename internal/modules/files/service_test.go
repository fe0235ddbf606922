package files

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite" // registers the pure-Go "sqlite" driver

	"docsearch/internal/domain"
	"docsearch/internal/repository"
)

type mockStoreClient struct {
	mock.Mock
}

func (m *mockStoreClient) ResolveStore(ctx context.Context, userID, existingStoreName string) (string, error) {
	args := m.Called(ctx, userID, existingStoreName)
	return args.String(0), args.Error(1)
}

func (m *mockStoreClient) UploadDocument(ctx context.Context, content, displayName, storeName string) (string, error) {
	args := m.Called(ctx, content, displayName, storeName)
	return args.String(0), args.Error(1)
}

func (m *mockStoreClient) Answer(ctx context.Context, prompt string, storeNames []string) (string, error) {
	args := m.Called(ctx, prompt, storeNames)
	return args.String(0), args.Error(1)
}

func setupTestService(t *testing.T) (*Service, *mockStoreClient, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:files_test_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: dsn}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.FileUpload{}, &domain.UserStorage{}))

	client := &mockStoreClient{}
	fileRepo := repository.NewFileUploadRepository(db)
	storageRepo := repository.NewUserStorageRepository(db)
	resolver := NewStoreResolver(fileRepo, client)
	svc := NewService(db, fileRepo, storageRepo, client, resolver, zap.NewNop())
	return svc, client, db
}

func TestUploadRejectsInvalidExtensionBeforeAnyRemoteCall(t *testing.T) {
	svc, client, _ := setupTestService(t)

	_, err := svc.Upload(context.Background(), "u1", "notes.pdf", []byte("hello"))
	assert.ErrorIs(t, err, ErrInvalidExtension)

	// No store creation or upload side effects.
	client.AssertNotCalled(t, "ResolveStore", mock.Anything, mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "UploadDocument", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadRejectsEmptyFile(t *testing.T) {
	svc, client, _ := setupTestService(t)

	_, err := svc.Upload(context.Background(), "u1", "notes.txt", nil)
	assert.ErrorIs(t, err, ErrEmptyFile)
	client.AssertNotCalled(t, "ResolveStore", mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadRejectsOversizedFileBeforeAnyRemoteCall(t *testing.T) {
	svc, client, _ := setupTestService(t)

	content := make([]byte, MaxFileSizeKB*1024+1)
	_, err := svc.Upload(context.Background(), "u1", "big.txt", content)
	assert.ErrorIs(t, err, ErrFileTooLarge)
	client.AssertNotCalled(t, "ResolveStore", mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadRejectsMalformedEncoding(t *testing.T) {
	svc, client, _ := setupTestService(t)

	_, err := svc.Upload(context.Background(), "u1", "bad.txt", []byte{0xff, 0xfe, 0xfd})
	assert.ErrorIs(t, err, ErrInvalidEncoding)
	client.AssertNotCalled(t, "ResolveStore", mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadPersistsRecordAndStorageTogether(t *testing.T) {
	svc, client, db := setupTestService(t)
	const store = "fileSearchStores/s1"

	client.On("ResolveStore", mock.Anything, "u1", "").Return(store, nil).Once()
	client.On("UploadDocument", mock.Anything, "alpha beta beta gamma", "notes.txt", store).Return(store, nil).Once()

	result, err := svc.Upload(context.Background(), "u1", "notes.txt", []byte("alpha beta beta gamma"))
	require.NoError(t, err)

	assert.Equal(t, "notes.txt", result.File.FileName)
	assert.Equal(t, "notes", result.File.ProjectName)
	assert.InDelta(t, 21.0/1024.0, result.File.FileSizeKB, 1e-9)
	assert.Equal(t, []string{"beta", "alpha", "gamma"}, result.Tags)
	assert.InDelta(t, result.File.FileSizeKB, result.TotalStorageKB, 1e-9)

	var record domain.FileUpload
	require.NoError(t, db.First(&record).Error)
	require.NotNil(t, record.FileSearchStoreName)
	assert.Equal(t, store, *record.FileSearchStoreName)

	var storage domain.UserStorage
	require.NoError(t, db.Where("user_id = ?", "u1").First(&storage).Error)
	assert.InDelta(t, record.FileSizeKB, storage.TotalStorageKB, 1e-9)

	client.AssertExpectations(t)
}

func TestStorageTotalEqualsSumOfUploads(t *testing.T) {
	svc, client, db := setupTestService(t)
	const store = "fileSearchStores/s1"

	client.On("ResolveStore", mock.Anything, "u1", "").Return(store, nil).Once()
	client.On("UploadDocument", mock.Anything, mock.Anything, mock.Anything, store).Return(store, nil)

	var expected float64
	for i, text := range []string{"first document text", "second somewhat longer document text", "third"} {
		content := []byte(text)
		_, err := svc.Upload(context.Background(), "u1", fmt.Sprintf("doc%d.txt", i), content)
		require.NoError(t, err)
		expected += float64(len(content)) / 1024.0

		// Invariant holds after every upload, not just at the end.
		var storage domain.UserStorage
		require.NoError(t, db.Where("user_id = ?", "u1").First(&storage).Error)
		assert.InDelta(t, expected, storage.TotalStorageKB, 1e-9)
	}
}

func TestSequentialUploadsReuseSameStore(t *testing.T) {
	svc, client, db := setupTestService(t)
	const store = "fileSearchStores/first"

	// The store is created exactly once; the second upload reuses it.
	client.On("ResolveStore", mock.Anything, "u1", "").Return(store, nil).Once()
	client.On("UploadDocument", mock.Anything, mock.Anything, mock.Anything, store).Return(store, nil).Twice()

	_, err := svc.Upload(context.Background(), "u1", "a.txt", []byte("one"))
	require.NoError(t, err)
	_, err = svc.Upload(context.Background(), "u1", "b.txt", []byte("two"))
	require.NoError(t, err)

	var records []domain.FileUpload
	require.NoError(t, db.Find(&records).Error)
	require.Len(t, records, 2)
	require.NotNil(t, records[0].FileSearchStoreName)
	require.NotNil(t, records[1].FileSearchStoreName)
	assert.Equal(t, *records[0].FileSearchStoreName, *records[1].FileSearchStoreName)

	client.AssertExpectations(t)
}

func TestStoreResolverReadsExistingNameFromDatabase(t *testing.T) {
	svc, client, db := setupTestService(t)
	const store = "fileSearchStores/persisted"

	// A record from a previous process run already carries the store name.
	existing := store
	require.NoError(t, db.Create(&domain.FileUpload{
		UserID: "u1", FileName: "old.txt", ProjectName: "old",
		FileSizeKB: 1, FileSearchStoreName: &existing,
	}).Error)

	client.On("ResolveStore", mock.Anything, "u1", store).Return(store, nil).Once()
	client.On("UploadDocument", mock.Anything, mock.Anything, mock.Anything, store).Return(store, nil).Once()

	_, err := svc.Upload(context.Background(), "u1", "new.txt", []byte("fresh content"))
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestUploadFailureWritesNothing(t *testing.T) {
	svc, client, db := setupTestService(t)
	const store = "fileSearchStores/s1"

	client.On("ResolveStore", mock.Anything, "u1", "").Return(store, nil).Once()
	client.On("UploadDocument", mock.Anything, mock.Anything, mock.Anything, store).
		Return("", fmt.Errorf("ingestion exploded")).Once()

	_, err := svc.Upload(context.Background(), "u1", "doomed.txt", []byte("content"))
	require.ErrorIs(t, err, ErrSearchUpstream)

	var fileCount, storageCount int64
	require.NoError(t, db.Model(&domain.FileUpload{}).Count(&fileCount).Error)
	require.NoError(t, db.Model(&domain.UserStorage{}).Count(&storageCount).Error)
	assert.Zero(t, fileCount)
	assert.Zero(t, storageCount)
}

func TestStoreCreationFailurePropagates(t *testing.T) {
	svc, client, _ := setupTestService(t)

	client.On("ResolveStore", mock.Anything, "u1", "").
		Return("", fmt.Errorf("quota exceeded")).Once()

	_, err := svc.Upload(context.Background(), "u1", "a.txt", []byte("content"))
	require.ErrorIs(t, err, ErrSearchUpstream)
	assert.Contains(t, err.Error(), "quota exceeded")
	client.AssertNotCalled(t, "UploadDocument", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStorageInfoWithoutRecord(t *testing.T) {
	svc, _, _ := setupTestService(t)

	storage, err := svc.StorageInfo(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, storage)
}

func TestListFilesScopedToUser(t *testing.T) {
	svc, _, db := setupTestService(t)

	require.NoError(t, db.Create(&domain.FileUpload{UserID: "u1", FileName: "a.txt", ProjectName: "a", FileSizeKB: 1}).Error)
	require.NoError(t, db.Create(&domain.FileUpload{UserID: "u2", FileName: "b.txt", ProjectName: "b", FileSizeKB: 1}).Error)

	records, err := svc.ListFiles(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a.txt", records[0].FileName)
}

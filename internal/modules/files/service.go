package files

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"docsearch/internal/domain"
	"docsearch/internal/pkg/tags"
	"docsearch/internal/repository"
)

const (
	AcceptedExtension = ".txt"
	// 100 MB; KB is the canonical unit throughout.
	MaxFileSizeKB = 102400
)

type Service struct {
	db       *gorm.DB
	files    *repository.FileUploadRepository
	storage  *repository.UserStorageRepository
	search   StoreClient
	resolver *StoreResolver
	log      *zap.Logger
}

func NewService(
	db *gorm.DB,
	files *repository.FileUploadRepository,
	storage *repository.UserStorageRepository,
	search StoreClient,
	resolver *StoreResolver,
	log *zap.Logger,
) *Service {
	return &Service{
		db:       db,
		files:    files,
		storage:  storage,
		search:   search,
		resolver: resolver,
		log:      log,
	}
}

type UploadResult struct {
	File           domain.FileUpload
	Tags           []string
	TotalStorageKB float64
}

// Upload validates the document, pushes it to the tenant's search store, and
// only then persists it. The file record and the storage total are written
// in one transaction, so a failure anywhere leaves no partial state.
func (s *Service) Upload(ctx context.Context, userID, fileName string, content []byte) (*UploadResult, error) {
	if !strings.HasSuffix(fileName, AcceptedExtension) {
		return nil, ErrInvalidExtension
	}
	if len(content) == 0 {
		return nil, ErrEmptyFile
	}
	sizeKB := float64(len(content)) / 1024.0
	if sizeKB > MaxFileSizeKB {
		return nil, ErrFileTooLarge
	}
	if !utf8.Valid(content) {
		return nil, ErrInvalidEncoding
	}
	text := string(content)

	storeName, err := s.resolver.Resolve(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchUpstream, err)
	}

	uploadedStore, err := s.search.UploadDocument(ctx, text, fileName, storeName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchUpstream, err)
	}

	projectName := strings.TrimSuffix(fileName, AcceptedExtension)
	fileTags := tags.Extract(text, tags.DefaultMax)
	now := time.Now().UTC()

	record := domain.FileUpload{
		UserID:              userID,
		FileName:            fileName,
		ProjectName:         projectName,
		FileSizeKB:          sizeKB,
		UploadTime:          now,
		Tags:                tags.ToJSON(fileTags),
		FileContent:         text,
		FileSearchStoreName: &uploadedStore,
	}

	var total float64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		storage, err := storageForUpdate(tx, userID)
		if err != nil {
			return err
		}
		storage.TotalStorageKB += sizeKB
		storage.LastUpdated = now
		if err := tx.Model(&domain.UserStorage{}).Where("id = ?", storage.ID).
			Updates(map[string]any{
				"total_storage_kb": storage.TotalStorageKB,
				"last_updated":     storage.LastUpdated,
			}).Error; err != nil {
			return err
		}
		total = storage.TotalStorageKB
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("persist upload: %w", err)
	}

	s.log.Info("file uploaded",
		zap.String("user_id", userID),
		zap.String("file_name", fileName),
		zap.Float64("size_kb", sizeKB),
		zap.String("store", uploadedStore))

	return &UploadResult{File: record, Tags: fileTags, TotalStorageKB: total}, nil
}

func (s *Service) ListFiles(ctx context.Context, userID string) ([]domain.FileUpload, error) {
	return s.files.ListByUser(ctx, userID)
}

// StorageInfo returns nil when the tenant has no storage row yet.
func (s *Service) StorageInfo(ctx context.Context, userID string) (*domain.UserStorage, error) {
	return s.storage.GetByUser(ctx, userID)
}

// storageForUpdate locks the tenant's storage row, creating it on first
// upload. A concurrent creator is absorbed through the unique constraint on
// user_id.
func storageForUpdate(tx *gorm.DB, userID string) (*domain.UserStorage, error) {
	var storage domain.UserStorage
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).First(&storage).Error
	if err == nil {
		return &storage, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	storage = domain.UserStorage{UserID: userID, TotalStorageKB: 0, LastUpdated: time.Now().UTC()}
	if err := tx.Create(&storage).Error; err != nil {
		if isUniqueConstraintError(err) {
			err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("user_id = ?", userID).First(&storage).Error
			if err != nil {
				return nil, err
			}
			return &storage, nil
		}
		return nil, err
	}
	return &storage, nil
}

func isUniqueConstraintError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint") || strings.Contains(msg, "unique failed")
}

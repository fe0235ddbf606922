package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"docsearch/internal/domain"
)

type FileUploadRepository struct {
	db *gorm.DB
}

func NewFileUploadRepository(db *gorm.DB) *FileUploadRepository {
	return &FileUploadRepository{db: db}
}

func (r *FileUploadRepository) ListByUser(ctx context.Context, userID string) ([]domain.FileUpload, error) {
	var files []domain.FileUpload
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&files).Error
	return files, err
}

// LatestStoreName returns the most recently assigned store name for the
// user, or "" if no record carries one yet. Most-recent wins so that records
// converge on a single store even if older rows disagree.
func (r *FileUploadRepository) LatestStoreName(ctx context.Context, userID string) (string, error) {
	var file domain.FileUpload
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND file_search_store_name IS NOT NULL", userID).
		Order("id DESC").
		First(&file).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if file.FileSearchStoreName == nil {
		return "", nil
	}
	return *file.FileSearchStoreName, nil
}

func (r *FileUploadRepository) UpdateStoreName(ctx context.Context, id int64, storeName string) error {
	return r.db.WithContext(ctx).
		Model(&domain.FileUpload{}).
		Where("id = ?", id).
		Update("file_search_store_name", storeName).Error
}

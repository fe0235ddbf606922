package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"docsearch/internal/domain"
)

type UserStorageRepository struct {
	db *gorm.DB
}

func NewUserStorageRepository(db *gorm.DB) *UserStorageRepository {
	return &UserStorageRepository{db: db}
}

// GetByUser returns nil without error when the user has no storage row yet.
func (r *UserStorageRepository) GetByUser(ctx context.Context, userID string) (*domain.UserStorage, error) {
	var storage domain.UserStorage
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&storage).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &storage, nil
}

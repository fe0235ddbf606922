package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"docsearch/internal/modules/files"
	"docsearch/internal/repository"
)

type Service struct {
	files    *repository.FileUploadRepository
	search   files.StoreClient
	resolver *files.StoreResolver
	log      *zap.Logger
}

func NewService(
	fileRepo *repository.FileUploadRepository,
	search files.StoreClient,
	resolver *files.StoreResolver,
	log *zap.Logger,
) *Service {
	return &Service{files: fileRepo, search: search, resolver: resolver, log: log}
}

// Ask answers a prompt against the tenant's store. Before querying, any
// record whose store name is missing or diverges from the canonical store is
// re-uploaded from its retained content and its bookkeeping corrected, so
// local state and the remote store converge again.
func (s *Service) Ask(ctx context.Context, userID, prompt string) (string, error) {
	records, err := s.files.ListByUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("list files: %w", err)
	}
	if len(records) == 0 {
		return "", ErrNoFiles
	}

	storeName, err := s.resolver.Resolve(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", files.ErrSearchUpstream, err)
	}

	for _, rec := range records {
		if rec.FileSearchStoreName != nil && *rec.FileSearchStoreName == storeName {
			continue
		}

		s.log.Info("re-uploading drifted file to store",
			zap.String("user_id", userID),
			zap.String("file_name", rec.FileName),
			zap.String("store", storeName))

		uploaded, err := s.search.UploadDocument(ctx, rec.FileContent, rec.FileName, storeName)
		if err != nil {
			// The query still runs against what the store does hold.
			s.log.Warn("re-upload failed, record left unhealed",
				zap.String("file_name", rec.FileName), zap.Error(err))
			continue
		}
		if err := s.files.UpdateStoreName(ctx, rec.ID, uploaded); err != nil {
			s.log.Warn("could not persist corrected store name",
				zap.Int64("file_id", rec.ID), zap.Error(err))
		}
	}

	text, err := s.search.Answer(ctx, prompt, []string{storeName})
	if err != nil {
		return "", fmt.Errorf("%w: %v", files.ErrSearchUpstream, err)
	}
	return text, nil
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-doc-locker/internal/adapter"
	"github.com/MKhiriev/go-doc-locker/internal/logger"
	"github.com/MKhiriev/go-doc-locker/internal/store"
	"github.com/MKhiriev/go-doc-locker/models"
)

// extractionService drains documents in processing. After a batch each
// affected owner gets one EnsureProfile run.
type extractionService struct {
	documentRepository store.DocumentRepository
	extractor          adapter.TextExtractor
	profiles           ProfileService

	batchSize int
	logger    *logger.Logger
}

func NewExtractionService(
	documentRepository store.DocumentRepository,
	extractor adapter.TextExtractor,
	profiles ProfileService,
	batchSize int,
	logger *logger.Logger,
) ExtractionService {
	if batchSize <= 0 {
		batchSize = 10
	}

	return &extractionService{
		documentRepository: documentRepository,
		extractor:          extractor,
		profiles:           profiles,
		batchSize:          batchSize,
		logger:             logger,
	}
}

// ProcessPending extracts one batch and returns the number of documents
// whose outcome was stored.
func (e *extractionService) ProcessPending(ctx context.Context) (int, error) {
	log := logger.FromContext(ctx).With().Str("func", "extractionService.ProcessPending").Logger()

	pending, err := e.documentRepository.ListByStatus(ctx, models.DocumentProcessing, e.batchSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	processed := 0
	var owners []int64
	seen := make(map[int64]struct{})

	for _, doc := range pending {
		if err = ctx.Err(); err != nil {
			break
		}

		var text *string
		status := models.DocumentFailed
		if extracted := e.extractor.Extract(ctx, doc.StoredPath, doc.MimeType); extracted != "" {
			text = &extracted
			status = models.DocumentDone
		}

		err = e.documentRepository.SaveExtraction(ctx, doc.ID, text, status)
		if errors.Is(err, store.ErrDocumentNotFound) {
			// the row left processing meanwhile
			continue
		}
		if err != nil {
			log.Err(err).Int64("document_id", doc.ID).Msg("failed to store extraction result")
			continue
		}

		processed++
		log.Debug().Int64("document_id", doc.ID).Str("status", string(status)).Msg("document extracted")

		if _, ok := seen[doc.UserID]; !ok {
			seen[doc.UserID] = struct{}{}
			owners = append(owners, doc.UserID)
		}
	}

	for _, userID := range owners {
		e.profiles.EnsureProfile(ctx, userID)
	}

	if processed > 0 {
		log.Info().Int("processed", processed).Int("owners", len(owners)).Msg("extraction batch finished")
	}
	return processed, ctx.Err()
}

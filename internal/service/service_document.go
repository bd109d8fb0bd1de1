package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/MKhiriev/go-doc-locker/internal/adapter"
	"github.com/MKhiriev/go-doc-locker/internal/logger"
	"github.com/MKhiriev/go-doc-locker/internal/store"
	"github.com/MKhiriev/go-doc-locker/models"
)

type documentService struct {
	userRepository     store.UserRepository
	documentRepository store.DocumentRepository
	fileStorage        store.FileStorage

	extractor adapter.TextExtractor
	profiles  ProfileService
	audit     AuditService

	now    func() time.Time
	logger *logger.Logger
}

func NewDocumentService(
	storages *store.Storages,
	extractor adapter.TextExtractor,
	profiles ProfileService,
	audit AuditService,
	logger *logger.Logger,
) DocumentService {
	return &documentService{
		userRepository:     storages.UserRepository,
		documentRepository: storages.DocumentRepository,
		fileStorage:        storages.FileStorage,
		extractor:          extractor,
		profiles:           profiles,
		audit:              audit,
		now:                func() time.Time { return time.Now().UTC() },
		logger:             logger,
	}
}

// Upload stores the file, extracts its text, records the document and runs
// EnsureProfile. The upload succeeds whatever the profile outcome; the
// result carries the current profile when there is one.
func (d *documentService) Upload(ctx context.Context, requester models.Requestor, req models.UploadRequest, content io.Reader) (models.UploadResult, error) {
	log := logger.FromContext(ctx).With().Str("func", "documentService.Upload").Int64("user_id", req.UserID).Logger()

	if !requester.CanAccess(req.UserID) {
		return models.UploadResult{}, ErrUnauthorized
	}

	storedPath, size, err := d.fileStorage.Save(ctx, req.Filename, content)
	if err != nil {
		log.Err(err).Msg("failed to store uploaded file")
		return models.UploadResult{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	doc := models.Document{
		UserID:     req.UserID,
		Filename:   req.Filename,
		StoredPath: storedPath,
		MimeType:   req.MimeType,
		Size:       size,
		Status:     models.DocumentFailed,
		UploadedAt: d.now(),
	}
	if text := d.extractor.Extract(ctx, storedPath, req.MimeType); text != "" {
		doc.ExtractedText = &text
		doc.Status = models.DocumentDone
	} else {
		log.Warn().Str("filename", req.Filename).Msg("no text extracted from upload")
	}

	doc, err = d.documentRepository.CreateDocument(ctx, doc)
	if err != nil {
		log.Err(err).Msg("failed to record document, removing stored file")
		if removeErr := d.fileStorage.Remove(ctx, storedPath); removeErr != nil {
			log.Err(removeErr).Str("path", storedPath).Msg("failed to remove orphaned file")
		}
		return models.UploadResult{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	result := models.UploadResult{Document: doc}

	result.Profile = d.profiles.EnsureProfile(ctx, req.UserID)
	if result.Profile == nil {
		current, lookupErr := d.profiles.Lookup(ctx, req.UserID)
		if lookupErr != nil {
			log.Warn().Err(lookupErr).Msg("failed to read current profile for upload response")
		}
		result.Profile = current
	}

	log.Info().Int64("document_id", doc.ID).Str("status", string(doc.Status)).Msg("document uploaded")
	return result, nil
}

// ListDocuments returns the documents of userID, newest first.
func (d *documentService) ListDocuments(ctx context.Context, userID int64, requester models.Requestor) ([]models.Document, error) {
	if !requester.CanAccess(userID) {
		return nil, ErrUnauthorized
	}
	if err := ensureUserExists(ctx, d.userRepository, userID); err != nil {
		return nil, err
	}

	documents, err := d.documentRepository.ListDocuments(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return documents, nil
}

// GetDocument returns one document of userID, removed ones included.
func (d *documentService) GetDocument(ctx context.Context, userID, documentID int64, requester models.Requestor) (models.Document, error) {
	if !requester.CanAccess(userID) {
		return models.Document{}, ErrUnauthorized
	}
	return d.getDocument(ctx, userID, documentID)
}

func (d *documentService) OpenDocument(ctx context.Context, userID, documentID int64, requester models.Requestor) (models.Document, io.ReadCloser, error) {
	log := logger.FromContext(ctx).With().Str("func", "documentService.OpenDocument").Int64("user_id", userID).Int64("document_id", documentID).Logger()

	doc, err := d.GetDocument(ctx, userID, documentID, requester)
	if err != nil {
		return models.Document{}, nil, err
	}
	if doc.RemovedAt != nil {
		return models.Document{}, nil, fmt.Errorf("%w: document %d was removed", ErrNotFound, documentID)
	}

	content, err := d.fileStorage.Open(ctx, doc.StoredPath)
	if errors.Is(err, store.ErrFileNotFound) {
		log.Warn().Str("path", doc.StoredPath).Msg("stored file is missing")
		return models.Document{}, nil, fmt.Errorf("%w: file of document %d", ErrNotFound, documentID)
	}
	if err != nil {
		return models.Document{}, nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	return doc, content, nil
}

// DeleteFile soft-removes a document: status failed plus a tombstone. The
// row and its extracted text stay, so later regenerations may still include
// that text. No regeneration is triggered.
func (d *documentService) DeleteFile(ctx context.Context, userID, documentID int64, actor models.Requestor) error {
	log := logger.FromContext(ctx).With().Str("func", "documentService.DeleteFile").Int64("user_id", userID).Int64("document_id", documentID).Logger()

	if !actor.IsAdmin() {
		return ErrUnauthorized
	}

	doc, err := d.getDocument(ctx, userID, documentID)
	if err != nil {
		return err
	}

	if err = d.documentRepository.MarkRemoved(ctx, userID, documentID, d.now()); err != nil {
		if errors.Is(err, store.ErrDocumentNotFound) {
			return fmt.Errorf("%w: document %d", ErrNotFound, documentID)
		}
		log.Err(err).Msg("failed to mark document removed")
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}

	d.audit.Emit(ctx, models.AuditEvent{
		ActorID:      actor.ID,
		TargetUserID: userID,
		Action:       models.AuditDeleteFile,
		Detail:       auditDetail(map[string]any{"document_id": documentID, "filename": doc.Filename}),
	})

	log.Info().Int64("actor_id", actor.ID).Msg("document removed")
	return nil
}

// ReExtract puts a document back into processing for the extraction
// worker. The extractor is not called here.
func (d *documentService) ReExtract(ctx context.Context, userID, documentID int64, actor models.Requestor) error {
	log := logger.FromContext(ctx).With().Str("func", "documentService.ReExtract").Int64("user_id", userID).Int64("document_id", documentID).Logger()

	if !actor.CanAccess(userID) {
		return ErrUnauthorized
	}

	doc, err := d.getDocument(ctx, userID, documentID)
	if err != nil {
		return err
	}
	if doc.RemovedAt != nil {
		return fmt.Errorf("%w: document %d was removed", ErrNotFound, documentID)
	}

	if err = d.documentRepository.SetStatus(ctx, userID, documentID, models.DocumentProcessing); err != nil {
		if errors.Is(err, store.ErrDocumentNotFound) {
			return fmt.Errorf("%w: document %d", ErrNotFound, documentID)
		}
		log.Err(err).Msg("failed to reset document status")
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}

	d.audit.Emit(ctx, models.AuditEvent{
		ActorID:      actor.ID,
		TargetUserID: userID,
		Action:       models.AuditReExtract,
		Detail:       auditDetail(map[string]any{"document_id": documentID}),
	})

	log.Info().Int64("actor_id", actor.ID).Msg("document queued for re-extraction")
	return nil
}

func (d *documentService) getDocument(ctx context.Context, userID, documentID int64) (models.Document, error) {
	doc, err := d.documentRepository.GetDocument(ctx, userID, documentID)
	if errors.Is(err, store.ErrDocumentNotFound) {
		return models.Document{}, fmt.Errorf("%w: document %d", ErrNotFound, documentID)
	}
	if err != nil {
		return models.Document{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return doc, nil
}

package service

import (
	"context"
	"fmt"
	"io"

	"github.com/MKhiriev/go-doc-locker/internal/validators"
	"github.com/MKhiriev/go-doc-locker/models"
)

// DocumentValidationService validates upload requests before they reach
// the wrapped service. Other calls pass through.
type DocumentValidationService struct {
	inner     DocumentService
	validator validators.Validator
}

func NewDocumentValidationService(maxUploadSize int64) DocumentServiceWrapper {
	return &DocumentValidationService{
		validator: validators.NewDocumentValidator(maxUploadSize),
	}
}

func (v *DocumentValidationService) Upload(ctx context.Context, requester models.Requestor, req models.UploadRequest, content io.Reader) (models.UploadResult, error) {
	if err := v.validator.Validate(ctx, req); err != nil {
		return models.UploadResult{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	// the extension decides, whatever the client declared
	req.MimeType, _ = validators.MimeTypeFor(req.Filename)

	return v.inner.Upload(ctx, requester, req, content)
}

func (v *DocumentValidationService) ListDocuments(ctx context.Context, userID int64, requester models.Requestor) ([]models.Document, error) {
	return v.inner.ListDocuments(ctx, userID, requester)
}

func (v *DocumentValidationService) GetDocument(ctx context.Context, userID, documentID int64, requester models.Requestor) (models.Document, error) {
	return v.inner.GetDocument(ctx, userID, documentID, requester)
}

func (v *DocumentValidationService) OpenDocument(ctx context.Context, userID, documentID int64, requester models.Requestor) (models.Document, io.ReadCloser, error) {
	return v.inner.OpenDocument(ctx, userID, documentID, requester)
}

func (v *DocumentValidationService) DeleteFile(ctx context.Context, userID, documentID int64, actor models.Requestor) error {
	return v.inner.DeleteFile(ctx, userID, documentID, actor)
}

func (v *DocumentValidationService) ReExtract(ctx context.Context, userID, documentID int64, actor models.Requestor) error {
	return v.inner.ReExtract(ctx, userID, documentID, actor)
}

func (v *DocumentValidationService) Wrap(inner DocumentService) DocumentService {
	v.inner = inner
	return v
}

package validators

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/MKhiriev/go-doc-locker/models"
)

// Field name constants used to restrict validation of an upload request.
const (
	// FieldUserID targets the owner of the uploaded document.
	FieldUserID = "user_id"

	// FieldFilename targets the original file name and its extension.
	FieldFilename = "filename"

	// FieldSize targets the declared file size.
	FieldSize = "size"
)

// allowedExtensions maps accepted upload extensions to their MIME type.
var allowedExtensions = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// MimeTypeFor returns the MIME type of an accepted file name and false for
// any other extension.
func MimeTypeFor(filename string) (string, bool) {
	mimeType, ok := allowedExtensions[strings.ToLower(filepath.Ext(filename))]
	return mimeType, ok
}

// DocumentValidator validates upload requests.
type DocumentValidator struct {
	maxSize int64
}

// NewDocumentValidator returns a [Validator] for [models.UploadRequest].
// A non-positive maxSize disables the size limit.
func NewDocumentValidator(maxSize int64) Validator {
	return &DocumentValidator{maxSize: maxSize}
}

func (v *DocumentValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.UploadRequest:
		return v.validateUploadRequest(ctx, value, fields...)
	case *models.UploadRequest:
		return v.validateUploadRequest(ctx, *value, fields...)
	default:
		return ErrUnsupportedType
	}
}

func (v *DocumentValidator) validateUploadRequest(_ context.Context, req models.UploadRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldUserID, FieldFilename, FieldSize}
	}

	for _, field := range fields {
		switch field {
		case FieldUserID:
			if req.UserID <= 0 {
				return ErrInvalidUserID
			}
		case FieldFilename:
			if strings.TrimSpace(req.Filename) == "" {
				return ErrEmptyFilename
			}
			if _, ok := MimeTypeFor(req.Filename); !ok {
				return fmt.Errorf("%w: %q", ErrUnsupportedFileType, filepath.Ext(req.Filename))
			}
		case FieldSize:
			if req.Size <= 0 {
				return ErrEmptyFile
			}
			if v.maxSize > 0 && req.Size > v.maxSize {
				return fmt.Errorf("%w: %d bytes, limit is %d", ErrFileTooLarge, req.Size, v.maxSize)
			}
		default:
			return fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
	}

	return nil
}

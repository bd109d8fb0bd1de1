package store

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/MKhiriev/go-doc-locker/models"
)

// UserRepository persists accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	FindUserByID(ctx context.Context, userID int64) (models.User, error)
	UpdateStatus(ctx context.Context, userID int64, status models.UserStatus) error
	TouchLastActive(ctx context.Context, userID int64, at time.Time) error
	// DeleteUser hard-deletes the user. Documents, profile versions, the
	// pointer and the legacy record go with it. It returns the stored paths
	// of the deleted documents.
	DeleteUser(ctx context.Context, userID int64) ([]string, error)
}

// DocumentRepository persists document rows. Rows are never physically
// deleted except by the user cascade.
type DocumentRepository interface {
	CreateDocument(ctx context.Context, doc models.Document) (models.Document, error)
	GetDocument(ctx context.Context, userID, documentID int64) (models.Document, error)
	// ListDocuments returns the user's documents, newest first.
	ListDocuments(ctx context.Context, userID int64) ([]models.Document, error)
	// ExtractedTexts returns every non-null extracted text of the user in
	// upload order, including soft-removed rows.
	ExtractedTexts(ctx context.Context, userID int64) ([]string, error)
	// MarkRemoved sets status failed and the removed_at tombstone.
	MarkRemoved(ctx context.Context, userID, documentID int64, at time.Time) error
	SetStatus(ctx context.Context, userID, documentID int64, status models.DocumentStatus) error
	ListByStatus(ctx context.Context, status models.DocumentStatus, limit int) ([]models.Document, error)
	// SaveExtraction stores the outcome of one extraction attempt. It only
	// applies while the row is still in processing.
	SaveExtraction(ctx context.Context, documentID int64, text *string, status models.DocumentStatus) error
}

// ProfileRepository is the profile version store with its legacy fallback.
type ProfileRepository interface {
	// CommitVersion allocates max(version)+1, inserts the version and moves
	// the pointer to it in one transaction.
	CommitVersion(ctx context.Context, userID int64, payload json.RawMessage, rendered *string) (models.ProfileVersion, error)
	// GetCurrentVersion follows the pointer. ErrProfileNotFound when there
	// is no pointer or it is null.
	GetCurrentVersion(ctx context.Context, userID int64) (models.ProfileVersion, error)
	GetVersion(ctx context.Context, userID, version int64) (models.ProfileVersion, error)
	// ListVersions returns the user's versions, oldest first.
	ListVersions(ctx context.Context, userID int64) ([]models.ProfileVersion, error)

	GetLegacy(ctx context.Context, userID int64) (models.LegacyProfile, error)
	SaveLegacy(ctx context.Context, userID int64, payload json.RawMessage) (models.LegacyProfile, error)
}

// AuditRepository appends audit events.
type AuditRepository interface {
	SaveEvent(ctx context.Context, event models.AuditEvent) (models.AuditEvent, error)
	ListEvents(ctx context.Context, targetUserID int64) ([]models.AuditEvent, error)
}

// CapabilityProber inspects the live schema.
type CapabilityProber interface {
	ProbeCapabilities(ctx context.Context) (models.StorageCapabilities, error)
}

// FileStorage keeps uploaded document bytes outside the database.
type FileStorage interface {
	// Save writes r under a generated name and returns the stored path and
	// the number of bytes written.
	Save(ctx context.Context, originalName string, r io.Reader) (string, int64, error)
	// Open returns the stored bytes. The caller closes the reader.
	Open(ctx context.Context, storedPath string) (io.ReadCloser, error)
	Remove(ctx context.Context, storedPath string) error
}

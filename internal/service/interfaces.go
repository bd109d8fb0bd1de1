package service

import (
	"context"
	"io"

	"github.com/MKhiriev/go-doc-locker/models"
)

type AuthService interface {
	RegisterUser(ctx context.Context, user models.User) (models.User, error)
	Login(ctx context.Context, user models.User) (models.User, error)
	CreateToken(ctx context.Context, user models.User) (models.Token, error)
	ParseToken(ctx context.Context, tokenString string) (models.Token, error)

	// Authenticate resolves a bearer token into the identity of an active
	// user and records the activity.
	Authenticate(ctx context.Context, tokenString string) (models.Requestor, error)

	// SeedAdmin creates the configured administrator if it does not exist.
	SeedAdmin(ctx context.Context) error
}

// ProfileService is the profile lifecycle manager.
type ProfileService interface {
	// AggregateText joins the user's extracted texts in upload order.
	AggregateText(ctx context.Context, userID int64) (string, error)

	// EnsureProfile generates a profile after ingestion. Failures are logged,
	// never returned. The new profile is returned when one was committed.
	EnsureProfile(ctx context.Context, userID int64) *models.ProfileView

	Regenerate(ctx context.Context, userID int64, actor models.Requestor, seed *int64) (models.ProfileView, error)

	// GetCurrent returns nil without error when no profile is available.
	GetCurrent(ctx context.Context, userID int64, requester models.Requestor) (*models.ProfileView, error)

	// Lookup returns the stored profile without generating one.
	Lookup(ctx context.Context, userID int64) (*models.ProfileView, error)

	ListVersions(ctx context.Context, userID int64, requester models.Requestor) ([]models.ProfileVersion, error)
	GetVersion(ctx context.Context, userID, version int64, requester models.Requestor) (models.ProfileVersion, error)
	Export(ctx context.Context, userID int64, requester models.Requestor) (string, error)
}

type DocumentService interface {
	Upload(ctx context.Context, requester models.Requestor, req models.UploadRequest, content io.Reader) (models.UploadResult, error)
	ListDocuments(ctx context.Context, userID int64, requester models.Requestor) ([]models.Document, error)
	GetDocument(ctx context.Context, userID, documentID int64, requester models.Requestor) (models.Document, error)
	// OpenDocument returns the document and its stored bytes. Removed
	// documents are not served. The caller closes the reader.
	OpenDocument(ctx context.Context, userID, documentID int64, requester models.Requestor) (models.Document, io.ReadCloser, error)
	DeleteFile(ctx context.Context, userID, documentID int64, actor models.Requestor) error
	ReExtract(ctx context.Context, userID, documentID int64, actor models.Requestor) error
}

// DocumentServiceWrapper defines middleware composition for DocumentService.
type DocumentServiceWrapper interface {
	Wrap(DocumentService) DocumentService // returns a decorated DocumentService applying additional behavior
}

// ExtractionService processes documents waiting for (re-)extraction.
type ExtractionService interface {
	ProcessPending(ctx context.Context) (int, error)
}

type AdminService interface {
	LockUser(ctx context.Context, userID int64, actor models.Requestor) error
	UnlockUser(ctx context.Context, userID int64, actor models.Requestor) error
	DeleteUser(ctx context.Context, userID int64, actor models.Requestor) error
}

// AuditService records audit events. It never fails the caller.
type AuditService interface {
	Emit(ctx context.Context, event models.AuditEvent)
}

// AppInfoService reports build metadata of the running server.
type AppInfoService interface {
	GetAppInfo(ctx context.Context) models.AppVersionResponse
}

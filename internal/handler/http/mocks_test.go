package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MKhiriev/go-doc-locker/internal/logger"
	"github.com/MKhiriev/go-doc-locker/internal/service"
	"github.com/MKhiriev/go-doc-locker/models"
)

// ─────────────────────────────────────────────
// Service mocks
// ─────────────────────────────────────────────

type mockAuthService struct {
	registerUserFn func(ctx context.Context, user models.User) (models.User, error)
	loginFn        func(ctx context.Context, user models.User) (models.User, error)
	createTokenFn  func(ctx context.Context, user models.User) (models.Token, error)
}

func (m *mockAuthService) RegisterUser(ctx context.Context, user models.User) (models.User, error) {
	return m.registerUserFn(ctx, user)
}

func (m *mockAuthService) Login(ctx context.Context, user models.User) (models.User, error) {
	return m.loginFn(ctx, user)
}

func (m *mockAuthService) CreateToken(ctx context.Context, user models.User) (models.Token, error) {
	if m.createTokenFn != nil {
		return m.createTokenFn(ctx, user)
	}
	return models.Token{SignedString: "signed.jwt.token", UserID: user.UserID}, nil
}

func (m *mockAuthService) ParseToken(context.Context, string) (models.Token, error) {
	return models.Token{}, nil
}

// Authenticate knows three fixed tokens.
func (m *mockAuthService) Authenticate(_ context.Context, token string) (models.Requestor, error) {
	switch token {
	case userToken:
		return owner, nil
	case adminToken:
		return admin, nil
	case lockedToken:
		return models.Requestor{}, service.ErrUserLocked
	default:
		return models.Requestor{}, service.ErrTokenIsExpiredOrInvalid
	}
}

func (m *mockAuthService) SeedAdmin(context.Context) error {
	return nil
}

type mockProfileService struct {
	regenerateFn   func(ctx context.Context, userID int64, actor models.Requestor, seed *int64) (models.ProfileView, error)
	getCurrentFn   func(ctx context.Context, userID int64, requester models.Requestor) (*models.ProfileView, error)
	listVersionsFn func(ctx context.Context, userID int64, requester models.Requestor) ([]models.ProfileVersion, error)
	getVersionFn   func(ctx context.Context, userID, version int64, requester models.Requestor) (models.ProfileVersion, error)
	exportFn       func(ctx context.Context, userID int64, requester models.Requestor) (string, error)
}

func (m *mockProfileService) AggregateText(context.Context, int64) (string, error) {
	return "", nil
}

func (m *mockProfileService) EnsureProfile(context.Context, int64) *models.ProfileView {
	return nil
}

func (m *mockProfileService) Regenerate(ctx context.Context, userID int64, actor models.Requestor, seed *int64) (models.ProfileView, error) {
	return m.regenerateFn(ctx, userID, actor, seed)
}

func (m *mockProfileService) GetCurrent(ctx context.Context, userID int64, requester models.Requestor) (*models.ProfileView, error) {
	return m.getCurrentFn(ctx, userID, requester)
}

func (m *mockProfileService) Lookup(context.Context, int64) (*models.ProfileView, error) {
	return nil, nil
}

func (m *mockProfileService) ListVersions(ctx context.Context, userID int64, requester models.Requestor) ([]models.ProfileVersion, error) {
	return m.listVersionsFn(ctx, userID, requester)
}

func (m *mockProfileService) GetVersion(ctx context.Context, userID, version int64, requester models.Requestor) (models.ProfileVersion, error) {
	return m.getVersionFn(ctx, userID, version, requester)
}

func (m *mockProfileService) Export(ctx context.Context, userID int64, requester models.Requestor) (string, error) {
	return m.exportFn(ctx, userID, requester)
}

type mockDocumentService struct {
	uploadFn    func(ctx context.Context, requester models.Requestor, req models.UploadRequest, content io.Reader) (models.UploadResult, error)
	listFn      func(ctx context.Context, userID int64, requester models.Requestor) ([]models.Document, error)
	deleteFn    func(ctx context.Context, userID, documentID int64, actor models.Requestor) error
	reExtractFn func(ctx context.Context, userID, documentID int64, actor models.Requestor) error
	getFn       func(ctx context.Context, userID, documentID int64, requester models.Requestor) (models.Document, error)
	openFn      func(ctx context.Context, userID, documentID int64, requester models.Requestor) (models.Document, io.ReadCloser, error)
}

func (m *mockDocumentService) Upload(ctx context.Context, requester models.Requestor, req models.UploadRequest, content io.Reader) (models.UploadResult, error) {
	return m.uploadFn(ctx, requester, req, content)
}

func (m *mockDocumentService) ListDocuments(ctx context.Context, userID int64, requester models.Requestor) ([]models.Document, error) {
	return m.listFn(ctx, userID, requester)
}

func (m *mockDocumentService) GetDocument(ctx context.Context, userID, documentID int64, requester models.Requestor) (models.Document, error) {
	return m.getFn(ctx, userID, documentID, requester)
}

func (m *mockDocumentService) OpenDocument(ctx context.Context, userID, documentID int64, requester models.Requestor) (models.Document, io.ReadCloser, error) {
	return m.openFn(ctx, userID, documentID, requester)
}

func (m *mockDocumentService) DeleteFile(ctx context.Context, userID, documentID int64, actor models.Requestor) error {
	return m.deleteFn(ctx, userID, documentID, actor)
}

func (m *mockDocumentService) ReExtract(ctx context.Context, userID, documentID int64, actor models.Requestor) error {
	return m.reExtractFn(ctx, userID, documentID, actor)
}

type mockAdminService struct {
	lockFn   func(ctx context.Context, userID int64, actor models.Requestor) error
	unlockFn func(ctx context.Context, userID int64, actor models.Requestor) error
	deleteFn func(ctx context.Context, userID int64, actor models.Requestor) error
}

func (m *mockAdminService) LockUser(ctx context.Context, userID int64, actor models.Requestor) error {
	return m.lockFn(ctx, userID, actor)
}

func (m *mockAdminService) UnlockUser(ctx context.Context, userID int64, actor models.Requestor) error {
	return m.unlockFn(ctx, userID, actor)
}

func (m *mockAdminService) DeleteUser(ctx context.Context, userID int64, actor models.Requestor) error {
	return m.deleteFn(ctx, userID, actor)
}

type mockAppInfoService struct {
	version string
}

func (m *mockAppInfoService) GetAppInfo(context.Context) models.AppVersionResponse {
	return models.AppVersionResponse{Version: m.version}
}

// ─────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────

const (
	userToken   = "user-token"
	adminToken  = "admin-token"
	lockedToken = "locked-token"
)

var (
	owner = models.Requestor{ID: 7, Role: models.RoleUser}
	admin = models.Requestor{ID: 1, Role: models.RoleAdmin}
)

// newTestServices returns services whose auth knows the fixed tokens; the
// other services are filled in by each test.
func newTestServices() *service.Services {
	return &service.Services{
		AuthService:     &mockAuthService{},
		ProfileService:  &mockProfileService{},
		DocumentService: &mockDocumentService{},
		AdminService:    &mockAdminService{},
		AppInfoService:  &mockAppInfoService{version: "test-version"},
	}
}

func newTestRouter(t *testing.T, services *service.Services) http.Handler {
	t.Helper()
	return NewHandler(services, 1024, logger.Nop()).Init()
}

// serve runs one request through router with an optional bearer token.
func serve(router http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

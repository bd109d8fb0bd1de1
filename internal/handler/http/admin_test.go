package http

import (
	"context"
	"net/http"
	"testing"

	"github.com/MKhiriev/go-doc-locker/internal/service"
	"github.com/MKhiriev/go-doc-locker/models"
	"github.com/stretchr/testify/assert"
)

// adminCall records which admin operation reached the service layer.
type adminCall struct {
	op         string
	userID     int64
	documentID int64
}

func recordingServices(calls *[]adminCall, err error) *service.Services {
	record := func(op string, userID, documentID int64, actor models.Requestor) error {
		if actor != admin {
			return service.ErrUnauthorized
		}
		*calls = append(*calls, adminCall{op: op, userID: userID, documentID: documentID})
		return err
	}

	services := newTestServices()
	services.AdminService = &mockAdminService{
		lockFn: func(_ context.Context, userID int64, actor models.Requestor) error {
			return record("lock", userID, 0, actor)
		},
		unlockFn: func(_ context.Context, userID int64, actor models.Requestor) error {
			return record("unlock", userID, 0, actor)
		},
		deleteFn: func(_ context.Context, userID int64, actor models.Requestor) error {
			return record("delete", userID, 0, actor)
		},
	}
	services.DocumentService = &mockDocumentService{
		deleteFn: func(_ context.Context, userID, documentID int64, actor models.Requestor) error {
			return record("delete-file", userID, documentID, actor)
		},
		reExtractFn: func(_ context.Context, userID, documentID int64, actor models.Requestor) error {
			return record("reextract", userID, documentID, actor)
		},
	}
	return services
}

func TestAdminEndpoints(t *testing.T) {
	tests := []struct {
		method     string
		path       string
		wantStatus int
		wantCall   adminCall
	}{
		{http.MethodPost, "/api/admin/users/8/lock", http.StatusNoContent, adminCall{op: "lock", userID: 8}},
		{http.MethodPost, "/api/admin/users/8/unlock", http.StatusNoContent, adminCall{op: "unlock", userID: 8}},
		{http.MethodDelete, "/api/admin/users/8", http.StatusNoContent, adminCall{op: "delete", userID: 8}},
		{http.MethodDelete, "/api/admin/users/8/documents/5", http.StatusNoContent, adminCall{op: "delete-file", userID: 8, documentID: 5}},
		{http.MethodPost, "/api/admin/users/8/documents/5/reextract", http.StatusAccepted, adminCall{op: "reextract", userID: 8, documentID: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			var calls []adminCall
			rec := serve(newTestRouter(t, recordingServices(&calls, nil)), tt.method, tt.path, adminToken, "")

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Empty(t, rec.Body.String())
			assert.Equal(t, []adminCall{tt.wantCall}, calls)
		})
	}
}

func TestAdminEndpoints_ServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "self action", err: service.ErrSelfAction, wantStatus: http.StatusBadRequest},
		{name: "unknown user", err: service.ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "storage", err: service.ErrStorage, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []adminCall
			router := newTestRouter(t, recordingServices(&calls, tt.err))

			assert.Equal(t, tt.wantStatus, serve(router, http.MethodPost, "/api/admin/users/1/lock", adminToken, "").Code)
			assert.Equal(t, tt.wantStatus, serve(router, http.MethodDelete, "/api/admin/users/1", adminToken, "").Code)
			assert.Equal(t, tt.wantStatus, serve(router, http.MethodPost, "/api/admin/users/1/documents/2/reextract", adminToken, "").Code)
		})
	}
}

func TestAdminEndpoints_InvalidIDs(t *testing.T) {
	var calls []adminCall
	router := newTestRouter(t, recordingServices(&calls, nil))

	assert.Equal(t, http.StatusBadRequest, serve(router, http.MethodPost, "/api/admin/users/x/lock", adminToken, "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(router, http.MethodDelete, "/api/admin/users/8/documents/0", adminToken, "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(router, http.MethodPost, "/api/admin/users/8/documents/abc/reextract", adminToken, "").Code)
	assert.Empty(t, calls)
}

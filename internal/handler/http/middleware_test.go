// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MKhiriev/go-doc-locker/internal/logger"
	"github.com/MKhiriev/go-doc-locker/internal/service"
	"github.com/MKhiriev/go-doc-locker/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─────────────────────────────────────────────
// gzip
// ─────────────────────────────────────────────

func TestWithGZip_CompressesResponse(t *testing.T) {
	handler := withGZip(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	assert.Equal(t, "Accept-Encoding", rec.Header().Get("Vary"))

	reader, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestWithGZip_SkipsBodilessResponses(t *testing.T) {
	handler := withGZip(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Zero(t, rec.Body.Len())
}

func TestWithGZip_PlainClient(t *testing.T) {
	handler := withGZip(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "plain")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Equal(t, "plain", rec.Body.String())
}

func TestWithGZip_DecompressesRequest(t *testing.T) {
	var compressed bytes.Buffer
	zw := gzip.NewWriter(&compressed)
	_, err := zw.Write([]byte(`{"seed":7}`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	var got string
	handler := withGZip(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		got = string(data)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", &compressed)
	req.Header.Set("Content-Encoding", "gzip")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, `{"seed":7}`, got)
}

func TestWithGZip_InvalidRequestBody(t *testing.T) {
	handler := withGZip(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not be reached")
	}))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("not gzip"))
	req.Header.Set("Content-Encoding", "gzip")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ─────────────────────────────────────────────
// trace id, logging, routing
// ─────────────────────────────────────────────

func TestWithTraceID(t *testing.T) {
	router := newTestRouter(t, newTestServices())

	t.Run("generated", func(t *testing.T) {
		rec := serve(router, http.MethodGet, "/api/version", "", "")
		assert.Len(t, rec.Header().Get(traceIDHeader), 36)
	})

	t.Run("client supplied", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
		req.Header.Set(traceIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, "abc-123", rec.Header().Get(traceIDHeader))
	})

	t.Run("oversized id replaced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
		req.Header.Set(traceIDHeader, strings.Repeat("x", maxTraceIDLength+1))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Len(t, rec.Header().Get(traceIDHeader), 36)
	})
}

func TestWithLogging_KeepsStatusAndBody(t *testing.T) {
	h := NewHandler(newTestServices(), 0, logger.Nop())
	handler := h.withLogging(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = io.WriteString(w, "queued")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "queued", rec.Body.String())
}

func TestResponseWriter_RecordsFirstStatus(t *testing.T) {
	rw := &responseWriter{ResponseWriter: httptest.NewRecorder()}

	_, err := rw.Write([]byte("ok"))
	require.NoError(t, err)
	rw.WriteHeader(http.StatusTeapot)

	assert.Equal(t, http.StatusOK, rw.status)
	assert.Equal(t, 2, rw.size)
}

func TestUnknownRoutes(t *testing.T) {
	router := newTestRouter(t, newTestServices())

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/unknown"},
		{http.MethodPut, "/api/documents"},
		{http.MethodPatch, "/api/profile/7"},
		{http.MethodGet, "/api/auth/login"},
		{http.MethodDelete, "/api/profile/7/export"},
		{http.MethodPut, "/api/profile/7/versions/1"},
		{http.MethodGet, "/api/admin/users/8/lock"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			token := userToken
			if strings.HasPrefix(tt.path, "/api/admin") {
				token = adminToken
			}

			done := make(chan *httptest.ResponseRecorder, 1)
			go func() { done <- serve(router, tt.method, tt.path, token, "") }()

			select {
			case rec := <-done:
				assert.Equal(t, http.StatusNotFound, rec.Code)
			case <-time.After(5 * time.Second):
				t.Fatal("request did not complete")
			}
		})
	}
}

func TestCheckHTTPMethod(t *testing.T) {
	rec := httptest.NewRecorder()
	CheckHTTPMethod(rec, httptest.NewRequest(http.MethodPatch, "/api/profile/7", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not Found"}`, rec.Body.String())
}

func TestGetServerVersion(t *testing.T) {
	services := newTestServices()
	services.AppInfoService = &mockAppInfoService{version: "v1.4.0"}

	rec := serve(newTestRouter(t, services), http.MethodGet, "/api/version", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"version":"v1.4.0"}`, rec.Body.String())
}

func TestRecoverer(t *testing.T) {
	services := newTestServices()
	services.ProfileService = &mockProfileService{
		getCurrentFn: func(context.Context, int64, models.Requestor) (*models.ProfileView, error) {
			panic("boom")
		},
	}

	rec := serve(newTestRouter(t, services), http.MethodGet, "/api/profile/7", userToken, "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

// ─────────────────────────────────────────────
// error mapping
// ─────────────────────────────────────────────

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrInsufficientText, http.StatusUnprocessableEntity},
		{service.ErrGenerationFailed, http.StatusBadGateway},
		{service.ErrUnauthorized, http.StatusForbidden},
		{service.ErrUserLocked, http.StatusForbidden},
		{service.ErrNotFound, http.StatusNotFound},
		{service.ErrStorage, http.StatusInternalServerError},
		{service.ErrInvalidDataProvided, http.StatusBadRequest},
		{service.ErrWrongCredentials, http.StatusUnauthorized},
		{service.ErrEmailTaken, http.StatusConflict},
		{service.ErrSelfAction, http.StatusBadRequest},
		{fmt.Errorf("%w: seed", errInvalidJSON), http.StatusBadRequest},
		{errUploadTooLarge, http.StatusRequestEntityTooLarge},
		{errAdminOnly, http.StatusForbidden},
		{errors.New("unexpected"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFromError(tt.err))
		})
	}
}

func TestWriteError_Messages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "client error keeps message", err: service.ErrEmailTaken, want: `{"error":"email is already registered"}`},
		{name: "upstream failure hides provider body", err: fmt.Errorf("%w: gemini 429: quota exceeded for project 1234", service.ErrGenerationFailed), want: `{"error":"Bad Gateway"}`},
		{name: "server error hidden", err: fmt.Errorf("%w: dial tcp", service.ErrStorage), want: `{"error":"Internal Server Error"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
			assert.JSONEq(t, tt.want, rec.Body.String())
		})
	}
}

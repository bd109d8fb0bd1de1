package http

import (
	"net/http"

	"github.com/MKhiriev/go-doc-locker/internal/utils"
	"github.com/MKhiriev/go-doc-locker/models"
)

// auth is an HTTP middleware that enforces JWT-based authentication.
//
// It extracts the bearer token from the "Authorization" header and resolves
// it via [service.AuthService.Authenticate]. On success the resulting
// [models.Requestor] is stored in the request context.
//
// Missing or malformed headers and invalid tokens are answered with 401.
// Tokens of locked accounts are answered with 403.
func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			utils.WriteError(w, ErrEmptyAuthorizationHeader.Error(), http.StatusUnauthorized)
			return
		}

		tokenString, err := utils.ParseBearerToken(authHeader)
		if err != nil {
			utils.WriteError(w, err.Error(), http.StatusUnauthorized)
			return
		}

		ctx := r.Context()
		requestor, err := h.services.AuthService.Authenticate(ctx, tokenString)
		if err != nil {
			writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(utils.WithRequestor(ctx, requestor)))
	})
}

// adminOnly rejects every caller without the admin role. It must run after
// auth.
func (h *Handler) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestor, ok := utils.GetRequestorFromContext(r.Context())
		if !ok {
			writeError(w, r, errNoRequestor)
			return
		}
		if requestor.Role != models.RoleAdmin {
			writeError(w, r, errAdminOnly)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requestorFrom returns the identity stored by auth.
func requestorFrom(r *http.Request) (models.Requestor, error) {
	requestor, ok := utils.GetRequestorFromContext(r.Context())
	if !ok {
		return models.Requestor{}, errNoRequestor
	}
	return requestor, nil
}

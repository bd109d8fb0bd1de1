package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/go-doc-locker/internal/logger"
	"github.com/MKhiriev/go-doc-locker/internal/service"
	"github.com/MKhiriev/go-doc-locker/internal/utils"
)

// errorStatuses is checked in order; the first match wins.
var errorStatuses = []struct {
	err    error
	status int
}{
	{service.ErrInsufficientText, http.StatusUnprocessableEntity},
	{service.ErrGenerationFailed, http.StatusBadGateway},
	{service.ErrUnauthorized, http.StatusForbidden},
	{service.ErrUserLocked, http.StatusForbidden},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrInvalidDataProvided, http.StatusBadRequest},
	{service.ErrSelfAction, http.StatusBadRequest},
	{service.ErrWrongCredentials, http.StatusUnauthorized},
	{service.ErrTokenIsExpiredOrInvalid, http.StatusUnauthorized},
	{service.ErrEmailTaken, http.StatusConflict},
	{service.ErrTokenCreationFailed, http.StatusInternalServerError},
	{service.ErrStorage, http.StatusInternalServerError},

	{errInvalidJSON, http.StatusBadRequest},
	{errInvalidPathParam, http.StatusBadRequest},
	{errMissingDocument, http.StatusBadRequest},
	{errMalformedUpload, http.StatusBadRequest},
	{errUploadTooLarge, http.StatusRequestEntityTooLarge},
	{errAdminOnly, http.StatusForbidden},
	{errNoRequestor, http.StatusUnauthorized},
}

func statusFromError(err error) int {
	for _, candidate := range errorStatuses {
		if errors.Is(err, candidate.err) {
			return candidate.status
		}
	}
	return http.StatusInternalServerError
}

// writeError maps err to a status and writes it as an ErrorResponse.
// Server-side failures are logged with the full chain and answered with
// the generic status text.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFromError(err)
	log := logger.FromRequest(r)

	message := err.Error()
	if status >= http.StatusInternalServerError {
		log.Err(err).Int("status", status).Msg("request failed")
		message = http.StatusText(status)
	} else {
		log.Warn().Err(err).Int("status", status).Msg("request rejected")
	}

	utils.WriteError(w, message, status)
}

package http

import (
	"net/http"

	"github.com/MKhiriev/go-doc-locker/internal/logger"
)

func (h *Handler) lockUser(w http.ResponseWriter, r *http.Request) {
	requestor, userID, err := targetFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err = h.services.AdminService.LockUser(r.Context(), userID, requestor); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) unlockUser(w http.ResponseWriter, r *http.Request) {
	requestor, userID, err := targetFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err = h.services.AdminService.UnlockUser(r.Context(), userID, requestor); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	requestor, userID, err := targetFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err = h.services.AdminService.DeleteUser(r.Context(), userID, requestor); err != nil {
		writeError(w, r, err)
		return
	}

	logger.FromRequest(r).Info().Int64("user_id", userID).Int64("admin_id", requestor.ID).Msg("user deleted by admin")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteDocument(w http.ResponseWriter, r *http.Request) {
	requestor, userID, err := targetFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	documentID, err := idParam(r, "documentID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err = h.services.DocumentService.DeleteFile(r.Context(), userID, documentID, requestor); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// reExtractDocument queues the document for the extraction worker.
func (h *Handler) reExtractDocument(w http.ResponseWriter, r *http.Request) {
	requestor, userID, err := targetFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	documentID, err := idParam(r, "documentID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err = h.services.DocumentService.ReExtract(r.Context(), userID, documentID, requestor); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

package http

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/MKhiriev/go-doc-locker/internal/logger"
	"github.com/MKhiriev/go-doc-locker/internal/utils"
	"github.com/MKhiriev/go-doc-locker/models"
)

// documentField is the multipart field carrying the uploaded file.
const documentField = "document"

// multipartMemory is the part of a multipart form kept in memory; the rest
// spills to temporary files.
const multipartMemory = 1 << 20

func (h *Handler) uploadDocument(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r).With().Str("func", "*Handler.uploadDocument").Logger()

	requestor, err := requestorFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// the form carries the file plus multipart framing
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+multipartMemory)
	if err = r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, fmt.Errorf("%w: limit is %d bytes", errUploadTooLarge, h.maxUploadSize))
			return
		}
		writeError(w, r, fmt.Errorf("%w: %w", errMalformedUpload, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(documentField)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %w", errMissingDocument, err))
		return
	}
	defer file.Close()

	req := models.UploadRequest{
		UserID:   requestor.ID,
		Filename: filepath.Base(header.Filename),
		MimeType: header.Header.Get("Content-Type"),
		Size:     header.Size,
	}

	result, err := h.services.DocumentService.Upload(r.Context(), requestor, req, file)
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.Info().Int64("document_id", result.Document.ID).Bool("profile", result.Profile != nil).Msg("document uploaded")
	utils.WriteJSON(w, result, http.StatusCreated)
}

func (h *Handler) listOwnDocuments(w http.ResponseWriter, r *http.Request) {
	requestor, err := requestorFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.writeDocuments(w, r, requestor.ID, requestor)
}

func (h *Handler) listUserDocuments(w http.ResponseWriter, r *http.Request) {
	requestor, err := requestorFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	userID, err := idParam(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.writeDocuments(w, r, userID, requestor)
}

func (h *Handler) writeDocuments(w http.ResponseWriter, r *http.Request, userID int64, requestor models.Requestor) {
	documents, err := h.services.DocumentService.ListDocuments(r.Context(), userID, requestor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if documents == nil {
		documents = []models.Document{}
	}

	utils.WriteJSON(w, models.DocumentsResponse{Documents: documents, Length: len(documents)}, http.StatusOK)
}

func (h *Handler) getOwnDocument(w http.ResponseWriter, r *http.Request) {
	requestor, err := requestorFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.writeDocument(w, r, requestor.ID, requestor)
}

func (h *Handler) getUserDocument(w http.ResponseWriter, r *http.Request) {
	requestor, userID, err := targetFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.writeDocument(w, r, userID, requestor)
}

func (h *Handler) downloadOwnDocument(w http.ResponseWriter, r *http.Request) {
	requestor, err := requestorFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.serveDocument(w, r, requestor.ID, requestor)
}

func (h *Handler) downloadUserDocument(w http.ResponseWriter, r *http.Request) {
	requestor, userID, err := targetFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.serveDocument(w, r, userID, requestor)
}

func (h *Handler) writeDocument(w http.ResponseWriter, r *http.Request, userID int64, requestor models.Requestor) {
	documentID, err := idParam(r, "documentID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	doc, err := h.services.DocumentService.GetDocument(r.Context(), userID, documentID, requestor)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, models.DocumentResponse{Document: doc}, http.StatusOK)
}

// serveDocument streams the stored file as an attachment under its
// original name.
func (h *Handler) serveDocument(w http.ResponseWriter, r *http.Request, userID int64, requestor models.Requestor) {
	log := logger.FromRequest(r).With().Str("func", "*Handler.serveDocument").Logger()

	documentID, err := idParam(r, "documentID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	doc, content, err := h.services.DocumentService.OpenDocument(r.Context(), userID, documentID, requestor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer content.Close()

	contentType := doc.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename}))
	w.WriteHeader(http.StatusOK)

	if _, err = io.Copy(w, content); err != nil {
		log.Warn().Err(err).Int64("document_id", documentID).Msg("download interrupted")
	}
}

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/MKhiriev/go-doc-locker/internal/utils"
	"github.com/MKhiriev/go-doc-locker/models"
)

// targetFromRequest resolves the caller and the {userID} path parameter.
func targetFromRequest(r *http.Request) (models.Requestor, int64, error) {
	requestor, err := requestorFrom(r)
	if err != nil {
		return models.Requestor{}, 0, err
	}
	userID, err := idParam(r, "userID")
	if err != nil {
		return models.Requestor{}, 0, err
	}
	return requestor, userID, nil
}

// getProfile answers 200 with a null profile when none is available yet.
func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	requestor, userID, err := targetFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	view, err := h.services.ProfileService.GetCurrent(r.Context(), userID, requestor)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, models.ProfileResponse{Profile: view}, http.StatusOK)
}

// regenerateProfile accepts an optional JSON body with a seed.
func (h *Handler) regenerateProfile(w http.ResponseWriter, r *http.Request) {
	requestor, userID, err := targetFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var body models.RegenerateRequest
	if err = json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, fmt.Errorf("%w: %w", errInvalidJSON, err))
		return
	}

	view, err := h.services.ProfileService.Regenerate(r.Context(), userID, requestor, body.Seed)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, models.RegenerateResponse{Version: view.Version, Profile: view}, http.StatusOK)
}

func (h *Handler) listProfileVersions(w http.ResponseWriter, r *http.Request) {
	requestor, userID, err := targetFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	versions, err := h.services.ProfileService.ListVersions(r.Context(), userID, requestor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if versions == nil {
		versions = []models.ProfileVersion{}
	}

	utils.WriteJSON(w, models.VersionsResponse{Versions: versions, Length: len(versions)}, http.StatusOK)
}

func (h *Handler) getProfileVersion(w http.ResponseWriter, r *http.Request) {
	requestor, userID, err := targetFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	version, err := idParam(r, "version")
	if err != nil {
		writeError(w, r, err)
		return
	}

	found, err := h.services.ProfileService.GetVersion(r.Context(), userID, version, requestor)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, found, http.StatusOK)
}

// exportProfile returns the current profile as a Markdown attachment.
func (h *Handler) exportProfile(w http.ResponseWriter, r *http.Request) {
	requestor, userID, err := targetFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	markdown, err := h.services.ProfileService.Export(r.Context(), userID, requestor)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="profile-%d.md"`, userID))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, markdown)
}

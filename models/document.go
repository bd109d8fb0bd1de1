// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// DocumentStatus is the extraction state of an uploaded document.
type DocumentStatus string

const (
	// DocumentUploaded is the initial state right after the file is stored.
	DocumentUploaded DocumentStatus = "uploaded"

	// DocumentProcessing means the document waits for (re-)extraction.
	DocumentProcessing DocumentStatus = "processing"

	// DocumentDone means extraction produced text.
	DocumentDone DocumentStatus = "done"

	// DocumentFailed means extraction produced no text, or the document was
	// removed by an administrator (see Document.RemovedAt).
	DocumentFailed DocumentStatus = "failed"
)

// Document is an uploaded file owned by a single user together with the text
// extracted from it.
type Document struct {
	ID       int64  `json:"id"`
	UserID   int64  `json:"user_id"`
	Filename string `json:"filename"`

	// StoredPath is the location of the raw file inside the upload directory.
	StoredPath string `json:"-"`
	MimeType   string `json:"mime_type"`
	Size       int64  `json:"size"`

	// ExtractedText is nil while extraction is pending.
	ExtractedText *string `json:"extracted_text,omitempty"`

	Status     DocumentStatus `json:"status"`
	UploadedAt time.Time      `json:"uploaded_at"`

	// RemovedAt is the tombstone set by an administrative file removal.
	// It is kept apart from Status so "file removed" is not confused with
	// "file unreadable".
	RemovedAt *time.Time `json:"removed_at,omitempty"`
}

// TableName returns the name of the database table
// associated with the Document model.
func (d Document) TableName() string {
	return "documents"
}

// UploadRequest carries a file received by the transport layer.
type UploadRequest struct {
	UserID   int64
	Filename string
	MimeType string
	Size     int64
}

// UploadResult is returned to the uploader: ingestion always succeeds
// independently of the profile outcome, so Profile may be nil.
type UploadResult struct {
	Document Document     `json:"document"`
	Profile  *ProfileView `json:"profile"`
}

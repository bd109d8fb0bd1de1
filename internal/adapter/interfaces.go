// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter holds the clients for the external collaborators of the
// profile pipeline: the generative model that derives profiles, the text
// extraction backends and the audit event bus.
//
// Every adapter is consumed through an interface so the service layer can be
// tested with the gomock doubles in internal/mock. Transport failures are
// reported with the sentinel values in errors.go; callers decide how to map
// them.
package adapter

import (
	"context"
	"encoding/json"

	"github.com/MKhiriev/go-doc-locker/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/adapter_mock.go -package=mock

// ProfileGenerator derives a structured profile from a user's combined text.
// Output is non-deterministic: a seed asks for a different variation but the
// result is not guaranteed to be valid. Validation is the caller's job.
type ProfileGenerator interface {
	Derive(ctx context.Context, text string, seed *int64) (json.RawMessage, error)
}

// TextExtractor turns a stored file into plain text. It never fails: any
// error is logged and reported as empty text.
type TextExtractor interface {
	Extract(ctx context.Context, path, mimeType string) string
}

// EventPublisher fans an audit event out to subscribers outside the process.
type EventPublisher interface {
	Publish(ctx context.Context, event models.AuditEvent) error
	Close() error
}

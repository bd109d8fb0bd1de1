// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"time"
)

// ProfilePayload is the structured profile shape expected from the generator.
// Every field may be empty; the object as a whole may not.
type ProfilePayload struct {
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	Education      string   `json:"education"`
	Skills         []string `json:"skills"`
	Certifications []string `json:"certifications"`
	Achievements   []string `json:"achievements"`
	Summary        string   `json:"summary"`
}

// ProfileVersion is one immutable generation of a user's profile.
// The pair (UserID, Version) is unique; versions per user are 1..N.
type ProfileVersion struct {
	UserID  int64 `json:"user_id"`
	Version int64 `json:"version"`

	// Payload holds the generator output exactly as it was accepted.
	Payload json.RawMessage `json:"payload"`

	// Rendered is an optional exportable representation (Markdown).
	Rendered  *string   `json:"rendered,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the name of the database table
// associated with the ProfileVersion model.
func (p ProfileVersion) TableName() string {
	return "profile_versions"
}

// LegacyProfile is the single-row, non-versioned profile record.
type LegacyProfile struct {
	UserID      int64           `json:"user_id"`
	Payload     json.RawMessage `json:"payload"`
	LastUpdated time.Time       `json:"last_updated"`
}

// TableName returns the name of the database table
// associated with the LegacyProfile model.
func (l LegacyProfile) TableName() string {
	return "user_profile"
}

// ProfileSource tells where a returned profile came from.
type ProfileSource string

const (
	SourcePointer   ProfileSource = "pointer"
	SourceLegacy    ProfileSource = "legacy"
	SourceGenerated ProfileSource = "generated"
)

// ProfileView is what callers get back from the lifecycle manager.
// Version is zero when the payload comes from the legacy store.
type ProfileView struct {
	UserID   int64           `json:"user_id"`
	Version  int64           `json:"version,omitempty"`
	Source   ProfileSource   `json:"source"`
	Payload  json.RawMessage `json:"payload"`
	Rendered *string         `json:"-"`
}

// RegenerateRequest is the body of a regeneration request.
type RegenerateRequest struct {
	// Seed asks the generator for a different variation. Optional.
	Seed *int64 `json:"seed,omitempty"`
}

// StorageShape names which profile storage layout is available.
type StorageShape int

const (
	// ShapeLegacy means only the single-row user_profile table exists.
	ShapeLegacy StorageShape = iota

	// ShapeVersioned means profile_versions and profile_pointers exist.
	ShapeVersioned
)

// String implements fmt.Stringer.
func (s StorageShape) String() string {
	if s == ShapeVersioned {
		return "versioned"
	}
	return "legacy"
}

// StorageCapabilities describes the schema features detected at start-up.
type StorageCapabilities struct {
	Shape StorageShape
}

// Versioned reports whether the versioned profile shape is active.
func (c StorageCapabilities) Versioned() bool {
	return c.Shape == ShapeVersioned
}

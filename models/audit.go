// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"time"
)

// AuditAction tags an audit event.
type AuditAction string

const (
	AuditRegenerate AuditAction = "REGENERATE"
	AuditDeleteFile AuditAction = "DELETE_FILE"
	AuditReExtract  AuditAction = "REEXTRACT"
	AuditLockUser   AuditAction = "LOCK_USER"
	AuditUnlockUser AuditAction = "UNLOCK_USER"
	AuditDeleteUser AuditAction = "DELETE_USER"
)

// AuditEvent is an append-only record of an action affecting a user's data.
// ActorID and TargetUserID are weak references: the event outlives both users.
type AuditEvent struct {
	ID           int64           `json:"id"`
	ActorID      int64           `json:"actor_id"`
	TargetUserID int64           `json:"target_user_id"`
	Action       AuditAction     `json:"action"`
	Detail       json.RawMessage `json:"detail,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// TableName returns the name of the database table
// associated with the AuditEvent model.
func (a AuditEvent) TableName() string {
	return "audit_events"
}

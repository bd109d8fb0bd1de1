// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"github.com/MKhiriev/go-doc-locker/internal/config"
	"github.com/MKhiriev/go-doc-locker/internal/logger"
	"github.com/MKhiriev/go-doc-locker/internal/utils"
)

// Storages groups every persistence component the services depend on.
type Storages struct {
	UserRepository     UserRepository
	DocumentRepository DocumentRepository
	ProfileRepository  ProfileRepository
	AuditRepository    AuditRepository
	FileStorage        FileStorage
}

// NewStorages builds the repositories on top of db and the upload file store.
func NewStorages(db *DB, cfg config.Files, log *logger.Logger) (*Storages, error) {
	files, err := NewDocumentFileStorage(cfg.UploadDir, utils.NewUUIDGenerator(), log)
	if err != nil {
		return nil, err
	}

	return &Storages{
		UserRepository:     NewUserRepository(db, log),
		DocumentRepository: NewDocumentRepository(db, log),
		ProfileRepository:  NewProfileRepository(db, log),
		AuditRepository:    NewAuditRepository(db, log),
		FileStorage:        files,
	}, nil
}

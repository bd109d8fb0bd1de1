// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-doc-locker/internal/logger"
	"github.com/MKhiriev/go-doc-locker/migrations"
	"github.com/MKhiriev/go-doc-locker/models"
)

func seedUser(t *testing.T, db *DB, email string) models.User {
	t.Helper()
	user, err := NewUserRepository(db, logger.Nop()).CreateUser(testContext(), models.User{
		Name:         "Test",
		Email:        email,
		PasswordHash: "hash",
		Role:         models.RoleUser,
		Status:       models.UserActive,
	})
	require.NoError(t, err)
	return user
}

func TestSQLite_ProbeCapabilities(t *testing.T) {
	legacy := newSQLiteDB(t, migrations.VersionLegacy)
	caps, err := legacy.ProbeCapabilities(testContext())
	require.NoError(t, err)
	assert.Equal(t, models.ShapeLegacy, caps.Shape)

	versioned := newSQLiteDB(t, 0)
	caps, err = versioned.ProbeCapabilities(testContext())
	require.NoError(t, err)
	assert.Equal(t, models.ShapeVersioned, caps.Shape)
}

func TestSQLite_DuplicateEmail(t *testing.T) {
	db := newSQLiteDB(t, 0)
	seedUser(t, db, "dup@example.com")

	_, err := NewUserRepository(db, logger.Nop()).CreateUser(testContext(), models.User{
		Name: "Other", Email: "dup@example.com", PasswordHash: "h", Role: models.RoleUser, Status: models.UserActive,
	})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestSQLite_ConcurrentCommitsAreDense(t *testing.T) {
	db := newSQLiteDB(t, 0)
	user := seedUser(t, db, "versions@example.com")
	repo := NewProfileRepository(db, logger.Nop())

	const commits = 8
	var wg sync.WaitGroup
	errs := make(chan error, commits)
	for i := range commits {
		wg.Add(1)
		go func() {
			defer wg.Done()
			payload := json.RawMessage(fmt.Sprintf(`{"name":"v%d"}`, i))
			_, err := repo.CommitVersion(testContext(), user.UserID, payload, nil)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	versions, err := repo.ListVersions(testContext(), user.UserID)
	require.NoError(t, err)
	require.Len(t, versions, commits)
	for i, v := range versions {
		assert.Equal(t, int64(i+1), v.Version)
	}

	current, err := repo.GetCurrentVersion(testContext(), user.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(commits), current.Version)
}

func TestSQLite_PayloadRoundTripIsByteIdentical(t *testing.T) {
	db := newSQLiteDB(t, 0)
	user := seedUser(t, db, "bytes@example.com")
	repo := NewProfileRepository(db, logger.Nop())

	payload := json.RawMessage("{\"skills\": [\"go\",  \"sql\"],\n \"name\":\"Zoë\"}")
	rendered := "# Zoë"

	committed, err := repo.CommitVersion(testContext(), user.UserID, payload, &rendered)
	require.NoError(t, err)

	read, err := repo.GetVersion(testContext(), user.UserID, committed.Version)
	require.NoError(t, err)
	assert.Equal(t, []byte(payload), []byte(read.Payload))
	require.NotNil(t, read.Rendered)
	assert.Equal(t, rendered, *read.Rendered)
}

func TestSQLite_LegacyProfile(t *testing.T) {
	db := newSQLiteDB(t, migrations.VersionLegacy)
	user := seedUser(t, db, "legacy@example.com")
	repo := NewProfileRepository(db, logger.Nop())

	_, err := repo.GetLegacy(testContext(), user.UserID)
	require.ErrorIs(t, err, ErrProfileNotFound)

	_, err = repo.SaveLegacy(testContext(), user.UserID, json.RawMessage(`{"name":"a"}`))
	require.NoError(t, err)
	_, err = repo.SaveLegacy(testContext(), user.UserID, json.RawMessage(`{"name":"b"}`))
	require.NoError(t, err)

	legacy, err := repo.GetLegacy(testContext(), user.UserID)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"b"}`, string(legacy.Payload))
}

func TestSQLite_DocumentLifecycle(t *testing.T) {
	db := newSQLiteDB(t, 0)
	owner := seedUser(t, db, "owner@example.com")
	other := seedUser(t, db, "other@example.com")
	docs := NewDocumentRepository(db, logger.Nop())
	ctx := testContext()

	base := time.Now().UTC()
	first, err := docs.CreateDocument(ctx, models.Document{
		UserID: owner.UserID, Filename: "a.pdf", StoredPath: "/u/a.pdf", MimeType: "application/pdf",
		Status: models.DocumentProcessing, UploadedAt: base,
	})
	require.NoError(t, err)
	second, err := docs.CreateDocument(ctx, models.Document{
		UserID: owner.UserID, Filename: "b.png", StoredPath: "/u/b.png", MimeType: "image/png",
		Status: models.DocumentProcessing, UploadedAt: base.Add(time.Second),
	})
	require.NoError(t, err)

	_, err = docs.GetDocument(ctx, other.UserID, first.ID)
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	pending, err := docs.ListByStatus(ctx, models.DocumentProcessing, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)

	textA, textB := "alpha", "beta"
	require.NoError(t, docs.SaveExtraction(ctx, second.ID, &textB, models.DocumentDone))
	require.NoError(t, docs.SaveExtraction(ctx, first.ID, &textA, models.DocumentDone))
	assert.ErrorIs(t, docs.SaveExtraction(ctx, first.ID, &textA, models.DocumentDone), ErrDocumentNotFound)

	texts, err := docs.ExtractedTexts(ctx, owner.UserID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, texts)

	removedAt := base.Add(time.Minute)
	require.NoError(t, docs.MarkRemoved(ctx, owner.UserID, first.ID, removedAt))
	require.NoError(t, docs.MarkRemoved(ctx, owner.UserID, first.ID, removedAt.Add(time.Hour)))

	removed, err := docs.GetDocument(ctx, owner.UserID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DocumentFailed, removed.Status)
	require.NotNil(t, removed.RemovedAt)
	assert.True(t, removed.RemovedAt.Equal(removedAt))
	require.NotNil(t, removed.ExtractedText)

	// removed documents keep contributing their text
	texts, err = docs.ExtractedTexts(ctx, owner.UserID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, texts)

	listed, err := docs.ListDocuments(ctx, owner.UserID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, second.ID, listed[0].ID)
}

func TestSQLite_DeleteUserCascades(t *testing.T) {
	db := newSQLiteDB(t, 0)
	user := seedUser(t, db, "gone@example.com")
	ctx := testContext()

	_, err := NewDocumentRepository(db, logger.Nop()).CreateDocument(ctx, models.Document{
		UserID: user.UserID, Filename: "a.pdf", StoredPath: "/u/a.pdf", MimeType: "application/pdf",
	})
	require.NoError(t, err)
	profiles := NewProfileRepository(db, logger.Nop())
	_, err = profiles.CommitVersion(ctx, user.UserID, json.RawMessage(`{"name":"x"}`), nil)
	require.NoError(t, err)

	paths, err := NewUserRepository(db, logger.Nop()).DeleteUser(ctx, user.UserID)
	require.NoError(t, err)
	assert.Equal(t, []string{"/u/a.pdf"}, paths)

	_, err = NewUserRepository(db, logger.Nop()).DeleteUser(ctx, user.UserID)
	assert.ErrorIs(t, err, ErrNoUserWasFound)

	var count int
	for _, table := range []string{"documents", "profile_versions", "profile_pointers"} {
		require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count))
		assert.Zero(t, count, table)
	}

	_, err = profiles.GetCurrentVersion(ctx, user.UserID)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

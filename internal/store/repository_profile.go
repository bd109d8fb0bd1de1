// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-doc-locker/internal/logger"
	"github.com/MKhiriev/go-doc-locker/migrations"
	"github.com/MKhiriev/go-doc-locker/models"
)

const (
	profilePointersTable = "profile_pointers"

	// advisoryLockProfile serialises version allocation per user across
	// server processes sharing one PostgreSQL database.
	advisoryLockProfile = `SELECT pg_advisory_xact_lock($1)`
)

var profileVersionColumns = []string{"user_id", "version", "payload", "rendered", "created_at"}

// profileRepository implements [ProfileRepository]: the append-only
// profile_versions ledger, the profile_pointers table and the legacy
// single-row user_profile table.
type profileRepository struct {
	*DB
	logger *logger.Logger
	now    func() time.Time
}

// NewProfileRepository constructs a [ProfileRepository] backed by db.
func NewProfileRepository(db *DB, logger *logger.Logger) ProfileRepository {
	logger.Debug().Msg("creating profile repository")
	return &profileRepository{
		DB:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CommitVersion allocates the next version number, inserts the version row
// and then upserts the pointer, all inside one transaction. The version row
// goes first so an interrupted commit can at worst leave an unreferenced
// version, never a pointer to a missing one.
//
// On PostgreSQL a transaction-scoped advisory lock keyed by the user id
// serialises concurrent commits for the same user. SQLite transactions are
// opened IMMEDIATE, which takes the database write lock up front.
func (p *profileRepository) CommitVersion(ctx context.Context, userID int64, payload json.RawMessage, rendered *string) (models.ProfileVersion, error) {
	log := logger.FromContext(ctx).With().Int64("user_id", userID).Logger()

	tx, err := p.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "profileRepository.CommitVersion").Str("class", p.classify(err)).Msg("failed to begin transaction")
		return models.ProfileVersion{}, fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	if p.dialect == migrations.DialectPostgres {
		if _, err = tx.ExecContext(ctx, advisoryLockProfile, userID); err != nil {
			log.Err(err).Str("func", "profileRepository.CommitVersion").Str("class", p.classify(err)).Msg("failed to take advisory lock")
			return models.ProfileVersion{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
		}
	}

	nextQuery, nextArgs, err := p.builder.
		Select("COALESCE(MAX(version), 0) + 1").
		From(models.ProfileVersion{}.TableName()).
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		log.Err(err).Str("func", "profileRepository.CommitVersion").Msg("failed to build next version query")
		return models.ProfileVersion{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	version := models.ProfileVersion{
		UserID:    userID,
		Payload:   payload,
		Rendered:  rendered,
		CreatedAt: p.now(),
	}

	if err = tx.QueryRowContext(ctx, nextQuery, nextArgs...).Scan(&version.Version); err != nil {
		log.Err(err).Str("func", "profileRepository.CommitVersion").Str("class", p.classify(err)).Msg("failed to allocate version")
		return models.ProfileVersion{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	insertQuery, insertArgs, err := p.builder.
		Insert(version.TableName()).
		Columns(profileVersionColumns...).
		Values(userID, version.Version, string(payload), nullString(rendered), version.CreatedAt).
		ToSql()
	if err != nil {
		log.Err(err).Str("func", "profileRepository.CommitVersion").Msg("failed to build insert query")
		return models.ProfileVersion{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
		if isUniqueViolation(err) {
			log.Error().Str("func", "profileRepository.CommitVersion").Int64("version", version.Version).Msg("version already exists")
			return models.ProfileVersion{}, fmt.Errorf("%w: version %d", ErrVersionConflict, version.Version)
		}
		log.Err(err).Str("func", "profileRepository.CommitVersion").Str("class", p.classify(err)).Msg("failed to insert version")
		return models.ProfileVersion{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	pointerQuery, pointerArgs, err := p.builder.
		Insert(profilePointersTable).
		Columns("user_id", "current_version", "updated_at").
		Values(userID, version.Version, version.CreatedAt).
		Suffix("ON CONFLICT (user_id) DO UPDATE SET current_version = excluded.current_version, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		log.Err(err).Str("func", "profileRepository.CommitVersion").Msg("failed to build pointer query")
		return models.ProfileVersion{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = tx.ExecContext(ctx, pointerQuery, pointerArgs...); err != nil {
		log.Err(err).Str("func", "profileRepository.CommitVersion").Str("class", p.classify(err)).Msg("failed to update pointer")
		return models.ProfileVersion{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	if err = tx.Commit(); err != nil {
		log.Err(err).Str("func", "profileRepository.CommitVersion").Str("class", p.classify(err)).Msg("failed to commit version")
		return models.ProfileVersion{}, fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	log.Info().Str("func", "profileRepository.CommitVersion").Int64("version", version.Version).Msg("profile version committed")
	return version, nil
}

// GetCurrentVersion returns the version referenced by the user's pointer.
func (p *profileRepository) GetCurrentVersion(ctx context.Context, userID int64) (models.ProfileVersion, error) {
	builder := p.builder.
		Select("v.user_id", "v.version", "v.payload", "v.rendered", "v.created_at").
		From(profilePointersTable + " p").
		Join("profile_versions v ON v.user_id = p.user_id AND v.version = p.current_version").
		Where(sq.Eq{"p.user_id": userID})

	return p.queryVersion(ctx, builder, "profileRepository.GetCurrentVersion")
}

// GetVersion returns one version of the user's profile.
func (p *profileRepository) GetVersion(ctx context.Context, userID, version int64) (models.ProfileVersion, error) {
	builder := p.builder.
		Select(profileVersionColumns...).
		From(models.ProfileVersion{}.TableName()).
		Where(sq.Eq{"user_id": userID, "version": version})

	return p.queryVersion(ctx, builder, "profileRepository.GetVersion")
}

func (p *profileRepository) queryVersion(ctx context.Context, builder sq.SelectBuilder, fn string) (models.ProfileVersion, error) {
	log := logger.FromContext(ctx)

	query, args, err := builder.ToSql()
	if err != nil {
		log.Err(err).Str("func", fn).Msg("failed to build query")
		return models.ProfileVersion{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	version, err := scanProfileVersion(p.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.ProfileVersion{}, ErrProfileNotFound
	}
	if err != nil {
		log.Err(err).Str("func", fn).Str("class", p.classify(err)).Msg("failed to read profile version")
		return models.ProfileVersion{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return version, nil
}

// ListVersions returns every version of the user, oldest first.
func (p *profileRepository) ListVersions(ctx context.Context, userID int64) ([]models.ProfileVersion, error) {
	log := logger.FromContext(ctx)

	query, args, err := p.builder.
		Select(profileVersionColumns...).
		From(models.ProfileVersion{}.TableName()).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("version").
		ToSql()
	if err != nil {
		log.Err(err).Str("func", "profileRepository.ListVersions").Msg("failed to build query")
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := p.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "profileRepository.ListVersions").Str("class", p.classify(err)).Msg("failed to query versions")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	versions := make([]models.ProfileVersion, 0)
	for rows.Next() {
		version, scanErr := scanProfileVersion(rows)
		if scanErr != nil {
			log.Err(scanErr).Str("func", "profileRepository.ListVersions").Msg("failed to scan version row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}
		versions = append(versions, version)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return versions, nil
}

// GetLegacy returns the single-row legacy profile of the user.
func (p *profileRepository) GetLegacy(ctx context.Context, userID int64) (models.LegacyProfile, error) {
	log := logger.FromContext(ctx)

	query, args, err := p.builder.
		Select("user_id", "payload", "last_updated").
		From(models.LegacyProfile{}.TableName()).
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		log.Err(err).Str("func", "profileRepository.GetLegacy").Msg("failed to build query")
		return models.LegacyProfile{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var (
		legacy  models.LegacyProfile
		payload []byte
	)
	err = p.QueryRowContext(ctx, query, args...).Scan(&legacy.UserID, &payload, &legacy.LastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return models.LegacyProfile{}, ErrProfileNotFound
	}
	if err != nil {
		log.Err(err).Str("func", "profileRepository.GetLegacy").Str("class", p.classify(err)).Msg("failed to read legacy profile")
		return models.LegacyProfile{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	legacy.Payload = payload
	return legacy, nil
}

// SaveLegacy creates or replaces the legacy profile record.
func (p *profileRepository) SaveLegacy(ctx context.Context, userID int64, payload json.RawMessage) (models.LegacyProfile, error) {
	log := logger.FromContext(ctx)

	legacy := models.LegacyProfile{UserID: userID, Payload: payload, LastUpdated: p.now()}

	query, args, err := p.builder.
		Insert(legacy.TableName()).
		Columns("user_id", "payload", "last_updated").
		Values(userID, string(payload), legacy.LastUpdated).
		Suffix("ON CONFLICT (user_id) DO UPDATE SET payload = excluded.payload, last_updated = excluded.last_updated").
		ToSql()
	if err != nil {
		log.Err(err).Str("func", "profileRepository.SaveLegacy").Msg("failed to build query")
		return models.LegacyProfile{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = p.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).Str("func", "profileRepository.SaveLegacy").Str("class", p.classify(err)).Msg("failed to save legacy profile")
		return models.LegacyProfile{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return legacy, nil
}

func scanProfileVersion(row interface{ Scan(dest ...any) error }) (models.ProfileVersion, error) {
	var (
		version  models.ProfileVersion
		payload  []byte
		rendered sql.NullString
	)

	if err := row.Scan(&version.UserID, &version.Version, &payload, &rendered, &version.CreatedAt); err != nil {
		return models.ProfileVersion{}, err
	}

	version.Payload = payload
	if rendered.Valid {
		version.Rendered = &rendered.String
	}

	return version, nil
}

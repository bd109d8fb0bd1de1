package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-doc-locker/internal/logger"
	"github.com/MKhiriev/go-doc-locker/migrations"
	"github.com/MKhiriev/go-doc-locker/models"
)

const (
	probePointerColumnPostgres = `
		SELECT COUNT(*)
		FROM information_schema.columns
		WHERE table_schema = current_schema()
		  AND table_name = 'profile_pointers'
		  AND column_name = 'current_version'`

	probePointerColumnSQLite = `
		SELECT COUNT(*)
		FROM pragma_table_info('profile_pointers')
		WHERE name = 'current_version'`
)

// ProbeCapabilities checks whether profile_pointers.current_version exists
// and reports the versioned shape if it does. It is meant to run once at
// start-up; the result is injected into the profile lifecycle manager.
func (db *DB) ProbeCapabilities(ctx context.Context) (models.StorageCapabilities, error) {
	log := logger.FromContext(ctx)

	query := probePointerColumnSQLite
	if db.dialect == migrations.DialectPostgres {
		query = probePointerColumnPostgres
	}

	var count int
	if err := db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		log.Err(err).Str("func", "*DB.ProbeCapabilities").Msg("failed to inspect schema")
		return models.StorageCapabilities{}, fmt.Errorf("%w: %w", ErrProbingSchema, err)
	}

	caps := models.StorageCapabilities{Shape: models.ShapeLegacy}
	if count > 0 {
		caps.Shape = models.ShapeVersioned
	}

	log.Info().Str("func", "*DB.ProbeCapabilities").Str("shape", caps.Shape.String()).Msg("storage capabilities resolved")
	return caps, nil
}

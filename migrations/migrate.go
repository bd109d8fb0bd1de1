// Package migrations embeds the SQL schema for every supported database
// dialect and applies it with goose.
//
// Version 1 creates the base schema with the single-row user_profile table.
// Version 2 adds the versioned profile_versions/profile_pointers pair.
// A database migrated only to version 1 runs in legacy profile mode.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed postgres/*.sql sqlite/*.sql
var embedMigrations embed.FS

// Supported dialect names.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// Schema versions.
const (
	VersionLegacy    int64 = 1
	VersionVersioned int64 = 2
)

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

// Migrate applies every pending migration for dialect.
func Migrate(ctx context.Context, db *sql.DB, dialect string) error {
	return run(ctx, db, dialect, func(dir string) error {
		return goose.UpContext(ctx, db, dir)
	})
}

// MigrateTo applies pending migrations up to and including version.
func MigrateTo(ctx context.Context, db *sql.DB, dialect string, version int64) error {
	return run(ctx, db, dialect, func(dir string) error {
		return goose.UpToContext(ctx, db, dir, version)
	})
}

func run(ctx context.Context, db *sql.DB, dialect string, up func(dir string) error) error {
	if db == nil {
		return errors.New("migration error: db is nil")
	}

	gooseDialect, dir, err := resolve(dialect)
	if err != nil {
		return err
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(embedMigrations)
	defer goose.SetBaseFS(nil)

	if err = goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("migration error setting dialect for db: %w", err)
	}

	if err = up(dir); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	return nil
}

func resolve(dialect string) (gooseDialect, dir string, err error) {
	switch dialect {
	case DialectPostgres:
		return "pgx", "postgres", nil
	case DialectSQLite:
		return "sqlite3", "sqlite", nil
	default:
		return "", "", fmt.Errorf("migration error: unsupported dialect %q", dialect)
	}
}

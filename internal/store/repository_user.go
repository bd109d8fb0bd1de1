package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-doc-locker/internal/logger"
	"github.com/MKhiriev/go-doc-locker/migrations"
	"github.com/MKhiriev/go-doc-locker/models"
)

var userColumns = []string{
	"user_id", "name", "email", "password_hash", "role", "status", "created_at", "last_active_at",
}

// userRepository implements [UserRepository] against the "users" table.
//
// All methods obtain a context-scoped logger via [logger.FromContext] for
// structured, request-level tracing of database interactions.
type userRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewUserRepository constructs a [UserRepository] backed by db.
func NewUserRepository(db *DB, logger *logger.Logger) UserRepository {
	logger.Debug().Msg("creating user repository")
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

// CreateUser inserts the user and returns it with the generated id.
// A duplicate email yields [ErrEmailAlreadyExists].
func (r *userRepository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	log := logger.FromContext(ctx)

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	query, args, err := r.db.builder.
		Insert(user.TableName()).
		Columns("name", "email", "password_hash", "role", "status", "created_at").
		Values(user.Name, user.Email, user.PasswordHash, string(user.Role), string(user.Status), user.CreatedAt).
		Suffix("RETURNING user_id").
		ToSql()
	if err != nil {
		log.Err(err).Str("func", "*userRepository.CreateUser").Msg("failed to build query")
		return models.User{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if err = r.db.QueryRowContext(ctx, query, args...).Scan(&user.UserID); err != nil {
		if isUniqueViolation(err) {
			log.Warn().Str("func", "*userRepository.CreateUser").Str("email", user.Email).Msg("email already exists")
			return models.User{}, ErrEmailAlreadyExists
		}
		log.Err(err).Str("func", "*userRepository.CreateUser").Str("class", r.db.classify(err)).Msg("failed to insert user")
		return models.User{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return user, nil
}

// FindUserByEmail looks a user up by the normalised email.
func (r *userRepository) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, "*userRepository.FindUserByEmail", sq.Eq{"email": email})
}

// FindUserByID looks a user up by id.
func (r *userRepository) FindUserByID(ctx context.Context, userID int64) (models.User, error) {
	return r.findOne(ctx, "*userRepository.FindUserByID", sq.Eq{"user_id": userID})
}

func (r *userRepository) findOne(ctx context.Context, fn string, where sq.Eq) (models.User, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.db.builder.
		Select(userColumns...).
		From(models.User{}.TableName()).
		Where(where).
		ToSql()
	if err != nil {
		log.Err(err).Str("func", fn).Msg("failed to build query")
		return models.User{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNoUserWasFound
	}
	if err != nil {
		log.Err(err).Str("func", fn).Str("class", r.db.classify(err)).Msg("failed to find user")
		return models.User{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return user, nil
}

// UpdateStatus sets the account status.
func (r *userRepository) UpdateStatus(ctx context.Context, userID int64, status models.UserStatus) error {
	builder := r.db.builder.
		Update(models.User{}.TableName()).
		Set("status", string(status)).
		Where(sq.Eq{"user_id": userID})

	return execAffecting(ctx, r.db, builder, ErrNoUserWasFound, "*userRepository.UpdateStatus")
}

// TouchLastActive records the time of the latest authenticated request.
func (r *userRepository) TouchLastActive(ctx context.Context, userID int64, at time.Time) error {
	builder := r.db.builder.
		Update(models.User{}.TableName()).
		Set("last_active_at", at).
		Where(sq.Eq{"user_id": userID})

	return execAffecting(ctx, r.db, builder, ErrNoUserWasFound, "*userRepository.TouchLastActive")
}

// DeleteUser removes the user row; foreign keys cascade to the remaining
// owned data. Document rows are deleted first in the same transaction and
// their stored paths returned, so the caller removes exactly the files whose
// rows are gone. On PostgreSQL the user row is locked up front, which makes a
// concurrent document insert for the user wait and then fail its foreign key.
func (r *userRepository) DeleteUser(ctx context.Context, userID int64) ([]string, error) {
	log := logger.FromContext(ctx).With().Str("func", "*userRepository.DeleteUser").Int64("user_id", userID).Logger()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("class", r.db.classify(err)).Msg("failed to begin transaction")
		return nil, fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	lock := r.db.builder.
		Select("user_id").
		From(models.User{}.TableName()).
		Where(sq.Eq{"user_id": userID})
	if r.db.dialect == migrations.DialectPostgres {
		lock = lock.Suffix("FOR UPDATE")
	}
	lockQuery, lockArgs, err := lock.ToSql()
	if err != nil {
		log.Err(err).Msg("failed to build lock query")
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var found int64
	if err = tx.QueryRowContext(ctx, lockQuery, lockArgs...).Scan(&found); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoUserWasFound
		}
		log.Err(err).Str("class", r.db.classify(err)).Msg("failed to lock user")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	documentsQuery, documentsArgs, err := r.db.builder.
		Delete(models.Document{}.TableName()).
		Where(sq.Eq{"user_id": userID}).
		Suffix("RETURNING stored_path").
		ToSql()
	if err != nil {
		log.Err(err).Msg("failed to build documents query")
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	storedPaths, err := queryStrings(ctx, tx, documentsQuery, documentsArgs)
	if err != nil {
		log.Err(err).Str("class", r.db.classify(err)).Msg("failed to delete documents")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	userQuery, userArgs, err := r.db.builder.
		Delete(models.User{}.TableName()).
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		log.Err(err).Msg("failed to build delete query")
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = tx.ExecContext(ctx, userQuery, userArgs...); err != nil {
		log.Err(err).Str("class", r.db.classify(err)).Msg("failed to delete user")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	if err = tx.Commit(); err != nil {
		log.Err(err).Str("class", r.db.classify(err)).Msg("failed to commit user deletion")
		return nil, fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	return storedPaths, nil
}

func queryStrings(ctx context.Context, tx *sql.Tx, query string, args []any) ([]string, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var value string
		if err = rows.Scan(&value); err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, rows.Err()
}

func scanUser(row interface{ Scan(dest ...any) error }) (models.User, error) {
	var (
		user         models.User
		role, status string
		lastActive   sql.NullTime
	)

	if err := row.Scan(&user.UserID, &user.Name, &user.Email, &user.PasswordHash, &role, &status, &user.CreatedAt, &lastActive); err != nil {
		return models.User{}, err
	}

	user.Role = models.Role(role)
	user.Status = models.UserStatus(status)
	if lastActive.Valid {
		user.LastActiveAt = &lastActive.Time
	}

	return user, nil
}

// execAffecting runs a write statement and maps zero affected rows to
// notFound.
func execAffecting(ctx context.Context, db *DB, builder sq.Sqlizer, notFound error, fn string) error {
	log := logger.FromContext(ctx)

	query, args, err := builder.ToSql()
	if err != nil {
		log.Err(err).Str("func", fn).Msg("failed to build query")
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", fn).Str("class", db.classify(err)).Msg("failed to execute statement")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		log.Err(err).Str("func", fn).Msg("failed to read affected rows")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	if affected == 0 {
		return notFound
	}

	return nil
}

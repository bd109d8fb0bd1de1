package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrEmailAlreadyExists is returned when a user with the same email
	// already exists.
	ErrEmailAlreadyExists = errors.New("email already exists")

	// ErrNoUserWasFound is returned when the target user does not exist.
	ErrNoUserWasFound = errors.New("no user was found")

	// ErrDocumentNotFound is returned when the document does not exist or
	// belongs to another user.
	ErrDocumentNotFound = errors.New("document was not found")

	// ErrProfileNotFound is returned when no profile version or legacy
	// record exists for the lookup.
	ErrProfileNotFound = errors.New("profile was not found")

	// ErrVersionConflict is returned when the allocated version already
	// exists. It means another writer bypassed the per-user lock.
	ErrVersionConflict = errors.New("profile version conflict occurred")

	// ErrFileNotFound is returned when a stored upload is missing on disk.
	ErrFileNotFound = errors.New("stored file was not found")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when squirrel cannot build a query.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a query fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrBeginningTransaction is returned when the driver cannot start a
	// transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing fails. The
	// transaction is considered rolled back at this point.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrScanningRow is returned when scanning a single row fails.
	ErrScanningRow = errors.New("failed to scan row")

	// ErrScanningRows is returned when iterating a result set fails.
	ErrScanningRows = errors.New("failed to scan rows")

	// ErrProbingSchema is returned when the capability probe cannot
	// inspect the schema.
	ErrProbingSchema = errors.New("failed to probe schema")
)

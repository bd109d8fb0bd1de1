package store

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-doc-locker/internal/logger"
	"github.com/MKhiriev/go-doc-locker/models"
)

// auditRepository implements [AuditRepository] against the append-only
// "audit_events" table. Events are never updated or deleted.
type auditRepository struct {
	*DB
	logger *logger.Logger
}

// NewAuditRepository constructs an [AuditRepository] backed by db.
func NewAuditRepository(db *DB, logger *logger.Logger) AuditRepository {
	logger.Debug().Msg("creating audit repository")
	return &auditRepository{
		DB:     db,
		logger: logger,
	}
}

// SaveEvent appends event and returns it with its id and timestamp.
func (a *auditRepository) SaveEvent(ctx context.Context, event models.AuditEvent) (models.AuditEvent, error) {
	log := logger.FromContext(ctx)

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if len(event.Detail) == 0 {
		event.Detail = []byte("{}")
	}

	query, args, err := a.builder.
		Insert(event.TableName()).
		Columns("actor_id", "target_user_id", "action", "detail", "created_at").
		Values(event.ActorID, event.TargetUserID, string(event.Action), string(event.Detail), event.CreatedAt).
		Suffix("RETURNING event_id").
		ToSql()
	if err != nil {
		log.Err(err).Str("func", "auditRepository.SaveEvent").Msg("failed to build query")
		return models.AuditEvent{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if err = a.QueryRowContext(ctx, query, args...).Scan(&event.ID); err != nil {
		log.Err(err).
			Str("func", "auditRepository.SaveEvent").
			Str("action", string(event.Action)).
			Str("class", a.classify(err)).
			Msg("failed to insert audit event")
		return models.AuditEvent{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return event, nil
}

// ListEvents returns the events targeting a user, oldest first.
func (a *auditRepository) ListEvents(ctx context.Context, targetUserID int64) ([]models.AuditEvent, error) {
	log := logger.FromContext(ctx)

	query, args, err := a.builder.
		Select("event_id", "actor_id", "target_user_id", "action", "detail", "created_at").
		From(models.AuditEvent{}.TableName()).
		Where(sq.Eq{"target_user_id": targetUserID}).
		OrderBy("created_at", "event_id").
		ToSql()
	if err != nil {
		log.Err(err).Str("func", "auditRepository.ListEvents").Msg("failed to build query")
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := a.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "auditRepository.ListEvents").Str("class", a.classify(err)).Msg("failed to query audit events")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	events := make([]models.AuditEvent, 0)
	for rows.Next() {
		var (
			event  models.AuditEvent
			action string
			detail []byte
		)
		if err = rows.Scan(&event.ID, &event.ActorID, &event.TargetUserID, &action, &detail, &event.CreatedAt); err != nil {
			log.Err(err).Str("func", "auditRepository.ListEvents").Msg("failed to scan audit event")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		event.Action = models.AuditAction(action)
		event.Detail = detail
		events = append(events, event)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return events, nil
}

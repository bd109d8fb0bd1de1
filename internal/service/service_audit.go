package service

import (
	"context"
	"encoding/json"

	"github.com/MKhiriev/go-doc-locker/internal/adapter"
	"github.com/MKhiriev/go-doc-locker/internal/logger"
	"github.com/MKhiriev/go-doc-locker/internal/store"
	"github.com/MKhiriev/go-doc-locker/models"
)

// auditService stores audit events and then forwards them to the event
// publisher. Neither step can fail the operation that emitted the event;
// failures are logged at error level for operators.
type auditService struct {
	auditRepository store.AuditRepository
	publisher       adapter.EventPublisher
	logger          *logger.Logger
}

func NewAuditService(auditRepository store.AuditRepository, publisher adapter.EventPublisher, logger *logger.Logger) AuditService {
	if publisher == nil {
		publisher = adapter.NewNopPublisher()
	}

	return &auditService{
		auditRepository: auditRepository,
		publisher:       publisher,
		logger:          logger,
	}
}

// Emit implements [AuditService]. The event is written even if ctx was
// cancelled after the primary operation completed.
func (a *auditService) Emit(ctx context.Context, event models.AuditEvent) {
	ctx = context.WithoutCancel(ctx)
	log := logger.FromContext(ctx)

	saved, err := a.auditRepository.SaveEvent(ctx, event)
	if err != nil {
		log.Error().Err(err).
			Str("func", "auditService.Emit").
			Str("action", string(event.Action)).
			Int64("actor_id", event.ActorID).
			Int64("target_user_id", event.TargetUserID).
			RawJSON("detail", detailOrEmpty(event.Detail)).
			Msg("failed to write audit event")
		saved = event
	}

	if err = a.publisher.Publish(ctx, saved); err != nil {
		log.Warn().Err(err).
			Str("func", "auditService.Emit").
			Str("action", string(event.Action)).
			Msg("failed to publish audit event")
	}
}

func detailOrEmpty(detail json.RawMessage) []byte {
	if len(detail) == 0 || !json.Valid(detail) {
		return []byte("{}")
	}
	return detail
}

// auditDetail encodes a detail payload. The values used by this package
// always encode.
func auditDetail(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("{}")
	}
	return b
}

package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/MKhiriev/go-doc-locker/internal/config"
	"github.com/MKhiriev/go-doc-locker/internal/logger"
	"github.com/MKhiriev/go-doc-locker/models"
)

// natsConn is the part of *nats.Conn the publisher uses.
type natsConn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

type natsPublisher struct {
	conn    natsConn
	subject string
	logger  *logger.Logger

	mu     sync.Mutex
	closed bool
}

// NewNATSPublisher connects to cfg.URL and returns an [EventPublisher]
// publishing JSON-encoded audit events on cfg.Subject.
func NewNATSPublisher(cfg config.NATS, log *logger.Logger) (EventPublisher, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name("go-doc-locker"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Str("func", "NewNATSPublisher").Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("func", "NewNATSPublisher").Str("url", c.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		log.Err(err).Str("func", "NewNATSPublisher").Msg("failed to connect to nats")
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	return newNATSPublisher(conn, cfg.Subject, log), nil
}

func newNATSPublisher(conn natsConn, subject string, log *logger.Logger) *natsPublisher {
	return &natsPublisher{conn: conn, subject: subject, logger: log}
}

// Publish implements [EventPublisher].
func (p *natsPublisher) Publish(ctx context.Context, event models.AuditEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPublisherClosed
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}

	if err = p.conn.Publish(p.subject, data); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "natsPublisher.Publish").
			Str("subject", p.subject).
			Str("action", string(event.Action)).
			Msg("failed to publish audit event")
		return fmt.Errorf("publish audit event: %w", err)
	}

	return nil
}

// Close drains pending messages and closes the connection.
func (p *natsPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	return p.conn.Drain()
}

type nopPublisher struct{}

// NewNopPublisher returns an [EventPublisher] that drops every event. It is
// used when no message bus is configured.
func NewNopPublisher() EventPublisher {
	return nopPublisher{}
}

func (nopPublisher) Publish(context.Context, models.AuditEvent) error { return nil }

func (nopPublisher) Close() error { return nil }

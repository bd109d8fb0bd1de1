// Package grpc exposes the operational gRPC surface of the server: the
// standard health service, reporting whether the database is reachable, and
// server reflection for tooling such as grpcurl.
package grpc

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-doc-locker/internal/logger"
	"github.com/MKhiriev/go-doc-locker/internal/service"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health-checked service name. The empty name reports the
// overall server status and always follows it.
const ServiceName = "doclocker.v1.DocLocker"

// Pinger reports whether the backing database answers.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler is the root gRPC transport handler.
//
// It owns the health server whose status is refreshed by CheckReadiness and
// uses the service layer to stamp responses with the running version.
type Handler struct {
	services *service.Services
	pinger   Pinger
	health   *health.Server

	logger *logger.Logger
}

// NewHandler constructs a [Handler]. Until the first CheckReadiness call both
// health entries report NOT_SERVING.
func NewHandler(services *service.Services, pinger Pinger, logger *logger.Logger) *Handler {
	h := &Handler{
		services: services,
		pinger:   pinger,
		health:   health.NewServer(),
		logger:   logger,
	}
	h.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)

	logger.Debug().Msg("gRPC handler created")
	return h
}

// Register attaches the health and reflection services to server.
func (h *Handler) Register(server *grpc.Server) {
	healthpb.RegisterHealthServer(server, h.health)
	reflection.Register(server)
}

// CheckReadiness pings the database and publishes the outcome through the
// health service. It returns the ping error, if any.
func (h *Handler) CheckReadiness(ctx context.Context) error {
	log := logger.FromContext(ctx).With().Str("func", "*Handler.CheckReadiness").Logger()

	if err := h.pinger.PingContext(ctx); err != nil {
		h.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
		log.Warn().Err(err).Msg("database is not reachable")
		return fmt.Errorf("database ping: %w", err)
	}

	h.setStatus(healthpb.HealthCheckResponse_SERVING)
	return nil
}

// Shutdown switches every entry to NOT_SERVING and ignores later updates, so
// clients stop routing to this instance while it drains.
func (h *Handler) Shutdown() {
	h.health.Shutdown()
}

func (h *Handler) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(ServiceName, status)
}

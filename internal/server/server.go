package server

import (
	"context"
	"errors"
	"time"

	"github.com/MKhiriev/go-doc-locker/internal/config"
	"github.com/MKhiriev/go-doc-locker/internal/handler"
	"github.com/MKhiriev/go-doc-locker/internal/logger"
)

// shutdownTimeout bounds the graceful part of a shutdown.
const shutdownTimeout = 15 * time.Second

type server struct {
	transports []transport
	logger     *logger.Logger
}

func NewServer(handlers *handler.Handlers, cfg config.Server, logger *logger.Logger) (Server, error) {
	logger.Info().Msg("creating new server...")
	servers := &server{logger: logger}

	if cfg.HTTPAddress != "" && handlers.HTTP != nil {
		servers.transports = append(servers.transports, newHTTPServer(handlers.HTTP.Init(), cfg, logger))
	}
	if cfg.GRPCAddress != "" && handlers.GRPC != nil {
		servers.transports = append(servers.transports, newGRPCServer(handlers.GRPC, cfg, logger))
	}

	if len(servers.transports) == 0 {
		return nil, errNoServersAreCreated
	}

	return servers, nil
}

func (s *server) RunServer(ctx context.Context) error {
	for i, t := range s.transports {
		if err := t.Listen(); err != nil {
			s.shutdown(ctx, s.transports[:i])
			return err
		}
	}

	failures := make(chan error, len(s.transports))
	for _, t := range s.transports {
		go func() {
			s.logger.Info().Str("transport", t.Name()).Msg("launching server")
			failures <- t.Serve()
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-failures:
		if runErr == nil {
			runErr = errors.New("server stopped unexpectedly")
		}
	}

	s.shutdown(ctx, s.transports)
	if runErr != nil {
		s.logger.Err(runErr).Msg("server stopped with an error")
		return runErr
	}

	s.logger.Info().Msg("server Shutdown gracefully")
	return nil
}

// shutdown stops transports in reverse start order.
func (s *server) shutdown(ctx context.Context, transports []transport) {
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	for i := len(transports) - 1; i >= 0; i-- {
		if err := transports[i].Shutdown(shutdownCtx); err != nil {
			s.logger.Err(err).Str("transport", transports[i].Name()).Msg("shutdown failed")
		}
	}
}

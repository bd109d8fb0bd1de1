package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/MKhiriev/go-doc-locker/internal/adapter"
	"github.com/MKhiriev/go-doc-locker/internal/config"
	"github.com/MKhiriev/go-doc-locker/internal/handler"
	"github.com/MKhiriev/go-doc-locker/internal/logger"
	"github.com/MKhiriev/go-doc-locker/internal/server"
	"github.com/MKhiriev/go-doc-locker/internal/service"
	"github.com/MKhiriev/go-doc-locker/internal/store"
	"github.com/MKhiriev/go-doc-locker/internal/workers"
	"github.com/MKhiriev/go-doc-locker/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("go-doc-locker-server")
	cfg, err := config.GetStructuredConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}
	log.SetLevel(cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()
	ctx = log.WithContext(ctx)

	db, err := store.NewConnect(ctx, cfg.Storage.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error connecting to database")
	}
	defer db.Close()

	if err = db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("error applying migrations")
	}

	capabilities, err := db.ProbeCapabilities(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("error probing storage capabilities")
	}
	log.Info().Any("capabilities", capabilities).Msg("storage capabilities detected")

	storages, err := store.NewStorages(db, cfg.Storage.Files, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating storages")
	}

	adapters, err := newAdapters(cfg.Adapter, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating adapters")
	}
	defer adapters.Publisher.Close()

	build := models.NewAppBuildInfo(buildVersion, buildDate, buildCommit)
	services, err := service.NewServices(storages, adapters, capabilities, build, *cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating services")
	}

	if err = services.AuthService.SeedAdmin(ctx); err != nil {
		log.Fatal().Err(err).Msg("error seeding the administrator account")
	}

	handlers, err := handler.NewHandlers(services, db, *cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating handlers")
	}

	srv, err := server.NewServer(handlers, cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	var readiness workers.ReadinessChecker
	if handlers.GRPC != nil {
		readiness = handlers.GRPC
	}
	background := workers.NewWorkers(services, readiness, cfg.Workers, log)

	workersDone := make(chan struct{})
	go func() {
		background.Run(ctx)
		close(workersDone)
	}()

	runErr := srv.RunServer(ctx)
	stop()
	<-workersDone

	if runErr != nil {
		log.Fatal().Err(runErr).Msg("server stopped with an error")
	}
}

// newAdapters builds the outbound integrations. Without an API key profile
// generation is disabled; without a NATS URL audit events are only stored.
func newAdapters(cfg config.Adapter, log *logger.Logger) (service.Adapters, error) {
	var adapters service.Adapters

	if cfg.Generator.APIKey == "" {
		log.Warn().Msg("generator API key is not set, profile generation is disabled")
		adapters.Generator = adapter.NewDisabledGenerator(log)
	} else {
		generator, err := adapter.NewGeminiGenerator(cfg.Generator, log)
		if err != nil {
			return service.Adapters{}, fmt.Errorf("profile generator: %w", err)
		}
		adapters.Generator = generator
	}

	adapters.Extractor = adapter.NewExecExtractor(cfg.Extractor, log)

	if cfg.NATS.URL == "" {
		adapters.Publisher = adapter.NewNopPublisher()
	} else {
		publisher, err := adapter.NewNATSPublisher(cfg.NATS, log)
		if err != nil {
			return service.Adapters{}, fmt.Errorf("audit publisher: %w", err)
		}
		adapters.Publisher = publisher
	}

	return adapters, nil
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}

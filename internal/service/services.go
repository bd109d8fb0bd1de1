package service

import (
	"github.com/MKhiriev/go-doc-locker/internal/adapter"
	"github.com/MKhiriev/go-doc-locker/internal/config"
	"github.com/MKhiriev/go-doc-locker/internal/logger"
	"github.com/MKhiriev/go-doc-locker/internal/store"
	"github.com/MKhiriev/go-doc-locker/models"
)

// Adapters groups the outbound integrations the services call.
type Adapters struct {
	Generator adapter.ProfileGenerator
	Extractor adapter.TextExtractor
	Publisher adapter.EventPublisher
}

type Services struct {
	AuthService       AuthService
	ProfileService    ProfileService
	DocumentService   DocumentService
	ExtractionService ExtractionService
	AdminService      AdminService
	AuditService      AuditService
	AppInfoService    AppInfoService
}

func NewServices(
	storages *store.Storages,
	adapters Adapters,
	capabilities models.StorageCapabilities,
	build models.AppBuildInfo,
	cfg config.StructuredConfig,
	logger *logger.Logger,
) (*Services, error) {
	appInfo, err := NewAppInfoService(build, cfg.App, logger)
	if err != nil {
		return nil, err
	}

	audit := NewAuditService(storages.AuditRepository, adapters.Publisher, logger)
	profiles := NewProfileService(storages, adapters.Generator, audit, capabilities, logger)
	documents := NewDocumentValidationService(cfg.Storage.Files.MaxUploadSize).
		Wrap(NewDocumentService(storages, adapters.Extractor, profiles, audit, logger))

	return &Services{
		AuthService:       NewAuthService(storages.UserRepository, cfg.App, logger),
		ProfileService:    profiles,
		DocumentService:   documents,
		ExtractionService: NewExtractionService(storages.DocumentRepository, adapters.Extractor, profiles, cfg.Workers.ExtractionBatchSize, logger),
		AdminService:      NewAdminService(storages, audit, logger),
		AuditService:      audit,
		AppInfoService:    appInfo,
	}, nil
}

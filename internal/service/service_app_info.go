package service

import (
	"context"

	"github.com/MKhiriev/go-doc-locker/internal/config"
	"github.com/MKhiriev/go-doc-locker/internal/logger"
	"github.com/MKhiriev/go-doc-locker/models"
)

type appInfoService struct {
	info models.AppVersionResponse

	logger *logger.Logger
}

// NewAppInfoService prefers the version linked into the binary and falls
// back to the configured one.
func NewAppInfoService(build models.AppBuildInfo, cfg config.App, logger *logger.Logger) (AppInfoService, error) {
	version := build.BuildVersion()
	if version == "" || version == "N/A" {
		version = cfg.Version
	}
	if version == "" {
		return nil, ErrVersionIsNotSpecified
	}

	return &appInfoService{
		info: models.AppVersionResponse{
			Version: version,
			Date:    build.BuildDate(),
			Commit:  build.BuildCommit(),
		},
		logger: logger,
	}, nil
}

func (s *appInfoService) GetAppInfo(ctx context.Context) models.AppVersionResponse {
	return s.info
}

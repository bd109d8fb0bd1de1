package http

import (
	"github.com/MKhiriev/go-doc-locker/internal/logger"
	"github.com/MKhiriev/go-doc-locker/internal/service"
)

// defaultMaxUploadSize applies when the configured limit is not positive.
const defaultMaxUploadSize = 16 << 20

type Handler struct {
	services *service.Services

	// maxUploadSize bounds the multipart body of an upload request.
	maxUploadSize int64

	logger *logger.Logger
}

func NewHandler(services *service.Services, maxUploadSize int64, logger *logger.Logger) *Handler {
	if maxUploadSize <= 0 {
		maxUploadSize = defaultMaxUploadSize
	}

	logger.Info().Msg("http handler created")
	return &Handler{
		services:      services,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

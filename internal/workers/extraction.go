package workers

import (
	"context"
	"errors"
	"time"

	"github.com/MKhiriev/go-doc-locker/internal/logger"
	"github.com/MKhiriev/go-doc-locker/internal/service"
)

// NewExtractionWorker polls for documents waiting for (re-)extraction.
func NewExtractionWorker(extraction service.ExtractionService, interval time.Duration, log *logger.Logger) Worker {
	return &periodicWorker{
		name:     "extraction",
		interval: interval,
		logger:   log,
		tick: func(ctx context.Context) {
			processed, err := extraction.ProcessPending(log.WithContext(ctx))
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Err(err).Int("processed", processed).Msg("extraction pass failed")
				return
			}
			if processed > 0 {
				log.Info().Int("processed", processed).Msg("extraction pass finished")
			}
		},
	}
}

package workers

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/go-doc-locker/internal/config"
	"github.com/MKhiriev/go-doc-locker/internal/logger"
	"github.com/MKhiriev/go-doc-locker/internal/service"
)

type Workers struct {
	workers []Worker
	logger  *logger.Logger
}

// NewWorkers creates the extraction worker and, when readiness is not nil,
// the readiness probe.
func NewWorkers(services *service.Services, readiness ReadinessChecker, cfg config.Workers, logger *logger.Logger) *Workers {
	w := &Workers{logger: logger}

	w.workers = append(w.workers, NewExtractionWorker(services.ExtractionService, cfg.ExtractionInterval, logger))
	if readiness != nil {
		w.workers = append(w.workers, NewReadinessWorker(readiness, cfg.ReadinessInterval, logger))
	}

	return w
}

// Run starts every worker in its own goroutine and blocks until all of them
// have returned.
func (w *Workers) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, worker := range w.workers {
		wg.Go(func() {
			worker.Run(ctx)
		})
	}
	wg.Wait()
}

// periodicWorker calls tick right away and then every interval until ctx is
// done. Ticks never overlap.
type periodicWorker struct {
	name     string
	interval time.Duration
	tick     func(ctx context.Context)
	logger   *logger.Logger
}

func (p *periodicWorker) Run(ctx context.Context) {
	if p.interval <= 0 {
		p.logger.Warn().Str("worker", p.name).Msg("worker disabled: interval is not positive")
		return
	}

	p.logger.Info().Str("worker", p.name).Dur("interval", p.interval).Msg("worker started")
	defer p.logger.Info().Str("worker", p.name).Msg("worker stopped")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.tick(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

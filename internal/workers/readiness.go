package workers

import (
	"context"
	"time"

	"github.com/MKhiriev/go-doc-locker/internal/logger"
)

// readinessTimeout bounds one probe.
const readinessTimeout = 5 * time.Second

func NewReadinessWorker(checker ReadinessChecker, interval time.Duration, log *logger.Logger) Worker {
	return &periodicWorker{
		name:     "readiness",
		interval: interval,
		logger:   log,
		tick: func(ctx context.Context) {
			probeCtx, cancel := context.WithTimeout(log.WithContext(ctx), readinessTimeout)
			defer cancel()

			// failures are already logged and published by the checker
			_ = checker.CheckReadiness(probeCtx)
		},
	}
}

// Package workers runs the server's background jobs: the extraction worker
// that completes re-extraction requests and the readiness probe behind the
// gRPC health service.
package workers

import "context"

// Worker is a background job. Run blocks until ctx is cancelled.
type Worker interface {
	Run(ctx context.Context)
}

// ReadinessChecker refreshes the externally visible health status.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

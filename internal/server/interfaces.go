package server

import "context"

// Server defines the lifecycle contract of the application's transports.
type Server interface {
	// RunServer serves until ctx is cancelled or one transport fails, then
	// gracefully shuts every transport down. It returns the failure, if any.
	RunServer(ctx context.Context) error
}

// transport is a single listening server managed by [Server].
type transport interface {
	// Name labels the transport in logs.
	Name() string

	// Listen binds the configured address.
	Listen() error

	// Serve blocks until the transport stops. A graceful stop returns nil.
	Serve() error

	// Shutdown stops accepting connections and waits for in-flight requests
	// until ctx expires.
	Shutdown(ctx context.Context) error
}

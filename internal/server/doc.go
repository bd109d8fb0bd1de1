// Package server wires and runs the application's transport servers.
//
// It binds every enabled transport before serving any of them, so a busy
// port fails start-up instead of leaving a half-running process, and shuts
// all of them down together when the run context ends or one of them fails.
package server

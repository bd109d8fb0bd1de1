// Package config provides configuration loading, merging, and validation
// for the go-doc-locker server.
//
// Configuration is assembled from several sources in increasing priority
// (later sources override earlier non-zero fields):
//  1. JSON or YAML config file
//  2. environment variables (a ./.env file is loaded first when present)
//  3. command-line flags
//
// Zero fields are then filled with defaults and the result is validated.
// The entry point is [GetStructuredConfig].
package config

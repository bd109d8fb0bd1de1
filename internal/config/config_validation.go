// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"strings"
	"time"
)

// Supported values of [DB.Driver].
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Defaults applied by [StructuredConfig.applyDefaults] to zero fields.
const (
	DefaultTokenIssuer         = "go-doc-locker"
	DefaultTokenDuration       = 24 * time.Hour
	DefaultBcryptCost          = 10
	DefaultAdminName           = "Administrator"
	DefaultUploadDir           = "uploads"
	DefaultMaxUploadSize       = 16 << 20
	DefaultRequestTimeout      = 30 * time.Second
	DefaultGeneratorBaseURL    = "https://generativelanguage.googleapis.com"
	DefaultGeneratorModel      = "gemini-1.5-flash"
	DefaultGeneratorTimeout    = 60 * time.Second
	DefaultPDFToTextPath       = "pdftotext"
	DefaultTesseractPath       = "tesseract"
	DefaultExtractorTimeout    = 60 * time.Second
	DefaultNATSSubject         = "doclocker.audit"
	DefaultExtractionInterval  = 10 * time.Second
	DefaultExtractionBatchSize = 10
	DefaultReadinessInterval   = 15 * time.Second
)

func (cfg *StructuredConfig) applyDefaults() {
	setDefault(&cfg.App.TokenIssuer, DefaultTokenIssuer)
	setDefault(&cfg.App.TokenDuration, DefaultTokenDuration)
	setDefault(&cfg.App.BcryptCost, DefaultBcryptCost)
	setDefault(&cfg.App.AdminName, DefaultAdminName)

	if cfg.Storage.DB.Driver == "" {
		cfg.Storage.DB.Driver = DriverFromDSN(cfg.Storage.DB.DSN)
	}
	setDefault(&cfg.Storage.Files.UploadDir, DefaultUploadDir)
	setDefault(&cfg.Storage.Files.MaxUploadSize, DefaultMaxUploadSize)

	setDefault(&cfg.Server.RequestTimeout, DefaultRequestTimeout)

	setDefault(&cfg.Adapter.Generator.BaseURL, DefaultGeneratorBaseURL)
	setDefault(&cfg.Adapter.Generator.Model, DefaultGeneratorModel)
	setDefault(&cfg.Adapter.Generator.Timeout, DefaultGeneratorTimeout)
	setDefault(&cfg.Adapter.Extractor.PDFToTextPath, DefaultPDFToTextPath)
	setDefault(&cfg.Adapter.Extractor.TesseractPath, DefaultTesseractPath)
	setDefault(&cfg.Adapter.Extractor.Timeout, DefaultExtractorTimeout)
	setDefault(&cfg.Adapter.NATS.Subject, DefaultNATSSubject)

	setDefault(&cfg.Workers.ExtractionInterval, DefaultExtractionInterval)
	setDefault(&cfg.Workers.ExtractionBatchSize, DefaultExtractionBatchSize)
	setDefault(&cfg.Workers.ReadinessInterval, DefaultReadinessInterval)
}

func setDefault[T comparable](field *T, value T) {
	var zero T
	if *field == zero {
		*field = value
	}
}

// DriverFromDSN guesses the database driver from a DSN: PostgreSQL URLs and
// keyword/value strings map to "postgres", everything else to "sqlite".
func DriverFromDSN(dsn string) string {
	lower := strings.ToLower(dsn)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return DriverPostgres
	case strings.Contains(lower, "host=") && strings.Contains(lower, "dbname="):
		return DriverPostgres
	default:
		return DriverSQLite
	}
}

// validate checks that the merged and defaulted [StructuredConfig] can be
// used to start the server.
func (cfg *StructuredConfig) validate() error {
	if cfg.Storage.DB.DSN == "" {
		return fmt.Errorf("%w: empty database DSN", ErrInvalidStorageConfigs)
	}

	if cfg.Storage.DB.Driver != DriverPostgres && cfg.Storage.DB.Driver != DriverSQLite {
		return fmt.Errorf("%w: unsupported driver %q", ErrInvalidStorageConfigs, cfg.Storage.DB.Driver)
	}

	if cfg.Storage.Files.MaxUploadSize < 0 {
		return fmt.Errorf("%w: negative max upload size", ErrInvalidStorageConfigs)
	}

	if cfg.App.TokenSignKey == "" {
		return fmt.Errorf("%w: empty token sign key", ErrInvalidAppConfigs)
	}

	if cfg.App.BcryptCost < 4 || cfg.App.BcryptCost > 31 {
		return fmt.Errorf("%w: bcrypt cost %d out of range", ErrInvalidAppConfigs, cfg.App.BcryptCost)
	}

	if cfg.Server.HTTPAddress == "" && cfg.Server.GRPCAddress == "" {
		return fmt.Errorf("%w: neither HTTP nor gRPC address set", ErrInvalidServerConfigs)
	}

	if cfg.Workers.ExtractionInterval < 0 || cfg.Workers.ExtractionBatchSize < 0 || cfg.Workers.ReadinessInterval < 0 {
		return ErrInvalidWorkerConfigs
	}

	return nil
}

package adapter

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/MKhiriev/go-doc-locker/internal/config"
	"github.com/MKhiriev/go-doc-locker/internal/logger"
)

// CommandRunner runs an external program and returns its standard output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

type execExtractor struct {
	pdfToText string
	tesseract string
	timeout   time.Duration
	run       CommandRunner
	logger    *logger.Logger
}

// NewExecExtractor constructs a [TextExtractor] that shells out to
// pdftotext for PDFs and tesseract for images.
func NewExecExtractor(cfg config.Extractor, logger *logger.Logger) TextExtractor {
	return NewExecExtractorWithRunner(cfg, runCommand, logger)
}

// NewExecExtractorWithRunner is [NewExecExtractor] with a custom command
// runner.
func NewExecExtractorWithRunner(cfg config.Extractor, run CommandRunner, logger *logger.Logger) TextExtractor {
	return &execExtractor{
		pdfToText: cfg.PDFToTextPath,
		tesseract: cfg.TesseractPath,
		timeout:   cfg.Timeout,
		run:       run,
		logger:    logger,
	}
}

// Extract implements [TextExtractor].
func (e *execExtractor) Extract(ctx context.Context, path, mimeType string) string {
	log := logger.FromContext(ctx).With().Str("path", path).Str("mime_type", mimeType).Logger()

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	var (
		out []byte
		err error
	)
	switch kind(path, mimeType) {
	case "pdf":
		out, err = e.run(ctx, e.pdfToText, "-layout", "-enc", "UTF-8", path, "-")
	case "image":
		out, err = e.run(ctx, e.tesseract, path, "stdout")
	default:
		log.Warn().Str("func", "execExtractor.Extract").Msg("unsupported document type")
		return ""
	}
	if err != nil {
		log.Warn().Err(err).Str("func", "execExtractor.Extract").Msg("text extraction failed")
		return ""
	}

	text := strings.TrimSpace(string(out))
	log.Debug().Str("func", "execExtractor.Extract").Int("chars", len(text)).Msg("text extracted")
	return text
}

func kind(path, mimeType string) string {
	switch strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0])) {
	case "application/pdf":
		return "pdf"
	case "image/png", "image/jpeg":
		return "image"
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "pdf"
	case ".png", ".jpg", ".jpeg":
		return "image"
	}

	return ""
}

package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/MKhiriev/go-doc-locker/internal/logger"
)

// NameGenerator produces unique stored file names.
type NameGenerator interface {
	Generate() string
}

// documentFileStorage implements [FileStorage] on the local filesystem.
// Files are stored flat under dir with a generated name that keeps the
// original extension, so the original filename never reaches the disk.
type documentFileStorage struct {
	dir    string
	names  NameGenerator
	logger *logger.Logger
}

// NewDocumentFileStorage creates dir if needed and returns a [FileStorage]
// writing into it.
func NewDocumentFileStorage(dir string, names NameGenerator, logger *logger.Logger) (FileStorage, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("error creating upload dir: %w", err)
	}

	return &documentFileStorage{
		dir:    dir,
		names:  names,
		logger: logger,
	}, nil
}

// Save streams r into a new file. A partially written file is removed when
// the copy fails or ctx is cancelled.
func (s *documentFileStorage) Save(ctx context.Context, originalName string, r io.Reader) (string, int64, error) {
	log := logger.FromContext(ctx)

	name := s.names.Generate() + strings.ToLower(filepath.Ext(originalName))
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		log.Err(err).Str("func", "documentFileStorage.Save").Msg("failed to create file")
		return "", 0, fmt.Errorf("error creating stored file: %w", err)
	}

	written, err := io.Copy(f, contextReader{ctx: ctx, r: r})
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		log.Err(err).Str("func", "documentFileStorage.Save").Str("path", path).Msg("failed to write file")
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("error writing stored file: %w", err)
	}

	return path, written, nil
}

// Open opens a stored file for reading.
func (s *documentFileStorage) Open(ctx context.Context, storedPath string) (io.ReadCloser, error) {
	if err := s.checkInside(storedPath); err != nil {
		return nil, err
	}

	f, err := os.Open(storedPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrFileNotFound
		}
		logger.FromContext(ctx).Err(err).Str("func", "documentFileStorage.Open").Msg("failed to open file")
		return nil, fmt.Errorf("error opening stored file: %w", err)
	}

	return f, nil
}

// Remove deletes a stored file. Only paths inside the upload dir are
// accepted.
func (s *documentFileStorage) Remove(ctx context.Context, storedPath string) error {
	if err := s.checkInside(storedPath); err != nil {
		return err
	}

	if err := os.Remove(storedPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrFileNotFound
		}
		logger.FromContext(ctx).Err(err).Str("func", "documentFileStorage.Remove").Msg("failed to remove file")
		return fmt.Errorf("error removing stored file: %w", err)
	}

	return nil
}

func (s *documentFileStorage) checkInside(storedPath string) error {
	rel, err := filepath.Rel(s.dir, storedPath)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("%w: %s is outside the upload dir", ErrFileNotFound, storedPath)
	}
	return nil
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-doc-locker/internal/logger"
	"github.com/MKhiriev/go-doc-locker/models"
)

var documentColumns = []string{
	"document_id", "user_id", "filename", "stored_path", "mime_type", "size",
	"extracted_text", "status", "uploaded_at", "removed_at",
}

// documentRepository implements [DocumentRepository] against the
// "documents" table.
type documentRepository struct {
	*DB
	logger *logger.Logger
}

// NewDocumentRepository constructs a [DocumentRepository] backed by db.
func NewDocumentRepository(db *DB, logger *logger.Logger) DocumentRepository {
	logger.Debug().Msg("creating document repository")
	return &documentRepository{
		DB:     db,
		logger: logger,
	}
}

// CreateDocument inserts a document row and returns it with its id.
func (d *documentRepository) CreateDocument(ctx context.Context, doc models.Document) (models.Document, error) {
	log := logger.FromContext(ctx)

	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}
	if doc.Status == "" {
		doc.Status = models.DocumentUploaded
	}

	query, args, err := d.builder.
		Insert(doc.TableName()).
		Columns("user_id", "filename", "stored_path", "mime_type", "size", "extracted_text", "status", "uploaded_at").
		Values(doc.UserID, doc.Filename, doc.StoredPath, doc.MimeType, doc.Size, nullString(doc.ExtractedText), string(doc.Status), doc.UploadedAt).
		Suffix("RETURNING document_id").
		ToSql()
	if err != nil {
		log.Err(err).Str("func", "documentRepository.CreateDocument").Msg("failed to build query")
		return models.Document{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if err = d.QueryRowContext(ctx, query, args...).Scan(&doc.ID); err != nil {
		log.Err(err).
			Str("func", "documentRepository.CreateDocument").
			Int64("user_id", doc.UserID).
			Str("class", d.classify(err)).
			Msg("failed to insert document")
		return models.Document{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return doc, nil
}

// GetDocument returns the document only if it belongs to userID.
func (d *documentRepository) GetDocument(ctx context.Context, userID, documentID int64) (models.Document, error) {
	log := logger.FromContext(ctx)

	query, args, err := d.builder.
		Select(documentColumns...).
		From(models.Document{}.TableName()).
		Where(sq.Eq{"document_id": documentID, "user_id": userID}).
		ToSql()
	if err != nil {
		log.Err(err).Str("func", "documentRepository.GetDocument").Msg("failed to build query")
		return models.Document{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	doc, err := scanDocument(d.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Document{}, ErrDocumentNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "documentRepository.GetDocument").
			Int64("user_id", userID).
			Int64("document_id", documentID).
			Msg("failed to scan document row")
		return models.Document{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return doc, nil
}

// ListDocuments returns the user's documents, newest first.
func (d *documentRepository) ListDocuments(ctx context.Context, userID int64) ([]models.Document, error) {
	builder := d.builder.
		Select(documentColumns...).
		From(models.Document{}.TableName()).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("uploaded_at DESC", "document_id DESC")

	return d.queryDocuments(ctx, builder, "documentRepository.ListDocuments")
}

// ListByStatus returns up to limit documents in status, oldest first.
// Tombstoned rows are skipped.
func (d *documentRepository) ListByStatus(ctx context.Context, status models.DocumentStatus, limit int) ([]models.Document, error) {
	builder := d.builder.
		Select(documentColumns...).
		From(models.Document{}.TableName()).
		Where(sq.Eq{"status": string(status), "removed_at": nil}).
		OrderBy("uploaded_at", "document_id")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	return d.queryDocuments(ctx, builder, "documentRepository.ListByStatus")
}

func (d *documentRepository) queryDocuments(ctx context.Context, builder sq.SelectBuilder, fn string) ([]models.Document, error) {
	log := logger.FromContext(ctx)

	query, args, err := builder.ToSql()
	if err != nil {
		log.Err(err).Str("func", fn).Msg("failed to build query")
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := d.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", fn).Str("class", d.classify(err)).Msg("failed to query documents")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	documents := make([]models.Document, 0)
	for rows.Next() {
		doc, scanErr := scanDocument(rows)
		if scanErr != nil {
			log.Err(scanErr).Str("func", fn).Msg("failed to scan document row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}
		documents = append(documents, doc)
	}

	if err = rows.Err(); err != nil {
		log.Err(err).Str("func", fn).Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return documents, nil
}

// ExtractedTexts returns the user's non-null extracted texts in upload
// order. Soft-removed rows keep their text and are included.
func (d *documentRepository) ExtractedTexts(ctx context.Context, userID int64) ([]string, error) {
	log := logger.FromContext(ctx)

	query, args, err := d.builder.
		Select("extracted_text").
		From(models.Document{}.TableName()).
		Where(sq.And{sq.Eq{"user_id": userID}, sq.NotEq{"extracted_text": nil}}).
		OrderBy("uploaded_at", "document_id").
		ToSql()
	if err != nil {
		log.Err(err).Str("func", "documentRepository.ExtractedTexts").Msg("failed to build query")
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := d.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "documentRepository.ExtractedTexts").
			Int64("user_id", userID).
			Str("class", d.classify(err)).
			Msg("failed to query extracted texts")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	texts := make([]string, 0)
	for rows.Next() {
		var text string
		if err = rows.Scan(&text); err != nil {
			log.Err(err).Str("func", "documentRepository.ExtractedTexts").Msg("failed to scan text")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		texts = append(texts, text)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return texts, nil
}

// MarkRemoved sets status failed and the tombstone. The extracted text is
// left in place. A second removal keeps the first tombstone time.
func (d *documentRepository) MarkRemoved(ctx context.Context, userID, documentID int64, at time.Time) error {
	builder := d.builder.
		Update(models.Document{}.TableName()).
		Set("status", string(models.DocumentFailed)).
		Set("removed_at", sq.Expr("COALESCE(removed_at, ?)", at)).
		Where(sq.Eq{"document_id": documentID, "user_id": userID})

	return execAffecting(ctx, d.DB, builder, ErrDocumentNotFound, "documentRepository.MarkRemoved")
}

// SetStatus changes the document status.
func (d *documentRepository) SetStatus(ctx context.Context, userID, documentID int64, status models.DocumentStatus) error {
	builder := d.builder.
		Update(models.Document{}.TableName()).
		Set("status", string(status)).
		Where(sq.Eq{"document_id": documentID, "user_id": userID})

	return execAffecting(ctx, d.DB, builder, ErrDocumentNotFound, "documentRepository.SetStatus")
}

// SaveExtraction stores the extraction outcome if the document is still
// waiting for it. A row that left processing in the meantime (for example,
// removed by an administrator) yields [ErrDocumentNotFound].
func (d *documentRepository) SaveExtraction(ctx context.Context, documentID int64, text *string, status models.DocumentStatus) error {
	builder := d.builder.
		Update(models.Document{}.TableName()).
		Set("extracted_text", nullString(text)).
		Set("status", string(status)).
		Where(sq.Eq{"document_id": documentID, "status": string(models.DocumentProcessing), "removed_at": nil})

	return execAffecting(ctx, d.DB, builder, ErrDocumentNotFound, "documentRepository.SaveExtraction")
}

func scanDocument(row interface{ Scan(dest ...any) error }) (models.Document, error) {
	var (
		doc       models.Document
		text      sql.NullString
		status    string
		removedAt sql.NullTime
	)

	err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&doc.Filename,
		&doc.StoredPath,
		&doc.MimeType,
		&doc.Size,
		&text,
		&status,
		&doc.UploadedAt,
		&removedAt,
	)
	if err != nil {
		return models.Document{}, err
	}

	doc.Status = models.DocumentStatus(status)
	if text.Valid {
		doc.ExtractedText = &text.String
	}
	if removedAt.Valid {
		doc.RemovedAt = &removedAt.Time
	}

	return doc, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO documents (
	id, filename, mime_type, storage_path, company_id, format_id, status, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`,
		doc.ID, doc.Filename, doc.MimeType, doc.StoragePath, nullable(doc.CompanyID), nullable(doc.FormatID),
		string(doc.Status), doc.Error, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, filename, mime_type, storage_path, company_id, format_id, status, error_message, result, created_at, updated_at
FROM documents
WHERE id = $1
`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get document",
				fmt.Errorf("document %s", id))
		}
		return nil, err
	}
	return doc, nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return nil
}

func (r *DocumentRepository) SaveResult(ctx context.Context, id string, result *domain.ProcessResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	status := domain.StatusProcessed
	if result.Status == domain.PipelineFailed {
		status = domain.StatusFailed
	}

	_, err = r.db.ExecContext(ctx, `
UPDATE documents
SET result = $2, status = $3, company_id = COALESCE(NULLIF($4, ''), company_id),
    format_id = COALESCE(NULLIF($5, ''), format_id), error_message = $6, updated_at = $7
WHERE id = $1
`, id, resultJSON, string(status), result.CompanyID, result.FormatID, result.Error, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

func (r *DocumentRepository) ListProcessed(ctx context.Context, limit int) ([]domain.Document, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, filename, mime_type, storage_path, company_id, format_id, status, error_message, result, created_at, updated_at
FROM documents
WHERE status = $1
ORDER BY updated_at DESC
LIMIT $2
`, string(domain.StatusProcessed), limit)
	if err != nil {
		return nil, fmt.Errorf("query processed documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate processed documents: %w", err)
	}
	return docs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var companyID, formatID, errMessage sql.NullString
	var resultRaw []byte
	var status string

	err := row.Scan(
		&doc.ID, &doc.Filename, &doc.MimeType, &doc.StoragePath, &companyID, &formatID,
		&status, &errMessage, &resultRaw, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}

	doc.Status = domain.DocumentStatus(status)
	doc.CompanyID = companyID.String
	doc.FormatID = formatID.String
	doc.Error = errMessage.String
	if len(resultRaw) > 0 {
		var result domain.ProcessResult
		if err := json.Unmarshal(resultRaw, &result); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
		doc.Result = &result
	}
	return &doc, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
)

// A format needs at least this share of its signature phrases present in
// the document to count as matched.
const formatMatchThreshold = 60.0

// FormatRepository matches documents against known layouts per company
// and, when enabled, registers a new layout for unmatched documents.
type FormatRepository struct {
	db         *sql.DB
	autoCreate bool
	logger     *slog.Logger
}

func NewFormatRepository(db *sql.DB, autoCreate bool, logger *slog.Logger) *FormatRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &FormatRepository{db: db, autoCreate: autoCreate, logger: logger}
}

type formatRow struct {
	id         string
	name       string
	signatures []string
}

func (r *FormatRepository) Match(ctx context.Context, companyID string, classification *domain.VisionClassification, text string) (*domain.FormatMatch, error) {
	formats, err := r.listFormats(ctx, companyID)
	if err != nil {
		return nil, err
	}

	textLower := strings.ToLower(text)
	hint := ""
	if classification != nil {
		hint = strings.ToLower(strings.TrimSpace(classification.FormatHint))
	}

	var best *domain.FormatMatch
	for _, format := range formats {
		score := scoreFormat(format, textLower, hint)
		if score < formatMatchThreshold {
			continue
		}
		if best == nil || score > best.Confidence {
			best = &domain.FormatMatch{FormatID: format.id, Confidence: score, Matched: true}
		}
	}
	if best != nil {
		return best, nil
	}

	if r.autoCreate && hint != "" {
		return r.createFormat(ctx, companyID, classification.FormatHint)
	}
	return &domain.FormatMatch{Matched: false}, nil
}

func scoreFormat(format formatRow, textLower, hint string) float64 {
	if hint != "" && hint == strings.ToLower(format.name) {
		return 100
	}
	if len(format.signatures) == 0 || textLower == "" {
		return 0
	}
	hits := 0
	for _, signature := range format.signatures {
		if strings.Contains(textLower, strings.ToLower(signature)) {
			hits++
		}
	}
	return float64(hits) / float64(len(format.signatures)) * 100
}

func (r *FormatRepository) listFormats(ctx context.Context, companyID string) ([]formatRow, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, signatures
FROM document_formats
WHERE company_id = $1 AND active
`, companyID)
	if err != nil {
		return nil, fmt.Errorf("query formats: %w", err)
	}
	defer rows.Close()

	var formats []formatRow
	for rows.Next() {
		var format formatRow
		var signaturesRaw []byte
		if err := rows.Scan(&format.id, &format.name, &signaturesRaw); err != nil {
			return nil, fmt.Errorf("scan format: %w", err)
		}
		if err := json.Unmarshal(signaturesRaw, &format.signatures); err != nil {
			return nil, fmt.Errorf("unmarshal format signatures: %w", err)
		}
		formats = append(formats, format)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate formats: %w", err)
	}
	return formats, nil
}

func (r *FormatRepository) createFormat(ctx context.Context, companyID, name string) (*domain.FormatMatch, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx, `
INSERT INTO document_formats (id, company_id, name, signatures, auto_created, active, created_at)
VALUES ($1, $2, $3, '[]'::jsonb, TRUE, TRUE, $4)
`, id, companyID, name, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("create format: %w", err)
	}

	r.logger.Info("format_auto_created", "format_id", id, "company_id", companyID, "name", name)
	// A freshly created format carries no signature evidence yet, so its
	// match confidence stays low.
	return &domain.FormatMatch{FormatID: id, Confidence: 50, Created: true, Matched: true}, nil
}

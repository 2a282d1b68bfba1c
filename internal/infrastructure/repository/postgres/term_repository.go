package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
)

// TermRepository persists vocabulary terms per company+format.
type TermRepository struct {
	db *sql.DB
}

func NewTermRepository(db *sql.DB) *TermRepository {
	return &TermRepository{db: db}
}

func (r *TermRepository) ListTerms(ctx context.Context, companyID, formatID string) ([]domain.StoredTerm, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, company_id, format_id, normalized, display, occurrences, created_at, updated_at
FROM vocabulary_terms
WHERE company_id = $1 AND format_id = $2
ORDER BY normalized
`, companyID, formatID)
	if err != nil {
		return nil, fmt.Errorf("query terms: %w", err)
	}
	defer rows.Close()

	var terms []domain.StoredTerm
	for rows.Next() {
		var term domain.StoredTerm
		if err := rows.Scan(&term.ID, &term.CompanyID, &term.FormatID, &term.Normalized,
			&term.Display, &term.Occurrences, &term.CreatedAt, &term.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan term: %w", err)
		}
		terms = append(terms, term)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate terms: %w", err)
	}
	return terms, nil
}

func (r *TermRepository) UpsertTerm(ctx context.Context, term domain.StoredTerm) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
INSERT INTO vocabulary_terms (id, company_id, format_id, normalized, display, occurrences, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$7)
ON CONFLICT (company_id, format_id, normalized)
DO UPDATE SET occurrences = vocabulary_terms.occurrences + EXCLUDED.occurrences, updated_at = EXCLUDED.updated_at
`, term.ID, term.CompanyID, term.FormatID, term.Normalized, term.Display, term.Occurrences, now)
	if err != nil {
		return fmt.Errorf("upsert term: %w", err)
	}
	return nil
}

func (r *TermRepository) IncrementOccurrences(ctx context.Context, termID string, by int) error {
	if by <= 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `
UPDATE vocabulary_terms
SET occurrences = occurrences + $2, updated_at = $3
WHERE id = $1
`, termID, by, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("increment term occurrences: %w", err)
	}
	return nil
}

func (r *TermRepository) QueueSynonymCandidate(ctx context.Context, candidate domain.SynonymCandidate, companyID, formatID string) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO synonym_candidates (id, company_id, format_id, stored_term_id, detected_normalized, detected_display, similarity, status, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,'pending',$8)
`, uuid.NewString(), companyID, formatID, candidate.StoredID,
		candidate.Detected.Normalized, candidate.Detected.Display, candidate.Similarity, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("queue synonym candidate: %w", err)
	}
	return nil
}

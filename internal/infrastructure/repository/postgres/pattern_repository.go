package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/identify"
)

// PatternRepository supplies the active company identification patterns.
type PatternRepository struct {
	db *sql.DB
}

func NewPatternRepository(db *sql.DB) *PatternRepository {
	return &PatternRepository{db: db}
}

func (r *PatternRepository) ListPatterns(ctx context.Context) ([]identify.CompanyPattern, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, code, display_name, names, keywords, formats, logo_text, priority
FROM companies
WHERE active
ORDER BY priority DESC, code
`)
	if err != nil {
		return nil, fmt.Errorf("query company patterns: %w", err)
	}
	defer rows.Close()

	var patterns []identify.CompanyPattern
	for rows.Next() {
		var p identify.CompanyPattern
		var namesRaw, keywordsRaw, formatsRaw, logoRaw []byte

		if err := rows.Scan(&p.CompanyID, &p.Code, &p.DisplayName,
			&namesRaw, &keywordsRaw, &formatsRaw, &logoRaw, &p.Priority); err != nil {
			return nil, fmt.Errorf("scan company pattern: %w", err)
		}
		for _, pair := range []struct {
			raw  []byte
			dest *[]string
		}{
			{namesRaw, &p.Names},
			{keywordsRaw, &p.Keywords},
			{formatsRaw, &p.Formats},
			{logoRaw, &p.LogoText},
		} {
			if err := json.Unmarshal(pair.raw, pair.dest); err != nil {
				return nil, fmt.Errorf("unmarshal pattern list for %s: %w", p.Code, err)
			}
		}
		patterns = append(patterns, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate company patterns: %w", err)
	}
	return patterns, nil
}

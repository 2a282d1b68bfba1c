package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// AccuracyRepository reads the per-field historical accuracy statistics
// that back the historical confidence dimension.
type AccuracyRepository struct {
	db *sql.DB
}

func NewAccuracyRepository(db *sql.DB) *AccuracyRepository {
	return &AccuracyRepository{db: db}
}

func (r *AccuracyRepository) FieldAccuracy(ctx context.Context, fieldName, companyID string) (float64, int, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT accuracy, sample_size
FROM field_accuracy_stats
WHERE field_name = $1 AND company_id = $2
`, fieldName, companyID)

	var accuracy float64
	var sampleSize int
	if err := row.Scan(&accuracy, &sampleSize); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("lookup field accuracy: %w", err)
	}
	return accuracy, sampleSize, nil
}

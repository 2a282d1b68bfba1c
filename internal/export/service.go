// Package export produces XLSX workbooks of processed documents for the
// review team.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/ports"
)

type Service struct {
	documents ports.DocumentRepository
	logger    *slog.Logger
}

func NewService(documents ports.DocumentRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{documents: documents, logger: logger}
}

// ExportProcessedXLSX returns a workbook of the most recent processed
// documents, one row per document, with the routing verdict and the
// canonical fields reviewers check first.
func (s *Service) ExportProcessedXLSX(ctx context.Context, limit int) ([]byte, error) {
	start := time.Now()

	docs, err := s.documents.ListProcessed(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list processed documents: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Documents"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	headers := []string{
		"Document ID",
		"Filename",
		"Company",
		"Format",
		"Decision",
		"Score",
		"Level",
		"Review Priority",
		"Est. Minutes",
		"Invoice Number",
		"Invoice Date",
		"Total Amount",
		"Warnings",
		"Processed At",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, doc := range docs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, doc.ID)
		write(2, doc.Filename)
		write(3, doc.CompanyID)
		write(4, doc.FormatID)

		if result := doc.Result; result != nil {
			if result.Routing != nil {
				write(5, string(result.Routing.Decision))
				write(6, result.Routing.Score)
				write(7, string(result.Routing.Level))
				write(8, result.Routing.ReviewPriority)
				write(9, result.Routing.EstimatedMinutes)
			}
			write(10, mappedValue(result, "invoice_number"))
			write(11, mappedValue(result, "invoice_date"))
			write(12, mappedValue(result, "total_amount"))
			write(13, len(result.Warnings))
		}
		write(14, doc.UpdatedAt.UTC().Format("2006-01-02 15:04:05"))
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("export_generated",
		"documents", len(docs),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func mappedValue(result *domain.ProcessResult, field string) string {
	if mapped, ok := result.MappedFields[field]; ok {
		return mapped.Value
	}
	return ""
}

package ports

import (
	"context"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
)

// FileProcessor is the single operation the pipeline core exposes to the
// surrounding application. Both the pipeline orchestrator and the legacy
// adapter implement it, so callers never observe a shape difference.
type FileProcessor interface {
	ProcessFile(ctx context.Context, input domain.ProcessFileInput, flags domain.ProcessingFlags) *domain.ProcessResult
	ProcessBatch(ctx context.Context, inputs []domain.ProcessFileInput, flags domain.ProcessingFlags) []*domain.ProcessResult
}

// Package steps contains the concrete pipeline step implementations in
// their canonical execution order.
package steps

import (
	"context"
	"fmt"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/ports"
)

// FileTypeDetection classifies the upload so smart routing can choose an
// extraction strategy. REQUIRED: nothing downstream works without it.
type FileTypeDetection struct {
	detector ports.FileTypeDetector
}

func NewFileTypeDetection(detector ports.FileTypeDetector) *FileTypeDetection {
	return &FileTypeDetection{detector: detector}
}

func (s *FileTypeDetection) ID() domain.StepID { return domain.StepFileTypeDetection }

func (s *FileTypeDetection) Applicable(*domain.ProcessingContext) bool { return true }

func (s *FileTypeDetection) Run(ctx context.Context, pctx *domain.ProcessingContext) (any, error) {
	if len(pctx.Input.Content) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "file type detection",
			fmt.Errorf("empty file content"))
	}

	fileType, err := s.detector.Detect(ctx, pctx.Input)
	if err != nil {
		return nil, fmt.Errorf("detect file type: %w", err)
	}
	if fileType == domain.FileTypeUnknown {
		return nil, domain.WrapError(domain.ErrUnsupportedFormat, "file type detection",
			fmt.Errorf("mime type %q not supported", pctx.Input.MimeType))
	}

	pctx.FileType = fileType
	return map[string]any{"file_type": fileType}, nil
}

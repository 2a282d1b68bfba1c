package usecase

import (
	"context"
	"fmt"
	"io"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/ports"
)

// ProcessUseCase runs a stored document through the processor and
// persists the outcome. It is the worker's entry point.
type ProcessUseCase struct {
	repo      ports.DocumentRepository
	storage   ports.ObjectStorage
	processor ports.FileProcessor
	defaults  domain.ProcessingFlags
}

func NewProcessUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	processor ports.FileProcessor,
	defaults domain.ProcessingFlags,
) *ProcessUseCase {
	return &ProcessUseCase{
		repo:      repo,
		storage:   storage,
		processor: processor,
		defaults:  defaults,
	}
}

func (uc *ProcessUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	result, err := uc.run(ctx, documentID)
	if err != nil {
		if failErr := uc.repo.UpdateStatus(ctx, documentID, domain.StatusFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.SaveResult(ctx, documentID, result); err != nil {
		return fmt.Errorf("save processing result: %w", err)
	}
	return nil
}

func (uc *ProcessUseCase) run(ctx context.Context, documentID string) (*domain.ProcessResult, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}

	reader, err := uc.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open stored document: %w", err)
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read stored document: %w", err)
	}

	input := domain.ProcessFileInput{
		FileID:   doc.ID,
		Content:  content,
		MimeType: doc.MimeType,
		FileName: doc.Filename,
	}
	return uc.processor.ProcessFile(ctx, input, uc.defaults), nil
}

// ProcessUpload runs raw uploaded bytes synchronously without touching
// storage or the queue; the interactive processing endpoint uses it.
func (uc *ProcessUseCase) ProcessUpload(ctx context.Context, input domain.ProcessFileInput, overrides func(*domain.ProcessingFlags)) *domain.ProcessResult {
	flags := uc.defaults
	if overrides != nil {
		overrides(&flags)
	}
	return uc.processor.ProcessFile(ctx, input, flags)
}

// ProcessBatch runs several raw inputs with the default flags.
func (uc *ProcessUseCase) ProcessBatch(ctx context.Context, inputs []domain.ProcessFileInput) []*domain.ProcessResult {
	return uc.processor.ProcessBatch(ctx, inputs, uc.defaults)
}

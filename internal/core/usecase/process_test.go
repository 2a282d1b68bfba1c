package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
)

type fakeProcessor struct {
	lastInput domain.ProcessFileInput
	lastFlags domain.ProcessingFlags
	result    *domain.ProcessResult
}

func (p *fakeProcessor) ProcessFile(_ context.Context, input domain.ProcessFileInput, flags domain.ProcessingFlags) *domain.ProcessResult {
	p.lastInput = input
	p.lastFlags = flags
	if p.result != nil {
		return p.result
	}
	return &domain.ProcessResult{FileID: input.FileID, Status: domain.PipelineCompleted}
}

func (p *fakeProcessor) ProcessBatch(ctx context.Context, inputs []domain.ProcessFileInput, flags domain.ProcessingFlags) []*domain.ProcessResult {
	results := make([]*domain.ProcessResult, len(inputs))
	for i, input := range inputs {
		results[i] = p.ProcessFile(ctx, input, flags)
	}
	return results
}

func seedDocument(repo *fakeDocumentRepo, storage *fakeStorage) *domain.Document {
	doc := &domain.Document{
		ID:          "d1",
		Filename:    "invoice.pdf",
		MimeType:    "application/pdf",
		StoragePath: "d1_invoice.pdf",
		Status:      domain.StatusUploaded,
		CreatedAt:   time.Now().UTC(),
	}
	repo.docs[doc.ID] = doc
	storage.objects[doc.StoragePath] = []byte("%PDF-1.7 body")
	return doc
}

func TestProcessByIDRunsProcessorAndSavesResult(t *testing.T) {
	repo := newFakeDocumentRepo()
	storage := newFakeStorage()
	processor := &fakeProcessor{}
	uc := NewProcessUseCase(repo, storage, processor, domain.ProcessingFlags{UsePipeline: true})
	seedDocument(repo, storage)

	if err := uc.ProcessByID(context.Background(), "d1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}

	if len(repo.statuses) == 0 || repo.statuses[0] != domain.StatusProcessing {
		t.Fatalf("statuses = %v, want processing first", repo.statuses)
	}
	if processor.lastInput.FileID != "d1" {
		t.Fatalf("processor input file id = %s, want d1", processor.lastInput.FileID)
	}
	if string(processor.lastInput.Content) != "%PDF-1.7 body" {
		t.Fatalf("processor did not receive stored content")
	}
	if !processor.lastFlags.UsePipeline {
		t.Fatalf("configured default flags not forwarded")
	}
	if _, ok := repo.saved["d1"]; !ok {
		t.Fatalf("result not saved")
	}
}

func TestProcessByIDMissingDocumentMarksFailed(t *testing.T) {
	repo := newFakeDocumentRepo()
	storage := newFakeStorage()
	uc := NewProcessUseCase(repo, storage, &fakeProcessor{}, domain.ProcessingFlags{})

	err := uc.ProcessByID(context.Background(), "absent")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "fetch document") {
		t.Fatalf("error = %v", err)
	}
	if len(repo.statuses) != 2 || repo.statuses[1] != domain.StatusFailed {
		t.Fatalf("statuses = %v, want [processing failed]", repo.statuses)
	}
}

func TestProcessUploadAppliesOverrides(t *testing.T) {
	processor := &fakeProcessor{}
	uc := NewProcessUseCase(newFakeDocumentRepo(), newFakeStorage(), processor,
		domain.ProcessingFlags{UsePipeline: true, TermAutoSave: true})

	uc.ProcessUpload(context.Background(), domain.ProcessFileInput{FileID: "f1"},
		func(flags *domain.ProcessingFlags) {
			flags.ForceLegacy = true
			flags.TermAutoSave = false
		})

	if !processor.lastFlags.ForceLegacy {
		t.Fatalf("override not applied")
	}
	if processor.lastFlags.TermAutoSave {
		t.Fatalf("override did not clear term auto-save")
	}
	if !processor.lastFlags.UsePipeline {
		t.Fatalf("untouched default lost")
	}
}

func TestProcessBatchForwardsDefaults(t *testing.T) {
	processor := &fakeProcessor{}
	uc := NewProcessUseCase(newFakeDocumentRepo(), newFakeStorage(), processor,
		domain.ProcessingFlags{VisionEnabled: true})

	results := uc.ProcessBatch(context.Background(), []domain.ProcessFileInput{
		{FileID: "f1"}, {FileID: "f2"},
	})

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if !processor.lastFlags.VisionEnabled {
		t.Fatalf("defaults not forwarded to batch")
	}
}

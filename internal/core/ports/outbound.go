package ports

import (
	"context"
	"io"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveResult(ctx context.Context, id string, result *domain.ProcessResult) error
	ListProcessed(ctx context.Context, limit int) ([]domain.Document, error)
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes processing events.
type MessageQueue interface {
	PublishDocumentUploaded(ctx context.Context, documentID string) error
	SubscribeDocumentUploaded(ctx context.Context, handler func(context.Context, string) error) error
}

// StructuredExtractor is the primary OCR-style extractor: structured
// key/value data, line items and a confidence signal for digital text.
type StructuredExtractor interface {
	Extract(ctx context.Context, input domain.ProcessFileInput) (*domain.StructuredExtraction, error)
}

// VisionExtractor wraps the vision model. Classify is the cheap pass used
// by the dual strategy; ExtractAll performs classification and full field
// extraction in one call, optionally steered by a custom prompt.
type VisionExtractor interface {
	Classify(ctx context.Context, input domain.ProcessFileInput) (*domain.VisionClassification, error)
	ExtractAll(ctx context.Context, input domain.ProcessFileInput, prompt string) (*domain.VisionExtraction, error)
}

// FileTypeDetector classifies the upload into a digital, scanned or image
// file type from its bytes and declared MIME type. ProbeText returns the
// embedded text layer of a digital document (empty for scans/images); it
// is the cheap pass the dual strategy identifies the issuer with.
type FileTypeDetector interface {
	Detect(ctx context.Context, input domain.ProcessFileInput) (domain.FileType, error)
	ProbeText(ctx context.Context, input domain.ProcessFileInput) (string, error)
}

// IssuerResolver identifies the issuing company from document text.
type IssuerResolver interface {
	Identify(ctx context.Context, text string) (*domain.IssuerIdentification, error)
}

// FormatResolver matches a document to a known layout for its company, or
// creates one when allowed.
type FormatResolver interface {
	Match(ctx context.Context, companyID string, classification *domain.VisionClassification, text string) (*domain.FormatMatch, error)
}

// ConfigResolver returns layered prompt text and mapping rules with
// provenance of the winning layer.
type ConfigResolver interface {
	Resolve(ctx context.Context, documentID, companyID, formatID string) (*domain.ResolvedConfig, error)
}

// AccuracyStats reports a field's historical extraction accuracy.
type AccuracyStats interface {
	FieldAccuracy(ctx context.Context, fieldName, companyID string) (accuracy float64, sampleSize int, err error)
}

// TermStore persists vocabulary terms per company+format.
type TermStore interface {
	ListTerms(ctx context.Context, companyID, formatID string) ([]domain.StoredTerm, error)
	UpsertTerm(ctx context.Context, term domain.StoredTerm) error
	IncrementOccurrences(ctx context.Context, termID string, by int) error
	QueueSynonymCandidate(ctx context.Context, candidate domain.SynonymCandidate, companyID, formatID string) error
}

// ProgressNotifier receives intermediate status signals for steps
// designated as user-visible progress points.
type ProgressNotifier interface {
	StepStarted(ctx context.Context, fileID string, step domain.StepID)
}
